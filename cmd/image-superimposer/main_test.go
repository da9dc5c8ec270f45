package main

import (
	"bytes"
	"flag"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-superimposer/internal/config"
	"github.com/menta2k/image-superimposer/internal/log"
	"github.com/menta2k/image-superimposer/pkg/compositor"
	"github.com/menta2k/image-superimposer/pkg/placement"
)

func writeImage(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
}

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeImage(t, filepath.Join(root, config.SubjectDir, "cat.png"), 40, 30, color.NRGBA{255, 0, 0, 255})
	writeImage(t, filepath.Join(root, config.BackgroundDir, "room.jpg"), 320, 240, color.NRGBA{0, 0, 255, 255})
	return root
}

func TestCounter(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts, &bytes.Buffer{})

	require.NoError(t, fs.Parse([]string{"-v", "-verbose", "-q"}))
	assert.Equal(t, counter(2), opts.verbose)
	assert.Equal(t, counter(1), opts.quiet)
}

func TestParseArgsStackedCounters(t *testing.T) {
	tests := []struct {
		args    []string
		verbose counter
		quiet   counter
		label   string
	}{
		{[]string{"-vv", "cat"}, 2, 0, "cat"},
		{[]string{"cat", "-vvv", "-q"}, 3, 1, "cat"},
		{[]string{"-qq", "-v", "cat"}, 1, 2, "cat"},
		{[]string{"-vq", "cat"}, 1, 1, "cat"},
		// after the terminator a stacked token is the label
		{[]string{"--", "-vv"}, 0, 0, "-vv"},
	}

	for _, tt := range tests {
		var opts options
		fs := newFlagSet(&opts, &bytes.Buffer{})

		positional, err := parseArgs(fs, tt.args)
		require.NoError(t, err, "%v", tt.args)
		assert.Equal(t, []string{tt.label}, positional, "%v", tt.args)
		assert.Equal(t, tt.verbose, opts.verbose, "%v", tt.args)
		assert.Equal(t, tt.quiet, opts.quiet, "%v", tt.args)
	}
}

func TestRunStackedVerbose(t *testing.T) {
	defer log.SetLevel(log.DefaultLevel)
	root := setupRoot(t)

	require.NoError(t, run([]string{"-dir", root, "-n", "1", "-vv", "cat"}, &bytes.Buffer{}))
	assert.Equal(t, log.DEBUG, log.GetLevel())
}

func TestParseArgsInterspersed(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts, &bytes.Buffer{})

	positional, err := parseArgs(fs, []string{"-n", "3", "cat", "-f", "png", "-inset-top", "10"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, positional)
	assert.Equal(t, 3, opts.variations)
	assert.Equal(t, "png", opts.outputFmt)
	assert.Equal(t, 10, opts.insetTop)
}

func TestApplyFlagsOnlyOverridesSetFlags(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts, &bytes.Buffer{})
	_, err := parseArgs(fs, []string{"-seed", "7", "-paste-mode", "blend"})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Generation.Variations = 4
	cfg.Output.Quality = 80
	applyFlags(fs, &opts, cfg)

	assert.Equal(t, int64(7), cfg.Generation.Seed)
	assert.Equal(t, "blend", cfg.Generation.PasteMode)
	// untouched values come from the config, not the flag defaults
	assert.Equal(t, 4, cfg.Generation.Variations)
	assert.Equal(t, 80, cfg.Output.Quality)
}

func TestRun(t *testing.T) {
	defer log.SetLevel(log.DefaultLevel)
	root := setupRoot(t)

	err := run([]string{"-dir", root, "-n", "2", "-seed", "1", "-f", "PNG", "-q", "cat"}, &bytes.Buffer{})
	require.NoError(t, err)

	anns, err := compositor.LoadAnnotations(filepath.Join(root, config.GeneratedDir, config.AnnotationsFile))
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, "cat.room.0.png", anns[0].ImageFilename)
	assert.Equal(t, "cat", anns[0].Annotation[0].Label)
	assert.Equal(t, log.ERROR, log.GetLevel())
}

func TestRunWithConfigFile(t *testing.T) {
	defer log.SetLevel(log.DefaultLevel)
	root := setupRoot(t)

	cfg := config.Default()
	cfg.Paths.Root = root
	cfg.Generation.Variations = 1
	cfg.Generation.Seed = 3
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, cfg.SaveToFile(cfgPath))

	require.NoError(t, run([]string{"-config", cfgPath, "-n", "3", "cat"}, &bytes.Buffer{}))

	anns, err := compositor.LoadAnnotations(filepath.Join(root, config.GeneratedDir, config.AnnotationsFile))
	require.NoError(t, err)
	assert.Len(t, anns, 3)
}

func TestRunRequiresLabel(t *testing.T) {
	var usage bytes.Buffer
	err := run([]string{"-n", "1"}, &usage)
	assert.Error(t, err)
	assert.Contains(t, usage.String(), "usage: image-superimposer")
}

func TestRunRejectsInvalidColorTemp(t *testing.T) {
	root := setupRoot(t)
	err := run([]string{"-dir", root, "-color-temp", "6400", "cat"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "color_temp")
}

func TestRunOutOfBounds(t *testing.T) {
	defer log.SetLevel(log.DefaultLevel)
	root := t.TempDir()
	writeImage(t, filepath.Join(root, config.SubjectDir, "big.png"), 400, 400, color.NRGBA{255, 0, 0, 255})
	writeImage(t, filepath.Join(root, config.BackgroundDir, "small.png"), 100, 100, color.NRGBA{0, 0, 255, 255})

	err := run([]string{"-dir", root, "-no-scale", "-q", "-q", "big"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, placement.ErrOutOfBounds)
	assert.NoFileExists(t, filepath.Join(root, config.GeneratedDir, config.AnnotationsFile))
}

func TestHelp(t *testing.T) {
	err := run([]string{"-h"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, flag.ErrHelp)
}
