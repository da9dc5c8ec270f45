package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(l)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(DefaultLevel)
	})
	return &buf
}

func TestLevelFromCounts(t *testing.T) {
	tests := []struct {
		name    string
		verbose int
		quiet   int
		want    Level
	}{
		{"default", 0, 0, WARNING},
		{"one verbose", 1, 0, INFO},
		{"two verbose", 2, 0, DEBUG},
		{"verbose floors at debug", 5, 0, DEBUG},
		{"one quiet", 0, 1, ERROR},
		{"two quiet", 0, 2, CRITICAL},
		{"verbose wins over quiet", 1, 3, INFO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromCounts(tt.verbose, tt.quiet))
		})
	}
}

func TestThreshold(t *testing.T) {
	buf := capture(t, WARNING)

	Debugf("hidden %d", 1)
	Infof("hidden %d", 2)
	Warningf("Ignoring top inset of %d%%", 150)
	Errorf("boom")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARNING: Ignoring top inset of 150%\n")
	assert.Contains(t, buf.String(), "ERROR: boom\n")
}

func TestDebugLevel(t *testing.T) {
	buf := capture(t, DEBUG)

	Debugf("Using label: %s", "cat")
	assert.Equal(t, "DEBUG: Using label: cat\n", buf.String())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "INFO", INFO.String())
	assert.Equal(t, "Level 60", Level(60).String())
}

func TestEnableFile(t *testing.T) {
	_, err := EnableFile("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "superimposer.log")
	closer, err := EnableFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	SetLevel(INFO)
	t.Cleanup(func() { SetLevel(DefaultLevel) })
	Infof("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: written to file")
}
