// Package compositor drives the batch: every background is combined with every
// subject a configured number of times, each composite is saved and one
// annotation per saved image is collected.
package compositor

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/image-superimposer/internal/config"
	"github.com/menta2k/image-superimposer/internal/log"
	"github.com/menta2k/image-superimposer/internal/utils"
	"github.com/menta2k/image-superimposer/pkg/colortemp"
	"github.com/menta2k/image-superimposer/pkg/placement"
	"github.com/menta2k/image-superimposer/pkg/processing"
	"github.com/menta2k/image-superimposer/pkg/types"
)

// Stats summarizes a run
type Stats struct {
	Backgrounds int
	Subjects    int
	Written     int
	Skipped     int
	Elapsed     time.Duration
}

// Compositor generates composites and annotations from a fixed configuration
type Compositor struct {
	cfg       config.Config
	processor *processing.Processor
	selector  *placement.Selector
	mode      processing.PasteMode
}

// New creates a Compositor. cfg is copied; later changes to it have no effect.
// Out of range insets are dropped with a warning.
func New(cfg config.Config) (*Compositor, error) {
	cfg.SanitizeInsets()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	processor, err := processing.NewProcessorWithOptions(processing.Options{
		Quality:  cfg.Output.Quality,
		Lossless: cfg.Output.Lossless,
		Filter:   cfg.Output.Filter,
	})
	if err != nil {
		return nil, err
	}

	mode, err := processing.ParsePasteMode(cfg.Generation.PasteMode)
	if err != nil {
		return nil, err
	}

	seed := cfg.Generation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Debugf("Using seed: %d", seed)

	selector, err := placement.NewWithBounds(seed, cfg.Generation.ScaleMin, cfg.Generation.ScaleMax)
	if err != nil {
		return nil, err
	}

	return &Compositor{
		cfg:       cfg,
		processor: processor,
		selector:  selector,
		mode:      mode,
	}, nil
}

// source is a decoded input image with its filename split up
type source struct {
	img  image.Image
	stem string
	ext  string
}

// Run generates every composite, writes annotations.json and returns the
// collected annotations in generation order. An error means the batch was
// aborted and no annotations file was written.
func (c *Compositor) Run() ([]types.Annotation, Stats, error) {
	var stats Stats
	annotations := make([]types.Annotation, 0)

	log.Debugf("Using label: %s", c.cfg.Label)
	if insets := c.cfg.Generation.Insets; !insets.IsZero() {
		log.Debugf("Using insets: %+v", insets)
	}

	destDir := c.cfg.GeneratedDir()
	if utils.DirExists(destDir) {
		log.Debugf("Destination directory %s exists, no action", destDir)
	} else if err := utils.EnsureDir(destDir); err != nil {
		return nil, stats, fmt.Errorf("failed to create destination directory: %w", err)
	}
	if c.cfg.Output.Debug {
		if err := utils.EnsureDir(c.cfg.DebugDir()); err != nil {
			return nil, stats, fmt.Errorf("failed to create debug directory: %w", err)
		}
	}

	backgrounds, err := utils.ListFiles(c.cfg.BackgroundDir())
	if err != nil {
		return nil, stats, fmt.Errorf("failed to list backgrounds: %w", err)
	}
	subjects, err := utils.ListFiles(c.cfg.SubjectDir())
	if err != nil {
		return nil, stats, fmt.Errorf("failed to list subjects: %w", err)
	}

	log.Infof("===================Begin Image Processing===================")
	started := time.Now()
	seenSubjects := map[string]bool{}

	for _, bkgdFile := range backgrounds {
		bkgd, ok := c.open(c.cfg.BackgroundDir(), bkgdFile, "background")
		if !ok {
			continue
		}
		stats.Backgrounds++

		for _, subjFile := range subjects {
			subj, ok := c.open(c.cfg.SubjectDir(), subjFile, "subject")
			if !ok {
				continue
			}
			if !seenSubjects[subjFile] {
				seenSubjects[subjFile] = true
				stats.Subjects++
			}

			for i := 0; i < c.cfg.Generation.Variations; i++ {
				log.Debugf("Started variation: %d", i)

				ann, saved, err := c.variation(bkgd, subj, i)
				if err != nil {
					return nil, stats, err
				}
				if !saved {
					stats.Skipped++
					continue
				}
				annotations = append(annotations, ann)
				stats.Written++
			}
			log.Debugf("Done with subject: %s", subj.stem)
		}
		log.Debugf("Done with background: %s", bkgd.stem)
	}

	stats.Elapsed = time.Since(started)
	log.Infof("====================End Image Processing====================")
	log.Infof("Elapsed Time: %0.4fs", stats.Elapsed.Seconds())
	log.Infof("Backgrounds: %d, subjects: %d, written: %d, skipped: %d",
		stats.Backgrounds, stats.Subjects, stats.Written, stats.Skipped)

	if err := WriteAnnotations(c.cfg.AnnotationsPath(), annotations); err != nil {
		return nil, stats, err
	}

	return annotations, stats, nil
}

// open decodes an input image and applies the color temperature. Files that
// are not decodable images are skipped.
func (c *Compositor) open(dir, name, kind string) (source, bool) {
	log.Debugf("Opening %s file: %s", kind, name)

	img, err := c.processor.LoadImage(filepath.Join(dir, name))
	if err != nil {
		log.Warningf("Skipping %s %s: %v", kind, name, err)
		return source{}, false
	}

	stem, ext := utils.SplitExt(name)
	log.Debugf("Stripped %s ext: %s", kind, ext)

	if kelvin := c.cfg.Generation.ColorTemp; kelvin != 0 {
		converted, err := colortemp.Convert(img, kelvin)
		if err != nil {
			log.Warningf("Skipping %s %s: %v", kind, name, err)
			return source{}, false
		}
		img = converted
	}

	return source{img: img, stem: stem, ext: ext}, true
}

// variation produces a single composite. saved is false when the composite
// could not be written; err is only returned for failures that abort the run.
func (c *Compositor) variation(bkgd, subj source, index int) (types.Annotation, bool, error) {
	genExt := bkgd.ext
	if c.cfg.Output.Format != "" {
		genExt = strings.ToLower(c.cfg.Output.Format)
	}
	filename := utils.GenerateOutputFilename(subj.stem, bkgd.stem, index, genExt)
	log.Debugf("Set generated filename: %s", filename)

	subjImg := subj.img
	size := subjImg.Bounds().Size()
	bkgdSize := bkgd.img.Bounds().Size()

	if !c.cfg.Generation.NoScale {
		var pct int
		size, pct = c.selector.Scale(size, bkgdSize.Y)
		log.Debugf("Set subject scale: %d%%", pct)
		log.Debugf("Set subject sizes (w x h): (%d, %d)", size.X, size.Y)
		subjImg = c.processor.Resize(subjImg, size)
	}

	pos, err := c.selector.Place(size, bkgdSize)
	if err != nil {
		return types.Annotation{}, false, fmt.Errorf("failed to place %s: %w", filename, err)
	}
	log.Debugf("Set subject position (x, y): (%d, %d)", pos.X, pos.Y)

	box := placement.AnnotationBox(pos, size, c.cfg.Generation.Insets)
	log.Debugf("Set annotation box: %+v", box)

	composite := c.processor.Composite(bkgd.img, subjImg, pos, c.mode)

	format, err := processing.ResolveFormat(c.cfg.Output.Format, bkgd.ext)
	if err == nil {
		err = c.processor.SaveImage(composite, filepath.Join(c.cfg.GeneratedDir(), filename), format)
	}
	if err != nil {
		if errors.Is(err, processing.ErrUnknownFormat) {
			log.Infof("Unable to determine file format")
		} else {
			log.Infof("Unable to write composite image to disk: %s: %v", filename, err)
		}
		log.Warningf("Skipping: %s", filename)
		return types.Annotation{}, false, nil
	}

	if c.cfg.Output.Debug {
		pasted := types.Box{X: pos.X, Y: pos.Y, Width: size.X, Height: size.Y}
		c.writeDebugOverlay(composite, pasted, box, filename)
	}

	return types.NewAnnotation(c.cfg.Label, filename, box.Coordinates()), true, nil
}

func (c *Compositor) writeDebugOverlay(composite image.Image, pasted, annotated types.Box, filename string) {
	overlay := c.processor.CreateDebugOverlay(composite, pasted, annotated)
	path := filepath.Join(c.cfg.DebugDir(), filename+".debug.png")

	format, err := processing.ParseFormat("png")
	if err == nil {
		err = c.processor.SaveImage(overlay, path, format)
	}
	if err != nil {
		log.Warningf("debug overlay save failed: %v", err)
		return
	}
	log.Debugf("wrote %s", path)
}

// WriteAnnotations writes the annotation array as one JSON document. The file
// is replaced atomically.
func WriteAnnotations(path string, annotations []types.Annotation) error {
	if annotations == nil {
		annotations = []types.Annotation{}
	}

	data, err := json.Marshal(annotations)
	if err != nil {
		return fmt.Errorf("failed to marshal annotations: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write annotations: %w", err)
	}

	log.Debugf("Wrote annotations to file: %s (%s)", filepath.Base(path), utils.FormatFileSize(int64(len(data))))
	return nil
}

// LoadAnnotations reads an annotations file written by WriteAnnotations
func LoadAnnotations(path string) ([]types.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	var annotations []types.Annotation
	if err := json.Unmarshal(data, &annotations); err != nil {
		return nil, fmt.Errorf("failed to parse annotations: %w", err)
	}
	return annotations, nil
}
