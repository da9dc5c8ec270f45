// Package imagesuperimposer synthesizes labeled object-detection training
// images by pasting subject images onto background images.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		imagesuperimposer "github.com/menta2k/image-superimposer"
//	)
//
//	func main() {
//		cfg := imagesuperimposer.DefaultConfig()
//		cfg.Label = "cat"
//		cfg.Paths.Root = "img"
//		cfg.Generation.Variations = 5
//
//		annotations, stats, err := imagesuperimposer.Generate(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("wrote %d images (%d skipped)\n", len(annotations), stats.Skipped)
//	}
//
// Every background in img/background is combined with every subject in
// img/subject. Each combination is rendered Variations times with a random
// subject scale (5% to 80% of the background height) and a random position
// that keeps the subject inside the background. Composites and a CreateML
// annotations.json are written to img/generated.
//
// Components:
//
//  1. Placement (pkg/placement): scale and position selection, inset-adjusted boxes
//  2. Color temperature (pkg/colortemp): optional whitepoint shift of inputs
//  3. Processing (pkg/processing): image loading, compositing, encoding
//  4. Compositor (pkg/compositor): the batch driver and annotation writer
//
// Insets trim the annotated box without changing the pasted pixels, which is
// useful when subject images carry a margin around the object.
package imagesuperimposer

import (
	"github.com/menta2k/image-superimposer/internal/config"
	"github.com/menta2k/image-superimposer/pkg/compositor"
	"github.com/menta2k/image-superimposer/pkg/types"
)

// Version of the image superimposer library
const Version = "1.0.0"

// Config is the run configuration
type Config = config.Config

// Annotation is one CreateML annotation entry
type Annotation = types.Annotation

// Stats summarizes a run
type Stats = compositor.Stats

// DefaultConfig returns a configuration with default values. Label must be
// set before use.
func DefaultConfig() Config {
	return *config.Default()
}

// LoadConfig loads a JSON configuration file on top of the defaults
func LoadConfig(path string) (Config, error) {
	c, err := config.LoadFromFile(path)
	if err != nil {
		return Config{}, err
	}
	return *c, nil
}

// Generate runs a full batch and returns the annotations that were written
func Generate(cfg Config) ([]Annotation, Stats, error) {
	comp, err := compositor.New(cfg)
	if err != nil {
		return nil, Stats{}, err
	}
	return comp.Run()
}

// LoadAnnotations reads a previously written annotations file
func LoadAnnotations(path string) ([]Annotation, error) {
	return compositor.LoadAnnotations(path)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
