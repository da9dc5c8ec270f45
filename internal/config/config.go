package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/image-superimposer/internal/log"
	"github.com/menta2k/image-superimposer/pkg/colortemp"
	"github.com/menta2k/image-superimposer/pkg/placement"
	"github.com/menta2k/image-superimposer/pkg/processing"
	"github.com/menta2k/image-superimposer/pkg/types"
)

// Directory layout under the image root
const (
	SubjectDir      = "subject"
	BackgroundDir   = "background"
	GeneratedDir    = "generated"
	DebugDir        = "debug"
	AnnotationsFile = "annotations.json"
)

// DefaultVariations is the number of composites per subject/background pair
const DefaultVariations = 10

// Config holds the application configuration
type Config struct {
	Label      string           `json:"label"`
	Paths      PathsConfig      `json:"paths"`
	Generation GenerationConfig `json:"generation"`
	Output     OutputConfig     `json:"output"`
	Logging    LoggingConfig    `json:"logging"`
}

// PathsConfig holds the filesystem layout
type PathsConfig struct {
	Root string `json:"root"`
}

// GenerationConfig holds configuration for composite generation
type GenerationConfig struct {
	Variations int          `json:"variations"`
	NoScale    bool         `json:"no_scale"`
	ScaleMin   int          `json:"scale_min"`
	ScaleMax   int          `json:"scale_max"`
	Seed       int64        `json:"seed"`
	Insets     types.Insets `json:"insets"`
	ColorTemp  int          `json:"color_temp"`
	PasteMode  string       `json:"paste_mode"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
	Filter   string `json:"filter"`
	Debug    bool   `json:"debug"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Verbose int    `json:"verbose"`
	Quiet   int    `json:"quiet"`
	File    string `json:"file"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Root: "img",
		},
		Generation: GenerationConfig{
			Variations: DefaultVariations,
			ScaleMin:   placement.ScaleMin,
			ScaleMax:   placement.ScaleMax,
			PasteMode:  string(processing.PasteReplace),
		},
		Output: OutputConfig{
			Quality: 95,
			Filter:  "lanczos",
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SanitizeInsets drops every inset outside 1..99 with a warning. Zero is
// treated as "no inset" and passes silently.
func (c *Config) SanitizeInsets() {
	in := &c.Generation.Insets
	in.Top = sanitizeInset("top", in.Top)
	in.Right = sanitizeInset("right", in.Right)
	in.Bottom = sanitizeInset("bottom", in.Bottom)
	in.Left = sanitizeInset("left", in.Left)
}

func sanitizeInset(side string, pct int) int {
	if pct != 0 && (pct > 99 || pct < 1) {
		log.Warningf("Ignoring %s inset of %d%%", side, pct)
		return 0
	}
	return pct
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("label cannot be empty")
	}

	if c.Paths.Root == "" {
		return fmt.Errorf("paths.root cannot be empty")
	}

	if c.Generation.Variations < 0 {
		return fmt.Errorf("generation.variations must not be negative")
	}

	if c.Generation.ScaleMin < 1 || c.Generation.ScaleMax > 100 || c.Generation.ScaleMin > c.Generation.ScaleMax {
		return fmt.Errorf("generation.scale_min and scale_max must satisfy 1 <= min <= max <= 100")
	}

	if c.Generation.ColorTemp != 0 && !colortemp.IsValid(c.Generation.ColorTemp) {
		return fmt.Errorf("generation.color_temp must be one of %v", colortemp.Temperatures())
	}

	if _, err := processing.ParsePasteMode(c.Generation.PasteMode); err != nil {
		return fmt.Errorf("generation.paste_mode: %w", err)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if _, err := processing.ParseFilter(c.Output.Filter); err != nil {
		return fmt.Errorf("output.filter: %w", err)
	}

	return nil
}

// SubjectDir returns the directory holding subject images
func (c *Config) SubjectDir() string {
	return filepath.Join(c.Paths.Root, SubjectDir)
}

// BackgroundDir returns the directory holding background images
func (c *Config) BackgroundDir() string {
	return filepath.Join(c.Paths.Root, BackgroundDir)
}

// GeneratedDir returns the destination directory for composites
func (c *Config) GeneratedDir() string {
	return filepath.Join(c.Paths.Root, GeneratedDir)
}

// DebugDir returns the destination directory for debug overlays
func (c *Config) DebugDir() string {
	return filepath.Join(c.GeneratedDir(), DebugDir)
}

// AnnotationsPath returns the path of the annotations file
func (c *Config) AnnotationsPath() string {
	return filepath.Join(c.GeneratedDir(), AnnotationsFile)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-superimposer", "config.json")
}
