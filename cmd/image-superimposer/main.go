package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/menta2k/image-superimposer/internal/config"
	"github.com/menta2k/image-superimposer/internal/log"
	"github.com/menta2k/image-superimposer/internal/utils"
	"github.com/menta2k/image-superimposer/pkg/colortemp"
	"github.com/menta2k/image-superimposer/pkg/compositor"
)

// counter is a repeatable boolean flag: every -v adds one
type counter int

func (c *counter) String() string { return strconv.Itoa(int(*c)) }

func (c *counter) Set(s string) error {
	if s == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*c = counter(n)
	return nil
}

func (c *counter) IsBoolFlag() bool { return true }

type options struct {
	configPath string
	root       string
	outputFmt  string
	insetTop   int
	insetRight int
	insetBot   int
	insetLeft  int
	variations int
	noScale    bool
	colorTemp  int
	seed       int64
	pasteMode  string
	quality    int
	lossless   bool
	debug      bool
	logFile    string
	quiet      counter
	verbose    counter
}

func newFlagSet(opts *options, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("image-superimposer", flag.ContinueOnError)
	fs.SetOutput(out)

	temps := make([]string, 0)
	for _, t := range colortemp.Temperatures() {
		temps = append(temps, strconv.Itoa(t))
	}

	fs.StringVar(&opts.configPath, "config", "", "JSON config file (default "+config.GetConfigPath()+" when present)")
	fs.StringVar(&opts.root, "dir", "img", "image root holding subject/, background/ and generated/")

	fs.StringVar(&opts.outputFmt, "output-fmt", "", "format to save composites as, e.g. jpg|png|webp (default: background's format)")
	fs.StringVar(&opts.outputFmt, "f", "", "shorthand for -output-fmt")

	fs.IntVar(&opts.insetTop, "inset-top", 0, "percentage of the subject's height to exclude from the top of the annotation (1-99)")
	fs.IntVar(&opts.insetRight, "inset-right", 0, "percentage of the subject's width to exclude from the right of the annotation (1-99)")
	fs.IntVar(&opts.insetBot, "inset-bottom", 0, "percentage of the subject's height to exclude from the bottom of the annotation (1-99)")
	fs.IntVar(&opts.insetLeft, "inset-left", 0, "percentage of the subject's width to exclude from the left of the annotation (1-99)")

	fs.IntVar(&opts.variations, "variations", config.DefaultVariations, "number of variations for each subject and background pair")
	fs.IntVar(&opts.variations, "n", config.DefaultVariations, "shorthand for -variations")
	fs.BoolVar(&opts.noScale, "no-scale", false, "do not scale the subject (fails when the subject is larger than the background)")
	fs.IntVar(&opts.colorTemp, "color-temp", 0, "color temperature to convert all images to: "+strings.Join(temps, "|"))

	fs.Int64Var(&opts.seed, "seed", 0, "random seed, 0 seeds from the clock")
	fs.StringVar(&opts.pasteMode, "paste-mode", "paste", "how to combine subject pixels: paste|blend")
	fs.IntVar(&opts.quality, "quality", 95, "JPEG/WebP output quality (1-100)")
	fs.BoolVar(&opts.lossless, "lossless", false, "WebP output lossless mode")
	fs.BoolVar(&opts.debug, "debug", false, "write overlay images with the annotation box drawn")
	fs.StringVar(&opts.logFile, "log-file", "", "also write logs to this rotating file")

	fs.Var(&opts.quiet, "quiet", "decrease log verbosity, repeatable or stacked as -qq (-verbose takes precedence)")
	fs.Var(&opts.quiet, "q", "shorthand for -quiet")
	fs.Var(&opts.verbose, "verbose", "increase log verbosity, repeatable or stacked as -vv (takes precedence over -quiet)")
	fs.Var(&opts.verbose, "v", "shorthand for -verbose")

	fs.Usage = func() {
		fmt.Fprintf(out, "usage: image-superimposer [flags] label\n\n")
		fmt.Fprintf(out, "Generates composite photos for CreateML object recognition from subject and\nbackground images.\n\n")
		fs.PrintDefaults()
	}
	return fs
}

// expandStacked splits stacked counters like -vv or -qqq into single flags
func expandStacked(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if len(arg) > 2 && arg[0] == '-' && strings.Trim(arg[1:], "vq") == "" {
			for _, c := range arg[1:] {
				out = append(out, "-"+string(c))
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

// parseArgs parses flags that may appear before or after the positional label
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	args = expandStacked(args)
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// loadConfig picks the explicit config file, else the per-user one, else defaults
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	if def := config.GetConfigPath(); utils.FileExists(def) {
		return config.LoadFromFile(def)
	}
	return config.Default(), nil
}

// applyFlags copies every explicitly set flag over the loaded configuration
func applyFlags(fs *flag.FlagSet, opts *options, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Paths.Root = opts.root
		case "output-fmt", "f":
			cfg.Output.Format = opts.outputFmt
		case "inset-top":
			cfg.Generation.Insets.Top = opts.insetTop
		case "inset-right":
			cfg.Generation.Insets.Right = opts.insetRight
		case "inset-bottom":
			cfg.Generation.Insets.Bottom = opts.insetBot
		case "inset-left":
			cfg.Generation.Insets.Left = opts.insetLeft
		case "variations", "n":
			cfg.Generation.Variations = opts.variations
		case "no-scale":
			cfg.Generation.NoScale = opts.noScale
		case "color-temp":
			cfg.Generation.ColorTemp = opts.colorTemp
		case "seed":
			cfg.Generation.Seed = opts.seed
		case "paste-mode":
			cfg.Generation.PasteMode = opts.pasteMode
		case "quality":
			cfg.Output.Quality = opts.quality
		case "lossless":
			cfg.Output.Lossless = opts.lossless
		case "debug":
			cfg.Output.Debug = opts.debug
		case "log-file":
			cfg.Logging.File = opts.logFile
		case "quiet", "q":
			cfg.Logging.Quiet = int(opts.quiet)
		case "verbose", "v":
			cfg.Logging.Verbose = int(opts.verbose)
		}
	})
}

func run(args []string, stderr io.Writer) error {
	var opts options
	fs := newFlagSet(&opts, stderr)

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		fs.Usage()
		return errors.New("exactly one label is required")
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(fs, &opts, cfg)
	cfg.Label = positional[0]

	log.SetLevel(log.LevelFromCounts(cfg.Logging.Verbose, cfg.Logging.Quiet))
	if cfg.Logging.File != "" {
		closer, err := log.EnableFile(cfg.Logging.File)
		if err != nil {
			return err
		}
		defer closer.Close()
	}

	comp, err := compositor.New(*cfg)
	if err != nil {
		return err
	}

	_, _, err = comp.Run()
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("%v", err)
	}
}
