package processing

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-superimposer/internal/utils"
	"github.com/menta2k/image-superimposer/pkg/types"
)

// ErrUnknownFormat is returned when no encoder matches a format name or extension
var ErrUnknownFormat = errors.New("unable to determine file format")

// PasteMode controls how subject pixels are combined with the background
type PasteMode string

const (
	// PasteReplace copies subject pixels over the background, alpha included
	PasteReplace PasteMode = "paste"
	// PasteBlend alpha-composites the subject onto the background
	PasteBlend PasteMode = "blend"
)

// ParsePasteMode validates a paste mode name
func ParsePasteMode(s string) (PasteMode, error) {
	switch PasteMode(strings.ToLower(s)) {
	case PasteReplace, "":
		return PasteReplace, nil
	case PasteBlend:
		return PasteBlend, nil
	default:
		return "", fmt.Errorf("unknown paste mode %q (use %s or %s)", s, PasteReplace, PasteBlend)
	}
}

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

// ParseFilter maps a resampling filter name to its imaging filter
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return imaging.Lanczos, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
	return f, nil
}

// Format is a resolved output encoding
type Format struct {
	// Ext is the extension used for generated filenames, without the dot
	Ext string
	// Name is the canonical encoder name, e.g. "jpeg" or "webp"
	Name string

	encoder imaging.Format
	webp    bool
}

// ParseFormat resolves a format name or file extension ("JPEG", "jpg", ".png", "webp")
func ParseFormat(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(name, "."))
	if ext == "" {
		return Format{}, fmt.Errorf("%w: empty extension", ErrUnknownFormat)
	}
	if ext == "webp" {
		return Format{Ext: ext, Name: "webp", webp: true}, nil
	}

	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return Format{Ext: ext, Name: strings.ToLower(f.String()), encoder: f}, nil
}

// ResolveFormat picks the override format when given, else the format
// inherited from the background's extension.
func ResolveFormat(override, backgroundExt string) (Format, error) {
	if override != "" {
		return ParseFormat(override)
	}
	return ParseFormat(backgroundExt)
}

// Processor handles image loading, compositing and saving
type Processor struct {
	quality  int
	lossless bool
	filter   imaging.ResampleFilter
}

// Options configures output encoding and resampling
type Options struct {
	Quality  int
	Lossless bool
	// Filter is a resample filter name accepted by ParseFilter
	Filter string
}

// NewProcessor creates a new image processor with default options
func NewProcessor() *Processor {
	return &Processor{quality: 95, filter: imaging.Lanczos}
}

// NewProcessorWithOptions creates a processor with custom options
func NewProcessorWithOptions(opts Options) (*Processor, error) {
	filter, err := ParseFilter(opts.Filter)
	if err != nil {
		return nil, err
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", opts.Quality)
	}
	return &Processor{quality: opts.Quality, lossless: opts.Lossless, filter: filter}, nil
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if utils.GetFileExtension(path) == "webp" {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// Resize scales img to exactly size
func (p *Processor) Resize(img image.Image, size image.Point) *image.NRGBA {
	return imaging.Resize(img, size.X, size.Y, p.filter)
}

// Composite returns a copy of background with subject placed at pos.
// The background itself is never modified. In replace mode an opaque
// background stays opaque: the subject's color is copied and its alpha dropped.
func (p *Processor) Composite(background, subject image.Image, pos image.Point, mode PasteMode) *image.NRGBA {
	if mode == PasteBlend {
		return imaging.Overlay(background, subject, pos, 1.0)
	}
	if isOpaque(background) && !isOpaque(subject) {
		subject = imaging.AdjustFunc(subject, func(c color.NRGBA) color.NRGBA {
			c.A = 255
			return c
		})
	}
	return imaging.Paste(background, subject, pos)
}

func isOpaque(img image.Image) bool {
	o, ok := img.(interface{ Opaque() bool })
	return ok && o.Opaque()
}

// SaveImage encodes img to path in the given format. A partially written
// file is removed when encoding fails.
func (p *Processor) SaveImage(img image.Image, path string, format Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if format.webp {
		opts := &webp.Options{Lossless: p.lossless, Quality: float32(p.quality)}
		return webp.Encode(f, img, opts)
	}
	if format.Name == "" {
		return ErrUnknownFormat
	}
	return imaging.Encode(f, img, format.encoder, imaging.JPEGQuality(p.quality))
}

// CreateDebugOverlay draws the pasted subject rectangle and the annotated box
// on a copy of img. Boxes may extend past the image edges and are clipped.
func (p *Processor) CreateDebugOverlay(img image.Image, pasted, annotated types.Box) *image.NRGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	// gold marks the pasted subject, green the annotation
	gold := color.RGBA{255, 204, 0, 255}
	green := color.RGBA{0, 255, 0, 255}
	stroke := math.Max(2, math.Floor(0.004*float64(minInt(bounds.Dx(), bounds.Dy()))))

	gc := draw2dimg.NewGraphicContext(canvas)
	strokeBox(gc, pasted, gold, 1)
	strokeBox(gc, annotated, green, stroke)

	return imaging.Clone(canvas)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// strokeBox outlines box with a line of the given width drawn inside its edges
func strokeBox(gc *draw2dimg.GraphicContext, box types.Box, c color.Color, width float64) {
	half := width / 2
	x0, y0 := float64(box.X)+half, float64(box.Y)+half
	x1, y1 := float64(box.X+box.Width)-half, float64(box.Y+box.Height)-half
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}

	gc.BeginPath()
	gc.SetStrokeColor(c)
	gc.SetLineWidth(width)
	draw2dkit.Rectangle(gc, x0, y0, x1, y1)
	gc.Stroke()
}
