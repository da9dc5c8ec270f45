// Package placement picks where and how large a subject lands on a background
// and derives the annotated bounding box for it.
//
// The visual paste always uses the full subject rectangle. The annotated box is
// trimmed by the configured insets, so it can be tighter than the pixels that
// were actually pasted.
package placement

import (
	"errors"
	"fmt"
	"image"
	"math/rand"

	"github.com/menta2k/image-superimposer/pkg/types"
)

// Default scale bounds, as a percentage of the background height
const (
	ScaleMin = 5
	ScaleMax = 80
)

// ErrOutOfBounds is returned when the subject does not fit on the background
var ErrOutOfBounds = errors.New("subject larger than background")

// Selector draws random scales and positions from a seeded source
type Selector struct {
	rng      *rand.Rand
	scaleMin int
	scaleMax int
}

// New creates a Selector with the default scale bounds
func New(seed int64) *Selector {
	return &Selector{
		rng:      rand.New(rand.NewSource(seed)),
		scaleMin: ScaleMin,
		scaleMax: ScaleMax,
	}
}

// NewWithBounds creates a Selector with custom scale bounds in percent
func NewWithBounds(seed int64, scaleMin, scaleMax int) (*Selector, error) {
	if scaleMin < 1 || scaleMax < scaleMin {
		return nil, fmt.Errorf("invalid scale bounds [%d, %d]", scaleMin, scaleMax)
	}
	return &Selector{
		rng:      rand.New(rand.NewSource(seed)),
		scaleMin: scaleMin,
		scaleMax: scaleMax,
	}, nil
}

// randInt returns a uniform integer in [lo, hi]
func (s *Selector) randInt(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

// ScalePercent picks the subject height as a percentage of the background height
func (s *Selector) ScalePercent() int {
	return s.randInt(s.scaleMin, s.scaleMax)
}

// Scale picks a random percent and returns it with the resulting subject size
func (s *Selector) Scale(subject image.Point, backgroundHeight int) (image.Point, int) {
	pct := s.ScalePercent()
	return ScaledSize(subject, backgroundHeight, pct), pct
}

// ScaledSize sizes the subject so its height is pct percent of the background
// height, keeping the subject's aspect ratio.
func ScaledSize(subject image.Point, backgroundHeight, pct int) image.Point {
	scale := float64(pct) / 100
	target := float64(backgroundHeight) * scale

	w := int(float64(subject.X) * target / float64(subject.Y))
	h := int(target)

	// imaging treats a zero dimension as "keep aspect ratio"
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Pt(w, h)
}

// Place picks the top-left paste position so the subject stays inside the
// background.
func (s *Selector) Place(subject, background image.Point) (image.Point, error) {
	dx := background.X - subject.X
	dy := background.Y - subject.Y
	if dx < 0 || dy < 0 {
		return image.Point{}, fmt.Errorf("%w: subject %dx%d, background %dx%d",
			ErrOutOfBounds, subject.X, subject.Y, background.X, background.Y)
	}
	return image.Pt(s.randInt(0, dx), s.randInt(0, dy)), nil
}

// trim removes pct percent of dim, truncating toward zero
func trim(dim, pct int) int {
	return int(float64(pct) / 100 * float64(dim))
}

// InsetSize shrinks the subject box by the insets. Width loses the right inset
// and then the left inset of what remains; height loses top then bottom.
func InsetSize(subject image.Point, insets types.Insets) image.Point {
	w, h := subject.X, subject.Y
	if insets.Right != 0 {
		w -= trim(w, insets.Right)
	}
	if insets.Left != 0 {
		w -= trim(w, insets.Left)
	}
	if insets.Top != 0 {
		h -= trim(h, insets.Top)
	}
	if insets.Bottom != 0 {
		h -= trim(h, insets.Bottom)
	}
	return image.Pt(w, h)
}

// InsetOrigin moves the paste position to the annotated origin. x moves right
// by the left inset; y moves up by the top inset. Both are measured against the
// full subject size.
func InsetOrigin(pos, subject image.Point, insets types.Insets) image.Point {
	if insets.Left != 0 {
		pos.X += trim(subject.X, insets.Left)
	}
	if insets.Top != 0 {
		pos.Y -= trim(subject.Y, insets.Top)
	}
	return pos
}

// AnnotationBox combines InsetOrigin and InsetSize for a pasted subject
func AnnotationBox(pos, subject image.Point, insets types.Insets) types.Box {
	origin := InsetOrigin(pos, subject, insets)
	size := InsetSize(subject, insets)
	return types.Box{X: origin.X, Y: origin.Y, Width: size.X, Height: size.Y}
}
