// Package colortemp shifts images toward a blackbody color temperature.
package colortemp

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// RGB is a whitepoint triple for a temperature
type RGB struct {
	R, G, B uint8
}

// Temperature range accepted by the normalizer, in Kelvin
const (
	MinKelvin  = 1000
	MaxKelvin  = 10000
	StepKelvin = 500
)

// whitepoints from http://www.vendian.org/mncharity/dir3/blackbody/
var whitepoints = map[int]RGB{
	1000:  {255, 56, 0},
	1500:  {255, 109, 0},
	2000:  {255, 137, 18},
	2500:  {255, 161, 72},
	3000:  {255, 180, 107},
	3500:  {255, 196, 137},
	4000:  {255, 209, 163},
	4500:  {255, 219, 186},
	5000:  {255, 228, 206},
	5500:  {255, 236, 224},
	6000:  {255, 243, 239},
	6500:  {255, 249, 253},
	7000:  {245, 243, 255},
	7500:  {235, 238, 255},
	8000:  {227, 233, 255},
	8500:  {220, 229, 255},
	9000:  {214, 225, 255},
	9500:  {208, 222, 255},
	10000: {204, 219, 255},
}

// Temperatures returns the supported temperatures in ascending order
func Temperatures() []int {
	temps := make([]int, 0, len(whitepoints))
	for k := range whitepoints {
		temps = append(temps, k)
	}
	sort.Ints(temps)
	return temps
}

// IsValid reports whether kelvin has a whitepoint
func IsValid(kelvin int) bool {
	_, ok := whitepoints[kelvin]
	return ok
}

// Whitepoint returns the RGB triple for kelvin
func Whitepoint(kelvin int) (RGB, error) {
	wp, ok := whitepoints[kelvin]
	if !ok {
		return RGB{}, fmt.Errorf("unsupported color temperature %dK (want %d..%d in steps of %d)",
			kelvin, MinKelvin, MaxKelvin, StepKelvin)
	}
	return wp, nil
}

// Matrix returns the diagonal channel multipliers for kelvin
func Matrix(kelvin int) ([3]float64, error) {
	wp, err := Whitepoint(kelvin)
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{
		float64(wp.R) / 255.0,
		float64(wp.G) / 255.0,
		float64(wp.B) / 255.0,
	}, nil
}

// Convert multiplies every channel of img by the whitepoint of kelvin.
// Alpha is kept as is.
func Convert(img image.Image, kelvin int) (*image.NRGBA, error) {
	m, err := Matrix(kelvin)
	if err != nil {
		return nil, err
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: scale(c.R, m[0]),
			G: scale(c.G, m[1]),
			B: scale(c.B, m[2]),
			A: c.A,
		}
	}), nil
}

func scale(v uint8, f float64) uint8 {
	return uint8(math.Min(255, math.Floor(float64(v)*f+0.5)))
}
