package brick

import (
	"math"

	"github.com/matzehuels/brickwall/pkg/errors"
)

// DefaultRowWidth is the default target row width in pixels.
const DefaultRowWidth = 800.0

// Scaler fits a row of natural sizes to a target width.
type Scaler struct {
	// Width is the target total row width.
	Width float64
	// Separation is the fixed gap between adjacent images. It is subtracted
	// (once per gap) from the nominal width before the row height is solved.
	Separation float64
}

// Scale returns the final size of every image in row. All results share
// one height and, with zero Separation, their widths sum to Width.
//
// Every image is first scaled to the height of the first one; the sum of
// those widths fixes the ratio between the reference height and the final
// height. row must be non-empty and every height must be positive.
func (s Scaler) Scale(row []Size) []Size {
	if len(row) == 0 {
		return nil
	}

	h0 := row[0].Height
	height := h0 * s.Width / s.Effective(row)

	out := make([]Size, len(row))
	for i, sz := range row {
		out[i] = Size{Width: sz.Width * height / sz.Height, Height: height}
	}
	return out
}

// Effective returns the row's width at the first image's height, less one
// Separation per gap. Scale divides by it, so it must be positive.
func (s Scaler) Effective(row []Size) float64 {
	if len(row) == 0 {
		return 0
	}
	h0 := row[0].Height
	nominal := row[0].Width
	for _, sz := range row[1:] {
		nominal += h0 * sz.Width / sz.Height
	}
	return nominal - float64(len(row)-1)*s.Separation
}

// Check returns an INVALID_INPUT error when the gaps of row consume its
// whole nominal width.
func (s Scaler) Check(row []Size) error {
	if len(row) == 0 {
		return nil
	}
	if e := s.Effective(row); e <= 0 || math.IsNaN(e) || math.IsInf(e, 0) {
		return errors.New(errors.ErrCodeInvalidInput,
			"separation %g leaves no width for %d images (effective width %g)", s.Separation, len(row), e)
	}
	return nil
}
