package brick

import (
	"math"

	"github.com/matzehuels/brickwall/pkg/errors"
)

// Size is a pair of pixel dimensions. Natural sizes come from image headers;
// scaled sizes are produced by [Scaler].
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AspectRatio returns Width / Height.
func (s Size) AspectRatio() float64 { return s.Width / s.Height }

// Round returns the size rounded to whole pixels.
func (s Size) Round() (w, h int) {
	return int(math.Round(s.Width)), int(math.Round(s.Height))
}

// Validate returns an INVALID_DIMENSIONS error for the first size that
// cannot be laid out.
func Validate(sizes []Size) error {
	for i, s := range sizes {
		if err := errors.ValidateDimensions(s.Width, s.Height); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDimensions, err, "image %d", i)
		}
	}
	return nil
}
