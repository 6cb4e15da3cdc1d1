package brick

import (
	"math"

	"github.com/matzehuels/brickwall/pkg/errors"
)

// Config controls [Compute].
type Config struct {
	Packer Packer
	Scaler Scaler
	// RowGap is the vertical space between rows.
	RowGap float64
}

// DefaultConfig returns the default packer with an 800px row and no gaps.
func DefaultConfig() Config {
	return Config{
		Packer: DefaultPacker(),
		Scaler: Scaler{Width: DefaultRowWidth},
	}
}

// Cell is one positioned image. Index is the image's original position and
// is opaque to the layout.
type Cell struct {
	Index  int     `json:"index"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the cell's right edge.
func (c Cell) Right() float64 { return c.X + c.Width }

// Bottom returns the cell's bottom edge.
func (c Cell) Bottom() float64 { return c.Y + c.Height }

// Pixels returns the cell size rounded to whole pixels.
func (c Cell) Pixels() (w, h int) { return Size{c.Width, c.Height}.Round() }

// LaidRow is a packed row placed on the wall.
type LaidRow struct {
	Start  int     `json:"start"`
	Weight float64 `json:"weight"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Cells  []Cell  `json:"cells"`
}

// Layout is a complete brick wall.
//
// Width is the target row width. Image widths in a row sum to Width only
// when the separation is zero; a positive separation makes the images wider
// than the plain fit and also adds a gap between them, so rows extend past
// Width. [Layout.Extent] reports the actual right edge.
type Layout struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Rows   []LaidRow `json:"rows"`
}

// Check packs sizes and reports the first row the scaler cannot fit.
// Sizes must be valid; see [Validate].
func (cfg Config) Check(sizes []Size) error {
	for _, r := range cfg.Packer.Pack(sizes) {
		if err := cfg.Scaler.Check(r.Sizes); err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "row starting at image %d: %s", r.Start, errors.UserMessage(err))
		}
	}
	return nil
}

// Compute packs sizes into rows, scales each row and stacks them top to
// bottom. Sizes must be valid; see [Validate] and [Config.Check].
func Compute(sizes []Size, cfg Config) Layout {
	l := Layout{Width: cfg.Scaler.Width}
	for _, r := range cfg.Packer.Pack(sizes) {
		l.Append(r, cfg)
	}
	return l
}

// Append scales r and places it below the rows already in l.
func (l *Layout) Append(r Row, cfg Config) {
	scaled := cfg.Scaler.Scale(r.Sizes)
	if len(scaled) == 0 {
		return
	}

	y := 0.0
	if len(l.Rows) > 0 {
		y = l.Height + cfg.RowGap
	}

	lr := LaidRow{
		Start:  r.Start,
		Weight: r.Weight,
		Y:      y,
		Height: scaled[0].Height,
		Cells:  make([]Cell, len(scaled)),
	}
	x := 0.0
	for i, s := range scaled {
		lr.Cells[i] = Cell{Index: r.Start + i, X: x, Y: y, Width: s.Width, Height: s.Height}
		x += s.Width + cfg.Scaler.Separation
	}

	l.Rows = append(l.Rows, lr)
	l.Height = y + lr.Height
}

// Cells returns every cell in original order.
func (l Layout) Cells() []Cell {
	var out []Cell
	for _, r := range l.Rows {
		out = append(out, r.Cells...)
	}
	return out
}

// Extent returns the right edge of the widest row.
func (l Layout) Extent() float64 {
	right := 0.0
	for _, r := range l.Rows {
		if n := len(r.Cells); n > 0 {
			right = math.Max(right, r.Cells[n-1].Right())
		}
	}
	return right
}

// Len returns the number of images in the layout.
func (l Layout) Len() int {
	n := 0
	for _, r := range l.Rows {
		n += len(r.Cells)
	}
	return n
}

// PixelHeight returns the layout height rounded up to whole pixels.
func (l Layout) PixelHeight() int { return int(math.Ceil(l.Height)) }
