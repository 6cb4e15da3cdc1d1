package brick

// DefaultMaxBlocks is the default row capacity.
const DefaultMaxBlocks = 6.0

// Row is a contiguous run of images displayed at a common height.
// Start is the original index of the first image.
type Row struct {
	Start  int     `json:"start"`
	Sizes  []Size  `json:"sizes"`
	Weight float64 `json:"weight"`
}

// Len returns the number of images in the row.
func (r Row) Len() int { return len(r.Sizes) }

// End returns the original index one past the last image.
func (r Row) End() int { return r.Start + len(r.Sizes) }

// Packer groups images into rows by block weight.
type Packer struct {
	Weights   Weights
	MaxBlocks float64
}

// DefaultPacker returns a packer with [DefaultWeights] and [DefaultMaxBlocks].
func DefaultPacker() Packer {
	return Packer{Weights: DefaultWeights(), MaxBlocks: DefaultMaxBlocks}
}

// Pack partitions sizes into maximal contiguous rows. When adding the next
// image would push the running weight over MaxBlocks the current row is
// closed first, so an oversized image still forms a row of its own. The
// last row may be under capacity. Pack never reorders or drops input.
func (p Packer) Pack(sizes []Size) []Row {
	var rows []Row
	var cur rowBuilder
	for i, s := range sizes {
		if r, ok := cur.push(p, i, s); ok {
			rows = append(rows, r)
		}
	}
	if r, ok := cur.flush(); ok {
		rows = append(rows, r)
	}
	return rows
}

// rowBuilder is the open row shared by Pack and Assembler.
type rowBuilder struct {
	row Row
}

// push adds the image at index i, returning the row it closed, if any.
func (b *rowBuilder) push(p Packer, i int, s Size) (Row, bool) {
	w := p.Weights.OfSize(s)

	var closed Row
	var ok bool
	if len(b.row.Sizes) > 0 && b.row.Weight+w > p.MaxBlocks {
		closed, ok = b.row, true
		b.row = Row{}
	}
	if len(b.row.Sizes) == 0 {
		b.row.Start = i
	}
	b.row.Sizes = append(b.row.Sizes, s)
	b.row.Weight += w
	return closed, ok
}

// flush returns the open row, if any, and resets the builder.
func (b *rowBuilder) flush() (Row, bool) {
	if len(b.row.Sizes) == 0 {
		return Row{}, false
	}
	r := b.row
	b.row = Row{}
	return r, true
}
