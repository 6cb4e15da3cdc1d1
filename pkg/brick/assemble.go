package brick

import (
	"github.com/matzehuels/brickwall/pkg/errors"
)

// Assembler packs rows incrementally as natural sizes become known.
//
// Sizes are recorded by original index in whatever order they arrive. Only
// the gapless prefix of known sizes is fed to the packer, so a row is emitted
// once the image following it is known (or once every image is known, for the
// final row). An index that never arrives blocks everything after it.
//
// An Assembler is not safe for concurrent use; feed it from one goroutine.
type Assembler struct {
	packer  Packer
	total   int
	pending map[int]Size
	next    int
	open    rowBuilder
	emitted int
}

// NewAssembler returns an assembler for total images.
func NewAssembler(p Packer, total int) *Assembler {
	return &Assembler{
		packer:  p,
		total:   total,
		pending: make(map[int]Size),
	}
}

// Add records the natural size of the image at index and returns the rows
// that became final as a result, in order.
func (a *Assembler) Add(index int, s Size) ([]Row, error) {
	if index < 0 || index >= a.total {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image index %d out of range [0, %d)", index, a.total)
	}
	if _, dup := a.pending[index]; dup || index < a.next {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image %d already loaded", index)
	}
	if err := errors.ValidateDimensions(s.Width, s.Height); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDimensions, err, "image %d", index)
	}
	a.pending[index] = s

	var rows []Row
	for {
		sz, ok := a.pending[a.next]
		if !ok {
			break
		}
		delete(a.pending, a.next)
		if r, closed := a.open.push(a.packer, a.next, sz); closed {
			rows = append(rows, r)
		}
		a.next++
	}

	if a.next == a.total {
		if r, ok := a.open.flush(); ok {
			rows = append(rows, r)
		}
	}
	a.emitted += len(rows)
	return rows, nil
}

// Done reports whether every image has been placed in an emitted row.
func (a *Assembler) Done() bool {
	return a.next == a.total && len(a.open.row.Sizes) == 0
}

// Blocked returns the first index whose size is still unknown, or -1 once
// the whole prefix is known.
func (a *Assembler) Blocked() int {
	if a.next >= a.total {
		return -1
	}
	return a.next
}

// Pending returns how many sizes are buffered behind the blocking index.
func (a *Assembler) Pending() int { return len(a.pending) }

// Emitted returns the number of rows emitted so far.
func (a *Assembler) Emitted() int { return a.emitted }
