// Package paging tracks which slice of a gallery is on screen.
//
// A [Page] is an immutable value; navigation returns the next state instead
// of mutating shared counters, so several galleries can page independently.
//
//	p := paging.First(len(items), 12)
//	for {
//	    start, end := p.Bounds()
//	    show(items[start:end])
//	    if p.IsEnd() {
//	        break
//	    }
//	    p = p.Next()
//	}
package paging

// DefaultSize is the default number of images per page.
const DefaultSize = 12

// Direction records how the current page was reached.
type Direction int

const (
	// None is the initial direction.
	None Direction = iota
	// Forward means the page was reached with Next.
	Forward
	// Backward means the page was reached with Prev.
	Backward
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

// Page is a pagination state over Total items.
type Page struct {
	Offset    int       `json:"offset"`
	Size      int       `json:"size"`
	Total     int       `json:"total"`
	Direction Direction `json:"direction"`
}

// First returns the first page. A non-positive size is replaced by
// DefaultSize and a negative total by zero.
func First(total, size int) Page {
	if size <= 0 {
		size = DefaultSize
	}
	if total < 0 {
		total = 0
	}
	return Page{Size: size, Total: total}
}

// Goto returns the page with the given zero-based number, clamped to the
// valid range.
func Goto(total, size, number int) Page {
	p := First(total, size)
	if number <= 0 {
		return p
	}
	if last := p.Count() - 1; number > last {
		number = last
	}
	if number > 0 {
		p.Offset = number * p.Size
		p.Direction = Forward
	}
	return p
}

// IsBeginning reports whether no earlier page exists.
func (p Page) IsBeginning() bool { return p.Offset <= 0 }

// IsEnd reports whether no later page exists.
func (p Page) IsEnd() bool { return p.Offset+p.Size >= p.Total }

// Next returns the following page, or p unchanged on the last page.
func (p Page) Next() Page {
	if p.IsEnd() {
		return p
	}
	p.Offset += p.Size
	p.Direction = Forward
	return p
}

// Prev returns the preceding page, or p unchanged on the first page.
func (p Page) Prev() Page {
	if p.IsBeginning() {
		return p
	}
	p.Offset -= p.Size
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Direction = Backward
	return p
}

// Bounds returns the half-open item range [start, end) shown on p.
func (p Page) Bounds() (start, end int) {
	start = min(max(p.Offset, 0), p.Total)
	end = min(start+p.Size, p.Total)
	return start, end
}

// Len returns the number of items shown on p.
func (p Page) Len() int {
	start, end := p.Bounds()
	return end - start
}

// Number returns the zero-based page number.
func (p Page) Number() int {
	if p.Size <= 0 {
		return 0
	}
	return p.Offset / p.Size
}

// Count returns the number of pages; an empty collection has one empty page.
func (p Page) Count() int {
	if p.Size <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}
