// Package pager windows an ordered immutable snapshot of records into
// fixed-size pages with a stateful cursor.
package pager

// Pager paginates a snapshot taken at construction time. It never
// observes later insertions; external shrinkage is handled only by
// clamping the cursor to the last valid page.
type Pager[T any] struct {
	items       []T
	perPage     int
	currentPage int
}

// New creates a pager over items. Page sizes below 1 are coerced up to 1.
func New[T any](items []T, perPage int) *Pager[T] {
	if perPage < 1 {
		perPage = 1
	}
	return &Pager[T]{items: items, perPage: perPage}
}

// Reset swaps in a fresh snapshot while keeping the cursor position.
// If the new snapshot is smaller, the cursor clamps to the last valid
// page on the next read.
func (p *Pager[T]) Reset(items []T) {
	p.items = items
}

// TotalPages returns the page count. An empty snapshot still has one page.
func (p *Pager[T]) TotalPages() int {
	if len(p.items) == 0 {
		return 1
	}
	return (len(p.items) + p.perPage - 1) / p.perPage
}

// CurrentPage returns the zero-based index of the current page.
func (p *Pager[T]) CurrentPage() int {
	return p.currentPage
}

// CurrentPageItems returns the slice for the current page. If the cursor
// sits beyond the last valid page it snaps to the last page first.
func (p *Pager[T]) CurrentPageItems() []T {
	start := p.currentPage * p.perPage
	if start >= len(p.items) {
		p.GoToLast()
		start = p.currentPage * p.perPage
	}

	end := start + p.perPage
	if end > len(p.items) {
		end = len(p.items)
	}
	if start >= end {
		return nil
	}
	return p.items[start:end]
}

// HasNext reports whether a page exists after the current one.
func (p *Pager[T]) HasNext() bool {
	return p.currentPage < p.TotalPages()-1
}

// HasPrevious reports whether a page exists before the current one.
func (p *Pager[T]) HasPrevious() bool {
	return p.currentPage > 0
}

// Next advances one page. Returns false at the last page.
func (p *Pager[T]) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.currentPage++
	return true
}

// Previous goes back one page. Returns false at the first page.
func (p *Pager[T]) Previous() bool {
	if !p.HasPrevious() {
		return false
	}
	p.currentPage--
	return true
}

// GoTo moves to the given zero-based page. Returns false if out of range.
func (p *Pager[T]) GoTo(page int) bool {
	if page < 0 || page >= p.TotalPages() {
		return false
	}
	p.currentPage = page
	return true
}

// GoToFirst moves to the first page.
func (p *Pager[T]) GoToFirst() {
	p.currentPage = 0
}

// GoToLast moves to the last page.
func (p *Pager[T]) GoToLast() {
	p.currentPage = p.TotalPages() - 1
	if p.currentPage < 0 {
		p.currentPage = 0
	}
}

// TotalItems returns the snapshot size.
func (p *Pager[T]) TotalItems() int {
	return len(p.items)
}

// PerPage returns the page size.
func (p *Pager[T]) PerPage() int {
	return p.perPage
}
