package page

import "fmt"

// Meta is the pagination state of one list view.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// FromServer builds a Meta from an authoritative list response. The page is
// clamped into range since the server may report a page past the end after
// concurrent deletes.
func FromServer(total, current, pageSize int) (Meta, error) {
	if pageSize <= 0 {
		return Meta{}, fmt.Errorf("invalid page size %d", pageSize)
	}
	if total < 0 {
		return Meta{}, fmt.Errorf("invalid total %d", total)
	}
	pages := totalPages(total, pageSize)
	return Meta{
		Total:      total,
		Page:       clamp(current, pages),
		PageSize:   pageSize,
		TotalPages: pages,
	}, nil
}

// ApplyDelta returns a copy of m adjusted for delta records added (positive)
// or removed (negative). A nil m means the view is not loaded yet and is
// returned unchanged. Callers must apply each delta exactly once.
func ApplyDelta(m *Meta, delta int) *Meta {
	if m == nil {
		return nil
	}
	if m.PageSize <= 0 {
		panic(fmt.Sprintf("page: ApplyDelta on meta with page size %d", m.PageSize))
	}
	total := max(0, m.Total+delta)
	pages := totalPages(total, m.PageSize)
	return &Meta{
		Total:      total,
		Page:       clamp(m.Page, pages),
		PageSize:   m.PageSize,
		TotalPages: pages,
	}
}

// Validate reports the first broken invariant, if any. A zero Meta is valid.
func (m Meta) Validate() error {
	if m == (Meta{}) {
		return nil
	}
	switch {
	case m.PageSize <= 0:
		return fmt.Errorf("page size %d is not positive", m.PageSize)
	case m.Total < 0:
		return fmt.Errorf("total %d is negative", m.Total)
	case m.TotalPages != totalPages(m.Total, m.PageSize):
		return fmt.Errorf("total pages %d, want %d", m.TotalPages, totalPages(m.Total, m.PageSize))
	case m.Page < 1 || m.Page > m.TotalPages:
		return fmt.Errorf("page %d outside [1, %d]", m.Page, m.TotalPages)
	}
	return nil
}

// Loaded reports whether m came from a server response.
func (m Meta) Loaded() bool {
	return m.PageSize > 0
}

// Boundary is the number of records covered by pages 1..Page.
func (m Meta) Boundary() int {
	return m.PageSize * m.Page
}

// Expected returns how many records the current page holds when it is fully
// represented: min(PageSize, Total - PageSize*(Page-1)).
func (m Meta) Expected() int {
	if !m.Loaded() {
		return 0
	}
	return max(0, min(m.PageSize, m.Total-m.PageSize*(m.Page-1)))
}

// HasNext reports whether a page follows the current one.
func (m Meta) HasNext() bool {
	return m.Page < m.TotalPages
}

// HasPrev reports whether a page precedes the current one.
func (m Meta) HasPrev() bool {
	return m.Page > 1
}

func totalPages(total, pageSize int) int {
	return max(1, (total+pageSize-1)/pageSize)
}

func clamp(p, pages int) int {
	if pages <= 0 {
		return 1
	}
	return min(max(p, 1), pages)
}
