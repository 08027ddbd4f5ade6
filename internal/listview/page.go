// Package listview turns a fully fetched collection plus the current filter
// state into the page that gets rendered. Every list runs the same fixed
// pipeline: text search, tab predicate, calendar-day filter, newest-first
// sort, then pagination. Results depend only on the snapshot, the filters,
// the clock and the viewer's location.
package listview

const (
	AppointmentPageSize = 5
	UserPageSize        = 8
	SlotPageSize        = 8
)

// Page is one fixed-size window over a filtered list.
type Page[T any] struct {
	Items  []T
	Number int // 1-based
	Total  int // number of pages
	Count  int // filtered records
	Size   int
}

// TotalPages is ceil(count/size).
func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Paginate slices items into the requested page. Out of range page numbers
// are clamped, so a stale link lands on the nearest existing page.
func Paginate[T any](items []T, page, size int) Page[T] {
	total := TotalPages(len(items), size)
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	p := Page[T]{Number: page, Total: total, Count: len(items), Size: size}
	if total == 0 {
		return p
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	p.Items = items[start:end]
	return p
}

func (p Page[T]) Empty() bool   { return p.Count == 0 }
func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Total }

func (p Page[T]) PrevNumber() int {
	if p.HasPrev() {
		return p.Number - 1
	}
	return p.Number
}

func (p Page[T]) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}
