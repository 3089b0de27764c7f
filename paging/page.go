package paging

// Page is one page of results.
type Page[T any] struct {
	Content       []T
	Number        int // 0-based
	Size          int
	TotalElements int64
}

// NewPage returns the page described by p holding content out of total elements.
func NewPage[T any](content []T, p Pageable, total int64) Page[T] {
	return Page[T]{
		Content:       content,
		Number:        p.Page,
		Size:          p.Size,
		TotalElements: total,
	}
}

// TotalPages returns the number of pages needed for all elements.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 1
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// Response is the page envelope sent to clients.
type Response struct {
	CurrentPage   int   `json:"currentPage" msgpack:"current_page"` // 1-based
	PageSize      int   `json:"pageSize" msgpack:"page_size"`
	TotalPages    int   `json:"totalPages" msgpack:"total_pages"`
	TotalElements int64 `json:"totalElements" msgpack:"total_elements"`
	Results       any   `json:"results,omitempty" msgpack:"-"`
}

// NewResponse builds the envelope for page, converting the page number to 1-based.
func NewResponse[T any](page Page[T]) *Response {
	content := page.Content
	if content == nil {
		content = []T{}
	}
	return &Response{
		CurrentPage:   page.Number + 1,
		PageSize:      page.Size,
		TotalPages:    page.TotalPages(),
		TotalElements: page.TotalElements,
		Results:       content,
	}
}
