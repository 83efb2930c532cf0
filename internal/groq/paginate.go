package groq

import "strconv"

// Page is a parsed limit/offset pair.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage parses limit and offset query-string values. Unparseable values
// fall back to defaultLimit and 0; negatives clamp to 0. There is no upper bound.
func ParsePage(limitStr, offsetStr string, defaultLimit int) Page {
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// Meta describes a paginated slice of a fully fetched result set.
type Meta struct {
	Count   int  `json:"count"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Paginate returns items[offset:offset+limit], clipped to the set. The caller
// has already fetched the whole filtered set; Total is its size.
func Paginate[T any](items []T, p Page) ([]T, Meta) {
	total := len(items)
	limit, offset := max(p.Limit, 0), max(p.Offset, 0)
	start := min(offset, total)
	end := total
	// Compared by subtraction: limit and offset are unbounded.
	if limit < total-start {
		end = start + limit
	}

	page := items[start:end]
	if page == nil {
		page = []T{}
	}

	return page, Meta{
		Count:   len(page),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: limit < total-offset,
	}
}
