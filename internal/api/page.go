package api

import (
	"fmt"
	"net/url"
)

// Pageable selects a page of a list endpoint.
type Pageable struct {
	Page int
	Size int
	Sort string
}

// query renders the pagination query string, always including page and size
// so the backend's defaults never surprise the table views.
func (p Pageable) query() string {
	size := p.Size
	if size <= 0 {
		size = 10
	}
	q := fmt.Sprintf("?page=%d&size=%d", p.Page, size)
	if p.Sort != "" {
		q += "&sort=" + url.QueryEscape(p.Sort)
	}
	return q
}
