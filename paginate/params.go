package paginate

import (
	"net/url"
	"strconv"
)

// ListParams carries the query parameters understood by paginated
// collection endpoints. The zero value asks for the server defaults.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string

	// Filters holds endpoint specific parameters such as status or
	// year. Values set here never override the named fields above.
	Filters url.Values
}

// Query encodes the parameters as a URL query. Zero valued fields are
// omitted so the server applies its own defaults.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	for key, vals := range p.Filters {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

// WithFilter returns a copy of the params with an extra filter set.
func (p ListParams) WithFilter(key, value string) ListParams {
	filters := url.Values{}
	for k, vals := range p.Filters {
		filters[k] = append([]string(nil), vals...)
	}
	filters.Set(key, value)
	p.Filters = filters
	return p
}
