// Package paginate flattens the server's assorted list envelopes into one
// canonical page shape. Handlers returned bare arrays, mongoose-paginate
// documents, or {data, pagination} wrappers depending on their age; callers
// here always see the same structure.
package paginate

import (
	"bytes"
	"encoding/json"

	"github.com/goliatone/go-errors"
)

// Page is the canonical envelope every list operation resolves to.
type Page[T any] struct {
	Docs          []T  `json:"docs"`
	TotalDocs     int  `json:"totalDocs"`
	Limit         int  `json:"limit"`
	TotalPages    int  `json:"totalPages"`
	Page          int  `json:"page"`
	PagingCounter int  `json:"pagingCounter"`
	HasPrevPage   bool `json:"hasPrevPage"`
	HasNextPage   bool `json:"hasNextPage"`
	PrevPage      *int `json:"prevPage"`
	NextPage      *int `json:"nextPage"`
}

// IsEmpty reports whether the page carries no documents.
func (p Page[T]) IsEmpty() bool {
	return len(p.Docs) == 0
}

// pageMeta mirrors the {pagination: {...}} side-car some handlers attach.
// Field aliases cover the spellings seen across handler generations.
type pageMeta struct {
	Page       *int `json:"page"`
	Limit      *int `json:"limit"`
	Total      *int `json:"total"`
	TotalDocs  *int `json:"totalDocs"`
	TotalPages *int `json:"totalPages"`
	Pages      *int `json:"pages"`
}

// probe sniffs the top-level keys without committing to a shape.
type probe struct {
	Docs       json.RawMessage `json:"docs"`
	Data       json.RawMessage `json:"data"`
	Pagination *pageMeta       `json:"pagination"`
	TotalDocs  *int            `json:"totalDocs"`
	Total      *int            `json:"total"`
	Limit      *int            `json:"limit"`
	TotalPages *int            `json:"totalPages"`
	Page       *int            `json:"page"`
}

// Normalize resolves any of the known server list shapes into a canonical
// page:
//
//	[...]                          bare array
//	{docs: [...], totalDocs, ...}  mongoose-paginate document
//	{data: [...], pagination: {}}  array with pagination side-car
//	{data: {docs: [...]}}          paginate document behind a data key
//	{data: {...}}                  single resource, wrapped as a 1-item page
//
// Unknown object shapes degrade to a single-item page holding the object.
// Normalize is idempotent: feeding it its own output changes nothing.
func Normalize[T any](raw []byte) (Page[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return finalize(Page[T]{}), nil
	}

	if raw[0] == '[' {
		var docs []T
		if err := json.Unmarshal(raw, &docs); err != nil {
			return Page[T]{}, errors.Wrap(err, errors.CategoryBadInput, "failed to decode list payload")
		}
		return FromDocs(docs), nil
	}

	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return Page[T]{}, errors.Wrap(err, errors.CategoryBadInput, "failed to decode list payload")
	}

	if p.Docs != nil {
		return normalizeCanonical[T](raw)
	}

	if p.Data != nil {
		return normalizeData[T](p)
	}

	// no docs, no data: treat the object itself as a single resource
	var single T
	if err := json.Unmarshal(raw, &single); err != nil {
		return Page[T]{}, errors.Wrap(err, errors.CategoryBadInput, "failed to decode list payload")
	}
	return FromDocs([]T{single}), nil
}

// normalizeCanonical decodes a payload that already looks like a page and
// re-derives the navigation flags.
func normalizeCanonical[T any](raw []byte) (Page[T], error) {
	var page Page[T]
	if err := json.Unmarshal(raw, &page); err != nil {
		return Page[T]{}, errors.Wrap(err, errors.CategoryBadInput, "failed to decode page payload")
	}
	return finalize(page), nil
}

func normalizeData[T any](p probe) (Page[T], error) {
	data := bytes.TrimSpace(p.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return finalize(Page[T]{}), nil
	}

	switch data[0] {
	case '[':
		var docs []T
		if err := json.Unmarshal(data, &docs); err != nil {
			return Page[T]{}, errors.Wrap(err, errors.CategoryBadInput, "failed to decode list payload")
		}
		page := Page[T]{Docs: docs}
		applyMeta(&page, p.Pagination)
		return finalize(page), nil
	case '{':
		var inner probe
		if err := json.Unmarshal(data, &inner); err != nil {
			return Page[T]{}, errors.Wrap(err, errors.CategoryBadInput, "failed to decode list payload")
		}
		if inner.Docs != nil {
			return normalizeCanonical[T](data)
		}
		var single T
		if err := json.Unmarshal(data, &single); err != nil {
			return Page[T]{}, errors.Wrap(err, errors.CategoryBadInput, "failed to decode list payload")
		}
		return FromDocs([]T{single}), nil
	default:
		// scalar data payloads carry nothing listable
		return finalize(Page[T]{}), nil
	}
}

// FromDocs builds a single-page envelope around an in-memory slice.
func FromDocs[T any](docs []T) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	return finalize(Page[T]{Docs: docs})
}

// applyMeta copies the pagination side-car onto the page, tolerating the
// alias spellings older handlers used.
func applyMeta[T any](page *Page[T], meta *pageMeta) {
	if meta == nil {
		return
	}
	if meta.Page != nil {
		page.Page = *meta.Page
	}
	if meta.Limit != nil {
		page.Limit = *meta.Limit
	}
	switch {
	case meta.TotalDocs != nil:
		page.TotalDocs = *meta.TotalDocs
	case meta.Total != nil:
		page.TotalDocs = *meta.Total
	}
	switch {
	case meta.TotalPages != nil:
		page.TotalPages = *meta.TotalPages
	case meta.Pages != nil:
		page.TotalPages = *meta.Pages
	}
}

// finalize fills defaults and re-derives the navigation flags. Flags are
// always recomputed from page and totalPages so the result is stable under
// repeated normalization.
func finalize[T any](page Page[T]) Page[T] {
	if page.Docs == nil {
		page.Docs = []T{}
	}
	if page.TotalDocs <= 0 {
		page.TotalDocs = len(page.Docs)
	}
	if page.Limit <= 0 {
		page.Limit = len(page.Docs)
	}
	if page.Page <= 0 {
		page.Page = 1
	}

	if page.TotalPages <= 0 && page.Limit > 0 {
		page.TotalPages = (page.TotalDocs + page.Limit - 1) / page.Limit
	}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}

	page.HasPrevPage = page.Page > 1
	page.HasNextPage = page.Page < page.TotalPages
	page.PrevPage = nil
	page.NextPage = nil
	if page.HasPrevPage {
		prev := page.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := page.Page + 1
		page.NextPage = &next
	}
	page.PagingCounter = (page.Page-1)*page.Limit + 1

	return page
}
