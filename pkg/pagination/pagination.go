package pagination

import (
	"net/url"
	"strconv"
)

const (
	// DefaultSize is the standard page size when a size is not provided.
	DefaultSize = 20
	// MaxSize caps how many rows any page can request.
	MaxSize = 100
)

// Params holds zero-based page pagination as the school API expects it.
type Params struct {
	Page int
	Size int
}

// Page mirrors the Spring page envelope returned by paged endpoints.
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Size          int `json:"size"`
	Number        int `json:"number"`
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// HasPrev reports whether a preceding page exists.
func (p Page[T]) HasPrev() bool {
	return p.Number > 0
}

// NormalizeSize enforces the configured default and maximum sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Normalize clamps page and size into range.
func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	p.Size = NormalizeSize(p.Size)
	return p
}

// Query encodes the params as ?page=&size=.
func (p Params) Query() url.Values {
	n := p.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(n.Page))
	q.Set("size", strconv.Itoa(n.Size))
	return q
}
