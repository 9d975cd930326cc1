package shared

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is 1-based page/size with the derived SQL limit/offset.
type Pagination struct {
	Page   int
	Size   int
	Limit  int
	Offset int
}

// ParsePagination reads page and size, clamping size to 1..maxSize and
// page so the offset stays within int32.
func ParsePagination(r *http.Request, defaultSize, maxSize int) Pagination {
	page := 1
	size := defaultSize
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			size = v
		}
	}
	if size < 1 {
		size = 1
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	// Keep the offset within int32.
	if maxPage := math.MaxInt32 / size; page > maxPage {
		page = maxPage
	}
	return Pagination{Page: page, Size: size, Limit: size, Offset: (page - 1) * size}
}

type Paged[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"totalPages"`
}

func NewPaged[T any](items []T, total int, p Pagination) Paged[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Paged[T]{Items: items, Total: total, Page: p.Page, Size: p.Size, TotalPages: pages}
}

// WriteTotal sets the X-Total-Count header.
func WriteTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
