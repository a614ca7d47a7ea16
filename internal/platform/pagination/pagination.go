package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultSize = 10
	MaxSize     = 100
)

// Page es la respuesta paginada común (page es 0-based).
type Page[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	Size        int  `json:"size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Normalize aplica defaults y límites.
func Normalize(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return page, size
}

func Offset(page, size int) int {
	page, size = Normalize(page, size)
	return page * size
}

func New[T any](items []T, page, size, total int) Page[T] {
	page, size = Normalize(page, size)
	if items == nil {
		items = []T{}
	}
	if total < 0 {
		total = 0
	}

	pages := 0
	if total > 0 {
		pages = (total + size - 1) / size
	}

	return Page[T]{
		Items:       items,
		Page:        page,
		Size:        size,
		TotalItems:  total,
		TotalPages:  pages,
		HasNext:     page+1 < pages,
		HasPrevious: page > 0,
	}
}

// Map convierte los items manteniendo la metadata.
func Map[T, U any](p Page[T], f func(T) U) Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, f(it))
	}
	return Page[U]{
		Items:       out,
		Page:        p.Page,
		Size:        p.Size,
		TotalItems:  p.TotalItems,
		TotalPages:  p.TotalPages,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}

// FromQuery lee ?page=&size=. Valores inválidos => defaults.
func FromQuery(q url.Values) (int, int) {
	page, _ := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	size, _ := strconv.Atoi(strings.TrimSpace(q.Get("size")))
	return Normalize(page, size)
}
