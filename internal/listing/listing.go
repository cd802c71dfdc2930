// Package listing filters, sorts and paginates in-memory table rows.
package listing

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultPerPage = 10
	DirAsc         = "asc"
	DirDesc        = "desc"
)

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{5, 10, 20, 50, 100}

type Query struct {
	Search  string
	Filters map[string]string
	Sort    string
	Dir     string
	Page    int
	PerPage int
}

type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Page[T any] struct {
	Items []T      `json:"items"`
	Info  PageInfo `json:"pagination"`
}

// Table describes how rows of one kind are searched, filtered and sorted.
type Table[T any] struct {
	SearchFields func(row T) []string
	Filters      map[string]func(row T, value string) bool
	Sorters      map[string]func(a, b T) int
	DefaultSort  string
	DefaultDir   string
}

// ParseQuery reads q, sort, dir, page, per_page and the table's filter keys.
func ParseQuery[T any](values url.Values, table Table[T]) Query {
	q := Query{
		Search:  strings.TrimSpace(values.Get("q")),
		Filters: make(map[string]string),
		Sort:    values.Get("sort"),
		Dir:     strings.ToLower(values.Get("dir")),
	}
	for key := range table.Filters {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			q.Filters[key] = v
		}
	}
	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.PerPage, _ = strconv.Atoi(values.Get("per_page"))
	return normalizeQuery(q, table)
}

// Apply derives the filtered rows, sorts them and returns the requested page.
// The input slice is not modified.
func Apply[T any](rows []T, q Query, table Table[T]) Page[T] {
	q = normalizeQuery(q, table)

	needle := fold(q.Search)
	filtered := make([]T, 0, len(rows))
	for _, row := range rows {
		if needle != "" && !matchesSearch(row, needle, table) {
			continue
		}
		if !matchesFilters(row, q.Filters, table) {
			continue
		}
		filtered = append(filtered, row)
	}

	if cmp, ok := table.Sorters[q.Sort]; ok {
		slices.SortStableFunc(filtered, func(a, b T) int {
			if q.Dir == DirDesc {
				return cmp(b, a)
			}
			return cmp(a, b)
		})
	}

	info := NewPageInfo(q.Page, q.PerPage, len(filtered))
	start := info.Offset()
	end := min(start+info.PerPage, len(filtered))
	items := make([]T, 0, end-start)
	items = append(items, filtered[start:end]...)

	return Page[T]{Items: items, Info: info}
}

// NewPageInfo computes pagination metadata. TotalPages is at least 1 and the
// page is clamped into [1, TotalPages].
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func normalizeQuery[T any](q Query, table Table[T]) Query {
	if _, ok := table.Sorters[q.Sort]; !ok {
		q.Sort = table.DefaultSort
		if q.Dir == "" {
			q.Dir = table.DefaultDir
		}
	}
	if q.Dir != DirAsc && q.Dir != DirDesc {
		q.Dir = DirAsc
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if !slices.Contains(PerPageOptions, q.PerPage) {
		q.PerPage = DefaultPerPage
	}
	return q
}

func matchesSearch[T any](row T, needle string, table Table[T]) bool {
	if table.SearchFields == nil {
		return true
	}
	for _, field := range table.SearchFields(row) {
		if strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}

func matchesFilters[T any](row T, filters map[string]string, table Table[T]) bool {
	for key, value := range filters {
		if value == "" || strings.EqualFold(value, "all") {
			continue
		}
		match, ok := table.Filters[key]
		if !ok {
			continue
		}
		if !match(row, value) {
			return false
		}
	}
	return true
}

// fold lower-cases and strips diacritics so "José" matches "jose".
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// CompareStrings orders case-insensitively with diacritics stripped.
func CompareStrings(a, b string) int {
	return strings.Compare(fold(a), fold(b))
}

// Equal reports whether a filter value equals a field, ignoring case and accents.
func Equal(field, value string) bool {
	return fold(field) == fold(value)
}
