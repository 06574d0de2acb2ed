package reports

import (
	"errors"
	"sort"
	"strings"
)

// Order selects how Sorted arranges rows.
type Order string

const (
	OrderNone       Order = "none"
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
)

// ErrUnknownOrder is returned by ParseOrder for unrecognised input.
var ErrUnknownOrder = errors.New("reports: unknown sort order")

// ParseOrder accepts none, ascending/asc or descending/desc. Empty means none.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return OrderNone, nil
	case "ascending", "asc":
		return OrderAscending, nil
	case "descending", "desc":
		return OrderDescending, nil
	}
	return "", ErrUnknownOrder
}

// Row is one dimension value and its metric.
type Row struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Sorted flattens r into rows. OrderNone sorts by key so output is stable;
// the other orders sort by value and break ties by key.
func Sorted(r Result, order Order) []Row {
	rows := make([]Row, 0, len(r))
	for k, v := range r {
		rows = append(rows, Row{Key: k, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch order {
		case OrderAscending:
			if a.Value != b.Value {
				return a.Value < b.Value
			}
		case OrderDescending:
			if a.Value != b.Value {
				return a.Value > b.Value
			}
		}
		return a.Key < b.Key
	})
	return rows
}

// Page returns the rows of a 1-based page and the total page count.
func Page(rows []Row, page, size int) ([]Row, int) {
	if size <= 0 {
		size = len(rows)
	}
	if size == 0 {
		return rows, 0
	}
	pages := (len(rows) + size - 1) / size
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []Row{}, pages
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], pages
}
