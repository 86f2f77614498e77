// Package listing filters and sorts the collections shown on the dashboard.
package listing

import (
	"sort"
	"strings"
	"time"
)

// All is the categorical filter value that disables the filter.
const All = "all"

// Sort keys.
const (
	SortRecent   = "recent"
	SortTraction = "traction"
)

// EmptyMessage is shown when no item survives the filters.
const EmptyMessage = "No startups match your criteria."

// Criteria holds the user's filter controls.
type Criteria struct {
	SearchTerm string
	Sector     string
	Stage      string
	Sort       string
	// Where is an optional boolean expression over item attributes,
	// e.g. `status == "Pending"`.
	Where string
}

// Fields tells Apply how to read an item. Nil accessors disable the
// corresponding filter or sort.
type Fields[T any] struct {
	// Text returns the values matched by SearchTerm.
	Text        func(T) []string
	Sector      func(T) string
	Stage       func(T) string
	SubmittedAt func(T) time.Time
	Traction    func(T) float64
	// Attributes exposes the item to Where expressions.
	Attributes func(T) map[string]any
}

// Apply returns the items matching c, ordered by c.Sort. items is never
// modified. An error is returned only for an invalid Where expression.
func Apply[T any](items []T, c Criteria, f Fields[T]) ([]T, error) {
	var where *expression
	if strings.TrimSpace(c.Where) != "" && f.Attributes != nil {
		var err error
		if where, err = compile(c.Where); err != nil {
			return nil, err
		}
	}

	term := strings.ToLower(c.SearchTerm)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !categoryMatches(c.Sector, f.Sector, item) || !categoryMatches(c.Stage, f.Stage, item) {
			continue
		}
		if term != "" && f.Text != nil && !textMatches(term, f.Text(item)) {
			continue
		}
		if where != nil && !where.matches(f.Attributes(item)) {
			continue
		}
		out = append(out, item)
	}

	switch c.Sort {
	case SortRecent:
		if f.SubmittedAt != nil {
			sort.SliceStable(out, func(i, j int) bool {
				return f.SubmittedAt(out[i]).After(f.SubmittedAt(out[j]))
			})
		}
	case SortTraction:
		if f.Traction != nil {
			sort.SliceStable(out, func(i, j int) bool {
				return f.Traction(out[i]) > f.Traction(out[j])
			})
		}
	}

	return out, nil
}

func categoryMatches[T any](want string, get func(T) string, item T) bool {
	if want == "" || want == All || get == nil {
		return true
	}
	return get(item) == want
}

func textMatches(term string, values []string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
