// Package table keeps the sort and filter state of tabular conlet
// displays and the toggle option sets used by their controls.
package table

import (
	"sort"
	"strings"
)

// Order is a sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "down"
	}
	return "up"
}

// Column describes one sortable, filterable column of rows of type R.
type Column[R any] struct {
	Key   string
	Label string
	// Value renders the cell. Filtering matches against it and, without
	// Less, sorting compares it case-insensitively.
	Value func(R) string
	Less  func(a, b R) bool
}

// Controller holds the sort key, sort order and filter pattern of a table.
type Controller[R any] struct {
	columns  []Column[R]
	sortKey  string
	order    Order
	pattern  string
	onChange func()
}

// New creates a controller sorted ascending by the first column.
func New[R any](columns ...Column[R]) *Controller[R] {
	c := &Controller[R]{columns: columns}
	if len(columns) > 0 {
		c.sortKey = columns[0].Key
	}
	return c
}

// OnChange registers fn to be called whenever sorting or filtering
// changes.
func (c *Controller[R]) OnChange(fn func()) {
	c.onChange = fn
}

func (c *Controller[R]) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller[R]) Columns() []Column[R] {
	return c.columns
}

func (c *Controller[R]) column(key string) (Column[R], bool) {
	for _, col := range c.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column[R]{}, false
}

func (c *Controller[R]) SortKey() string  { return c.sortKey }
func (c *Controller[R]) SortOrder() Order { return c.order }
func (c *Controller[R]) Filter() string   { return c.pattern }

// SortBy sorts by key. Selecting the current key again reverses the order;
// a new key starts ascending. Unknown keys are ignored.
func (c *Controller[R]) SortBy(key string) {
	if _, ok := c.column(key); !ok {
		return
	}
	if key == c.sortKey {
		if c.order == Ascending {
			c.order = Descending
		} else {
			c.order = Ascending
		}
	} else {
		c.sortKey = key
		c.order = Ascending
	}
	c.changed()
}

// SortByOrder sorts by key in the given order.
func (c *Controller[R]) SortByOrder(key string, order Order) {
	if _, ok := c.column(key); !ok {
		return
	}
	c.sortKey = key
	c.order = order
	c.changed()
}

// FilterBy sets the filter pattern. Matching is case-insensitive; an empty
// pattern matches every row.
func (c *Controller[R]) FilterBy(pattern string) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == c.pattern {
		return
	}
	c.pattern = pattern
	c.changed()
}

// Matches reports whether any cell of row contains the filter pattern.
func (c *Controller[R]) Matches(row R) bool {
	if c.pattern == "" {
		return true
	}
	for _, col := range c.columns {
		if col.Value != nil && strings.Contains(strings.ToLower(col.Value(row)), c.pattern) {
			return true
		}
	}
	return false
}

// SortIndicator returns the arrow to show next to a column heading.
func (c *Controller[R]) SortIndicator(key string) string {
	if key != c.sortKey {
		return ""
	}
	if c.order == Descending {
		return "▼"
	}
	return "▲"
}

// Apply returns the rows that match the filter, sorted. Equal rows keep
// their relative order. rows is not modified.
func (c *Controller[R]) Apply(rows []R) []R {
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	col, ok := c.column(c.sortKey)
	if !ok {
		return out
	}
	less := col.Less
	if less == nil {
		if col.Value == nil {
			return out
		}
		less = func(a, b R) bool {
			return strings.ToLower(col.Value(a)) < strings.ToLower(col.Value(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c.order == Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
