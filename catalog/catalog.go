// Package catalog holds the read-only registry of orderable items.
package catalog

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/arozco/mesero/internal/strutil"
)

// Item is one orderable menu entry. Name is the canonical form: lowercase,
// trimmed, ASCII only. Items are never mutated after catalog construction.
type Item struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	ServingSize string
}

// AllowedCategories is the fixed category allow-list. Loader input outside
// this set is rejected at startup.
var AllowedCategories = []string{
	"breakfast",
	"lunch",
	"dinner",
	"appetizer",
	"dessert",
	"beverage",
	"side",
}

// IsAllowedCategory reports whether category is in the fixed allow-list.
func IsAllowedCategory(category string) bool {
	for _, c := range AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Catalog is an immutable item registry keyed by canonical name.
// Iteration order is insertion order, which keeps substring matching
// deterministic. Safe for concurrent readers.
type Catalog struct {
	items []Item
	index map[string]int
}

// New builds a catalog from the given items. The input is validated the way
// the loader produced it: canonical names, known categories, non-negative
// prices. An empty item list is an error so that a failed ingest cannot
// silently start a session with no menu.
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, errors.New("catalog: no items")
	}
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		it.Name = strutil.NormalizeASCII(it.Name)
		it.Category = strutil.NormalizeASCII(it.Category)
		if it.Name == "" {
			return nil, errors.New("catalog: item with empty name")
		}
		if _, ok := c.index[it.Name]; ok {
			return nil, errors.Errorf("catalog: duplicate item %q", it.Name)
		}
		if !IsAllowedCategory(it.Category) {
			return nil, errors.Errorf("catalog: item %q has unknown category %q", it.Name, it.Category)
		}
		if it.Price.IsNegative() {
			return nil, errors.Errorf("catalog: item %q has negative price", it.Name)
		}
		c.index[it.Name] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Get returns the item stored under the canonical name.
func (c *Catalog) Get(name string) (Item, bool) {
	i, ok := c.index[name]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Items returns the items in insertion order. The slice is a copy.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// ByCategory returns the items of one category in insertion order.
func (c *Catalog) ByCategory(category string) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Categories returns the distinct categories present in the catalog, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}
