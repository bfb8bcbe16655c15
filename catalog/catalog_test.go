package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	items := []Item{
		{Name: "Pancakes", Category: "Breakfast", Price: decimal.RequireFromString("8.99"), ServingSize: "3 pieces"},
		{Name: "Café con Leche", Category: "beverage", Price: decimal.RequireFromString("3.50"), ServingSize: "12 oz"},
	}
	c, err := New(items)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	// Names and categories come out canonical: lowercase ASCII.
	it, ok := c.Get("pancakes")
	require.True(t, ok)
	assert.Equal(t, "breakfast", it.Category)

	_, ok = c.Get("caf con leche")
	assert.True(t, ok)
}

func TestNewRejectsBadInput(t *testing.T) {
	price := decimal.RequireFromString("1.00")

	tests := []struct {
		name  string
		items []Item
	}{
		{"empty catalog", nil},
		{"empty name", []Item{{Name: "  ", Category: "lunch", Price: price}}},
		{"duplicate", []Item{
			{Name: "burger", Category: "lunch", Price: price},
			{Name: "Burger", Category: "lunch", Price: price},
		}},
		{"unknown category", []Item{{Name: "burger", Category: "brunch", Price: price}}},
		{"negative price", []Item{{Name: "burger", Category: "lunch", Price: decimal.RequireFromString("-1")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.items)
			assert.Error(t, err)
		})
	}
}

func TestCatalogAccessors(t *testing.T) {
	price := decimal.RequireFromString("5.00")
	c, err := New([]Item{
		{Name: "pancakes", Category: "breakfast", Price: price},
		{Name: "coffee", Category: "beverage", Price: price},
		{Name: "waffles", Category: "breakfast", Price: price},
	})
	require.NoError(t, err)

	// Items keeps insertion order; ByCategory preserves it within a category.
	names := []string{}
	for _, it := range c.Items() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"pancakes", "coffee", "waffles"}, names)

	breakfast := c.ByCategory("breakfast")
	require.Len(t, breakfast, 2)
	assert.Equal(t, "pancakes", breakfast[0].Name)
	assert.Equal(t, "waffles", breakfast[1].Name)

	assert.Equal(t, []string{"beverage", "breakfast"}, c.Categories())
}

func TestIsAllowedCategory(t *testing.T) {
	for _, c := range AllowedCategories {
		assert.True(t, IsAllowedCategory(c))
	}
	assert.False(t, IsAllowedCategory("brunch"))
	assert.False(t, IsAllowedCategory(""))
}
