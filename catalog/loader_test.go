package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `Item,Category,Price,Serving Size,Notes
Pancakes,Breakfast,$8.99,3 pieces,customer favorite
Café con Leche,Beverage,3.50,12 oz,
`)

	items, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "pancakes", items[0].Name)
	assert.Equal(t, "breakfast", items[0].Category)
	assert.Equal(t, "8.99", items[0].Price.StringFixed(2))
	assert.Equal(t, "3 pieces", items[0].ServingSize)

	// Non-ASCII characters scrub to spaces, then collapse.
	assert.Equal(t, "caf con leche", items[1].Name)
}

func TestLoadCSVHeaderIsCaseInsensitive(t *testing.T) {
	path := writeCSV(t, `ITEM,CATEGORY,PRICE,SERVING SIZE
coffee,beverage,2.50,12 oz
`)
	items, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "coffee", items[0].Name)
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing column", "Item,Category,Price\nburger,lunch,9.50\n"},
		{"bad price", "Item,Category,Price,Serving Size\nburger,lunch,cheap,1 plate\n"},
		{"negative price", "Item,Category,Price,Serving Size\nburger,lunch,-9.50,1 plate\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(writeCSV(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
