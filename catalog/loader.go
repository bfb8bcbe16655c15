package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/arozco/mesero/internal/strutil"
)

// Column headers the menu CSV must carry. Matching is case-insensitive and
// extra columns are ignored.
const (
	columnItem        = "item"
	columnCategory    = "category"
	columnPrice       = "price"
	columnServingSize = "serving size"
)

// LoadCSV reads menu items from a CSV file with a header row containing at
// least the Item, Category, Price and Serving Size columns. Item and category
// names are scrubbed to their canonical ASCII form. A malformed row is a load
// error; callers treat that as fatal to initialization.
func LoadCSV(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open menu file %s", path)
	}
	defer f.Close()

	items, err := readItems(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read menu file %s", path)
	}
	return items, nil
}

func readItems(r io.Reader) ([]Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{columnItem, columnCategory, columnPrice, columnServingSize} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("missing column %q", required)
		}
	}

	var items []Item
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", line)
		}
		price, err := parsePrice(record[cols[columnPrice]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: bad price %q", line, record[cols[columnPrice]])
		}
		items = append(items, Item{
			Name:        strutil.NormalizeASCII(record[cols[columnItem]]),
			Category:    strutil.NormalizeASCII(record[cols[columnCategory]]),
			Price:       price,
			ServingSize: strings.TrimSpace(record[cols[columnServingSize]]),
		})
	}
	return items, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, errors.New("negative price")
	}
	return price, nil
}
