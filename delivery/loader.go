package delivery

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const columnCity = "city"

// LoadCSV reads locality names from a CSV file with a header row containing
// a City column. Extra columns (state, population and so on) are ignored.
func LoadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open cities file %s", path)
	}
	defer f.Close()

	localities, err := readLocalities(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read cities file %s", path)
	}
	return localities, nil
}

func readLocalities(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cityCol := -1
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == columnCity {
			cityCol = i
			break
		}
	}
	if cityCol < 0 {
		return nil, errors.Errorf("missing column %q", columnCity)
	}

	var localities []string
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", line)
		}
		if cityCol >= len(record) {
			continue
		}
		localities = append(localities, record[cityCol])
	}
	return localities, nil
}
