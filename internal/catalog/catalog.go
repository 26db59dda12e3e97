// Package catalog loads the static airport reference list.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"weather-avf/internal/models"
)

const (
	ColumnCode  = "icao_designation"
	ColumnCity  = "city"
	ColumnState = "state_abbrev"
)

var (
	ErrMissingColumn = errors.New("missing catalog column")
	ErrDuplicateCode = errors.New("duplicate airport code")
)

// Catalog is the immutable airport list, kept in file order.
type Catalog struct {
	airports []models.Airport
	byCode   map[string]models.Airport
}

func New(airports []models.Airport) (*Catalog, error) {
	c := &Catalog{
		airports: make([]models.Airport, 0, len(airports)),
		byCode:   make(map[string]models.Airport, len(airports)),
	}
	for _, a := range airports {
		if _, ok := c.byCode[a.Code]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, a.Code)
		}
		c.byCode[a.Code] = a
		c.airports = append(c.airports, a)
	}
	return c, nil
}

func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airport catalog: %w", err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read airport catalog %s: %w", path, err)
	}
	return c, nil
}

// Read parses a catalog CSV with a header row. Columns other than code, city
// and state are ignored.
func Read(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range []string{ColumnCode, ColumnCity, ColumnState} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var airports []models.Airport
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		a := models.Airport{
			Code:  field(record, idx[ColumnCode]),
			City:  field(record, idx[ColumnCity]),
			State: field(record, idx[ColumnState]),
		}
		if a.Code == "" {
			continue
		}
		airports = append(airports, a)
	}

	return New(airports)
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (c *Catalog) All() []models.Airport {
	out := make([]models.Airport, len(c.airports))
	copy(out, c.airports)
	return out
}

// Codes returns the airport codes sorted ascending, the loader's processing order.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.airports))
	for _, a := range c.airports {
		codes = append(codes, a.Code)
	}
	sort.Strings(codes)
	return codes
}

func (c *Catalog) Lookup(code string) (models.Airport, bool) {
	a, ok := c.byCode[code]
	return a, ok
}

func (c *Catalog) Len() int {
	return len(c.airports)
}
