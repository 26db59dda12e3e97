package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"weather-avf/internal/models"
	"weather-avf/internal/repositories"
)

var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrBadTimestamp    = errors.New("bad timestamp")
	ErrBadNumber       = errors.New("bad numeric value")
	ErrBadDateKey      = errors.New("file name carries no YYYY-MM-DD date")
)

var filePatterns = map[repositories.Kind]string{
	repositories.Observed: "nws_actl_*.csv*",
	repositories.Forecast: "nws_fcst_*.csv*",
}

var requiredColumns = map[repositories.Kind][]string{
	repositories.Observed: {
		repositories.ColumnDatetime,
		repositories.ColumnAirTemp,
		repositories.ColumnWindSpeed,
	},
	repositories.Forecast: {
		repositories.ColumnPullDate,
		repositories.ColumnDatetime,
		repositories.ColumnForecastTemp,
		repositories.ColumnForecastWind,
	},
}

// missingValues are cell spellings read as NULL in numeric columns.
var missingValues = map[string]struct{}{
	"":    {},
	"NA":  {},
	"NaN": {},
	"nan": {},
	"M":   {},
}

var timestampLayouts = []string{
	models.TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	models.DateLayout,
}

// ListExtracts returns the extract files of kind in dir, sorted by name. A
// missing directory yields no files.
func ListExtracts(dir string, kind repositories.Kind) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, filePatterns[kind]))
	if err != nil {
		return nil, fmt.Errorf("listing %s extracts in %s: %w", kind, dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// DateKey extracts the date a file is named for: the text after the last "_"
// up to the first ".", e.g. nws_fcst_2021-03-01.csv.gz -> 2021-03-01.
func DateKey(path string) (string, error) {
	name := filepath.Base(path)
	key := name[strings.LastIndex(name, "_")+1:]
	if i := strings.Index(key, "."); i >= 0 {
		key = key[:i]
	}
	if _, err := time.Parse(models.DateLayout, key); err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadDateKey, name)
	}
	return key, nil
}

// ReadExtract parses one extract file, gunzipping it when the name ends in
// .gz. An empty file yields an empty batch.
func ReadExtract(path, airport string, kind repositories.Kind) (repositories.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return repositories.Batch{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		info, err := f.Stat()
		if err != nil {
			return repositories.Batch{}, err
		}
		if info.Size() == 0 {
			return repositories.Batch{}, nil
		}

		zr, err := gzip.NewReader(f)
		if err != nil {
			return repositories.Batch{}, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	return ParseExtract(r, airport, kind)
}

// ParseExtract reads CSV with a header row into a batch ready for the store:
// timestamps normalized, numeric columns parsed, forecast_time_stamps renamed
// to datetime and every row tagged with airport.
func ParseExtract(r io.Reader, airport string, kind repositories.Kind) (repositories.Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return repositories.Batch{}, nil
	}
	if err != nil {
		return repositories.Batch{}, fmt.Errorf("reading header: %w", err)
	}

	columns, keep, err := normalizeHeader(header, kind)
	if err != nil {
		return repositories.Batch{}, err
	}

	t := repositories.TableFor(kind)
	numeric := make([]bool, len(columns))
	for i, c := range columns {
		numeric[i] = isReal(t, c)
	}

	b := repositories.Batch{Columns: append(columns, repositories.ColumnAirport)}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return repositories.Batch{}, fmt.Errorf("reading line %d: %w", line, err)
		}
		if len(record) > len(header) {
			return repositories.Batch{}, fmt.Errorf("line %d: %d fields, header has %d", line, len(record), len(header))
		}

		row := make([]any, 0, len(b.Columns))
		for i, src := range keep {
			cell := ""
			if src < len(record) {
				cell = strings.TrimSpace(record[src])
			}

			v, err := convert(columns[i], cell, numeric[i])
			if err != nil {
				return repositories.Batch{}, fmt.Errorf("line %d: %w", line, err)
			}
			row = append(row, v)
		}
		b.Rows = append(b.Rows, append(row, airport))
	}

	return b, nil
}

// normalizeHeader returns the stored column names and, for each, the index of
// the source field. Any existing airport column is dropped; the loader tag
// replaces it.
func normalizeHeader(header []string, kind repositories.Kind) ([]string, []int, error) {
	var (
		columns []string
		keep    []int
		seen    = make(map[string]struct{}, len(header))
	)

	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = "unnamed_" + strconv.Itoa(i)
		}
		name = canonical(name)
		if kind == repositories.Forecast && name == repositories.ColumnForecastStamps {
			name = repositories.ColumnDatetime
		}
		if strings.EqualFold(name, repositories.ColumnAirport) {
			continue
		}

		folded := strings.ToLower(name)
		if _, ok := seen[folded]; ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		seen[folded] = struct{}{}

		columns = append(columns, name)
		keep = append(keep, i)
	}

	for _, req := range requiredColumns[kind] {
		if _, ok := seen[req]; !ok {
			if kind == repositories.Forecast && req == repositories.ColumnDatetime {
				req = repositories.ColumnForecastStamps
			}
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	return columns, keep, nil
}

var canonicalColumns = []string{
	repositories.ColumnDatetime,
	repositories.ColumnPullDate,
	repositories.ColumnAirTemp,
	repositories.ColumnWindSpeed,
	repositories.ColumnForecastTemp,
	repositories.ColumnForecastWind,
	repositories.ColumnForecastStamps,
}

// canonical maps case variants of the known columns to their stored spelling.
func canonical(name string) string {
	for _, c := range canonicalColumns {
		if strings.EqualFold(name, c) {
			return c
		}
	}
	return name
}

func isReal(t repositories.Table, column string) bool {
	for _, c := range t.Real {
		if c == column {
			return true
		}
	}
	return false
}

func convert(column, cell string, numeric bool) (any, error) {
	switch {
	case column == repositories.ColumnDatetime:
		ts, err := NormalizeTimestamp(cell)
		if err != nil {
			return nil, err
		}
		return ts, nil

	case column == repositories.ColumnPullDate:
		ts, err := parseTimestamp(cell)
		if err != nil {
			return nil, err
		}
		return ts.Format(models.DateLayout), nil

	case numeric:
		if _, ok := missingValues[cell]; ok {
			return nil, nil
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrBadNumber, column, cell)
		}
		return f, nil
	}

	if cell == "" {
		return nil, nil
	}
	return cell, nil
}

// NormalizeTimestamp rewrites an ISO-8601 timestamp as YYYY-MM-DD HH:MM:SS,
// keeping the wall clock as written and dropping any UTC offset.
func NormalizeTimestamp(s string) (string, error) {
	t, err := parseTimestamp(s)
	if err != nil {
		return "", err
	}
	return t.Format(models.TimestampLayout), nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrBadTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}
