package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"weather-avf/internal/models"
	"weather-avf/pkg/logger"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// OpenSQLite opens (creating if needed) the weather store at dbPath.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps pragmas in force and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	return db, nil
}

type SQLiteRepository struct {
	db *sql.DB
	l  *logger.Logger
}

func NewSQLiteRepository(db *sql.DB, l *logger.Logger) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
		l:  l,
	}
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) TableExists(ctx context.Context, t Table) (bool, error) {
	return tableExists(ctx, r.db, t.Name)
}

func tableExists(ctx context.Context, q queryer, name string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for %s table: %w", name, err)
	}
	return count > 0, nil
}

// IndexesExist reports whether every index of t is present.
func (r *SQLiteRepository) IndexesExist(ctx context.Context, t Table) (bool, error) {
	names := make([]any, 0, len(t.Indexes))
	for _, ix := range t.Indexes {
		names = append(names, ix.Name)
	}

	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name IN (" + placeholders(len(names)) + ")"

	var count int
	if err := r.db.QueryRowContext(ctx, query, names...).Scan(&count); err != nil {
		return false, fmt.Errorf("checking indexes of %s: %w", t.Name, err)
	}
	return count == len(t.Indexes), nil
}

// LoadedDates returns the distinct date keys already stored for airport. A
// missing table means nothing is loaded yet.
func (r *SQLiteRepository) LoadedDates(ctx context.Context, t Table, airport string) (map[string]struct{}, error) {
	dates := make(map[string]struct{})

	exists, err := tableExists(ctx, r.db, t.Name)
	if err != nil || !exists {
		return dates, err
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s = ?", t.DateExpr, quoteIdent(t.Name), quoteIdent(ColumnAirport))
	rows, err := r.db.QueryContext(ctx, query, airport)
	if err != nil {
		return nil, fmt.Errorf("querying loaded dates of %s: %w", t.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d sql.NullString
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning loaded date: %w", err)
		}
		if d.Valid && d.String != "" {
			dates[d.String] = struct{}{}
		}
	}

	return dates, rows.Err()
}

// Append inserts every row of b into t inside one transaction, creating the
// table on first use and adding columns it has not seen before. It reports
// whether the table was created by this call.
func (r *SQLiteRepository) Append(ctx context.Context, t Table, b Batch) (created bool, err error) {
	if b.Len() == 0 {
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exists, err := tableExists(ctx, tx, t.Name)
	if err != nil {
		return false, err
	}

	if !exists {
		if err = createTable(ctx, tx, t, b.Columns); err != nil {
			return false, err
		}
		created = true
	} else if err = addMissingColumns(ctx, tx, t, b.Columns); err != nil {
		return false, err
	}

	quoted := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		quoted[i] = quoteIdent(c)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.Name), strings.Join(quoted, ", "), placeholders(len(b.Columns)))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return false, fmt.Errorf("preparing insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for i, row := range b.Rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return false, fmt.Errorf("inserting row %d into %s: %w", i+1, t.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}

	return created, nil
}

func createTable(ctx context.Context, tx *sql.Tx, t Table, columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " " + t.columnType(c)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating %s table: %w", t.Name, err)
	}
	return nil
}

func addMissingColumns(ctx context.Context, tx *sql.Tx, t Table, columns []string) error {
	existing, err := tableColumns(ctx, tx, t.Name)
	if err != nil {
		return err
	}

	for _, c := range columns {
		if _, ok := existing[strings.ToLower(c)]; ok {
			continue
		}
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(t.Name), quoteIdent(c), t.columnType(c))
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("adding column %s to %s: %w", c, t.Name, err)
		}
	}
	return nil
}

// tableColumns returns the lower-cased column names of table; SQLite column
// names are case-insensitive.
func tableColumns(ctx context.Context, q queryer, table string) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = struct{}{}
	}
	return cols, rows.Err()
}

func (r *SQLiteRepository) CreateIndexes(ctx context.Context, t Table) error {
	for _, ix := range t.Indexes {
		ddl := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdent(ix.Name), quoteIdent(t.Name), quoteIdent(ix.Column))
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating index %s: %w", ix.Name, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetObserved(ctx context.Context, airport string, window models.DateRange) ([]models.ObservedWeather, error) {
	exists, err := tableExists(ctx, r.db, ActualTable.Name)
	if err != nil || !exists {
		return nil, err
	}

	from, to := windowBounds(window)
	rows, err := r.db.QueryContext(ctx, `
		SELECT airport, datetime, air_temp, wind_speed
		FROM weather_actual
		WHERE airport = ?
		  AND datetime >= ?
		  AND datetime < ?
		ORDER BY datetime`,
		airport, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying observed weather: %w", err)
	}
	defer rows.Close()

	var out []models.ObservedWeather
	for rows.Next() {
		var (
			code, ts   string
			temp, wind sql.NullFloat64
		)
		if err := rows.Scan(&code, &ts, &temp, &wind); err != nil {
			return nil, fmt.Errorf("scanning observed weather: %w", err)
		}

		t, err := ParseStoredTime(ts)
		if err != nil {
			r.l.Warning("skipping observed row with unreadable timestamp", map[string]any{"airport": code, "datetime": ts})
			continue
		}

		out = append(out, models.ObservedWeather{
			Airport:   code,
			Time:      t,
			AirTemp:   nullable(temp),
			WindSpeed: nullable(wind),
		})
	}

	return out, rows.Err()
}

func (r *SQLiteRepository) GetForecast(ctx context.Context, airport string, window models.DateRange) ([]models.ForecastWeather, error) {
	exists, err := tableExists(ctx, r.db, ForecastTable.Name)
	if err != nil || !exists {
		return nil, err
	}

	from, to := windowBounds(window)
	rows, err := r.db.QueryContext(ctx, `
		SELECT airport, pull_date, datetime, temperature_hourly, wind_speed_sustained
		FROM weather_forecast
		WHERE airport = ?
		  AND datetime >= ?
		  AND datetime < ?
		ORDER BY pull_date, datetime`,
		airport, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying forecast weather: %w", err)
	}
	defer rows.Close()

	var out []models.ForecastWeather
	for rows.Next() {
		var (
			code, pull, ts string
			temp, wind     sql.NullFloat64
		)
		if err := rows.Scan(&code, &pull, &ts, &temp, &wind); err != nil {
			return nil, fmt.Errorf("scanning forecast weather: %w", err)
		}

		pullDate, err := time.Parse(models.DateLayout, pull)
		if err != nil {
			r.l.Warning("skipping forecast row with unreadable pull date", map[string]any{"airport": code, "pull_date": pull})
			continue
		}
		t, err := ParseStoredTime(ts)
		if err != nil {
			r.l.Warning("skipping forecast row with unreadable timestamp", map[string]any{"airport": code, "datetime": ts})
			continue
		}

		out = append(out, models.ForecastWeather{
			Airport:     code,
			PullDate:    pullDate,
			Time:        t,
			Temperature: nullable(temp),
			WindSpeed:   nullable(wind),
		})
	}

	return out, rows.Err()
}

// windowBounds turns an inclusive date window into a half-open string range
// over normalized timestamps.
func windowBounds(window models.DateRange) (from, to string) {
	return window.Start.Format(models.DateLayout), window.End.AddDate(0, 0, 1).Format(models.DateLayout)
}

var storedLayouts = []string{
	models.TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	models.DateLayout,
}

// ParseStoredTime reads a timestamp as written by the loader. Rows loaded by
// older tooling may carry other ISO-8601 spellings.
func ParseStoredTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range storedLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
