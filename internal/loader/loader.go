// Package loader brings the SQLite store up to date with the extract files on
// disk. Each (airport, date) is loaded at most once.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"weather-avf/internal/metrics"
	"weather-avf/internal/repositories"
	"weather-avf/pkg/logger"
)

// Store is the write side of the weather store.
type Store interface {
	TableExists(ctx context.Context, t repositories.Table) (bool, error)
	IndexesExist(ctx context.Context, t repositories.Table) (bool, error)
	LoadedDates(ctx context.Context, t repositories.Table, airport string) (map[string]struct{}, error)
	Append(ctx context.Context, t repositories.Table, b repositories.Batch) (bool, error)
	CreateIndexes(ctx context.Context, t repositories.Table) error
}

type Summary struct {
	FilesLoaded  int
	FilesSkipped int
	FilesEmpty   int
	FilesBadName int
	RowsInserted int

	// TablesCreated and IndexesBuilt name the tables this run created or
	// indexed.
	TablesCreated []string
	IndexesBuilt  []string
	Duration      time.Duration
}

type Loader struct {
	store    Store
	dataRoot string
	airports []string
	m        *metrics.Recorder
	l        *logger.Logger
}

func New(store Store, dataRoot string, airports []string, m *metrics.Recorder, l *logger.Logger) *Loader {
	sorted := append([]string(nil), airports...)
	sort.Strings(sorted)

	return &Loader{
		store:    store,
		dataRoot: dataRoot,
		airports: sorted,
		m:        m,
		l:        l,
	}
}

// Run loads every observed extract, then every forecast extract, that is not
// yet in the store. The first error aborts the run; files committed before it
// stay committed.
func (ld *Loader) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	var s Summary

	ld.l.Info("loader run started", map[string]any{"data_root": ld.dataRoot, "airports": len(ld.airports)})

	var err error
	for _, kind := range []repositories.Kind{repositories.Observed, repositories.Forecast} {
		if err = ld.runKind(ctx, kind, &s); err != nil {
			break
		}
	}

	s.Duration = time.Since(started)
	ld.m.RunFinished(s.Duration.Seconds(), err, float64(time.Now().Unix()))

	if err != nil {
		return s, err
	}

	ld.l.Info("loader run finished", map[string]any{
		"files_loaded":   s.FilesLoaded,
		"files_skipped":  s.FilesSkipped,
		"files_empty":    s.FilesEmpty,
		"rows_inserted":  s.RowsInserted,
		"tables_created": s.TablesCreated,
		"duration":       s.Duration.String(),
	})

	return s, nil
}

// indexState tracks one table for the length of a run.
type indexState struct {
	table       repositories.Table
	tableExists bool
	indexed     bool
}

func (ld *Loader) runKind(ctx context.Context, kind repositories.Kind, s *Summary) error {
	st := indexState{table: repositories.TableFor(kind)}

	var err error
	if st.tableExists, err = ld.store.TableExists(ctx, st.table); err != nil {
		return err
	}
	if st.tableExists {
		if st.indexed, err = ld.store.IndexesExist(ctx, st.table); err != nil {
			return err
		}
	}

	// A run that died between commit and index creation left the table bare.
	if err := ld.ensureIndexes(ctx, &st, s); err != nil {
		return err
	}

	for _, airport := range ld.airports {
		if err := ld.loadAirport(ctx, airport, &st, s); err != nil {
			return err
		}
	}

	return nil
}

func (ld *Loader) loadAirport(ctx context.Context, airport string, st *indexState, s *Summary) error {
	kind := st.table.Kind

	paths, err := ListExtracts(filepath.Join(ld.dataRoot, airport), kind)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	loaded, err := ld.store.LoadedDates(ctx, st.table, airport)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := DateKey(path)
		if err != nil {
			ld.l.Warning("skipping extract", map[string]any{"path": path, "err": err.Error()})
			ld.m.FileSkipped(kind.String(), metrics.SkipBadName)
			s.FilesBadName++
			continue
		}

		if _, ok := loaded[key]; ok {
			ld.m.FileSkipped(kind.String(), metrics.SkipLoaded)
			s.FilesSkipped++
			continue
		}

		b, err := ReadExtract(path, airport, kind)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}

		if b.Len() == 0 {
			ld.l.Debug("extract has no rows", map[string]any{"path": path})
			ld.m.FileSkipped(kind.String(), metrics.SkipEmpty)
			s.FilesEmpty++
			continue
		}

		created, err := ld.store.Append(ctx, st.table, b)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		if created {
			st.tableExists = true
			s.TablesCreated = append(s.TablesCreated, st.table.Name)
			ld.l.Info("created table", map[string]any{"table": st.table.Name, "columns": len(b.Columns)})
		}
		loaded[key] = struct{}{}

		ld.l.Info(fmt.Sprintf("loaded %s for %s on %s", kind, airport, key), map[string]any{
			"airport": airport,
			"date":    key,
			"rows":    b.Len(),
		})
		ld.m.FileLoaded(kind.String(), b.Len())
		s.FilesLoaded++
		s.RowsInserted += b.Len()

		if err := ld.ensureIndexes(ctx, st, s); err != nil {
			return err
		}
	}

	return nil
}

func (ld *Loader) ensureIndexes(ctx context.Context, st *indexState, s *Summary) error {
	if !st.tableExists || st.indexed {
		return nil
	}

	if err := ld.store.CreateIndexes(ctx, st.table); err != nil {
		return err
	}
	st.indexed = true

	ld.l.Info("created indexes", map[string]any{"table": st.table.Name})
	ld.m.IndexesCreated(st.table.Kind.String())
	s.IndexesBuilt = append(s.IndexesBuilt, st.table.Name)

	return nil
}

// IsInputError reports whether err came from a malformed extract rather than
// the store.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrDuplicateColumn) ||
		errors.Is(err, ErrBadTimestamp) ||
		errors.Is(err, ErrBadNumber)
}
