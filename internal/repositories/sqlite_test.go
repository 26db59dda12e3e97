package repositories_test

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-avf/internal/models"
	"weather-avf/internal/repositories"
	"weather-avf/pkg/logger"
)

func newRepo(t *testing.T) *repositories.SQLiteRepository {
	t.Helper()

	db, err := repositories.OpenSQLite(filepath.Join(t.TempDir(), "weather.db"))
	require.NoError(t, err)

	repo := repositories.NewSQLiteRepository(db, logger.Nop())
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func observedBatch(airport string, start time.Time, hours int) repositories.Batch {
	b := repositories.Batch{Columns: []string{"datetime", "air_temp", "wind_speed", "station", "airport"}}
	for h := 0; h < hours; h++ {
		ts := start.Add(time.Duration(h) * time.Hour).Format(models.TimestampLayout)
		b.Rows = append(b.Rows, []any{ts, fmt.Sprintf("%d", 30+h), "10", "ORD", airport})
	}
	return b
}

func forecastBatch(airport, pull string, start time.Time, hours int, temp float64) repositories.Batch {
	b := repositories.Batch{Columns: []string{"pull_date", "datetime", "temperature_hourly", "wind_speed_sustained", "airport"}}
	for h := 0; h < hours; h++ {
		ts := start.Add(time.Duration(h) * time.Hour).Format(models.TimestampLayout)
		b.Rows = append(b.Rows, []any{pull, ts, fmt.Sprintf("%.1f", temp), nil, airport})
	}
	return b
}

func TestMissingTableMeansNoData(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	exists, err := repo.TableExists(ctx, repositories.ActualTable)
	require.NoError(t, err)
	assert.False(t, exists)

	dates, err := repo.LoadedDates(ctx, repositories.ActualTable, "KORD")
	require.NoError(t, err)
	assert.Empty(t, dates)

	observed, err := repo.GetObserved(ctx, "KORD", models.NewDateRange(day("2021-03-01"), 13))
	require.NoError(t, err)
	assert.Empty(t, observed)

	forecast, err := repo.GetForecast(ctx, "KORD", models.NewDateRange(day("2021-03-01"), 13))
	require.NoError(t, err)
	assert.Empty(t, forecast)
}

func TestAppend_CreatesTableOnce(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	created, err := repo.Append(ctx, repositories.ActualTable, observedBatch("KORD", day("2021-03-01"), 24))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Append(ctx, repositories.ActualTable, observedBatch("KORD", day("2021-03-02"), 24))
	require.NoError(t, err)
	assert.False(t, created)

	dates, err := repo.LoadedDates(ctx, repositories.ActualTable, "KORD")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"2021-03-01": {}, "2021-03-02": {}}, dates)

	other, err := repo.LoadedDates(ctx, repositories.ActualTable, "KSEA")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAppend_EmptyBatchIsNoop(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	created, err := repo.Append(ctx, repositories.ActualTable, repositories.Batch{Columns: []string{"datetime"}})
	require.NoError(t, err)
	assert.False(t, created)

	exists, err := repo.TableExists(ctx, repositories.ActualTable)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAppend_AddsNewColumns(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, repositories.ActualTable, observedBatch("KORD", day("2021-03-01"), 2))
	require.NoError(t, err)

	b := observedBatch("KORD", day("2021-03-02"), 2)
	b.Columns = append(b.Columns, "dew_point")
	for i := range b.Rows {
		b.Rows[i] = append(b.Rows[i], "28")
	}
	_, err = repo.Append(ctx, repositories.ActualTable, b)
	require.NoError(t, err)

	observed, err := repo.GetObserved(ctx, "KORD", models.NewDateRange(day("2021-03-01"), 1))
	require.NoError(t, err)
	assert.Len(t, observed, 4)
}

func TestAppend_FailedRowRollsBackWholeFile(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, repositories.ActualTable, observedBatch("KORD", day("2021-03-01"), 3))
	require.NoError(t, err)

	bad := observedBatch("KORD", day("2021-03-02"), 3)
	bad.Rows[2] = bad.Rows[2][:2] // wrong arity fails on the last row
	_, err = repo.Append(ctx, repositories.ActualTable, bad)
	require.Error(t, err)

	dates, err := repo.LoadedDates(ctx, repositories.ActualTable, "KORD")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"2021-03-01": {}}, dates)
}

func TestCreateIndexes(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, repositories.ForecastTable, forecastBatch("KORD", "2021-03-01", day("2021-03-01"), 2, 40))
	require.NoError(t, err)

	ok, err := repo.IndexesExist(ctx, repositories.ForecastTable)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.CreateIndexes(ctx, repositories.ForecastTable))
	// idempotent
	require.NoError(t, repo.CreateIndexes(ctx, repositories.ForecastTable))

	ok, err = repo.IndexesExist(ctx, repositories.ForecastTable)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetObserved_InclusiveWindowAscending(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	// 2019-12-31 .. 2020-01-15, loaded out of order
	for _, d := range []string{"2020-01-15", "2020-01-01", "2019-12-31", "2020-01-14", "2020-01-07"} {
		_, err := repo.Append(ctx, repositories.ActualTable, observedBatch("KORD", day(d), 24))
		require.NoError(t, err)
	}
	_, err := repo.Append(ctx, repositories.ActualTable, observedBatch("KSEA", day("2020-01-07"), 24))
	require.NoError(t, err)

	window := models.DateRange{Start: day("2020-01-01"), End: day("2020-01-14")}
	observed, err := repo.GetObserved(ctx, "KORD", window)
	require.NoError(t, err)
	require.Len(t, observed, 3*24)

	for i, row := range observed {
		assert.Equal(t, "KORD", row.Airport)
		assert.True(t, window.Contains(row.Time), "row %s outside window", row.Time)
		if i > 0 {
			assert.False(t, row.Time.Before(observed[i-1].Time), "rows not ascending at %d", i)
		}
	}
	assert.Equal(t, day("2020-01-01"), observed[0].Time)
	assert.Equal(t, day("2020-01-14").Add(23*time.Hour), observed[len(observed)-1].Time)

	require.NotNil(t, observed[0].AirTemp)
	assert.Equal(t, 30.0, *observed[0].AirTemp)
}

func TestGetForecast_GroupedByPullDate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	// later vintage loaded first, both covering 2021-03-02
	_, err := repo.Append(ctx, repositories.ForecastTable, forecastBatch("KORD", "2021-03-02", day("2021-03-02"), 48, 50))
	require.NoError(t, err)
	_, err = repo.Append(ctx, repositories.ForecastTable, forecastBatch("KORD", "2021-03-01", day("2021-03-01"), 48, 40))
	require.NoError(t, err)

	forecast, err := repo.GetForecast(ctx, "KORD", models.NewDateRange(day("2021-03-01"), 13))
	require.NoError(t, err)
	require.Len(t, forecast, 96)

	p1, p2 := day("2021-03-01"), day("2021-03-02")
	for i := 0; i < 48; i++ {
		assert.Equal(t, p1, forecast[i].PullDate)
		require.NotNil(t, forecast[i].Temperature)
		assert.Equal(t, 40.0, *forecast[i].Temperature)
		assert.Nil(t, forecast[i].WindSpeed)
	}
	for i := 48; i < 96; i++ {
		assert.Equal(t, p2, forecast[i].PullDate)
	}
	for i := 1; i < 48; i++ {
		assert.True(t, forecast[i].Time.After(forecast[i-1].Time))
	}
}

func TestGetObserved_ParameterizedQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repositories.NewSQLiteRepository(db, logger.Nop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?")).
		WithArgs("weather_actual").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT airport, datetime, air_temp, wind_speed\s+FROM weather_actual\s+WHERE airport = \?\s+AND datetime >= \?\s+AND datetime < \?\s+ORDER BY datetime`).
		WithArgs("KORD' OR '1'='1", "2021-03-01", "2021-03-15").
		WillReturnRows(sqlmock.NewRows([]string{"airport", "datetime", "air_temp", "wind_speed"}))

	observed, err := repo.GetObserved(context.Background(), "KORD' OR '1'='1", models.NewDateRange(day("2021-03-01"), 13))
	require.NoError(t, err)
	assert.Empty(t, observed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForecast_ParameterizedQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repositories.NewSQLiteRepository(db, logger.Nop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sqlite_master")).
		WithArgs("weather_forecast").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM weather_forecast\s+WHERE airport = \?.*ORDER BY pull_date, datetime`).
		WithArgs("KORD", "2021-03-01", "2021-03-15").
		WillReturnRows(sqlmock.NewRows([]string{"airport", "pull_date", "datetime", "temperature_hourly", "wind_speed_sustained"}).
			AddRow("KORD", "2021-03-01", "2021-03-01 00:00:00", 41.0, 9.0).
			AddRow("KORD", "bogus", "2021-03-01 01:00:00", 42.0, 9.0))

	forecast, err := repo.GetForecast(context.Background(), "KORD", models.NewDateRange(day("2021-03-01"), 13))
	require.NoError(t, err)
	require.Len(t, forecast, 1)
	assert.Equal(t, day("2021-03-01"), forecast[0].PullDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseStoredTime(t *testing.T) {
	for _, s := range []string{"2021-03-01 05:00:00", "2021-03-01T05:00:00", "2021-03-01 05:00"} {
		ts, err := repositories.ParseStoredTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, day("2021-03-01").Add(5*time.Hour), ts, s)
	}

	_, err := repositories.ParseStoredTime("yesterday")
	assert.Error(t, err)
}
