package repositories

import (
	"context"

	"weather-avf/internal/models"
)

// WeatherRepository is the read side used by the dashboard.
type WeatherRepository interface {
	GetObserved(ctx context.Context, airport string, window models.DateRange) ([]models.ObservedWeather, error)
	GetForecast(ctx context.Context, airport string, window models.DateRange) ([]models.ForecastWeather, error)
}

// Kind selects one of the two extract families.
type Kind int

const (
	Observed Kind = iota
	Forecast
)

func (k Kind) String() string {
	switch k {
	case Observed:
		return "observed"
	case Forecast:
		return "forecast"
	}
	return "unknown"
}

type Index struct {
	Name   string
	Column string
}

// Table describes one append-only weather table. Identifiers used in SQL come
// only from these definitions.
type Table struct {
	Kind Kind
	Name string
	// DateExpr yields the dedup key of a stored row.
	DateExpr string
	// Real lists the columns declared REAL; every other column is TEXT.
	Real    []string
	Indexes []Index
}

const (
	ColumnAirport        = "airport"
	ColumnDatetime       = "datetime"
	ColumnPullDate       = "pull_date"
	ColumnAirTemp        = "air_temp"
	ColumnWindSpeed      = "wind_speed"
	ColumnForecastTemp   = "temperature_hourly"
	ColumnForecastWind   = "wind_speed_sustained"
	ColumnForecastStamps = "forecast_time_stamps"
)

var ActualTable = Table{
	Kind:     Observed,
	Name:     "weather_actual",
	DateExpr: "date(" + ColumnDatetime + ")",
	Real:     []string{ColumnAirTemp, ColumnWindSpeed},
	Indexes: []Index{
		{Name: "ix_actl_datetime", Column: ColumnDatetime},
		{Name: "ix_actl_airport", Column: ColumnAirport},
	},
}

var ForecastTable = Table{
	Kind:     Forecast,
	Name:     "weather_forecast",
	DateExpr: ColumnPullDate,
	Real:     []string{ColumnForecastTemp, ColumnForecastWind},
	Indexes: []Index{
		{Name: "ix_fcst_pull_date", Column: ColumnPullDate},
		{Name: "ix_fcst_datetime", Column: ColumnDatetime},
		{Name: "ix_fcst_airport", Column: ColumnAirport},
	},
}

func TableFor(kind Kind) Table {
	if kind == Forecast {
		return ForecastTable
	}
	return ActualTable
}

func (t Table) columnType(column string) string {
	for _, c := range t.Real {
		if c == column {
			return "REAL"
		}
	}
	return "TEXT"
}

// Batch is the parsed content of one extract file. Values are string, float64
// or nil.
type Batch struct {
	Columns []string
	Rows    [][]any
}

func (b Batch) Len() int {
	return len(b.Rows)
}
