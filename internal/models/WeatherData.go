package models

import "time"

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// ObservedWeather is one row of weather_actual.
type ObservedWeather struct {
	Airport   string    `json:"airport" example:"KORD"`
	Time      time.Time `json:"datetime"`
	AirTemp   *float64  `json:"air_temp" example:"41.0"`
	WindSpeed *float64  `json:"wind_speed" example:"12.0"`
}

// ForecastWeather is one row of weather_forecast. PullDate is the day the
// forecast was issued, Time the hour being forecast.
type ForecastWeather struct {
	Airport     string    `json:"airport" example:"KORD"`
	PullDate    time.Time `json:"pull_date"`
	Time        time.Time `json:"datetime"`
	Temperature *float64  `json:"temperature_hourly" example:"43.0"`
	WindSpeed   *float64  `json:"wind_speed_sustained" example:"10.0"`
}

// DateRange is an inclusive calendar-date window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start time.Time, days int) DateRange {
	start = TruncateDay(start)
	return DateRange{Start: start, End: start.AddDate(0, 0, days)}
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
