package weather_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-avf/internal/catalog"
	"weather-avf/internal/metrics"
	"weather-avf/internal/models"
	"weather-avf/internal/services/weather"
	"weather-avf/pkg/logger"
)

// MockRepository implements WeatherRepository for testing
type MockRepository struct {
	observed   []models.ObservedWeather
	forecast   []models.ForecastWeather
	shouldFail bool
	windows    []models.DateRange
	airports   []string
	callCount  int
}

func (m *MockRepository) record(airport string, window models.DateRange) {
	m.callCount++
	m.airports = append(m.airports, airport)
	m.windows = append(m.windows, window)
}

func (m *MockRepository) GetObserved(ctx context.Context, airport string, window models.DateRange) ([]models.ObservedWeather, error) {
	m.record(airport, window)
	if m.shouldFail {
		return nil, errors.New("mock repository error")
	}
	return m.observed, nil
}

func (m *MockRepository) GetForecast(ctx context.Context, airport string, window models.DateRange) ([]models.ForecastWeather, error) {
	m.record(airport, window)
	if m.shouldFail {
		return nil, errors.New("mock repository error")
	}
	return m.forecast, nil
}

func date(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(v float64) *float64 {
	return &v
}

func newService(t *testing.T, repo *MockRepository) *weather.WeatherService {
	t.Helper()
	return newServiceWithMetrics(t, repo, metrics.New(false))
}

func newServiceWithMetrics(t *testing.T, repo *MockRepository, m *metrics.Recorder) *weather.WeatherService {
	t.Helper()

	airports, err := catalog.New([]models.Airport{
		{Code: "KORD", City: "Chicago", State: "IL"},
		{Code: "KSEA", City: "Seattle", State: "WA"},
	})
	require.NoError(t, err)

	return weather.NewWeatherService(repo, airports, weather.Options{
		EarliestDate:   date("2019-08-25"),
		DefaultAirport: "KORD",
		WindowDays:     13,
		Now:            func() time.Time { return time.Date(2021, 6, 1, 15, 30, 0, 0, time.Local) },
	}, m, logger.Nop())
}

func TestNewWeatherService(t *testing.T) {
	service := newService(t, &MockRepository{})

	assert.NotNil(t, service)
	assert.Equal(t, "KORD", service.DefaultAirport())
	assert.Len(t, service.Airports(), 2)
}

func TestWeatherService_Window(t *testing.T) {
	service := newService(t, &MockRepository{})

	window := service.Window(date("2021-03-01"))
	assert.Equal(t, "2021-03-01", window.Start.Format(models.DateLayout))
	assert.Equal(t, "2021-03-14", window.End.Format(models.DateLayout))

	// month and year boundaries
	window = service.Window(date("2020-12-25"))
	assert.Equal(t, "2021-01-07", window.End.Format(models.DateLayout))
}

func TestWeatherService_BoundsAndDefaults(t *testing.T) {
	service := newService(t, &MockRepository{})

	first, last := service.Bounds()
	assert.Equal(t, "2019-08-25", first.Format(models.DateLayout))
	assert.Equal(t, "2021-05-31", last.Format(models.DateLayout))
	assert.Equal(t, "2021-05-18", service.DefaultStart().Format(models.DateLayout))
}

func TestWeatherService_Validate(t *testing.T) {
	service := newService(t, &MockRepository{})

	a, err := service.Validate("KSEA", date("2019-08-25"))
	require.NoError(t, err)
	assert.Equal(t, "Seattle", a.City)

	_, err = service.Validate("KSEA", date("2021-05-31"))
	assert.NoError(t, err)

	_, err = service.Validate("KXXX", date("2021-03-01"))
	assert.ErrorIs(t, err, weather.ErrUnknownAirport)

	_, err = service.Validate("KORD", date("2019-08-24"))
	assert.ErrorIs(t, err, weather.ErrDateOutOfRange)

	_, err = service.Validate("KORD", date("2021-06-01"))
	assert.ErrorIs(t, err, weather.ErrDateOutOfRange)
}

func TestWeatherService_BuildDashboard_QueriesWindow(t *testing.T) {
	repo := &MockRepository{}
	service := newService(t, repo)

	dashboard, err := service.BuildDashboard(context.Background(), "KORD", date("2021-03-01"))
	require.NoError(t, err)

	assert.Equal(t, "2021-03-01", dashboard.Start)
	assert.Equal(t, "2021-03-14", dashboard.End)
	assert.Equal(t, "KORD", dashboard.Airport.Code)

	assert.Equal(t, 2, repo.callCount)
	assert.Equal(t, []string{"KORD", "KORD"}, repo.airports)
	for _, w := range repo.windows {
		assert.Equal(t, date("2021-03-01"), w.Start)
		assert.Equal(t, date("2021-03-14"), w.End)
	}
}

func TestWeatherService_BuildDashboard_Series(t *testing.T) {
	t0 := date("2021-03-02")
	repo := &MockRepository{
		forecast: []models.ForecastWeather{
			{Airport: "KORD", PullDate: date("2021-03-01"), Time: t0, Temperature: ptr(40), WindSpeed: ptr(10)},
			{Airport: "KORD", PullDate: date("2021-03-01"), Time: t0.Add(time.Hour), Temperature: ptr(41), WindSpeed: nil},
			{Airport: "KORD", PullDate: date("2021-03-02"), Time: t0, Temperature: ptr(130), WindSpeed: ptr(12)},
		},
		observed: []models.ObservedWeather{
			{Airport: "KORD", Time: t0, AirTemp: ptr(39), WindSpeed: ptr(11)},
		},
	}
	service := newService(t, repo)

	dashboard, err := service.BuildDashboard(context.Background(), "KORD", date("2021-03-01"))
	require.NoError(t, err)

	temp := dashboard.Temperature
	assert.Equal(t, "Temperature Forecast vs Actual", temp.Title)
	assert.Equal(t, 0.0, temp.YMin)
	assert.Equal(t, 120.0, temp.YMax)
	require.Len(t, temp.Series, 3)
	assert.Equal(t, "2021-03-01", temp.Series[0].Name)
	assert.Len(t, temp.Series[0].Points, 2)
	assert.Equal(t, "2021-03-02", temp.Series[1].Name)
	// out-of-range values are kept; the fixed axis clips them
	assert.Equal(t, 130.0, *temp.Series[1].Points[0].Value)
	assert.Equal(t, weather.ActualSeriesName, temp.Series[2].Name)
	assert.Equal(t, 39.0, *temp.Series[2].Points[0].Value)

	wind := dashboard.Wind
	assert.Equal(t, "Wind Speed Forecast vs Actual", wind.Title)
	assert.Equal(t, 40.0, wind.YMax)
	require.Len(t, wind.Series, 3)
	assert.Nil(t, wind.Series[0].Points[1].Value)
	assert.Equal(t, 11.0, *wind.Series[2].Points[0].Value)
}

func TestWeatherService_BuildDashboard_Empty(t *testing.T) {
	service := newService(t, &MockRepository{})

	dashboard, err := service.BuildDashboard(context.Background(), "KSEA", date("2021-03-01"))
	require.NoError(t, err)

	for _, c := range []models.Chart{dashboard.Temperature, dashboard.Wind} {
		require.Len(t, c.Series, 1)
		assert.Equal(t, weather.ActualSeriesName, c.Series[0].Name)
		assert.Empty(t, c.Series[0].Points)
	}
}

func TestWeatherService_BuildDashboard_InvalidInput(t *testing.T) {
	repo := &MockRepository{}
	service := newService(t, repo)

	_, err := service.BuildDashboard(context.Background(), "KXXX", date("2021-03-01"))
	assert.ErrorIs(t, err, weather.ErrUnknownAirport)

	_, err = service.BuildDashboard(context.Background(), "KORD", date("2018-01-01"))
	assert.ErrorIs(t, err, weather.ErrDateOutOfRange)

	assert.Equal(t, 0, repo.callCount)
}

func TestWeatherService_BuildDashboard_RepositoryFailure(t *testing.T) {
	service := newService(t, &MockRepository{shouldFail: true})

	_, err := service.BuildDashboard(context.Background(), "KORD", date("2021-03-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock repository error")
}

func TestWeatherService_BuildDashboard_RepositoryFailureStopsEarly(t *testing.T) {
	repo := &MockRepository{shouldFail: true}
	service := newService(t, repo)

	_, err := service.BuildDashboard(context.Background(), "KORD", date("2021-03-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching observed weather")
	assert.Equal(t, 1, repo.callCount)
}

func TestWeatherService_BuildDashboard_MetricLabelsStayInCatalog(t *testing.T) {
	m := metrics.New(false)
	service := newServiceWithMetrics(t, &MockRepository{}, m)

	for i := 0; i < 50; i++ {
		_, err := service.BuildDashboard(context.Background(), fmt.Sprintf("X%d", i), date("2021-03-01"))
		require.ErrorIs(t, err, weather.ErrUnknownAirport)
	}
	_, err := service.BuildDashboard(context.Background(), "KORD", date("2021-03-01"))
	require.NoError(t, err)
	_, err = service.BuildDashboard(context.Background(), "KSEA", date("2018-01-01"))
	require.ErrorIs(t, err, weather.ErrDateOutOfRange)

	n, err := testutil.GatherAndCount(m.Registry(), "weather_avf_dashboard_builds_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	expected := `
# HELP weather_avf_dashboard_builds_total Dashboards built, by airport and outcome.
# TYPE weather_avf_dashboard_builds_total counter
weather_avf_dashboard_builds_total{airport="KORD",status="ok"} 1
weather_avf_dashboard_builds_total{airport="KSEA",status="error"} 1
weather_avf_dashboard_builds_total{airport="unknown",status="error"} 50
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "weather_avf_dashboard_builds_total"))
}
