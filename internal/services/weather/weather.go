package weather

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"weather-avf/internal/metrics"
	"weather-avf/internal/models"
	"weather-avf/internal/repositories"
	"weather-avf/pkg/logger"
)

const (
	defaultWindowDays = 13
	defaultLookback   = 14

	ActualSeriesName = "Actual"
)

var (
	ErrUnknownAirport = errors.New("unknown airport")
	ErrDateOutOfRange = errors.New("start date out of range")
)

// Airports is the subset of the catalog the service needs.
type Airports interface {
	All() []models.Airport
	Lookup(code string) (models.Airport, bool)
}

type Options struct {
	// EarliestDate is the first selectable start date.
	EarliestDate   time.Time
	DefaultAirport string
	// WindowDays is added to the start date to get the last day shown.
	WindowDays int
	Now        func() time.Time
}

// WeatherService builds forecast-vs-actual dashboards.
type WeatherService struct {
	repo     repositories.WeatherRepository
	airports Airports
	opts     Options
	m        *metrics.Recorder
	l        *logger.Logger
}

func NewWeatherService(repo repositories.WeatherRepository, airports Airports, opts Options, m *metrics.Recorder, l *logger.Logger) *WeatherService {
	if opts.WindowDays <= 0 {
		opts.WindowDays = defaultWindowDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.EarliestDate = civilDate(opts.EarliestDate)

	return &WeatherService{
		repo:     repo,
		airports: airports,
		opts:     opts,
		m:        m,
		l:        l,
	}
}

func (s *WeatherService) Airports() []models.Airport {
	return s.airports.All()
}

func (s *WeatherService) DefaultAirport() string {
	return s.opts.DefaultAirport
}

// Bounds returns the earliest and latest selectable start dates; the latest
// is yesterday.
func (s *WeatherService) Bounds() (first, last time.Time) {
	return s.opts.EarliestDate, s.today().AddDate(0, 0, -1)
}

// DefaultStart is two weeks before today, kept inside Bounds.
func (s *WeatherService) DefaultStart() time.Time {
	start := s.today().AddDate(0, 0, -defaultLookback)
	if first, _ := s.Bounds(); start.Before(first) {
		return first
	}
	return start
}

// Window is the inclusive date range shown for start.
func (s *WeatherService) Window(start time.Time) models.DateRange {
	return models.NewDateRange(civilDate(start), s.opts.WindowDays)
}

// Validate checks airport and start against the catalog and Bounds.
func (s *WeatherService) Validate(airport string, start time.Time) (models.Airport, error) {
	a, ok := s.airports.Lookup(airport)
	if !ok {
		return models.Airport{}, errors.Wrapf(ErrUnknownAirport, "%q", airport)
	}

	first, last := s.Bounds()
	start = civilDate(start)
	if start.Before(first) || start.After(last) {
		return models.Airport{}, errors.Wrapf(ErrDateOutOfRange, "%s not in %s..%s",
			start.Format(models.DateLayout), first.Format(models.DateLayout), last.Format(models.DateLayout))
	}

	return a, nil
}

// BuildDashboard validates airport and start, then queries the window and
// builds both charts. Validation failures wrap ErrUnknownAirport or
// ErrDateOutOfRange.
func (s *WeatherService) BuildDashboard(ctx context.Context, airport string, start time.Time) (models.Dashboard, error) {
	label := metrics.UnknownAirport
	if a, ok := s.airports.Lookup(airport); ok {
		label = a.Code
	}

	dashboard, err := s.buildDashboard(ctx, airport, start)
	s.m.DashboardBuilt(label, err)

	return dashboard, err
}

func (s *WeatherService) buildDashboard(ctx context.Context, airport string, start time.Time) (models.Dashboard, error) {
	a, err := s.Validate(airport, start)
	if err != nil {
		return models.Dashboard{}, err
	}

	window := s.Window(start)

	s.l.Debug("building dashboard", map[string]any{"airport": airport, "window": window.String()})

	started := time.Now()
	observed, err := s.repo.GetObserved(ctx, a.Code, window)
	s.m.QueryFinished(repositories.Observed.String(), time.Since(started).Seconds())
	if err != nil {
		s.l.Error(err, map[string]any{"airport": a.Code, "window": window.String()})
		return models.Dashboard{}, errors.Wrap(err, "fetching observed weather")
	}

	started = time.Now()
	forecast, err := s.repo.GetForecast(ctx, a.Code, window)
	s.m.QueryFinished(repositories.Forecast.String(), time.Since(started).Seconds())
	if err != nil {
		s.l.Error(err, map[string]any{"airport": a.Code, "window": window.String()})
		return models.Dashboard{}, errors.Wrap(err, "fetching forecast weather")
	}

	s.l.Info("dashboard built", map[string]any{
		"airport":       a.Code,
		"window":        window.String(),
		"observed_rows": len(observed),
		"forecast_rows": len(forecast),
	})

	return models.Dashboard{
		Airport:     a,
		Start:       window.Start.Format(models.DateLayout),
		End:         window.End.Format(models.DateLayout),
		Temperature: TemperatureChart(forecast, observed),
		Wind:        WindChart(forecast, observed),
	}, nil
}

func (s *WeatherService) today() time.Time {
	return civilDate(s.opts.Now())
}

// civilDate drops the clock and zone, keeping the calendar date as UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
