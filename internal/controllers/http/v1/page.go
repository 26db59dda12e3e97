package http

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	nethttp "net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"weather-avf/internal/models"
	"weather-avf/internal/services/weather"
)

const (
	assetsHost  = "https://go-echarts.github.io/go-echarts-assets/assets/"
	chartHeight = "350px"
	chartTheme  = types.ThemeChalk
)

//go:embed views/*.html
var viewsFS embed.FS

// NewViews returns the template engine for the dashboard page.
func NewViews() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(nethttp.FS(sub), ".html")
}

type airportOption struct {
	Code     string
	Label    string
	Selected bool
}

type chartView struct {
	ID      string
	Height  string
	Theme   string
	Options template.JS
}

type pageData struct {
	Title      string
	BasePath   string
	AssetsHost string
	Airports   []airportOption
	Start      string
	End        string
	MinDate    string
	MaxDate    string
	Charts     []chartView
}

// handlePage renders the dashboard. Unusable input falls back to the default
// airport and start date instead of failing.
func (r *routes) handlePage(c *fiber.Ctx) error {
	airport := c.Query("airport", r.service.DefaultAirport())

	start := r.service.DefaultStart()
	if s := c.Query("start"); validate.Var(s, "required,datetime=2006-01-02") == nil {
		start, _ = time.Parse(models.DateLayout, s)
	}

	if _, err := r.service.Validate(airport, start); err != nil {
		if errors.Is(err, weather.ErrUnknownAirport) {
			airport = r.service.DefaultAirport()
		}
		if _, err := r.service.Validate(airport, start); errors.Is(err, weather.ErrDateOutOfRange) {
			start = r.service.DefaultStart()
		}
	}

	dashboard, err := r.service.BuildDashboard(c.UserContext(), airport, start)
	if err != nil {
		r.l.Error(err, map[string]any{
			"airport": airport,
			"start":   start.Format(models.DateLayout),
		})
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to build dashboard")
	}

	first, last := r.service.Bounds()

	data := pageData{
		Title:      "Weather Forecast vs Actual",
		BasePath:   r.basePath,
		AssetsHost: assetsHost,
		Start:      dashboard.Start,
		End:        dashboard.End,
		MinDate:    first.Format(models.DateLayout),
		MaxDate:    last.Format(models.DateLayout),
		Charts: []chartView{
			renderChart(dashboard.Temperature),
			renderChart(dashboard.Wind),
		},
	}
	for _, a := range r.service.Airports() {
		data.Airports = append(data.Airports, airportOption{
			Code:     a.Code,
			Label:    a.Label(),
			Selected: a.Code == dashboard.Airport.Code,
		})
	}

	return c.Render("index", data)
}

// renderChart turns a chart specification into ECharts options.
func renderChart(ch models.Chart) chartView {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: ch.ID,
			Height:  chartHeight,
			Theme:   chartTheme,
		}),
		charts.WithTitleOpts(opts.Title{Title: ch.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: ch.YLabel, Min: ch.YMin, Max: ch.YMax}),
	)

	for _, s := range ch.Series {
		data := make([]opts.LineData, 0, len(s.Points))
		for _, p := range s.Points {
			var v any
			if p.Value != nil {
				v = *p.Value
			}
			data = append(data, opts.LineData{Value: []any{p.Time.Format(models.TimestampLayout), v}})
		}
		line.AddSeries(s.Name, data)
	}

	line.Validate()

	return chartView{
		ID:      ch.ID,
		Height:  chartHeight,
		Theme:   chartTheme,
		Options: template.JS(line.JSONNotEscaped()),
	}
}
