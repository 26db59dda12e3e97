package weather

import "weather-avf/internal/models"

const (
	TemperatureChartID = "avf-temperature"
	WindChartID        = "avf-wind"
)

// TemperatureChart compares each forecast vintage's hourly temperature with
// the observed air temperature. The axis is fixed at 0-120 °F; values outside
// it stay in the data.
func TemperatureChart(forecast []models.ForecastWeather, observed []models.ObservedWeather) models.Chart {
	return buildChart(models.Chart{
		ID:     TemperatureChartID,
		Title:  "Temperature Forecast vs Actual",
		YLabel: "Temperature (°F)",
		Unit:   "°F",
		YMin:   0,
		YMax:   120,
	}, forecast, observed,
		func(f models.ForecastWeather) *float64 { return f.Temperature },
		func(o models.ObservedWeather) *float64 { return o.AirTemp },
	)
}

// WindChart is TemperatureChart for sustained wind speed, fixed at 0-40 MPH.
func WindChart(forecast []models.ForecastWeather, observed []models.ObservedWeather) models.Chart {
	return buildChart(models.Chart{
		ID:     WindChartID,
		Title:  "Wind Speed Forecast vs Actual",
		YLabel: "Wind Speed (MPH)",
		Unit:   "MPH",
		YMin:   0,
		YMax:   40,
	}, forecast, observed,
		func(f models.ForecastWeather) *float64 { return f.WindSpeed },
		func(o models.ObservedWeather) *float64 { return o.WindSpeed },
	)
}

// buildChart adds one series per pull date, in the order the rows arrive
// (pull date ascending), then the observed series last.
func buildChart(
	c models.Chart,
	forecast []models.ForecastWeather,
	observed []models.ObservedWeather,
	forecastValue func(models.ForecastWeather) *float64,
	observedValue func(models.ObservedWeather) *float64,
) models.Chart {
	byPull := make(map[string]int)
	for _, f := range forecast {
		name := f.PullDate.Format(models.DateLayout)
		i, ok := byPull[name]
		if !ok {
			i = len(c.Series)
			byPull[name] = i
			c.Series = append(c.Series, models.Series{Name: name})
		}
		c.Series[i].Points = append(c.Series[i].Points, models.Point{Time: f.Time, Value: forecastValue(f)})
	}

	actual := models.Series{Name: ActualSeriesName, Points: make([]models.Point, 0, len(observed))}
	for _, o := range observed {
		actual.Points = append(actual.Points, models.Point{Time: o.Time, Value: observedValue(o)})
	}
	c.Series = append(c.Series, actual)

	return c
}
