package models

import "time"

// Point is a single (time, value) sample. Value is nil for a missing reading.
type Point struct {
	Time  time.Time `json:"time"`
	Value *float64  `json:"value"`
}

type Series struct {
	Name   string  `json:"name" example:"2021-03-01"`
	Points []Point `json:"points"`
}

// Chart is a renderer-independent line chart specification.
type Chart struct {
	ID     string   `json:"id" example:"avf-temperature"`
	Title  string   `json:"title" example:"Temperature Forecast vs Actual"`
	YLabel string   `json:"y_label" example:"Temperature (°F)"`
	Unit   string   `json:"unit" example:"°F"`
	YMin   float64  `json:"y_min" example:"0"`
	YMax   float64  `json:"y_max" example:"120"`
	Series []Series `json:"series"`
}

type Dashboard struct {
	Airport     Airport `json:"airport"`
	Start       string  `json:"start" example:"2021-03-01"`
	End         string  `json:"end" example:"2021-03-14"`
	Temperature Chart   `json:"temperature"`
	Wind        Chart   `json:"wind"`
}
