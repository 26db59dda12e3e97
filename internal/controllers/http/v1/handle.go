package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weather-avf/internal/models"
	"weather-avf/internal/services/weather"
)

var validate = validator.New()

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"start date out of range"`
}

// AirportsResponse represents the airport catalog response
type AirportsResponse struct {
	DefaultAirport string           `json:"default_airport" example:"KORD"`
	Airports       []models.Airport `json:"airports"`
}

// dashboardQuery holds the query parameters shared by the page and the API.
type dashboardQuery struct {
	Airport string `query:"airport" validate:"required,alphanum,max=8"`
	Start   string `query:"start" validate:"required,datetime=2006-01-02"`
}

func (q dashboardQuery) startDate() time.Time {
	t, _ := time.Parse(models.DateLayout, q.Start)
	return t
}

// GetAirports godoc
// @Summary List airports
// @Description Returns the airport catalog the dashboard can be built for
// @Tags Weather
// @Produce json
// @Success 200 {object} AirportsResponse "Successful response"
// @Router /api/v1/airports [get]
func (r *routes) handleAirports(c *fiber.Ctx) error {
	return c.JSON(AirportsResponse{
		DefaultAirport: r.service.DefaultAirport(),
		Airports:       r.service.Airports(),
	})
}

// GetDashboard godoc
// @Summary Get forecast vs actual charts
// @Description Builds the temperature and wind charts for an airport over the 14 days starting at start
// @Tags Weather
// @Produce json
// @Param airport query string true "ICAO airport code" example(KORD)
// @Param start query string true "First day of the window (YYYY-MM-DD)" example(2021-03-01)
// @Success 200 {object} models.Dashboard "Successful response"
// @Failure 400 {object} ErrorResponse "Bad request - invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/dashboard [get]
// @Example {curl} Example usage:
//
//	curl -X GET "http://localhost:8050/api/v1/dashboard?airport=KORD&start=2021-03-01"
func (r *routes) handleDashboard(c *fiber.Ctx) error {
	var q dashboardQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid query parameters",
		})
	}

	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: validationMessage(err),
		})
	}

	dashboard, err := r.service.BuildDashboard(c.UserContext(), q.Airport, q.startDate())
	if err != nil {
		if errors.Is(err, weather.ErrUnknownAirport) || errors.Is(err, weather.ErrDateOutOfRange) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: err.Error(),
			})
		}

		r.l.Error(err, map[string]any{
			"airport": q.Airport,
			"start":   q.Start,
		})

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to build dashboard",
		})
	}

	return c.JSON(dashboard)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	switch fe := verrs[0]; fe.Field() {
	case "Airport":
		if fe.Tag() == "required" {
			return "Missing required parameter: airport"
		}
		return "Invalid airport code"
	case "Start":
		if fe.Tag() == "required" {
			return "Missing required parameter: start"
		}
		return "Invalid start date format, expected YYYY-MM-DD"
	}
	return err.Error()
}
