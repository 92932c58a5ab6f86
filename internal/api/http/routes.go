package httpapi

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-ingest/internal/dashboard"
)

var validate = validator.New()

// RegisterRoutes wires the dashboard handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, wh dashboard.Warehouse, logger *zap.Logger) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities, err := wh.Cities(c.UserContext())
		if err != nil {
			return internalError(logger, "failed to fetch cities", err)
		}
		if cities == nil {
			cities = []string{}
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	v1.Get("/cities/:city/dates", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		dates, err := wh.Dates(c.UserContext(), city)
		if err != nil {
			return internalError(logger, "failed to fetch dates", err)
		}
		if len(dates) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no measurements for requested city")
		}
		return c.JSON(fiber.Map{"city": city, "dates": dates})
	})

	v1.Get("/cities/:city/trend", func(c *fiber.Ctx) error {
		var req trendQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := wh.Trend(c.UserContext(), req.City, req.Date, req.pollutants())
		if err != nil {
			if errors.Is(err, dashboard.ErrUnknownPollutant) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return internalError(logger, "failed to fetch trend", err)
		}
		if len(points) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no measurements for requested city and date")
		}

		return c.JSON(fiber.Map{
			"city":   req.City,
			"date":   req.Date,
			"points": points,
		})
	})

	v1.Get("/cities/:city/locations", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := wh.CityLocations(c.UserContext(), city)
		if err != nil {
			return internalError(logger, "failed to fetch locations", err)
		}
		if len(points) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no locations for requested city")
		}
		return c.JSON(fiber.Map{"city": city, "points": points})
	})

	v1.Get("/map/aqi", func(c *fiber.Ctx) error {
		points, err := wh.AQIMap(c.UserContext())
		if err != nil {
			return internalError(logger, "failed to fetch aqi map", err)
		}
		if points == nil {
			points = []dashboard.MapPoint{}
		}
		return c.JSON(fiber.Map{"points": points})
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func internalError(logger *zap.Logger, msg string, err error) error {
	logger.Error(msg, zap.Error(err))
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

// cityQuery identifies a city from the path.
type cityQuery struct {
	City string `validate:"required,max=100"`
}

func cityParam(c *fiber.Ctx) (string, error) {
	city, err := pathCity(c)
	if err != nil {
		return "", err
	}
	q := cityQuery{City: city}
	if err := validate.Struct(q); err != nil {
		return "", err
	}
	return q.City, nil
}

// trendQuery holds parameters for the trend endpoint.
type trendQuery struct {
	City      string `validate:"required,max=100"`
	Date      string `validate:"required,datetime=2006-01-02"`
	Pollutant string `validate:"omitempty,oneof=CO NO NO2 O3 SO2 PM2_5 PM10 NH3"`
}

func (q *trendQuery) bind(c *fiber.Ctx) error {
	city, err := pathCity(c)
	if err != nil {
		return err
	}
	q.City = city
	q.Date = c.Query("date")
	q.Pollutant = strings.ToUpper(strings.TrimSpace(c.Query("pollutant")))
	return validate.Struct(q)
}

func (q *trendQuery) pollutants() []dashboard.Pollutant {
	if q.Pollutant == "" {
		return nil
	}
	p, err := dashboard.ParsePollutant(q.Pollutant)
	if err != nil {
		return nil
	}
	return []dashboard.Pollutant{p}
}

// pathCity decodes the :city segment so names like "Kraków" survive percent-encoding.
func pathCity(c *fiber.Ctx) (string, error) {
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(city), nil
}
