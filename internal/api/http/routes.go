package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/wind-power-dashboard/internal/livesync"
	"github.com/i474232898/wind-power-dashboard/internal/physics"
	"github.com/i474232898/wind-power-dashboard/internal/weather"
	"github.com/i474232898/wind-power-dashboard/internal/windview"
)

var validate = validator.New()

// Dependencies are the services the HTTP surface reads from.
type Dependencies struct {
	ServiceName string
	Weather     *weather.Service
	View        *windview.View
	Sessions    *livesync.Registry
	Series      []windview.Column

	// Electrolyser enables the stack lookup-table route when set.
	Electrolyser *physics.ElectrolyserStack

	// TickInterval drives both the browser poll loop and the SSE timer.
	TickInterval time.Duration

	// BaseContext is cancelled on shutdown to end open streams.
	BaseContext context.Context
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	deps.TickInterval = livesync.ClampInterval(deps.TickInterval)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": deps.ServiceName,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := deps.Weather.History(c.UserContext(), q.From, q.To)
		if err != nil {
			log.Printf("ERROR: weather history: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"from":         q.From,
			"to":           q.To,
			"observations": records,
		})
	})

	v1.Get("/wind-power", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := deps.View.List(c.UserContext(), q.From, q.To)
		if err != nil {
			log.Printf("ERROR: %s: %v", windview.Name, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch wind power data")
		}

		return c.JSON(fiber.Map{
			"view": windview.Name,
			"from": q.From,
			"to":   q.To,
			"rows": rows,
		})
	})

	if deps.Electrolyser != nil {
		stack := *deps.Electrolyser
		v1.Get("/electrolyser/lut", func(c *fiber.Ctx) error {
			q := lutQuery{MaxCurrentA: 500, Points: 100}
			if err := c.QueryParser(&q); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if err := validate.Struct(q); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}

			lut, err := stack.LUT(q.MaxCurrentA, q.Points)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return c.JSON(fiber.Map{
				"stack":  stack,
				"points": lut,
			})
		})
	}

	registerDashboard(app, v1, deps)
}

type lutQuery struct {
	MaxCurrentA float64 `query:"max_current_a" validate:"gt=0"`
	Points      int     `query:"points" validate:"gte=1,lte=10000"`
}

// rangeQuery holds the optional, inclusive from/to bounds.
type rangeQuery struct {
	From *time.Time
	To   *time.Time
}

type bounds struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (q *rangeQuery) bind(c *fiber.Ctx) error {
	var err error
	if q.From, err = parseOptionalTime(c.Query("from")); err != nil {
		return err
	}
	if q.To, err = parseOptionalTime(c.Query("to")); err != nil {
		return err
	}
	if q.From != nil && q.To != nil {
		if err := validate.Struct(bounds{From: *q.From, To: *q.To}); err != nil {
			return errors.New("to must not be before from")
		}
	}
	return nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
