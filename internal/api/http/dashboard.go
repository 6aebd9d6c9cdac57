package httpapi

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/wind-power-dashboard/internal/chart"
	"github.com/i474232898/wind-power-dashboard/internal/livesync"
	"github.com/i474232898/wind-power-dashboard/internal/windview"
)

//go:embed dashboard.html
var dashboardHTML []byte

// tickRequest carries the browser's tick counter and the x values its chart
// currently shows.
type tickRequest struct {
	N         int      `json:"n" validate:"gte=0"`
	RenderedX []string `json:"rendered_x"`
}

type tickResponse struct {
	Update bool            `json:"update"`
	Extend *livesync.Delta `json:"extend,omitempty"`
}

type sessionResponse struct {
	ID         string         `json:"id"`
	Series     []chart.Series `json:"series"`
	IntervalMS int64          `json:"interval_ms"`
}

// sessionStatus summarizes a session's client store.
type sessionStatus struct {
	ID       string     `json:"id"`
	Rows     int        `json:"rows"`
	Cursor   *time.Time `json:"cursor,omitempty"`
	FirstX   string     `json:"first_x,omitempty"`
	LastX    string     `json:"last_x,omitempty"`
	LastSeen time.Time  `json:"last_seen"`
}

func registerDashboard(app *fiber.App, v1 fiber.Router, deps Dependencies) {
	series := chartSeries(deps.Series)

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(dashboardHTML)
	})

	d := v1.Group("/dashboard")

	d.Post("/sessions", func(c *fiber.Ctx) error {
		s := deps.Sessions.Create()
		return c.Status(fiber.StatusCreated).JSON(sessionResponse{
			ID:         s.ID,
			Series:     series,
			IntervalMS: deps.TickInterval.Milliseconds(),
		})
	})

	d.Post("/sessions/:id/ticks", func(c *fiber.Ctx) error {
		s, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}

		var req tickRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				log.Printf("WARN: livesync: session %s: unreadable rendered state, treating chart as empty: %v", s.ID, err)
				req = tickRequest{}
			}
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		remote := chart.NewRemote(len(series), req.RenderedX)
		updated, err := s.Tick(c.UserContext(), req.N, remote)
		if err != nil {
			log.Printf("ERROR: livesync: session %s tick %d: %v", s.ID, req.N, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute chart update")
		}
		if !updated {
			return c.JSON(tickResponse{Update: false})
		}

		delta, _ := remote.Delta()
		return c.JSON(tickResponse{Update: true, Extend: &delta})
	})

	d.Get("/sessions/:id", func(c *fiber.Ctx) error {
		s, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}

		snap := s.Snapshot()
		status := sessionStatus{
			ID:       s.ID,
			Rows:     snap.Len(),
			LastSeen: s.LastSeen().UTC(),
		}
		if cursor, ok := snap.Cursor(); ok {
			status.Cursor = &cursor
		}
		if n := snap.Len(); n > 0 {
			status.FirstX, status.LastX = snap.X[0], snap.X[n-1]
		}
		return c.JSON(status)
	})

	d.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if !deps.Sessions.Remove(c.Params("id")) {
			return sessionError(livesync.ErrSessionNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	d.Get("/stream", func(c *fiber.Ctx) error {
		s := deps.Sessions.Create()
		figure := chart.NewFigure(series)
		baseCtx := deps.BaseContext
		interval := deps.TickInterval

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer deps.Sessions.Remove(s.ID)

			if err := writeEvent(w, "session", sessionResponse{
				ID:         s.ID,
				Series:     series,
				IntervalMS: interval.Milliseconds(),
			}); err != nil {
				return
			}

			r := &streamRenderer{figure: figure, w: w}
			err := livesync.Run(baseCtx, interval, func(ctx context.Context, n int) error {
				updated, err := s.Tick(ctx, n, r)
				if err != nil || updated {
					return err
				}
				return writeComment(w, "no update")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("INFO: livesync: stream for session %s closed: %v", s.ID, err)
			}
		})
		return nil
	})
}

func chartSeries(cols []windview.Column) []chart.Series {
	out := make([]chart.Series, len(cols))
	for i, col := range cols {
		out[i] = chart.Series{Name: col.Name, Title: col.Title}
	}
	return out
}

func sessionError(err error) error {
	if errors.Is(err, livesync.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
