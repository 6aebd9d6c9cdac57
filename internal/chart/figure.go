// Package chart holds server-side mirrors of the dashboard chart.
package chart

import (
	"fmt"
	"sync"

	"github.com/i474232898/wind-power-dashboard/internal/livesync"
)

// Trace is one series drawn against the shared x axis.
type Trace struct {
	Name  string    `json:"name"`
	Title string    `json:"title"`
	X     []string  `json:"x"`
	Y     []float64 `json:"y"`
}

// Figure mirrors what a browser has drawn: one trace per tracked series,
// all sharing the same x values. It only ever grows.
type Figure struct {
	mu     sync.RWMutex
	traces []Trace
}

// Series names a trace before any point is drawn.
type Series struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func NewFigure(series []Series) *Figure {
	traces := make([]Trace, len(series))
	for i, s := range series {
		traces[i] = Trace{Name: s.Name, Title: s.Title, X: []string{}, Y: []float64{}}
	}
	return &Figure{traces: traces}
}

// RenderedX returns the x values of the first trace. A figure with no
// traces, or a nil figure, has drawn nothing.
func (f *Figure) RenderedX() []string {
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.traces) == 0 {
		return nil
	}
	return append([]string(nil), f.traces[0].X...)
}

// Extend appends the delta to each trace.
func (f *Figure) Extend(d livesync.Delta) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := checkDelta(d, len(f.traces)); err != nil {
		return err
	}
	for i := range f.traces {
		f.traces[i].X = append(f.traces[i].X, d.X[i]...)
		f.traces[i].Y = append(f.traces[i].Y, d.Y[i]...)
	}
	return nil
}

func checkDelta(d livesync.Delta, traces int) error {
	if len(d.X) != traces || len(d.Y) != traces {
		return fmt.Errorf("chart: delta has %d/%d series, figure has %d traces", len(d.X), len(d.Y), traces)
	}
	for i := range d.X {
		if len(d.X[i]) != len(d.Y[i]) {
			return fmt.Errorf("chart: trace %d: %d x values, %d y values", i, len(d.X[i]), len(d.Y[i]))
		}
	}
	return nil
}
