package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/i474232898/wind-power-dashboard/internal/chart"
	"github.com/i474232898/wind-power-dashboard/internal/livesync"
)

// writeEvent writes one server-sent event and flushes it.
func writeEvent(w *bufio.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	return w.Flush()
}

// writeComment keeps the connection alive and surfaces a closed client as a
// flush error.
func writeComment(w *bufio.Writer, text string) error {
	fmt.Fprintf(w, ": %s\n\n", text)
	return w.Flush()
}

// streamRenderer keeps the server-side figure in step with the browser by
// applying every delta locally and sending it as an "extend" event.
type streamRenderer struct {
	figure *chart.Figure
	w      *bufio.Writer
}

func (r *streamRenderer) RenderedX() []string {
	return r.figure.RenderedX()
}

func (r *streamRenderer) Extend(d livesync.Delta) error {
	if err := r.figure.Extend(d); err != nil {
		return err
	}
	return writeEvent(r.w, "extend", d)
}
