package chart

import "github.com/i474232898/wind-power-dashboard/internal/livesync"

// Remote stands in for a chart drawn in a browser that polls for updates.
// The browser reports its rendered x values with each tick; Extend captures
// the delta so it can be sent back in the response.
type Remote struct {
	rendered []string
	series   int

	delta    livesync.Delta
	extended bool
}

// NewRemote builds a renderer for a browser chart with the given number of
// traces that currently shows rendered.
func NewRemote(series int, rendered []string) *Remote {
	return &Remote{series: series, rendered: rendered}
}

func (r *Remote) RenderedX() []string {
	return r.rendered
}

func (r *Remote) Extend(d livesync.Delta) error {
	if err := checkDelta(d, r.series); err != nil {
		return err
	}
	r.delta = d
	r.extended = true
	r.rendered = append(append([]string(nil), r.rendered...), firstX(d)...)
	return nil
}

// Delta returns the captured extend instruction and whether there is one.
func (r *Remote) Delta() (livesync.Delta, bool) {
	return r.delta, r.extended
}

func firstX(d livesync.Delta) []string {
	if len(d.X) == 0 {
		return nil
	}
	return d.X[0]
}
