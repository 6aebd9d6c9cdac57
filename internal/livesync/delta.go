package livesync

// Delta is an extend-only instruction: one x/y array pair per series.
// Every X[i] is the same sub-sequence since all series share the x axis.
type Delta struct {
	X [][]string  `json:"x"`
	Y [][]float64 `json:"y"`
}

// Points returns the number of new points per series.
func (d Delta) Points() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Renderer is a chart that can report what it has drawn and be extended.
type Renderer interface {
	// RenderedX returns the x values currently drawn. Nil means nothing is drawn.
	RenderedX() []string
	// Extend appends the delta to the existing traces; it never replaces them.
	Extend(d Delta) error
}

// ComputeDelta returns the points of store whose x value is not in
// renderedX, in store order. The boolean is false when there is nothing to
// draw, which callers must treat as "skip redraw".
func ComputeDelta(renderedX []string, store *ClientStore) (Delta, bool) {
	if store == nil || store.Len() == 0 {
		return Delta{}, false
	}

	drawn := make(map[string]struct{}, len(renderedX))
	for _, x := range renderedX {
		drawn[x] = struct{}{}
	}

	var indices []int
	for i, x := range store.X {
		if _, ok := drawn[x]; !ok {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return Delta{}, false
	}

	newX := make([]string, len(indices))
	for j, i := range indices {
		newX[j] = store.X[i]
	}

	d := Delta{
		X: make([][]string, len(store.Y)),
		Y: make([][]float64, len(store.Y)),
	}
	for s, series := range store.Y {
		d.X[s] = newX
		ys := make([]float64, len(indices))
		for j, i := range indices {
			ys[j] = series[i]
		}
		d.Y[s] = ys
	}
	return d, true
}
