package livesync

import (
	"fmt"
	"time"
)

// ClientStore is the append-only, in-memory mirror owned by one session.
// Watermark, X and every Y[i] always have the same length.
type ClientStore struct {
	Watermark []time.Time `json:"updated_at"`
	X         []string    `json:"x"`
	Y         [][]float64 `json:"y"`
}

// NewClientStore returns an empty store tracking seriesCount series.
func NewClientStore(seriesCount int) *ClientStore {
	return &ClientStore{
		Watermark: []time.Time{},
		X:         []string{},
		Y:         make([][]float64, seriesCount),
	}
}

// Len returns the number of mirrored rows.
func (s *ClientStore) Len() int {
	return len(s.X)
}

// Cursor returns the maximum watermark seen so far.
func (s *ClientStore) Cursor() (time.Time, bool) {
	if len(s.Watermark) == 0 {
		return time.Time{}, false
	}
	max := s.Watermark[0]
	for _, w := range s.Watermark[1:] {
		if w.After(max) {
			max = w
		}
	}
	return max, true
}

// Merge appends rows in order. Rows are not deduplicated; exactly-once
// delivery per watermark relies on the strictly-greater cursor query.
// A row with the wrong number of values rejects the whole batch and leaves
// the store untouched.
func (s *ClientStore) Merge(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	for i, row := range rows {
		if len(row.Values) != len(s.Y) {
			return fmt.Errorf("row %d has %d values, store tracks %d series", i, len(row.Values), len(s.Y))
		}
	}

	for _, row := range rows {
		s.Watermark = append(s.Watermark, row.Watermark)
		s.X = append(s.X, FormatX(row.X))
		for i, v := range row.Values {
			s.Y[i] = append(s.Y[i], v)
		}
	}
	return nil
}
