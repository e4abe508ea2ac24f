package simstate

import (
	"sort"

	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// Results is a read-only query layer over a completed run's History,
// separating "what happened" (History's append-only record) from
// "what the caller wants to know about it" (Results' time-series
// queries).
type Results struct {
	h *History
}

// NewResults wraps a History for querying.
func NewResults(h *History) *Results { return &Results{h: h} }

// PressureSeries returns the time series of one node's pressure across
// every recorded snapshot that includes it.
func (r *Results) PressureSeries(node network.NodeID) (times []float64, values []float64) {
	for _, s := range r.h.All() {
		if p, ok := s.Pressures[node]; ok {
			times = append(times, s.Time)
			values = append(values, p)
		}
	}
	return times, values
}

// FlowRateSeries returns the time series of one edge's flow rate.
func (r *Results) FlowRateSeries(edge network.EdgeID) (times []float64, values []float64) {
	for _, s := range r.h.All() {
		if q, ok := s.FlowRates[edge]; ok {
			times = append(times, s.Time)
			values = append(values, q)
		}
	}
	return times, values
}

// NearestBefore returns the last recorded snapshot at or before t, or
// false if History is empty or t precedes every snapshot.
func (r *Results) NearestBefore(t float64) (StateSnapshot, bool) {
	all := r.h.All()
	idx := sort.Search(len(all), func(i int) bool { return all[i].Time > t })
	if idx == 0 {
		return StateSnapshot{}, false
	}
	return all[idx-1], true
}

// FinalState returns the last recorded snapshot.
func (r *Results) FinalState() (StateSnapshot, bool) {
	all := r.h.All()
	if len(all) == 0 {
		return StateSnapshot{}, false
	}
	return all[len(all)-1], true
}
