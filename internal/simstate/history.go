package simstate

import "github.com/cda-tum/mmft-simulator-sub001/internal/network"

// StateSnapshot is one recorded instant of a run: node pressures and
// edge flow rates at Time. Droplet/mixture positions are queried live
// from their owning trackers rather than duplicated here, since those
// are already append-free arenas the caller can inspect directly.
type StateSnapshot struct {
	Time      float64
	Pressures map[network.NodeID]float64
	FlowRates map[network.EdgeID]float64
}

// History is an append-only store of StateSnapshots: the Simulation
// writes snapshots as it runs, while Results (in results.go) answers
// queries against them after the run completes.
type History struct {
	snapshots []StateSnapshot
}

// NewHistory returns an empty history.
func NewHistory() *History { return &History{} }

// Append records one snapshot. Snapshots must be appended in
// non-decreasing Time order; callers that violate this get undefined
// results from Results.NearestBefore.
func (h *History) Append(s StateSnapshot) { h.snapshots = append(h.snapshots, s) }

// Len returns the number of recorded snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// At returns the snapshot at index i.
func (h *History) At(i int) StateSnapshot { return h.snapshots[i] }

// All returns every recorded snapshot, oldest first.
func (h *History) All() []StateSnapshot { return h.snapshots }
