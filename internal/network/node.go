package network

// NodeID identifies a node within a Network's node arena.
type NodeID int32

// Node is a point in the 1D network graph, owned exclusively by the
// Network that holds it; everything else refers to it by NodeID.
type Node struct {
	ID NodeID
	X  float64
	Y  float64

	// Ground marks a reference-potential (0 Pa) node.
	Ground bool
	// Sink marks a node that absorbs droplets.
	Sink bool

	// Pressure is the most recently solved pressure at this node. It is
	// written only by the nodal solver (internal/nodal) or, for
	// CFD-coupled openings, by the hybrid scheme.
	Pressure float64
}
