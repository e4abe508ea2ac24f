package network

// GroupID identifies a group within a Network's group arena.
type GroupID int32

// Group is a maximal connected component of 1D edges (channels, pumps,
// membranes) considered as a separate sub-network for nodal analysis.
type Group struct {
	ID GroupID

	NodeIDs []NodeID
	EdgeIDs []EdgeID // channels, pumps, membranes belonging to this group

	// Grounded is true iff the group contains at least one ground node.
	Grounded bool

	// Openings lists, for each CFD module this group borders, the
	// node/opening pairs where the group meets that module.
	Openings []GroupOpening

	// PRef is the reference pressure applied to align an ungrounded
	// group's relative-pressure solution with the externally supplied
	// datum at each hybrid iteration.
	PRef float64
}

// GroupOpening records one CFD-module opening that borders a group.
type GroupOpening struct {
	Module ModuleID
	Index  int // index into Module.Openings
	Node   NodeID
}
