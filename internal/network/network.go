// Package network holds the Network data model: nodes, edges, CFD
// modules/openings, and the groups derived from them. The network
// exclusively owns nodes, edges, modules, and groups; everything else
// holds non-owning NodeID/EdgeID/ModuleID references into it.
package network

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
)

// Network is a directed multigraph of nodes and typed edges, plus the
// CFD modules and derived groups built on top of it. It is mutable
// only through AddNode/AddEdge/AddModule until Freeze is called; after
// that, structural mutation fails with NetworkFrozen.
type Network struct {
	nodes   []Node
	edges   []Edge
	modules []Module
	groups  []Group

	frozen bool
}

// New returns an empty Network.
func New() *Network {
	return &Network{}
}

// Node returns the node with the given id. Panics if id is out of
// range, as an out-of-range NodeID is a programming error, not a
// recoverable runtime condition.
func (n *Network) Node(id NodeID) *Node { return &n.nodes[id] }

// Edge returns the edge with the given id.
func (n *Network) Edge(id EdgeID) *Edge { return &n.edges[id] }

// Module returns the module with the given id.
func (n *Network) Module(id ModuleID) *Module { return &n.modules[id] }

// Group returns the group with the given id.
func (n *Network) Group(id GroupID) *Group { return &n.groups[id] }

// Nodes, Edges, Modules, Groups return the full arenas for iteration.
func (n *Network) Nodes() []Node     { return n.nodes }
func (n *Network) Edges() []Edge     { return n.edges }
func (n *Network) Modules() []Module { return n.modules }
func (n *Network) Groups() []Group   { return n.groups }

// AddNode appends a new node and returns its id.
func (n *Network) AddNode(x, y float64, ground, sink bool) (NodeID, error) {
	if n.frozen {
		return 0, fluiderr.New(fluiderr.NetworkFrozen, "cannot add node after simulation start")
	}
	id := NodeID(len(n.nodes))
	n.nodes = append(n.nodes, Node{ID: id, X: x, Y: y, Ground: ground, Sink: sink})
	return id, nil
}

// AddEdge appends a new edge and returns its id. The edge's ID and
// validity against the one-edge-per-type-per-node-pair invariant are
// checked here; cross-kind invariants (membrane triangles) are checked
// by Validate once the whole network is built.
func (n *Network) AddEdge(e Edge) (EdgeID, error) {
	if n.frozen {
		return 0, fluiderr.New(fluiderr.NetworkFrozen, "cannot add edge after simulation start")
	}
	if e.Kind != Channel {
		for _, other := range n.edges {
			if other.Kind == e.Kind && sameEndpoints(other, e) {
				return 0, fluiderr.New(fluiderr.NetworkIncomplete,
					"duplicate %s edge between nodes %d and %d", e.Kind, e.A, e.B)
			}
		}
	}
	id := EdgeID(len(n.edges))
	e.ID = id
	n.edges = append(n.edges, e)
	return id, nil
}

// AddModule appends a new CFD module and returns its id.
func (n *Network) AddModule(m Module) (ModuleID, error) {
	if n.frozen {
		return 0, fluiderr.New(fluiderr.NetworkFrozen, "cannot add module after simulation start")
	}
	id := ModuleID(len(n.modules))
	m.ID = id
	n.modules = append(n.modules, m)
	return id, nil
}

func sameEndpoints(a, b Edge) bool {
	return (a.A == b.A && a.B == b.B) || (a.A == b.B && a.B == b.A)
}

// Freeze forbids further structural mutation and builds the group
// decomposition. It must be called exactly once before simulation.
func (n *Network) Freeze() error {
	if n.frozen {
		return nil
	}
	if err := n.Validate(); err != nil {
		return err
	}
	n.buildGroups()
	n.frozen = true
	return nil
}

// Frozen reports whether the network has been frozen.
func (n *Network) Frozen() bool { return n.frozen }

// idNode adapts a NodeID to gonum/graph's graph.Node interface so the
// 1D sub-network can be handed to topo.ConnectedComponents instead of
// hand-rolling a union-find.
type idNode int64

func (d idNode) ID() int64 { return int64(d) }

// buildGroups computes the maximal connected components of the 1D
// edge set (channels, pumps, membranes) using gonum's graph/topo
// connected-components routine.
func (n *Network) buildGroups() {
	g := simple.NewUndirectedGraph()
	for i := range n.nodes {
		g.AddNode(idNode(i))
	}
	oneDKinds := map[EdgeKind]bool{Channel: true, PressurePump: true, FlowRatePump: true, Membrane: true}
	for _, e := range n.edges {
		if !oneDKinds[e.Kind] {
			continue
		}
		if g.HasEdgeBetween(idNode(e.A).ID(), idNode(e.B).ID()) {
			continue
		}
		g.SetEdge(simple.Edge{F: idNode(e.A), T: idNode(e.B)})
	}

	components := topo.ConnectedComponents(g)
	nodeGroup := make([]GroupID, len(n.nodes))
	n.groups = n.groups[:0]
	for gi, comp := range components {
		gid := GroupID(gi)
		grp := Group{ID: gid}
		for _, nd := range comp {
			id := NodeID(nd.(idNode))
			grp.NodeIDs = append(grp.NodeIDs, id)
			nodeGroup[id] = gid
			if n.nodes[id].Ground {
				grp.Grounded = true
			}
		}
		n.groups = append(n.groups, grp)
	}

	for i, e := range n.edges {
		if !oneDKinds[e.Kind] {
			continue
		}
		gid := nodeGroup[e.A]
		n.groups[gid].EdgeIDs = append(n.groups[gid].EdgeIDs, EdgeID(i))
	}

	for mi, m := range n.modules {
		for oi, o := range m.Openings {
			gid := nodeGroup[o.Node]
			n.groups[gid].Openings = append(n.groups[gid].Openings, GroupOpening{
				Module: ModuleID(mi), Index: oi, Node: o.Node,
			})
		}
	}
}

// GroupOf returns the group a node belongs to, valid only after Freeze.
func (n *Network) GroupOf(id NodeID) (GroupID, bool) {
	for _, g := range n.groups {
		for _, nid := range g.NodeIDs {
			if nid == id {
				return g.ID, true
			}
		}
	}
	return 0, false
}

// Validate checks the network's structural invariants: unit opening
// normals, no node used by two openings of the same module, and
// membrane triangles. Duplicate non-channel edges are rejected by
// AddEdge instead; whether an opening's node lies inside its module is
// not checked.
func (n *Network) Validate() error {
	for _, m := range n.modules {
		boundary := make(map[NodeID]bool)
		for _, o := range m.Openings {
			norm := o.NormalX*o.NormalX + o.NormalY*o.NormalY
			if norm < 0.999 || norm > 1.001 {
				return fluiderr.New(fluiderr.InvalidGeometry,
					"opening at node %d has non-unit normal (%g,%g)", o.Node, o.NormalX, o.NormalY)
			}
			boundary[o.Node] = true
		}
		if len(boundary) != len(m.Openings) {
			return fluiderr.New(fluiderr.NetworkIncomplete,
				"module %d has duplicate opening nodes", m.ID)
		}
	}

	for _, e := range n.edges {
		if e.Kind != Membrane {
			continue
		}
		chEdge := n.Edge(e.ChannelEdge)
		tankEdge := n.Edge(e.TankEdge)
		if chEdge.Kind != Channel || !sameEndpoints(*chEdge, e) {
			return fluiderr.New(fluiderr.NetworkIncomplete,
				"membrane %d does not share its node pair with a channel", e.ID)
		}
		if tankEdge.Kind != Tank || !sameEndpoints(*tankEdge, e) {
			return fluiderr.New(fluiderr.NetworkIncomplete,
				"membrane %d does not share its node pair with a tank", e.ID)
		}
	}
	return nil
}

func (n *Network) String() string {
	return fmt.Sprintf("Network{nodes=%d edges=%d modules=%d groups=%d}",
		len(n.nodes), len(n.edges), len(n.modules), len(n.groups))
}

var _ graph.Node = idNode(0)
