package network

import (
	"math"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
)

// EdgeID identifies an edge within a Network's edge arena.
type EdgeID int32

// EdgeKind tags which variant an Edge holds: Channel, Membrane, Tank,
// PressurePump, FlowRatePump, or CfdPort, each reusing only the fields
// that apply to it.
type EdgeKind uint8

const (
	Channel EdgeKind = iota
	PressurePump
	FlowRatePump
	Membrane
	Tank
	CfdPort
)

func (k EdgeKind) String() string {
	switch k {
	case Channel:
		return "Channel"
	case PressurePump:
		return "PressurePump"
	case FlowRatePump:
		return "FlowRatePump"
	case Membrane:
		return "Membrane"
	case Tank:
		return "Tank"
	case CfdPort:
		return "CfdPort"
	default:
		return "Unknown"
	}
}

// ChannelShape tags a channel's cross-section as rectangular or circular.
type ChannelShape uint8

const (
	Rectangular ChannelShape = iota
	Circular
)

// ChannelType further distinguishes a normal channel from a CLOAKED
// one. The type is set only from the input document's channel "type"
// field; no model changes it at run time or branches on it.
type ChannelType uint8

const (
	NormalChannel ChannelType = iota
	CloakedChannel
)

// Edge is a tagged union over the six edge kinds the network supports.
// Fields are grouped by which Kind they apply to; Resistance and
// FlowRate are mutable solver/adapter outputs shared by every kind
// that participates in the nodal system.
type Edge struct {
	ID   EdgeID
	Kind EdgeKind
	A, B NodeID

	// --- Channel fields ---
	Shape       ChannelShape
	Width       float64 // m (rectangular) or unused (circular)
	Height      float64 // m (rectangular) or unused (circular)
	Radius      float64 // m (circular only)
	LengthValue float64 // m; 0 means "derive from endpoint coordinates"
	Type        ChannelType

	// --- Pump fields ---
	PumpPressure float64 // Pa, PressurePump target Δp (A -> B positive)
	PumpFlowRate float64 // m^3/s, FlowRatePump target Q (A -> B positive)

	// --- Membrane fields ---
	PoreRadius      float64 // m
	Porosity        float64 // dimensionless, 0..1
	MembraneLength  float64 // m, membrane thickness d
	NumPores        float64 // N, pore count
	ChannelEdge     EdgeID  // the channel edge sharing this membrane's node pair
	TankEdge        EdgeID  // the tank edge sharing this membrane's node pair

	// --- CfdPort fields ---
	ModuleID     int32
	OpeningIndex int

	// --- mutable solved state, shared across kinds ---
	Resistance float64 // Pa*s/m^3, written by internal/resistance or the hybrid scheme
	FlowRate   float64 // m^3/s, A -> B positive, written by internal/nodal or the CFD adapter
}

// Length returns the channel's length, deriving it from endpoint
// coordinates when LengthValue is unset.
func (e *Edge) Length(net *Network) float64 {
	if e.LengthValue > 0 {
		return e.LengthValue
	}
	a, b := net.Node(e.A), net.Node(e.B)
	dx, dy := b.X-a.X, b.Y-a.Y
	return hypot(dx, dy)
}

// Area returns the channel's cross-sectional area.
func (e *Edge) Area() float64 {
	switch e.Shape {
	case Circular:
		return math.Pi * e.Radius * e.Radius
	default:
		return e.Width * e.Height
	}
}

// PressureDrop returns p_A - p_B for this edge.
func (e *Edge) PressureDrop(net *Network) float64 {
	return net.Node(e.A).Pressure - net.Node(e.B).Pressure
}

// ReadFlowRate returns the edge's flow rate, or IllegalQuery for a tank,
// which carries mixture state but no hydraulic flow.
func (e *Edge) ReadFlowRate() (float64, error) {
	if e.Kind == Tank {
		return 0, fluiderr.New(fluiderr.IllegalQuery, "edge %d is a tank and has no flow rate", e.ID)
	}
	return e.FlowRate, nil
}

func hypot(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}
