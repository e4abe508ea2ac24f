// Package iojson defines the simulator's JSON input/output document
// shapes and the codec that builds a network.Network from an input
// document, using github.com/json-iterator/go.
package iojson

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/cda-tum/mmft-simulator-sub001/internal/droplet"
	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixing"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the top-level input document: one document with two
// top-level sections, network and simulation.
type Document struct {
	Network    NetworkDoc    `json:"network"`
	Simulation SimulationDoc `json:"simulation"`
}

// NetworkDoc is the input document's network section.
type NetworkDoc struct {
	Nodes    []NodeDoc    `json:"nodes"`
	Channels []ChannelDoc `json:"channels"`
	Modules  []ModuleDoc  `json:"modules,omitempty"`
}

// NodeDoc is one input node record.
type NodeDoc struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Ground bool    `json:"ground,omitempty"`
	Sink   bool    `json:"sink,omitempty"`
}

// ChannelDoc is one input channel record. Length defaults to the
// Euclidean endpoint distance when zero.
type ChannelDoc struct {
	Node1  int     `json:"node1"`
	Node2  int     `json:"node2"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length,omitempty"`
	Type   string  `json:"type,omitempty"` // "NORMAL" | "CLOAKED"
}

// OpeningDoc is one CFD module opening record.
type OpeningDoc struct {
	Node   int       `json:"node"`
	Normal NormalDoc `json:"normal"`
	Width  float64   `json:"width"`
	Height float64   `json:"height,omitempty"`
}

// NormalDoc is a 2D unit normal.
type NormalDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ModuleDoc is one CFD module record.
type ModuleDoc struct {
	PosX     float64      `json:"posX"`
	PosY     float64      `json:"posY"`
	SizeX    float64      `json:"sizeX"`
	SizeY    float64      `json:"sizeY"`
	StlFile  string       `json:"stlFile"`
	Openings []OpeningDoc `json:"Openings"`
}

// SimulationDoc is the input document's simulation section.
// Not every field is consumed by every platform/type combination; see
// internal/config for the decode-time validation of recognized values.
type SimulationDoc struct {
	Platform        string                   `json:"platform"` // continuous | bigDroplet | mixing
	Type            string                   `json:"type"`     // 1D | hybrid | CFD
	ResistanceModel string                   `json:"resistanceModel"`
	MixingModel     string                   `json:"mixingModel"`
	Fluids          []FluidDoc            `json:"fluids,omitempty"`
	Species         []SpeciesDoc          `json:"species,omitempty"`
	Mixtures        []MixtureDoc          `json:"mixtures,omitempty"`
	Injections      []InjectionDoc        `json:"injections,omitempty"`
	Pumps           []PumpDoc             `json:"pumps,omitempty"`
	Fixtures        map[string]FixtureDoc `json:"fixtures,omitempty"`
	ActiveFixture   string                `json:"activeFixture,omitempty"`
}

// FluidDoc is one carrier fluid definition.
type FluidDoc struct {
	Name      string  `json:"name"`
	Viscosity float64 `json:"viscosity"`
	Density   float64 `json:"density"`
}

// SpeciesDoc is one dissolved-species definition.
type SpeciesDoc struct {
	Name        string  `json:"name"`
	Diffusivity float64 `json:"diffusivity"`
}

// MixtureDoc is one named mixture definition (fluid + concentrations).
type MixtureDoc struct {
	Name           string             `json:"name"`
	Fluid          string             `json:"fluid"`
	Concentrations map[string]float64 `json:"concentrations"`
}

// InjectionDoc schedules a mixture injection at a node at a given time.
type InjectionDoc struct {
	Mixture string  `json:"mixture"`
	Node    int     `json:"node"`
	Time    float64 `json:"time"`
}

// PumpDoc is one pressure- or flow-rate-pump edge.
type PumpDoc struct {
	Node1        int     `json:"node1"`
	Node2        int     `json:"node2"`
	Kind         string  `json:"kind"` // "pressure" | "flowRate"
	PumpPressure float64 `json:"pumpPressure,omitempty"`
	PumpFlowRate float64 `json:"pumpFlowRate,omitempty"`
}

// FixtureDoc is one named alternative simulation configuration,
// selected by SimulationDoc.ActiveFixture.
type FixtureDoc struct {
	MaxTime float64 `json:"maxTime"`
	Dt      float64 `json:"dt"`
}

// Result is the output document.
type Result struct {
	Nodes            []NodePressure            `json:"nodes"`
	Channels         []ChannelFlow             `json:"channels"`
	Droplets         []DropletState            `json:"droplets,omitempty"`
	MixturePositions []ChannelMixturePositions `json:"mixturePositions,omitempty"`
}

// NodePressure is one output node pressure record.
type NodePressure struct {
	Node     int     `json:"node"`
	Pressure float64 `json:"pressure"`
}

// ChannelFlow is one output channel flow-rate record.
type ChannelFlow struct {
	Channel  int     `json:"channel"`
	FlowRate float64 `json:"flowRate"`
}

// BoundaryRecord is one droplet boundary in the output document.
type BoundaryRecord struct {
	ChannelID      int     `json:"channelId"`
	Position       float64 `json:"position"`
	VolumeTowards1 bool    `json:"volumeTowards1"`
}

// DropletState is one droplet's output record.
type DropletState struct {
	Boundaries []BoundaryRecord `json:"boundaries"`
	Channels   []int            `json:"channels,omitempty"`
}

// MixturePositionRecord is one `(mixtureId, position1, position2)`
// output record.
type MixturePositionRecord struct {
	MixtureID int     `json:"mixtureId"`
	Position1 float64 `json:"position1"`
	Position2 float64 `json:"position2"`
}

// ChannelMixturePositions groups mixture position records per channel.
type ChannelMixturePositions struct {
	Channel   int                     `json:"channel"`
	Positions []MixturePositionRecord `json:"positions"`
}

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fluiderr.Wrap(fluiderr.NetworkIncomplete, err, "encoding result document")
	}
	return b, nil
}

// Unmarshal decodes JSON into v.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fluiderr.Wrap(fluiderr.NetworkIncomplete, err, "decoding input document")
	}
	return nil
}

// BuildNetwork constructs a network.Network, with its channels, pumps
// and modules, from a NetworkDoc. It does not call Freeze; the caller
// freezes the returned network.
func BuildNetwork(doc NetworkDoc) (*network.Network, []network.NodeID, error) {
	net := network.New()
	ids := make([]network.NodeID, len(doc.Nodes))
	for i, n := range doc.Nodes {
		id, err := net.AddNode(n.X, n.Y, n.Ground, n.Sink)
		if err != nil {
			return nil, nil, err
		}
		ids[i] = id
	}
	for _, c := range doc.Channels {
		if c.Node1 < 0 || c.Node1 >= len(ids) || c.Node2 < 0 || c.Node2 >= len(ids) {
			return nil, nil, fluiderr.New(fluiderr.NetworkIncomplete, "channel references out-of-range node")
		}
		kind := network.NormalChannel
		if c.Type == "CLOAKED" {
			kind = network.CloakedChannel
		}
		if _, err := net.AddEdge(network.Edge{
			Kind: network.Channel, A: ids[c.Node1], B: ids[c.Node2],
			Shape: network.Rectangular, Width: c.Width, Height: c.Height,
			LengthValue: c.Length, Type: kind,
		}); err != nil {
			return nil, nil, err
		}
	}
	for _, p := range doc.Pumps {
		if p.Node1 < 0 || p.Node1 >= len(ids) || p.Node2 < 0 || p.Node2 >= len(ids) {
			return nil, nil, fluiderr.New(fluiderr.NetworkIncomplete, "pump references out-of-range node")
		}
		kind := network.PressurePump
		if p.Kind == "flowRate" {
			kind = network.FlowRatePump
		}
		if _, err := net.AddEdge(network.Edge{
			Kind: kind, A: ids[p.Node1], B: ids[p.Node2],
			PumpPressure: p.PumpPressure, PumpFlowRate: p.PumpFlowRate,
		}); err != nil {
			return nil, nil, err
		}
	}
	for _, m := range doc.Modules {
		mod := network.Module{
			PosX: m.PosX, PosY: m.PosY, SizeX: m.SizeX, SizeY: m.SizeY, STLFile: m.StlFile,
		}
		for _, o := range m.Openings {
			if o.Node < 0 || o.Node >= len(ids) {
				return nil, nil, fluiderr.New(fluiderr.NetworkIncomplete, "opening references out-of-range node")
			}
			opening := network.Opening{
				Node: ids[o.Node], NormalX: o.Normal.X, NormalY: o.Normal.Y, Width: o.Width, Height: o.Height,
			}
			opening.Tangent()
			mod.Openings = append(mod.Openings, opening)
		}
		if _, err := net.AddModule(mod); err != nil {
			return nil, nil, err
		}
	}
	return net, ids, nil
}

// BuildResult assembles an output Result document from a frozen
// network's current solved state.
func BuildResult(net *network.Network) Result {
	var res Result
	for _, n := range net.Nodes() {
		res.Nodes = append(res.Nodes, NodePressure{Node: int(n.ID), Pressure: n.Pressure})
	}
	for _, e := range net.Edges() {
		if e.Kind != network.Channel {
			continue
		}
		q, err := e.ReadFlowRate()
		if err != nil {
			continue
		}
		res.Channels = append(res.Channels, ChannelFlow{Channel: int(e.ID), FlowRate: q})
	}
	return res
}

// BuildMixturePositions reports every channel's current instantaneous
// mixture segments, grouped by channel, for the output document's
// mixturePositions section.
func BuildMixturePositions(net *network.Network, m *mixing.Instantaneous) []ChannelMixturePositions {
	var out []ChannelMixturePositions
	for _, e := range net.Edges() {
		if e.Kind != network.Channel {
			continue
		}
		segs := m.Segments(e.ID)
		if len(segs) == 0 {
			continue
		}
		positions := make([]MixturePositionRecord, len(segs))
		for i, s := range segs {
			positions[i] = MixturePositionRecord{MixtureID: int(s.Mixture), Position1: s.P1, Position2: s.P2}
		}
		out = append(out, ChannelMixturePositions{Channel: int(e.ID), Positions: positions})
	}
	return out
}

// BuildDropletStates reports every live droplet's boundaries and fully
// occupied channels for the output document's droplets section.
func BuildDropletStates(t *droplet.Tracker) []DropletState {
	var out []DropletState
	for _, d := range t.Droplets() {
		rec := DropletState{}
		for _, b := range d.Boundaries {
			rec.Boundaries = append(rec.Boundaries, BoundaryRecord{
				ChannelID: int(b.Channel), Position: b.Position, VolumeTowards1: b.VolumeTowardsA,
			})
		}
		for _, ch := range d.Occupied {
			rec.Channels = append(rec.Channels, int(ch))
		}
		out = append(out, rec)
	}
	return out
}
