package iojson

import (
	"testing"

	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

func TestBuildNetworkWiresChannelsAndPumps(t *testing.T) {
	doc := NetworkDoc{
		Nodes: []NodeDoc{
			{X: 0, Y: 0, Ground: true},
			{X: 1, Y: 0},
			{X: 2, Y: 0, Sink: true},
		},
		Channels: []ChannelDoc{
			{Node1: 1, Node2: 2, Width: 1e-4, Height: 1e-4, Length: 1e-3},
		},
		Pumps: []PumpDoc{
			{Node1: 0, Node2: 1, Kind: "pressure", PumpPressure: 1000},
		},
	}
	net, ids, err := BuildNetwork(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 node ids, got %d", len(ids))
	}
	if len(net.Edges()) != 2 {
		t.Fatalf("expected 2 edges (1 channel + 1 pump), got %d", len(net.Edges()))
	}
	var sawChannel, sawPump bool
	for _, e := range net.Edges() {
		switch e.Kind {
		case network.Channel:
			sawChannel = true
		case network.PressurePump:
			sawPump = true
			if e.PumpPressure != 1000 {
				t.Fatalf("expected pump pressure 1000, got %g", e.PumpPressure)
			}
		}
	}
	if !sawChannel || !sawPump {
		t.Fatalf("expected both a channel and a pressure pump edge, got channel=%v pump=%v", sawChannel, sawPump)
	}
}

func TestBuildNetworkRejectsOutOfRangeChannelNode(t *testing.T) {
	doc := NetworkDoc{
		Nodes:    []NodeDoc{{X: 0, Y: 0}},
		Channels: []ChannelDoc{{Node1: 0, Node2: 5, Width: 1e-4, Height: 1e-4}},
	}
	if _, _, err := BuildNetwork(doc); err == nil {
		t.Fatal("expected an error for a channel referencing an out-of-range node")
	}
}

func TestBuildNetworkRejectsOutOfRangePumpNode(t *testing.T) {
	doc := NetworkDoc{
		Nodes: []NodeDoc{{X: 0, Y: 0}},
		Pumps: []PumpDoc{{Node1: 0, Node2: 9, Kind: "pressure"}},
	}
	if _, _, err := BuildNetwork(doc); err == nil {
		t.Fatal("expected an error for a pump referencing an out-of-range node")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	result := Result{
		Nodes:    []NodePressure{{Node: 0, Pressure: 1000}},
		Channels: []ChannelFlow{{Channel: 0, FlowRate: 1e-9}},
	}
	data, err := Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Result
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Nodes) != 1 || decoded.Nodes[0].Pressure != 1000 {
		t.Fatalf("expected pressure to round-trip, got %+v", decoded.Nodes)
	}
}

func TestBuildResultSkipsTankFlowRate(t *testing.T) {
	net := network.New()
	a, _ := net.AddNode(0, 0, true, false)
	b, _ := net.AddNode(1, 0, false, true)
	net.AddEdge(network.Edge{Kind: network.Tank, A: a, B: b})
	net.AddEdge(network.Edge{Kind: network.Channel, A: a, B: b, Shape: network.Rectangular, Width: 1e-4, Height: 1e-4, LengthValue: 1e-3})

	result := BuildResult(net)
	if len(result.Channels) != 1 {
		t.Fatalf("expected the tank edge's illegal flow-rate query to be skipped, got %d channel records", len(result.Channels))
	}
}
