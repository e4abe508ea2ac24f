// Package droplet implements the droplet tracker: boundary
// advancement along channels, boundary-event detection at nodes, the
// WAIT_INFLOW/WAIT_OUTFLOW occupation protocol, merge/split at
// bifurcations, and the channel-resistance contribution update that
// feeds back into internal/resistance and the next nodal solve.
package droplet

import (
	"sort"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixture"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
	"github.com/cda-tum/mmft-simulator-sub001/internal/resistance"
	"github.com/google/uuid"
)

// State is a droplet's lifecycle stage.
type State uint8

const (
	Injection State = iota
	InNetwork
	Trapped
	Sink
)

// BoundaryState tags a boundary's occupation-protocol status.
type BoundaryState uint8

const (
	Normal BoundaryState = iota
	WaitInflow
	WaitOutflow
)

// Boundary is one droplet interface: "a channel reference,
// a position in [0,1], an orientation flag volumeTowardsA..., a flow
// rate, and a boundary state."
type Boundary struct {
	Channel        network.EdgeID
	Position       float64
	VolumeTowardsA bool
	FlowRate       float64
	State          BoundaryState
}

// DropletID identifies a droplet within a Tracker's arena.
type DropletID int32

// Droplet is one two-phase slug.
type Droplet struct {
	ID         DropletID
	UUID       uuid.UUID
	Volume     float64 // m^3
	Fluid      mixture.FluidID
	State      State
	Boundaries []Boundary
	Occupied   []network.EdgeID // fully occupied channel ids
}

// AtBifurcation reports whether the droplet currently straddles two
// distinct channels.
func (d *Droplet) AtBifurcation() bool {
	if len(d.Boundaries) != 2 {
		return false
	}
	return d.Boundaries[0].Channel != d.Boundaries[1].Channel
}

// Tracker owns the set of live droplets and their effect on channel
// resistance.
type Tracker struct {
	net      *network.Network
	model    resistance.Model
	viscCont float64 // continuous-phase viscosity
	droplets []Droplet
	// baseResistance caches each channel's droplet-free resistance so
	// repeated WithDroplet corrections don't compound across steps.
	baseResistance map[network.EdgeID]float64
}

// NewTracker returns an empty tracker bound to a resistance model and
// the continuous-phase viscosity used for the droplet slip correction.
func NewTracker(net *network.Network, model resistance.Model, viscosityContinuous float64) *Tracker {
	return &Tracker{
		net: net, model: model, viscCont: viscosityContinuous,
		baseResistance: make(map[network.EdgeID]float64),
	}
}

// Add registers a new droplet and returns its id.
func (t *Tracker) Add(d Droplet) DropletID {
	id := DropletID(len(t.droplets))
	d.ID = id
	d.UUID = uuid.New()
	t.droplets = append(t.droplets, d)
	return id
}

// Get returns the droplet with the given id.
func (t *Tracker) Get(id DropletID) *Droplet { return &t.droplets[id] }

// Droplets returns every tracked droplet, including SINK-removed ones
// retained for history (callers filter by State).
func (t *Tracker) Droplets() []Droplet { return t.droplets }

// Step advances every boundary of every live droplet by one time step,
// resolves any boundary events reaching a channel endpoint, and
// refreshes channel resistance contributions.
func (t *Tracker) Step(viscosityDroplet float64, dt float64) error {
	occupiedBy := t.occupationIndex()

	for i := range t.droplets {
		d := &t.droplets[i]
		if d.State == Sink || d.State == Trapped {
			continue
		}
		for bi := range d.Boundaries {
			b := &d.Boundaries[bi]
			if b.State != Normal {
				continue // blocked, does not advance
			}
			e := t.net.Edge(b.Channel)
			length := e.Length(t.net)
			if length <= 0 {
				continue
			}
			v := e.FlowRate / e.Area()
			dp := v * dt / length
			// A positive FlowRate moves mass from A to B; the boundary
			// itself moves in the same direction regardless of which
			// side the droplet body is on.
			b.Position += dp
			b.FlowRate = e.FlowRate

			if b.Position >= 1 {
				if err := t.onBoundaryArrival(d, bi, e.B, occupiedBy); err != nil {
					return err
				}
			} else if b.Position <= 0 {
				if err := t.onBoundaryArrival(d, bi, e.A, occupiedBy); err != nil {
					return err
				}
			}
		}
	}
	return t.refreshResistances(viscosityDroplet)
}

// occupationIndex maps each fully-occupied channel to the droplet
// occupying it, for the "not already occupied by the same droplet" and
// "occupied by another droplet" checks of step iii.
func (t *Tracker) occupationIndex() map[network.EdgeID]DropletID {
	idx := make(map[network.EdgeID]DropletID)
	for i := range t.droplets {
		d := &t.droplets[i]
		for _, ch := range d.Occupied {
			idx[ch] = d.ID
		}
	}
	return idx
}

// onBoundaryArrival implements step iii: select the outgoing
// channel with the largest downstream flow among channels not already
// occupied by the same droplet (ties broken by lowest channel id); SINK
// if none exists at a sink node; otherwise WAIT_OUTFLOW if the chosen
// channel is occupied by another droplet.
func (t *Tracker) onBoundaryArrival(d *Droplet, bi int, node network.NodeID, occupiedBy map[network.EdgeID]DropletID) error {
	candidates := outgoingChannels(t.net, node)
	own := make(map[network.EdgeID]bool)
	for _, ch := range d.Occupied {
		own[ch] = true
	}

	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if own[c.edge] {
			continue
		}
		if best == nil || c.flow > best.flow || (c.flow == best.flow && c.edge < best.edge) {
			best = c
		}
	}

	if best == nil {
		if t.net.Node(node).Sink {
			d.State = Sink
			return nil
		}
		// open question (iii): no documented behavior for a
		// dead end with no sink flag; trap the droplet in place.
		d.State = Trapped
		d.Boundaries[bi].State = WaitOutflow
		return nil
	}

	if owner, occupied := occupiedBy[best.edge]; occupied && owner != d.ID {
		d.Boundaries[bi].State = WaitOutflow
		return nil
	}

	d.Boundaries[bi].Channel = best.edge
	d.Boundaries[bi].Position = 0
	d.Boundaries[bi].VolumeTowardsA = false
	d.Boundaries[bi].State = Normal
	return nil
}

type candidate struct {
	edge network.EdgeID
	flow float64
}

// outgoingChannels returns every channel through which flow currently
// leaves node, sorted by descending flow then ascending edge id so
// callers can break ties deterministically.
func outgoingChannels(net *network.Network, node network.NodeID) []candidate {
	var out []candidate
	for _, e := range net.Edges() {
		if e.Kind != network.Channel {
			continue
		}
		switch {
		case e.A == node && e.FlowRate > 0:
			out = append(out, candidate{edge: e.ID, flow: e.FlowRate})
		case e.B == node && e.FlowRate < 0:
			out = append(out, candidate{edge: e.ID, flow: -e.FlowRate})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].flow != out[j].flow {
			return out[i].flow > out[j].flow
		}
		return out[i].edge < out[j].edge
	})
	return out
}

// refreshResistances recomputes the droplet-corrected resistance of
// every channel currently hosting a droplet boundary or full occupation.
func (t *Tracker) refreshResistances(viscosityDroplet float64) error {
	fraction := make(map[network.EdgeID]float64)
	for i := range t.droplets {
		d := &t.droplets[i]
		if d.State == Sink {
			continue
		}
		for _, ch := range d.Occupied {
			fraction[ch] = 1.0
		}
		for _, b := range d.Boundaries {
			f := fraction[b.Channel]
			covered := b.Position
			if !b.VolumeTowardsA {
				covered = 1 - b.Position
			}
			if covered > f {
				fraction[b.Channel] = covered
			}
		}
	}

	for ch, f := range fraction {
		e := t.net.Edge(ch)
		base, ok := t.baseResistance[ch]
		if !ok {
			r, err := t.model.Resistance(e, t.net, t.viscCont)
			if err != nil {
				return err
			}
			base = r
			t.baseResistance[ch] = base
		}
		e.Resistance = resistance.WithDroplet(base, viscosityDroplet, t.viscCont, f)
	}
	for ch, base := range t.baseResistance {
		if _, stillOccupied := fraction[ch]; !stillOccupied {
			t.net.Edge(ch).Resistance = base
			delete(t.baseResistance, ch)
		}
	}
	return nil
}

// Merge combines two droplets meeting at the same node into one whose
// volume is the sum of both and whose boundaries and occupied channels
// are the union of theirs. It does not combine concentrations; that is
// left to the caller (the mixing engine).
func (t *Tracker) Merge(a, b DropletID) (DropletID, error) {
	da, db := t.Get(a), t.Get(b)
	if da.Fluid != db.Fluid {
		return 0, fluiderr.New(fluiderr.NetworkIncomplete, "cannot merge droplets of different carrier fluids")
	}
	merged := Droplet{
		Volume:     da.Volume + db.Volume,
		Fluid:      da.Fluid,
		State:      InNetwork,
		Boundaries: append(append([]Boundary{}, da.Boundaries...), db.Boundaries...),
		Occupied:   append(append([]network.EdgeID{}, da.Occupied...), db.Occupied...),
	}
	da.State = Sink
	db.State = Sink
	return t.Add(merged), nil
}

// Split divides a droplet at the given boundary index into two: the
// first receives ratio times the volume and the second the rest. Both
// children carry a copy of the boundary at that index and no occupied
// channels.
func (t *Tracker) Split(id DropletID, at int, ratio float64) (DropletID, DropletID, error) {
	d := t.Get(id)
	if at < 0 || at >= len(d.Boundaries) {
		return 0, 0, fluiderr.New(fluiderr.NetworkIncomplete, "split index %d out of range", at)
	}
	if ratio <= 0 || ratio >= 1 {
		return 0, 0, fluiderr.New(fluiderr.NetworkIncomplete, "split ratio %g must be in (0,1)", ratio)
	}
	v1 := d.Volume * ratio
	v2 := d.Volume - v1
	first := Droplet{Volume: v1, Fluid: d.Fluid, State: InNetwork, Boundaries: []Boundary{d.Boundaries[at]}}
	second := Droplet{Volume: v2, Fluid: d.Fluid, State: InNetwork, Boundaries: []Boundary{d.Boundaries[at]}}
	d.State = Sink
	return t.Add(first), t.Add(second), nil
}

// TotalVolume sums a droplet's boundary-delimited volume plus its
// fully-occupied-channel volume.
func TotalVolume(d *Droplet, net *network.Network) float64 {
	total := 0.0
	for _, ch := range d.Occupied {
		e := net.Edge(ch)
		total += e.Area() * e.Length(net)
	}
	for _, b := range d.Boundaries {
		e := net.Edge(b.Channel)
		frac := b.Position
		if !b.VolumeTowardsA {
			frac = 1 - b.Position
		}
		total += e.Area() * e.Length(net) * frac
	}
	return total
}
