package mixing

import (
	"math"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixture"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// quadratureSamples is the number of sample points used to re-project a
// reconstructed profile onto the cosine basis.
const quadratureSamples = 64

// DiffusiveSegment is the diffusive-model analogue of Segment: the same
// positional span, but carrying a live per-species Fourier profile
// instead of a single mixture reference, since axial decay makes the
// profile diverge from its originating mixture's stored profile as it
// travels.
type DiffusiveSegment struct {
	Species mixture.SpeciesID
	Fluid   mixture.FluidID
	P1, P2  float64
	Profile mixture.FourierProfile
}

// Diffusive is the Fourier-series cross-section mixing model.
type Diffusive struct {
	pool    *mixture.Pool
	segs    map[network.EdgeID][]DiffusiveSegment
	peclet  map[network.EdgeID]float64
}

// NewDiffusive returns an empty diffusive-model state.
func NewDiffusive(pool *mixture.Pool) *Diffusive {
	return &Diffusive{
		pool:   pool,
		segs:   make(map[network.EdgeID][]DiffusiveSegment),
		peclet: make(map[network.EdgeID]float64),
	}
}

// Segments returns a channel's current diffusive segments.
func (d *Diffusive) Segments(edge network.EdgeID) []DiffusiveSegment {
	return d.segs[edge]
}

// SetPeclet records the Péclet number to use for axial decay on a
// channel; it must be refreshed whenever the flow field changes.
func (d *Diffusive) SetPeclet(edge network.EdgeID, pe float64) {
	d.peclet[edge] = pe
}

// Seed places a diffusive segment directly onto a channel.
func (d *Diffusive) Seed(edge network.EdgeID, s DiffusiveSegment) {
	d.segs[edge] = insertDiffusiveSorted(d.segs[edge], s)
}

// InjectAt seeds every species of mix as a small leading slug, with
// its stored Fourier profile, on every channel currently carrying flow
// away from node.
func (d *Diffusive) InjectAt(net *network.Network, node network.NodeID, mix mixture.MixtureID) {
	m := d.pool.Get(mix)
	if m == nil {
		return
	}
	for _, share := range outflowShares(net, node) {
		e := net.Edge(share.edge)
		for species, profile := range m.Profiles {
			const seedWidth = 1e-3
			var seg DiffusiveSegment
			if e.A == node {
				seg = DiffusiveSegment{Species: species, Fluid: m.Fluid, P1: 0, P2: seedWidth, Profile: profile}
			} else {
				seg = DiffusiveSegment{Species: species, Fluid: m.Fluid, P1: 1 - seedWidth, P2: 1, Profile: profile}
			}
			d.segs[share.edge] = insertDiffusiveSorted(d.segs[share.edge], seg)
		}
	}
}

func insertDiffusiveSorted(list []DiffusiveSegment, s DiffusiveSegment) []DiffusiveSegment {
	list = append(list, s)
	for i := len(list) - 1; i > 0 && list[i].P1 < list[i-1].P1; i-- {
		list[i], list[i-1] = list[i-1], list[i]
	}
	return list
}

type diffusiveArrival struct {
	node    network.NodeID
	flow    float64
	fluid   mixture.FluidID
	species mixture.SpeciesID
	profile mixture.FourierProfile
}

// Step advances every channel's diffusive segments by Δt: translates
// positions exactly as the instantaneous model does, decays each
// segment's Fourier coefficients by the analytical axial-decay formula
// `aₙ(x) = aₙ(0)·exp(−(nπ)²·x/(ℓ·Pe))` over the distance travelled, and
// at a node where segments arrive from more than one channel,
// reassembles the merged profile section-wise in flow-share order and
// re-projects it onto the cosine basis.
func (d *Diffusive) Step(net *network.Network, dt float64) error {
	var arrivals []diffusiveArrival

	for _, e := range net.Edges() {
		if e.Kind != network.Channel {
			continue
		}
		list := d.segs[e.ID]
		if len(list) == 0 {
			continue
		}
		length := e.Length(net)
		if length <= 0 {
			continue
		}
		v := e.FlowRate / e.Area()
		dp := v * dt / length
		pe := d.peclet[e.ID]
		distance := math.Abs(dp) * length

		kept := list[:0]
		for _, s := range list {
			s.P1 += dp
			s.P2 += dp
			s.Profile = decay(s.Profile, distance, length, pe)
			switch {
			case dp > 0 && s.P2 > 1:
				if s.P1 >= 1 {
					arrivals = append(arrivals, diffusiveArrival{node: e.B, flow: e.FlowRate, fluid: s.Fluid, species: s.Species, profile: s.Profile})
					continue
				}
				s.P2 = 1
				arrivals = append(arrivals, diffusiveArrival{node: e.B, flow: e.FlowRate, fluid: s.Fluid, species: s.Species, profile: s.Profile})
			case dp < 0 && s.P1 < 0:
				if s.P2 <= 0 {
					arrivals = append(arrivals, diffusiveArrival{node: e.A, flow: -e.FlowRate, fluid: s.Fluid, species: s.Species, profile: s.Profile})
					continue
				}
				s.P1 = 0
				arrivals = append(arrivals, diffusiveArrival{node: e.A, flow: -e.FlowRate, fluid: s.Fluid, species: s.Species, profile: s.Profile})
			}
			kept = append(kept, s)
		}
		d.segs[e.ID] = kept
	}

	byNode := make(map[network.NodeID][]diffusiveArrival)
	for _, a := range arrivals {
		byNode[a.node] = append(byNode[a.node], a)
	}
	for node, group := range byNode {
		downstream := outflowShares(net, node)
		if len(downstream) == 0 {
			continue
		}
		merged, err := mergeProfiles(group)
		if err != nil {
			return err
		}
		for _, ds := range downstream {
			e := net.Edge(ds.edge)
			const seedWidth = 1e-3
			seg := DiffusiveSegment{Fluid: merged.fluid, Species: merged.species, Profile: merged.profile}
			if e.A == node {
				seg.P1, seg.P2 = 0, seedWidth
			} else {
				seg.P1, seg.P2 = 1-seedWidth, 1
			}
			d.segs[ds.edge] = insertDiffusiveSorted(d.segs[ds.edge], seg)
		}
	}
	return nil
}

// decay applies the analytical axial-decay formula to every cosine
// coefficient. Underflow in the exponential is clamped to zero silently.
func decay(p mixture.FourierProfile, distance, length, pe float64) mixture.FourierProfile {
	if distance <= 0 || pe <= 0 || length <= 0 {
		return p
	}
	out := mixture.FourierProfile{A0: p.A0, An: make([]float64, len(p.An))}
	for n, an := range p.An {
		order := float64(n + 1)
		exponent := -(order * math.Pi) * (order * math.Pi) * distance / (length * pe)
		factor := math.Exp(exponent)
		if math.IsInf(factor, 0) || math.IsNaN(factor) {
			factor = 0
		}
		out.An[n] = an * factor
	}
	return out
}

// mergedProfile is the outcome of reconciling several arrivals at one
// node into a single downstream profile.
type mergedProfile struct {
	fluid   mixture.FluidID
	species mixture.SpeciesID
	profile mixture.FourierProfile
}

// mergeProfiles assembles the merged profile at a node section-wise in
// flow-share order, then re-projects the reconstruction onto the cosine
// basis by quadrature.
func mergeProfiles(arrivals []diffusiveArrival) (mergedProfile, error) {
	if len(arrivals) == 0 {
		return mergedProfile{}, fluiderr.New(fluiderr.NetworkIncomplete, "diffusive merge requested with no arrivals")
	}
	if len(arrivals) == 1 {
		a := arrivals[0]
		return mergedProfile{fluid: a.fluid, species: a.species, profile: a.profile}, nil
	}

	totalQ := 0.0
	for _, a := range arrivals {
		totalQ += a.flow
	}
	if totalQ <= 0 {
		a := arrivals[0]
		return mergedProfile{fluid: a.fluid, species: a.species, profile: a.profile}, nil
	}

	// Reconstruct c(xi) section-wise: each arrival occupies a contiguous
	// slice of [0,1] proportional to its flow share, in arrival order.
	maxN := 0
	for _, a := range arrivals {
		if len(a.profile.An) > maxN {
			maxN = len(a.profile.An)
		}
	}
	reconstruct := func(xi float64) float64 {
		acc := 0.0
		for _, a := range arrivals {
			share := a.flow / totalQ
			lo := acc
			hi := acc + share
			acc = hi
			if xi >= lo && xi <= hi {
				local := 0.0
				if hi > lo {
					local = (xi - lo) / (hi - lo)
				}
				return a.profile.Eval(local)
			}
		}
		return arrivals[len(arrivals)-1].profile.Eval(1)
	}

	profile := projectFourier(reconstruct, maxN)
	a0 := arrivals[0]
	return mergedProfile{fluid: a0.fluid, species: a0.species, profile: profile}, nil
}

// projectFourier numerically re-projects a reconstructed c(xi) onto the
// truncated cosine basis used throughout, via the midpoint
// quadrature rule.
//
//	a0 = integral_0^1 c(xi) dxi
//	an = 2 * integral_0^1 c(xi)*cos(n*pi*xi) dxi
func projectFourier(c func(xi float64) float64, maxN int) mixture.FourierProfile {
	const m = quadratureSamples
	h := 1.0 / m
	a0 := 0.0
	an := make([]float64, maxN)
	for i := 0; i < m; i++ {
		xi := (float64(i) + 0.5) * h
		v := c(xi)
		a0 += v * h
		for n := 0; n < maxN; n++ {
			an[n] += 2 * v * math.Cos(float64(n+1)*math.Pi*xi) * h
		}
	}
	return mixture.FourierProfile{A0: a0, An: an}
}

// SplitAt restricts the upstream profile to the downstream channel's
// ξ-interval [lo,hi] (a fraction of the outlet opening's width) and
// re-projects it onto the downstream channel's own basis.
func SplitAt(p mixture.FourierProfile, lo, hi float64) mixture.FourierProfile {
	if hi <= lo {
		return mixture.FourierProfile{A0: p.Eval((lo + hi) / 2), An: make([]float64, len(p.An))}
	}
	reconstruct := func(xi float64) float64 {
		return p.Eval(lo + xi*(hi-lo))
	}
	return projectFourier(reconstruct, len(p.An))
}
