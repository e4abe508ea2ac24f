package mixing

import (
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixture"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// Model is the shared contract: given the current flow field and a
// time step Δt, update mixture positions and produce new mixtures at
// nodes where multiple inflow segments meet. Simulation callers
// select one implementation per run; the two are never mixed within
// one network.
type Model interface {
	Step(net *network.Network, dt float64) error
}

var (
	_ Model = (*Instantaneous)(nil)
	_ Model = (*Diffusive)(nil)
)

// Injector is implemented by mixing models that support seeding a
// mixture at a node on injection, rather than at simulation start.
// Both Instantaneous and Diffusive implement it; a model that didn't
// would simply ignore scheduled injections.
type Injector interface {
	InjectAt(net *network.Network, node network.NodeID, mix mixture.MixtureID)
}

var (
	_ Injector = (*Instantaneous)(nil)
	_ Injector = (*Diffusive)(nil)
)

// ConcentrationSemantics captures the flow-weighted combination rule
// for streams of differing concentration joining at a point. The
// instantaneous model's node merges apply the same rule by calling
// mixture.WeightedAverage directly; the diffusive model reassembles
// profiles section-wise and droplet merges do not combine
// concentrations.
type ConcentrationSemantics struct{}

// Combine returns the mass-weighted-average concentration of each
// species across a set of inflows: c_k = Σ(Q_i·c_i,k) / Σ Q_i.
func (ConcentrationSemantics) Combine(flows []float64, concs []map[mixture.SpeciesID]float64) map[mixture.SpeciesID]float64 {
	return mixture.WeightedAverage(flows, concs)
}

// MassOf integrates a diffusive profile's zeroth coefficient times the
// channel width to recover the cross-section-integrated mass: the
// reconstructed profile integrated over the channel width equals
// a0 times the width exactly.
func MassOf(p mixture.FourierProfile, width float64) float64 {
	return p.A0 * width
}
