// Package mixture implements the Mixture data model: a mapping from
// species to concentration plus a carrier fluid, with content-hash
// deduplication so repeatedly-derived mixtures (e.g. two equal merges
// at different nodes) share one arena entry. A Pool owns every
// Mixture in a simulation; mixing and droplet models reference
// mixtures by id.
package mixture

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/google/uuid"
)

// SpeciesID identifies a dissolved species.
type SpeciesID int32

// Species is a dissolved chemical species definition.
type Species struct {
	ID           SpeciesID
	Name         string
	Diffusivity  float64 // m^2/s
	MolarMass    float64 // g/mol, 0 if unused
}

// FluidID identifies a carrier fluid.
type FluidID int32

// Fluid is a continuous-phase carrier fluid definition.
type Fluid struct {
	ID        FluidID
	Name      string
	Viscosity float64 // Pa*s
	Density   float64 // kg/m^3
}

// FourierProfile is the diffusive model's cross-channel concentration
// representation: c(xi) = A0 + sum_n An*cos(n*pi*xi), xi in [0,1].
type FourierProfile struct {
	A0 float64
	An []float64 // coefficients a1..aM, index 0 is n=1
}

// Eval reconstructs c(xi) from the truncated series.
func (p FourierProfile) Eval(xi float64) float64 {
	c := p.A0
	for n, an := range p.An {
		c += an * math.Cos(float64(n+1)*math.Pi*xi)
	}
	return c
}

// MixtureID identifies a mixture within the simulation's mixture arena.
type MixtureID int32

// Mixture is an immutable mapping from species to concentration (g/m3)
// plus a carrier fluid reference. Immutability is enforced by
// convention: once a Mixture is registered in a Pool and referenced by
// any injection or state record, callers must not mutate its
// Concentrations/Profiles maps in place.
type Mixture struct {
	ID             MixtureID
	UUID           uuid.UUID
	Fluid          FluidID
	Concentrations map[SpeciesID]float64
	// Profiles holds the diffusive-model cross-section representation,
	// nil for the instantaneous model.
	Profiles map[SpeciesID]FourierProfile
}

// Pool owns the simulation's mixture arena and deduplicates mixtures
// by content hash, so e.g. repeated identical merges at different
// nodes reuse one id instead of growing the arena unboundedly.
type Pool struct {
	mixtures []Mixture
	byHash   map[string]MixtureID
}

// NewPool returns an empty mixture pool.
func NewPool() *Pool {
	return &Pool{byHash: make(map[string]MixtureID)}
}

// Register adds fluid/concentrations/profiles as a new mixture, or
// returns the id of an existing content-identical one.
func (p *Pool) Register(fluid FluidID, conc map[SpeciesID]float64, profiles map[SpeciesID]FourierProfile) MixtureID {
	h := contentHash(fluid, conc, profiles)
	if id, ok := p.byHash[h]; ok {
		return id
	}
	id := MixtureID(len(p.mixtures))
	p.mixtures = append(p.mixtures, Mixture{
		ID: id, UUID: uuid.New(), Fluid: fluid,
		Concentrations: conc, Profiles: profiles,
	})
	p.byHash[h] = id
	return id
}

// Get returns the mixture with the given id.
func (p *Pool) Get(id MixtureID) *Mixture { return &p.mixtures[id] }

func contentHash(fluid FluidID, conc map[SpeciesID]float64, profiles map[SpeciesID]FourierProfile) string {
	keys := make([]SpeciesID, 0, len(conc))
	for k := range conc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	h := fnv.New64a()
	fmt.Fprintf(h, "fluid:%d;", fluid)
	for _, k := range keys {
		fmt.Fprintf(h, "%d=%.12g;", k, conc[k])
	}
	if len(profiles) > 0 {
		pkeys := make([]SpeciesID, 0, len(profiles))
		for k := range profiles {
			pkeys = append(pkeys, k)
		}
		sort.Slice(pkeys, func(i, j int) bool { return pkeys[i] < pkeys[j] })
		for _, k := range pkeys {
			pr := profiles[k]
			fmt.Fprintf(h, "p%d:%.12g;", k, pr.A0)
			for _, an := range pr.An {
				fmt.Fprintf(h, "%.12g,", an)
			}
		}
	}
	return fmt.Sprintf("%x", h.Sum64())
}

// WeightedAverage computes the mass-weighted average concentration of
// each species across a set of inflows, c_k = sum(Q_i*c_ik)/sum(Q_i),
// the combination rule the instantaneous mixing model applies to
// merges at a node. Droplet merging does not call it.
func WeightedAverage(flows []float64, concs []map[SpeciesID]float64) map[SpeciesID]float64 {
	totalQ := 0.0
	for _, q := range flows {
		totalQ += q
	}
	out := make(map[SpeciesID]float64)
	if totalQ == 0 {
		return out
	}
	sums := make(map[SpeciesID]float64)
	for i, c := range concs {
		for species, val := range c {
			sums[species] += flows[i] * val
		}
	}
	for species, sum := range sums {
		out[species] = sum / totalQ
	}
	return out
}
