package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cda-tum/mmft-simulator-sub001/internal/config"
	"github.com/cda-tum/mmft-simulator-sub001/internal/droplet"
	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/hybrid"
	"github.com/cda-tum/mmft-simulator-sub001/internal/iojson"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixing"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixture"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
	"github.com/cda-tum/mmft-simulator-sub001/internal/resistance"
	"github.com/cda-tum/mmft-simulator-sub001/internal/simstate"
	"github.com/cda-tum/mmft-simulator-sub001/internal/units"
)

func runSimulate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	doc, err := config.ReadSimulationDocument(inputPath)
	if err != nil {
		return err
	}
	if err := config.ValidateSimulationDoc(doc.Simulation); err != nil {
		return err
	}

	tuning := config.DefaultSolverTuning()
	if path := viper.GetString("tuning"); path != "" {
		tuning, err = config.ReadSolverTuning(path)
		if err != nil {
			return err
		}
	}

	net, nodeIDs, err := iojson.BuildNetwork(doc.Network)
	if err != nil {
		return err
	}
	if err := net.Freeze(); err != nil {
		return err
	}

	model := resistanceModel(doc.Simulation.ResistanceModel)
	viscosity := continuousViscosity(doc.Simulation)
	for i := range net.Edges() {
		e := net.Edge(network.EdgeID(i))
		if e.Kind != network.Channel {
			continue
		}
		r, err := model.Resistance(e, net, viscosity)
		if err != nil {
			return err
		}
		e.Resistance = r
	}

	sim := simstate.NewSimulation(net)
	sim.ViscosityContinuous = viscosity
	sim.HybridOpt = hybrid.Options{
		MaxIter:           tuning.MaxIter,
		Epsilon:           tuning.Epsilon,
		ConvergenceWindow: tuning.ConvergenceWindow,
		Relax:             hybrid.Naive{Alpha: tuning.RelaxationAlpha},
	}

	fluidIDs, speciesIDs := registerFluidsAndSpecies(doc.Simulation)
	mixtureIDs, err := registerMixtures(sim.Pool, doc.Simulation.Mixtures, fluidIDs, speciesIDs)
	if err != nil {
		return err
	}
	if doc.Simulation.MixingModel == "Diffusion" {
		sim.Mixing = mixing.NewDiffusive(sim.Pool)
	} else if len(doc.Simulation.Mixtures) > 0 || len(doc.Simulation.Injections) > 0 {
		sim.Mixing = mixing.NewInstantaneous(sim.Pool)
	}
	for _, inj := range doc.Simulation.Injections {
		mixID, ok := mixtureIDs[inj.Mixture]
		if !ok {
			return fluiderr.New(fluiderr.NetworkIncomplete, "injection references unknown mixture %q", inj.Mixture)
		}
		if inj.Node < 0 || inj.Node >= len(nodeIDs) {
			return fluiderr.New(fluiderr.NetworkIncomplete, "injection references out-of-range node")
		}
		sim.Injections = append(sim.Injections, simstate.PendingInjection{
			Time: inj.Time, Node: nodeIDs[inj.Node], Mixture: mixID,
		})
	}

	if doc.Simulation.Platform == "bigDroplet" {
		sim.Droplets = droplet.NewTracker(net, model, viscosity)
		sim.ViscosityDroplet = viscosity
	}

	if _, err := hybrid.Run(sim.Net, sim.Couplings, sim.HybridOpt); err != nil {
		if !isDidNotConverge(err) {
			return err
		}
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	if fixture, ok := activeFixture(doc.Simulation); ok {
		if err := runTransient(sim, fixture); err != nil {
			return err
		}
	}

	result := iojson.BuildResult(net)
	if inst, ok := sim.Mixing.(*mixing.Instantaneous); ok {
		result.MixturePositions = iojson.BuildMixturePositions(net, inst)
	}
	if sim.Droplets != nil {
		result.Droplets = iojson.BuildDropletStates(sim.Droplets)
	}
	if viper.GetBool("verbose") {
		printDimensionedSummary(result)
	}
	out, err := iojson.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// printDimensionedSummary writes the run's extreme pressure and flow
// rate to stderr tagged with their SI dimensions, for a sanity check
// independent of the plain numbers in the output document.
func printDimensionedSummary(result iojson.Result) {
	var maxP, maxQ float64
	for _, n := range result.Nodes {
		if abs(n.Pressure) > maxP {
			maxP = abs(n.Pressure)
		}
	}
	for _, c := range result.Channels {
		if abs(c.FlowRate) > maxQ {
			maxQ = abs(c.FlowRate)
		}
	}
	fmt.Fprintf(os.Stderr, "max |pressure|: %v\n", units.Pressure(maxP))
	fmt.Fprintf(os.Stderr, "max |flow rate|: %v\n", units.FlowRate(maxQ))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// activeFixture resolves the simulation document's selected fixture,
// if any; a document with no fixtures performs a single steady solve.
func activeFixture(sim iojson.SimulationDoc) (iojson.FixtureDoc, bool) {
	if sim.ActiveFixture == "" {
		return iojson.FixtureDoc{}, false
	}
	f, ok := sim.Fixtures[sim.ActiveFixture]
	return f, ok
}

// runTransient advances sim tick by tick from t=0 to fixture.MaxTime in
// steps of fixture.Dt, re-solving flow, processing due injections, and
// advancing the mixing/droplet/membrane engines each tick.
func runTransient(sim *simstate.Simulation, fixture iojson.FixtureDoc) error {
	sim.MaxTime = fixture.MaxTime
	manipulators := []simstate.Manipulator{
		simstate.ProcessInjections(),
		simstate.SolveFlow(),
	}
	if sim.Mixing != nil {
		manipulators = append(manipulators, simstate.AdvanceMixing(fixture.Dt))
	}
	if sim.Droplets != nil {
		manipulators = append(manipulators, simstate.AdvanceDroplets(fixture.Dt))
	}
	manipulators = append(manipulators,
		simstate.TransferMembranes(fixture.Dt),
		simstate.AdvanceTime(fixture.Dt),
		simstate.Snapshot(),
	)
	maxTicks := 0
	if fixture.Dt > 0 {
		maxTicks = int(fixture.MaxTime/fixture.Dt) + 1
	}
	return sim.Run(maxTicks, manipulators...)
}

// registerFluidsAndSpecies loads every named fluid and species
// definition into the pool's id space, returning name-to-id lookups
// for registerMixtures.
func registerFluidsAndSpecies(sim iojson.SimulationDoc) (map[string]mixture.FluidID, map[string]mixture.SpeciesID) {
	fluidIDs := make(map[string]mixture.FluidID, len(sim.Fluids))
	for i, f := range sim.Fluids {
		fluidIDs[f.Name] = mixture.FluidID(i)
	}
	speciesIDs := make(map[string]mixture.SpeciesID, len(sim.Species))
	for i, s := range sim.Species {
		speciesIDs[s.Name] = mixture.SpeciesID(i)
	}
	return fluidIDs, speciesIDs
}

// registerMixtures registers every named mixture definition in the
// pool, returning a name-to-id lookup for resolving injections.
func registerMixtures(pool *mixture.Pool, docs []iojson.MixtureDoc, fluidIDs map[string]mixture.FluidID, speciesIDs map[string]mixture.SpeciesID) (map[string]mixture.MixtureID, error) {
	ids := make(map[string]mixture.MixtureID, len(docs))
	for _, m := range docs {
		fluidID, ok := fluidIDs[m.Fluid]
		if !ok {
			return nil, fluiderr.New(fluiderr.NetworkIncomplete, "mixture %q references unknown fluid %q", m.Name, m.Fluid)
		}
		conc := make(map[mixture.SpeciesID]float64, len(m.Concentrations))
		for name, c := range m.Concentrations {
			speciesID, ok := speciesIDs[name]
			if !ok {
				return nil, fluiderr.New(fluiderr.NetworkIncomplete, "mixture %q references unknown species %q", m.Name, name)
			}
			conc[speciesID] = c
		}
		ids[m.Name] = pool.Register(fluidID, conc, nil)
	}
	return ids, nil
}

func isDidNotConverge(err error) bool {
	fe, ok := err.(*fluiderr.Error)
	return ok && fe.Kind == fluiderr.DidNotConverge
}

func resistanceModel(name string) resistance.Model {
	if name == "Poiseuille" {
		return resistance.Poiseuille{}
	}
	return resistance.Rectangular1D{}
}

func continuousViscosity(sim iojson.SimulationDoc) float64 {
	if len(sim.Fluids) > 0 {
		return sim.Fluids[0].Viscosity
	}
	return 1e-3
}
