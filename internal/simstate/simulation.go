package simstate

import (
	"fmt"
	"io"
	"time"

	"github.com/cda-tum/mmft-simulator-sub001/internal/droplet"
	"github.com/cda-tum/mmft-simulator-sub001/internal/hybrid"
	"github.com/cda-tum/mmft-simulator-sub001/internal/membrane"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixing"
	"github.com/cda-tum/mmft-simulator-sub001/internal/mixture"
	"github.com/cda-tum/mmft-simulator-sub001/internal/network"
)

// Simulation owns every piece of per-run mutable state: node
// pressures, edge flow rates, mixture positions, droplet boundaries,
// and tank contents, each written by exactly one component.
type Simulation struct {
	Net       *network.Network
	Pool      *mixture.Pool
	Mixing    mixing.Model
	Droplets  *droplet.Tracker
	Couplings []hybrid.Coupling
	HybridOpt hybrid.Options

	ViscosityContinuous float64
	ViscosityDroplet    float64

	ChannelConc map[network.EdgeID]float64
	TankConc    map[network.EdgeID]float64
	ContactArea func(network.EdgeID) float64

	Injections []PendingInjection

	Time    float64
	MaxTime float64
	Done    bool

	History *History
}

// PendingInjection schedules a mixture injection at a node at a given
// simulation time.
type PendingInjection struct {
	Time    float64
	Node    network.NodeID
	Mixture mixture.MixtureID
	done    bool
}

// NewSimulation wires together a frozen Network with the engines that
// drive one simulated run. Net must already be frozen.
func NewSimulation(net *network.Network) *Simulation {
	return &Simulation{
		Net:         net,
		Pool:        mixture.NewPool(),
		ChannelConc: make(map[network.EdgeID]float64),
		TankConc:    make(map[network.EdgeID]float64),
		ContactArea: func(network.EdgeID) float64 { return 0 },
		History:     NewHistory(),
	}
}

// Manipulator is one composable step of the simulation pipeline: a
// function of the whole Simulation that can fail and is run in a
// fixed sequence each tick. The core stays single-threaded and
// cooperative, so a tick's manipulators run strictly in order.
type Manipulator func(s *Simulation) error

// SolveFlow re-solves the 1D/CFD coupled flow field for the current
// network state. It always routes through hybrid.Run, even
// with zero couplings, so a pure-1D network is solved by the same code
// path as a hybrid one (an empty coupling set trivially converges after
// the configured convergence window).
func SolveFlow() Manipulator {
	return func(s *Simulation) error {
		_, err := hybrid.Run(s.Net, s.Couplings, s.HybridOpt)
		return err
	}
}

// ProcessInjections fires every pending injection whose scheduled time
// has been reached, seeding its mixture into the active mixing model
// via mixing.Injector. Injections on a model that does not implement
// Injector are marked done without effect.
func ProcessInjections() Manipulator {
	return func(s *Simulation) error {
		injector, ok := s.Mixing.(mixing.Injector)
		for i := range s.Injections {
			inj := &s.Injections[i]
			if inj.done || inj.Time > s.Time {
				continue
			}
			if ok {
				injector.InjectAt(s.Net, inj.Node, inj.Mixture)
			}
			inj.done = true
		}
		return nil
	}
}

// AdvanceMixing steps the active mixing model by dt.
func AdvanceMixing(dt float64) Manipulator {
	return func(s *Simulation) error {
		if s.Mixing == nil {
			return nil
		}
		return s.Mixing.Step(s.Net, dt)
	}
}

// AdvanceDroplets steps the droplet tracker by dt.
func AdvanceDroplets(dt float64) Manipulator {
	return func(s *Simulation) error {
		if s.Droplets == nil {
			return nil
		}
		return s.Droplets.Step(s.ViscosityDroplet, dt)
	}
}

// TransferMembranes steps every membrane/tank pair by dt for one
// species. Callers with multiple species run one
// TransferMembranes manipulator per species with per-species
// concentration maps.
func TransferMembranes(dt float64) Manipulator {
	return func(s *Simulation) error {
		return membrane.StepAll(s.Net, s.ViscosityContinuous, dt, s.ChannelConc, s.TankConc, s.ContactArea)
	}
}

// AdvanceTime moves the simulation clock forward by dt and marks Done
// once MaxTime is reached.
func AdvanceTime(dt float64) Manipulator {
	return func(s *Simulation) error {
		s.Time += dt
		if s.MaxTime > 0 && s.Time >= s.MaxTime {
			s.Done = true
		}
		return nil
	}
}

// Snapshot appends the current state to History.
func Snapshot() Manipulator {
	return func(s *Simulation) error {
		s.History.Append(s.snapshot())
		return nil
	}
}

// Log writes one status line per tick to w: tick number, elapsed wall
// time, and simulation time.
func Log(w io.Writer) Manipulator {
	start := time.Now()
	tick := 0
	return func(s *Simulation) error {
		tick++
		fmt.Fprintf(w, "tick %-5d  simTime=%10.4gs  walltime=%6.3gs\n", tick, s.Time, time.Since(start).Seconds())
		return nil
	}
}

// Run applies manipulators in sequence, once per tick, until Done is
// set or maxTicks is reached. maxTicks is a backstop distinct from
// MaxTime, guarding against a pipeline that never sets Done.
func (s *Simulation) Run(maxTicks int, manipulators ...Manipulator) error {
	for tick := 0; !s.Done && (maxTicks <= 0 || tick < maxTicks); tick++ {
		for _, m := range manipulators {
			if err := m(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulation) snapshot() StateSnapshot {
	nodes := make(map[network.NodeID]float64, len(s.Net.Nodes()))
	for _, n := range s.Net.Nodes() {
		nodes[n.ID] = n.Pressure
	}
	flows := make(map[network.EdgeID]float64, len(s.Net.Edges()))
	for _, e := range s.Net.Edges() {
		if q, err := e.ReadFlowRate(); err == nil {
			flows[e.ID] = q
		}
	}
	return StateSnapshot{
		Time:      s.Time,
		Pressures: nodes,
		FlowRates: flows,
	}
}
