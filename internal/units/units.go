// Package units wraps the SI quantities that cross component
// boundaries in the simulation core (pressures, flow rates,
// diffusivities, viscosities) with dimensional tags, using
// github.com/ctessum/unit.
package units

import "github.com/ctessum/unit"

// Pressure returns a *unit.Unit for a pressure value in pascals.
func Pressure(pa float64) *unit.Unit {
	return unit.New(pa, unit.Dimensions{
		unit.MassDim:   1,
		unit.LengthDim: -1,
		unit.TimeDim:   -2,
	})
}

// FlowRate returns a *unit.Unit for a volumetric flow rate in m^3/s.
func FlowRate(m3PerSec float64) *unit.Unit {
	return unit.New(m3PerSec, unit.Dimensions{
		unit.LengthDim: 3,
		unit.TimeDim:   -1,
	})
}

// Viscosity returns a *unit.Unit for a dynamic viscosity in Pa*s.
func Viscosity(paS float64) *unit.Unit {
	return unit.New(paS, unit.Dimensions{
		unit.MassDim:   1,
		unit.LengthDim: -1,
		unit.TimeDim:   -1,
	})
}

// Resistance returns a *unit.Unit for a hydraulic resistance in Pa*s/m^3.
func Resistance(paSPerM3 float64) *unit.Unit {
	return unit.New(paSPerM3, unit.Dimensions{
		unit.MassDim:   1,
		unit.LengthDim: -4,
		unit.TimeDim:   -1,
	})
}

// Diffusivity returns a *unit.Unit for a mass diffusivity in m^2/s.
func Diffusivity(m2PerSec float64) *unit.Unit {
	return unit.New(m2PerSec, unit.Dimensions{
		unit.LengthDim: 2,
		unit.TimeDim:   -1,
	})
}

// Concentration returns a *unit.Unit for a species concentration in g/m^3.
func Concentration(gPerM3 float64) *unit.Unit {
	return unit.New(gPerM3, unit.Dimensions{
		unit.MassDim:   1,
		unit.LengthDim: -3,
	})
}
