// Package config decodes the simulator's two configuration surfaces:
// JSON simulation documents via internal/iojson, and a secondary TOML
// solver-tuning file for the hybrid scheme's numerical parameters,
// decoded onto a pre-populated defaults struct the same way a
// standalone tool options file would be.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/cda-tum/mmft-simulator-sub001/internal/fluiderr"
	"github.com/cda-tum/mmft-simulator-sub001/internal/iojson"
)

// SolverTuning holds the hybrid scheme's numerical defaults, optionally
// overridden from a TOML file.
type SolverTuning struct {
	MaxIter           int     `toml:"maxIter"`
	Epsilon           float64 `toml:"epsilon"`
	ConvergenceWindow int     `toml:"convergenceWindow"`
	RelaxationAlpha   float64 `toml:"relaxationAlpha"`
	AdaptiveMinAlpha  float64 `toml:"adaptiveMinAlpha"`
	AdaptiveMaxAlpha  float64 `toml:"adaptiveMaxAlpha"`
	CfdTheta          int     `toml:"cfdTheta"`
	CfdWindowSize     int     `toml:"cfdWindowSize"`
}

// DefaultSolverTuning returns the scheme's built-in defaults, used when
// no TOML file is supplied.
func DefaultSolverTuning() SolverTuning {
	return SolverTuning{
		MaxIter: 1000, Epsilon: 1e-6, ConvergenceWindow: 3,
		RelaxationAlpha:  0.5,
		AdaptiveMinAlpha: 0.05, AdaptiveMaxAlpha: 0.95,
		CfdTheta: 10, CfdWindowSize: 50,
	}
}

// ReadSolverTuning decodes a TOML solver-tuning file, starting from
// DefaultSolverTuning so an omitted field keeps its default.
func ReadSolverTuning(path string) (SolverTuning, error) {
	cfg := DefaultSolverTuning()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fluiderr.Wrap(fluiderr.NetworkIncomplete, err, "reading solver tuning file %q", path)
	}
	return cfg, nil
}

// ReadSimulationDocument reads and decodes a JSON input
// document from path.
func ReadSimulationDocument(path string) (iojson.Document, error) {
	var doc iojson.Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fluiderr.Wrap(fluiderr.NetworkIncomplete, err, "reading input document %q", path)
	}
	if err := iojson.Unmarshal(data, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// recognizedPlatforms, recognizedTypes, recognizedResistanceModels, and
// recognizedMixingModels enumerate the values ValidateSimulationDoc
// accepts; anything else is rejected.
var (
	recognizedPlatforms        = map[string]bool{"continuous": true, "bigDroplet": true, "mixing": true}
	recognizedTypes            = map[string]bool{"1D": true, "hybrid": true, "CFD": true}
	recognizedResistanceModels = map[string]bool{"1D": true, "Poiseuille": true}
	recognizedMixingModels     = map[string]bool{"Instantaneous": true, "Diffusion": true}
)

// ValidateSimulationDoc checks the simulation document's
// recognized-value invariants.
func ValidateSimulationDoc(doc iojson.SimulationDoc) error {
	if !recognizedPlatforms[doc.Platform] {
		return fluiderr.New(fluiderr.NetworkIncomplete, "unrecognized platform %q", doc.Platform)
	}
	if !recognizedTypes[doc.Type] {
		return fluiderr.New(fluiderr.NetworkIncomplete, "unrecognized type %q", doc.Type)
	}
	if doc.ResistanceModel != "" && !recognizedResistanceModels[doc.ResistanceModel] {
		return fluiderr.New(fluiderr.NetworkIncomplete, "unrecognized resistance model %q", doc.ResistanceModel)
	}
	if doc.MixingModel != "" && !recognizedMixingModels[doc.MixingModel] {
		return fluiderr.New(fluiderr.NetworkIncomplete, "unrecognized mixing model %q", doc.MixingModel)
	}
	return nil
}
