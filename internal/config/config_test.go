package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cda-tum/mmft-simulator-sub001/internal/iojson"
)

func TestValidateSimulationDocAcceptsRecognizedValues(t *testing.T) {
	doc := iojson.SimulationDoc{Platform: "continuous", Type: "1D", ResistanceModel: "Poiseuille"}
	if err := ValidateSimulationDoc(doc); err != nil {
		t.Fatal(err)
	}
}

func TestValidateSimulationDocRejectsUnknownPlatform(t *testing.T) {
	doc := iojson.SimulationDoc{Platform: "nonsense", Type: "1D"}
	if err := ValidateSimulationDoc(doc); err == nil {
		t.Fatal("expected an error for an unrecognized platform")
	}
}

func TestValidateSimulationDocRejectsUnknownMixingModel(t *testing.T) {
	doc := iojson.SimulationDoc{Platform: "mixing", Type: "1D", MixingModel: "Magic"}
	if err := ValidateSimulationDoc(doc); err == nil {
		t.Fatal("expected an error for an unrecognized mixing model")
	}
}

func TestReadSolverTuningStartsFromDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.toml")
	if err := os.WriteFile(path, []byte("epsilon = 1e-8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReadSolverTuning(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Epsilon != 1e-8 {
		t.Fatalf("expected overridden epsilon 1e-8, got %g", cfg.Epsilon)
	}
	def := DefaultSolverTuning()
	if cfg.MaxIter != def.MaxIter {
		t.Fatalf("expected unset MaxIter to keep its default %d, got %d", def.MaxIter, cfg.MaxIter)
	}
}

func TestReadSimulationDocumentRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	content := `{"network":{"nodes":[],"channels":[]},"simulation":{"platform":"continuous","type":"1D"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ReadSimulationDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Simulation.Platform != "continuous" {
		t.Fatalf("expected platform %q, got %q", "continuous", doc.Simulation.Platform)
	}
}
