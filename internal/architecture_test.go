package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	model := archunit.Packages("model", []string{
		".../internal/scene",
		".../internal/presets",
		".../internal/present",
		".../internal/controls",
	})
	transport := archunit.Packages("transport", []string{
		".../internal/handlers",
		".../internal/sse",
		".../internal/ws",
	})
	runtime := archunit.Packages("runtime", []string{
		".../internal/store",
		".../internal/effects",
		".../internal/audio",
	})

	// The scene model and its derivations never reach out to transports.
	if err := model.ShouldNotReferLayers(transport); err != nil {
		t.Errorf("Architecture violation: model depends on transport: %v", err)
	}
	if err := runtime.ShouldNotReferLayers(transport); err != nil {
		t.Errorf("Architecture violation: runtime depends on transport: %v", err)
	}
}

func TestScenePackagePresent(t *testing.T) {
	sc := archunit.Packages("scene", []string{".../internal/scene"})
	if len(sc.Packages()) == 0 {
		t.Error("No scene package found")
	}
}
