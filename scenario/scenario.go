// Package scenario implements the scenario runtime: a
// name-keyed registry of setup/tick/reset programs that install a world's
// initial material configuration and contribute scenario-specific forces
// each tick. Grounded on the systems/terrain.go setup-then-
// mutate-grid lifecycle and game/factory.go's named-construction pattern.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aortez/dirtsim/world"
)

// ErrUnsupported is returned when an action is not applicable to the
// current scenario, e.g. a clock event fired at a non-Clock
// scenario.
var ErrUnsupported = errors.New("scenario: unsupported for this scenario")

// ErrUnknownScenario is returned when the registry has no entry for a
// requested name.
var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// Category groups scenarios for listing purposes (ScenarioListGet).
type Category string

const (
	CategoryDemo       Category = "Demo"
	CategoryTraining   Category = "Training"
	CategoryBenchmark  Category = "Benchmark"
)

// Metadata describes a scenario's identity and sizing requirement.
type Metadata struct {
	Name            string
	Description     string
	RequiredWidth   int
	RequiredHeight  int
	Category        Category
}

// Scenario is the full setup/tick/reset program interface every registered
// scenario implements.
type Scenario interface {
	Metadata() Metadata
	GetConfig() interface{}
	SetConfig(cfg interface{}, w *world.World) error
	Setup(w *world.World)
	Reset(w *world.World)
	Tick(w *world.World, dt float32)
}

// Factory builds a fresh instance of a scenario; scenarios are stateful
// (they may hold mutable config), so the registry stores constructors, not
// shared instances.
type Factory func() Scenario

// Registry is the closed name -> factory map, modeled on
// TrainingBrainRegistry's registerBrain/find map-of-factories shape,
// generalized here from brains to scenarios.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds a registry pre-populated with every scenario defined
// in this package.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("TreeGermination", NewTreeGermination)
	r.Register("SunlitWaterColumn", NewSunlitWaterColumn)
	r.Register("PointLightDemo", NewPointLightDemo)
	r.Register("DuckPlayground", NewDuckPlayground)
	return r
}

// Register adds name -> factory to the registry, overwriting any existing
// entry under the same name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Build constructs a fresh scenario instance by name.
func (r *Registry) Build(name string) (Scenario, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("scenario %q: %w", name, ErrUnknownScenario)
	}
	return f(), nil
}

// Names returns every registered scenario name, sorted, for ScenarioListGet.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Switch builds the named scenario, resizes the world to its metadata if
// required, and runs setup, installing its tick hook as the active
// scenario force source.
func Switch(r *Registry, name string, w *world.World) (Scenario, error) {
	s, err := r.Build(name)
	if err != nil {
		return nil, err
	}
	meta := s.Metadata()
	if meta.RequiredWidth > 0 && meta.RequiredHeight > 0 {
		w.Resize(meta.RequiredWidth, meta.RequiredHeight)
	}
	s.Setup(w)
	w.SetScenarioForceHook(func(w *world.World, dt float32) { s.Tick(w, dt) })
	return s, nil
}
