package usecase

import (
	"fmt"
	"sort"

	"github.com/beedev/recommender/internal/core/ports"
)

// StrategyFactory constructs one strategy instance from its configured
// enabled flag and weight. Factories replace the original runtime-lookup
// registration: every available strategy identifier is mapped explicitly at
// process start.
type StrategyFactory func(enabled bool, weight float64) (ports.Strategy, error)

// StrategyRegistry holds the configured strategy instances for the process
// lifetime, preserving registration order for sequential dispatch.
type StrategyRegistry struct {
	ordered []ports.Strategy
	byName  map[string]ports.Strategy
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{byName: make(map[string]ports.Strategy)}
}

// Register adds a strategy instance. Duplicate names are rejected: two
// strategies reporting the same name would make per-strategy scores and
// failure attribution ambiguous.
func (r *StrategyRegistry) Register(s ports.Strategy) error {
	if s == nil {
		return fmt.Errorf("register strategy: nil strategy")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("register strategy: empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("register strategy: duplicate name %q", name)
	}
	r.byName[name] = s
	r.ordered = append(r.ordered, s)
	return nil
}

// Enabled returns the enabled strategies in registration order.
func (r *StrategyRegistry) Enabled() []ports.Strategy {
	out := make([]ports.Strategy, 0, len(r.ordered))
	for _, s := range r.ordered {
		if s.Enabled() {
			out = append(out, s)
		}
	}
	return out
}

// Get looks up a strategy by name.
func (r *StrategyRegistry) Get(name string) (ports.Strategy, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Names lists all registered strategy names, sorted.
func (r *StrategyRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Weights maps enabled strategy names to their configured trust, consumed by
// the consolidator's weighted merge.
func (r *StrategyRegistry) Weights() map[string]float64 {
	weights := make(map[string]float64, len(r.ordered))
	for _, s := range r.ordered {
		weights[s.Name()] = s.Weight()
	}
	return weights
}

// BuildRegistry instantiates strategies named by the configuration, in the
// configured order, using the explicit factory map. Unknown identifiers are
// an error rather than a silent skip.
func BuildRegistry(configured []StrategySettings, factories map[string]StrategyFactory) (*StrategyRegistry, error) {
	registry := NewStrategyRegistry()
	for _, settings := range configured {
		factory, ok := factories[settings.Name]
		if !ok {
			return nil, fmt.Errorf("build registry: unknown strategy %q", settings.Name)
		}
		strategy, err := factory(settings.Enabled, settings.Weight)
		if err != nil {
			return nil, fmt.Errorf("build registry: construct %q: %w", settings.Name, err)
		}
		if err := registry.Register(strategy); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// StrategySettings is the per-strategy configuration surface.
type StrategySettings struct {
	Name    string  `yaml:"name"`
	Enabled bool    `yaml:"enabled"`
	Weight  float64 `yaml:"weight"`
}
