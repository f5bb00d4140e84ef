package rules

import (
	"os"

	semver "github.com/blang/semver/v4"
	"github.com/safepush/safepush/internal/types"
	"gopkg.in/yaml.v3"
)

// Registry holds the effective rule set: built-ins plus user packs, merged
// id-by-id. Iteration order is stable (built-in table order, then new user
// rules in the order they were loaded).
type Registry struct {
	order []string
	byID  map[string]Rule
}

// packFile is the on-disk YAML shape of a rule pack.
type packFile struct {
	MinEngine string `yaml:"min_engine"`
	Rules     []Rule `yaml:"rules"`
}

// Builtin returns a registry containing only the default rule table.
func Builtin() *Registry {
	reg := &Registry{byID: make(map[string]Rule, len(builtinRules))}
	for _, r := range builtinRules {
		reg.put(r)
	}
	return reg
}

// Load builds the effective registry: built-ins first, then each pack in
// order. engineVersion feeds the packs' min_engine gate.
func Load(engineVersion string, packs ...string) (*Registry, error) {
	reg := Builtin()
	for _, p := range packs {
		if err := reg.LoadPack(engineVersion, p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadPack merges one YAML rule pack into the registry. A user rule whose id
// matches an existing rule replaces it entirely; a duplicate id within the
// same pack is a ConfigError.
func (reg *Registry) LoadPack(engineVersion, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.IOErrorf("rule pack %s: %v", path, err)
	}
	var pf packFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return types.ConfigErrorf("rule pack %s: %v", path, err)
	}
	if pf.MinEngine != "" {
		want, err := semver.ParseTolerant(pf.MinEngine)
		if err != nil {
			return types.ConfigErrorf("rule pack %s: bad min_engine %q: %v", path, pf.MinEngine, err)
		}
		have, err := semver.ParseTolerant(engineVersion)
		if err == nil && have.LT(want) {
			return types.ConfigErrorf("rule pack %s requires engine >= %s (this is %s)", path, pf.MinEngine, engineVersion)
		}
	}
	if len(pf.Rules) == 0 {
		return types.ConfigErrorf("rule pack %s: no rules", path)
	}
	seen := make(map[string]bool, len(pf.Rules))
	for i := range pf.Rules {
		r := pf.Rules[i]
		if err := r.compile(); err != nil {
			return err
		}
		if seen[r.ID] {
			return types.ConfigErrorf("rule pack %s: duplicate rule id %q", path, r.ID)
		}
		seen[r.ID] = true
		reg.put(r)
	}
	return nil
}

func (reg *Registry) put(r Rule) {
	if _, exists := reg.byID[r.ID]; !exists {
		reg.order = append(reg.order, r.ID)
	}
	reg.byID[r.ID] = r
}

// Get looks a rule up by id.
func (reg *Registry) Get(id string) (Rule, bool) {
	r, ok := reg.byID[id]
	return r, ok
}

// Len returns the number of effective rules.
func (reg *Registry) Len() int { return len(reg.order) }

// Rules returns the effective rules in registry order.
func (reg *Registry) Rules() []Rule {
	out := make([]Rule, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.byID[id])
	}
	return out
}

// ForPath returns the rules applicable to a repo-relative path.
func (reg *Registry) ForPath(path string) []Rule {
	var out []Rule
	for _, id := range reg.order {
		r := reg.byID[id]
		if r.AppliesToPath(path) {
			out = append(out, r)
		}
	}
	return out
}
