// Package rules holds the detection rule registry: the built-in rule table,
// YAML rule packs supplied by users, and the override-by-id merge semantics
// between them.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/safepush/safepush/internal/types"
)

// Category says how a rule's match specification is interpreted.
type Category string

const (
	CatSecretPattern    Category = "secret-pattern"
	CatUnsafeConstruct  Category = "unsafe-construct"
	CatCustomRegex      Category = "custom-regex"
	CatEntropyThreshold Category = "entropy-threshold"
)

var knownCategories = map[Category]bool{
	CatSecretPattern:    true,
	CatUnsafeConstruct:  true,
	CatCustomRegex:      true,
	CatEntropyThreshold: true,
}

// Rule is one detection rule. Pattern categories use Pattern; entropy rules
// use Threshold/Window/MinLength and an optional Context gate. AppliesTo
// restricts the rule to matching paths (doublestar globs).
type Rule struct {
	ID          string         `yaml:"id" json:"id"`
	Category    Category       `yaml:"category" json:"category"`
	Severity    types.Severity `yaml:"severity" json:"severity"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Pattern     string         `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Context     string         `yaml:"context,omitempty" json:"context,omitempty"`
	Threshold   float64        `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Window      int            `yaml:"window,omitempty" json:"window,omitempty"`
	MinLength   int            `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	AppliesTo   []string       `yaml:"applies_to,omitempty" json:"applies_to,omitempty"`
	Validator   string         `yaml:"validator,omitempty" json:"validator,omitempty"`

	re    *regexp.Regexp
	ctxRe *regexp.Regexp
}

const (
	// DefaultWindow is the entropy sliding-window width in bytes.
	DefaultWindow = 20
	// DefaultMinLength is the shortest token entropy rules consider.
	DefaultMinLength = 16
)

// IsEntropy reports whether the rule is evaluated by the entropy scanner.
func (r *Rule) IsEntropy() bool { return r.Category == CatEntropyThreshold }

// Regexp returns the compiled pattern (nil for entropy rules).
func (r *Rule) Regexp() *regexp.Regexp { return r.re }

// ContextRegexp returns the compiled context gate, or nil when the rule has
// no context requirement.
func (r *Rule) ContextRegexp() *regexp.Regexp { return r.ctxRe }

// EffectiveWindow returns Window with the default applied.
func (r *Rule) EffectiveWindow() int {
	if r.Window > 0 {
		return r.Window
	}
	return DefaultWindow
}

// EffectiveMinLength returns MinLength with the default applied.
func (r *Rule) EffectiveMinLength() int {
	if r.MinLength > 0 {
		return r.MinLength
	}
	return DefaultMinLength
}

// Secretive reports whether matches of this rule must be redacted in output.
// Unsafe-construct matches are code, not credentials, and stay readable.
func (r *Rule) Secretive() bool { return r.Category != CatUnsafeConstruct }

// AppliesToPath reports whether the rule should run against the given
// repo-relative path. Globs without a slash also match the base name, so
// "*.py" behaves the way people expect.
func (r *Rule) AppliesToPath(path string) bool {
	if len(r.AppliesTo) == 0 {
		return true
	}
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	for _, g := range r.AppliesTo {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
		if !strings.Contains(g, "/") {
			if ok, err := doublestar.Match(g, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// compile validates the rule and prepares its regexes. Problems are reported
// as ConfigError with the rule id in the message.
func (r *Rule) compile() error {
	if strings.TrimSpace(r.ID) == "" {
		return types.ConfigErrorf("rule with empty id")
	}
	if !knownCategories[r.Category] {
		return types.ConfigErrorf("rule %q: unknown category %q", r.ID, r.Category)
	}
	if _, err := types.ParseSeverity(string(r.Severity)); err != nil {
		return types.ConfigErrorf("rule %q: %v", r.ID, err)
	}
	for _, g := range r.AppliesTo {
		if !doublestar.ValidatePattern(g) {
			return types.ConfigErrorf("rule %q: invalid applies_to glob %q", r.ID, g)
		}
	}
	switch r.Category {
	case CatEntropyThreshold:
		if r.Pattern != "" {
			return types.ConfigErrorf("rule %q: entropy rules take thresholds, not patterns", r.ID)
		}
		if r.Threshold <= 0 || r.Threshold > 8 {
			return types.ConfigErrorf("rule %q: entropy threshold %.2f outside (0, 8]", r.ID, r.Threshold)
		}
		if r.Window < 0 || r.MinLength < 0 {
			return types.ConfigErrorf("rule %q: negative window or min_length", r.ID)
		}
	default:
		if strings.TrimSpace(r.Pattern) == "" {
			return types.ConfigErrorf("rule %q: missing pattern", r.ID)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return types.ConfigErrorf("rule %q: bad pattern: %v", r.ID, err)
		}
		r.re = re
	}
	if r.Context != "" {
		ctxRe, err := regexp.Compile(r.Context)
		if err != nil {
			return types.ConfigErrorf("rule %q: bad context pattern: %v", r.ID, err)
		}
		r.ctxRe = ctxRe
	}
	switch r.Validator {
	case "", "base64", "hex", "jwt":
	default:
		return types.ConfigErrorf("rule %q: unknown validator %q", r.ID, r.Validator)
	}
	return nil
}

// mustRule compiles a built-in table entry; a failure there is a programming
// error, not user input.
func mustRule(r Rule) Rule {
	if err := r.compile(); err != nil {
		panic(fmt.Sprintf("builtin rule table: %v", err))
	}
	return r
}
