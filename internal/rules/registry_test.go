package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/safepush/safepush/internal/types"
)

func writePack(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	return p
}

func TestBuiltinRegistry(t *testing.T) {
	reg := Builtin()
	if reg.Len() == 0 {
		t.Fatalf("builtin registry is empty")
	}
	if _, ok := reg.Get("aws-access-key-id"); !ok {
		t.Fatalf("expected aws-access-key-id builtin")
	}
	ids := BuiltinIDs()
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate builtin id %q", id)
		}
		seen[id] = true
	}
}

func TestLoadPackOverridesBuiltinEntirely(t *testing.T) {
	p := writePack(t, "pack.yml", `
rules:
  - id: aws-access-key-id
    category: custom-regex
    severity: low
    pattern: 'AKIA[0-9A-Z]{16}'
    description: downgraded for this repo
`)
	reg, err := Load("1.0.0", p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r, ok := reg.Get("aws-access-key-id")
	if !ok {
		t.Fatalf("rule vanished after override")
	}
	if r.Severity != types.SevLow || r.Category != CatCustomRegex {
		t.Fatalf("override must replace the builtin entirely, got %+v", r)
	}
	// Position in the ordering is retained.
	if reg.Rules()[0].ID != "aws-access-key-id" {
		t.Fatalf("override should keep registry position")
	}
}

func TestLoadPackRejectsDuplicateIDsWithinOneSource(t *testing.T) {
	p := writePack(t, "dup.yml", `
rules:
  - id: twice
    category: custom-regex
    severity: low
    pattern: 'a'
  - id: twice
    category: custom-regex
    severity: low
    pattern: 'b'
`)
	_, err := Load("1.0.0", p)
	if err == nil {
		t.Fatalf("expected duplicate-id error")
	}
	var ce *types.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConfigError, got %T: %v", err, err)
	}
}

func TestLoadPackValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad severity", "rules:\n  - id: x\n    category: custom-regex\n    severity: urgent\n    pattern: a\n"},
		{"bad category", "rules:\n  - id: x\n    category: wat\n    severity: low\n    pattern: a\n"},
		{"bad regex", "rules:\n  - id: x\n    category: custom-regex\n    severity: low\n    pattern: '['\n"},
		{"entropy too high", "rules:\n  - id: x\n    category: entropy-threshold\n    severity: low\n    threshold: 8.5\n"},
		{"entropy zero", "rules:\n  - id: x\n    category: entropy-threshold\n    severity: low\n    threshold: 0\n"},
		{"missing pattern", "rules:\n  - id: x\n    category: secret-pattern\n    severity: low\n"},
		{"bad glob", "rules:\n  - id: x\n    category: custom-regex\n    severity: low\n    pattern: a\n    applies_to: ['[']\n"},
		{"bad validator", "rules:\n  - id: x\n    category: custom-regex\n    severity: low\n    pattern: a\n    validator: luhn\n"},
		{"empty pack", "rules: []\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := writePack(t, "pack.yml", tc.body)
			if _, err := Load("1.0.0", p); err == nil {
				t.Fatalf("expected ConfigError for %s", tc.name)
			}
		})
	}
}

func TestLoadPackMinEngineGate(t *testing.T) {
	p := writePack(t, "pack.yml", `
min_engine: "2.0.0"
rules:
  - id: custom
    category: custom-regex
    severity: low
    pattern: 'x'
`)
	if _, err := Load("1.2.3", p); err == nil {
		t.Fatalf("pack requiring a newer engine must be rejected")
	}
	if _, err := Load("2.1.0", p); err != nil {
		t.Fatalf("pack should load on a newer engine: %v", err)
	}
}

func TestLoadPackMissingFileIsIOError(t *testing.T) {
	_, err := Load("1.0.0", filepath.Join(t.TempDir(), "absent.yml"))
	var ioe *types.IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("want IOError for missing pack, got %T: %v", err, err)
	}
}

func TestLaterPackWinsOverEarlier(t *testing.T) {
	p1 := writePack(t, "one.yml", `
rules:
  - id: team-rule
    category: custom-regex
    severity: low
    pattern: 'foo'
`)
	p2 := writePack(t, "two.yml", `
rules:
  - id: team-rule
    category: custom-regex
    severity: critical
    pattern: 'foo'
`)
	reg, err := Load("1.0.0", p1, p2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r, _ := reg.Get("team-rule")
	if r.Severity != types.SevCritical {
		t.Fatalf("later source should win, got %s", r.Severity)
	}
}

func TestAppliesToPath(t *testing.T) {
	r := Rule{ID: "x", Category: CatCustomRegex, Severity: types.SevLow, Pattern: "a",
		AppliesTo: []string{"*.py", "deploy/**/*.tf"}}
	if err := r.compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !r.AppliesToPath("src/app.py") {
		t.Fatalf("bare extension glob should match nested paths by base name")
	}
	if !r.AppliesToPath("deploy/prod/main.tf") {
		t.Fatalf("doublestar glob should match")
	}
	if r.AppliesToPath("src/app.go") {
		t.Fatalf("unrelated path matched")
	}
	unrestricted := Rule{ID: "y", Category: CatCustomRegex, Severity: types.SevLow, Pattern: "a"}
	if err := unrestricted.compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !unrestricted.AppliesToPath("anything/at/all.txt") {
		t.Fatalf("no applies_to means every path")
	}
}
