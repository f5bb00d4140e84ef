package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/safepush/safepush/internal/types"
)

func sample() *types.ScanResult {
	return &types.ScanResult{
		Verdict: types.VerdictFail,
		Findings: []types.Finding{
			{RuleID: "aws-access-key-id", Path: "a.env", Line: 3, Excerpt: "AKIA…MPLE", Severity: types.SevHigh, Fingerprint: "fp-1"},
		},
		Counts:    map[types.Severity]int{types.SevHigh: 1},
		Threshold: types.SevMed,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, sample()); err != nil {
		t.Fatalf("save: %v", err)
	}
	// no .git here, so the dotfile fallback applies
	if _, err := os.Stat(filepath.Join(dir, ".safepush_last_scan.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	rec, err := Load(dir)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if rec.Root != dir || rec.Timestamp.IsZero() {
		t.Fatalf("metadata wrong: %+v", rec)
	}
	if rec.Result == nil || len(rec.Result.Findings) != 1 || rec.Result.Findings[0].Fingerprint != "fp-1" {
		t.Fatalf("result wrong: %+v", rec.Result)
	}
}

func TestSavePrefersGitDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Save(dir, sample()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git", "safepush_last_scan.json")); err != nil {
		t.Fatalf("expected cache under .git: %v", err)
	}
}

func TestLoadMissingErrs(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("missing cache must error")
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, sample()); err != nil {
		t.Fatal(err)
	}
	if err := Clear(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("cache must be gone after clear")
	}
	if err := Clear(dir); err != nil {
		t.Fatalf("clearing twice must be fine: %v", err)
	}
}
