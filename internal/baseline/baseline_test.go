package baseline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/safepush/safepush/internal/types"
)

func tmpBaseline(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".safepush.baseline.json")
}

func TestLoadMissingIsEmpty(t *testing.T) {
	f, err := Load(tmpBaseline(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Len() != 0 || f.Version != currentVersion {
		t.Fatalf("want empty v%d baseline, got %+v", currentVersion, f)
	}
}

func TestLoadCorruptIsIOError(t *testing.T) {
	path := tmpBaseline(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var ioErr *types.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("want IOError, got %T: %v", err, err)
	}
}

func TestLoadFutureVersionRejected(t *testing.T) {
	path := tmpBaseline(t)
	if err := os.WriteFile(path, []byte(`{"version": 99, "entries": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("version 99 must not load")
	}
}

func TestAcceptRoundTrip(t *testing.T) {
	path := tmpBaseline(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	added, err := Accept(path, []string{"fp-b", "fp-a"}, "test fixture key", 0, now)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if added != 2 {
		t.Fatalf("want 2 added, got %d", added)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !f.Suppresses("fp-a", now) || !f.Suppresses("fp-b", now) {
		t.Fatalf("accepted fingerprints must suppress: %+v", f)
	}
	if f.Suppresses("fp-c", now) {
		t.Fatal("unknown fingerprint must not suppress")
	}
	e := f.Entries["fp-a"]
	if e.Justification != "test fixture key" || e.ExpiresAt != nil {
		t.Fatalf("entry metadata wrong: %+v", e)
	}
}

func TestAcceptAgainUpdatesNotAdds(t *testing.T) {
	path := tmpBaseline(t)
	now := time.Now()
	if _, err := Accept(path, []string{"fp-a"}, "first", 0, now); err != nil {
		t.Fatal(err)
	}
	added, err := Accept(path, []string{"fp-a", "fp-b"}, "second", 0, now)
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Fatalf("re-accepting fp-a is an update, want 1 added, got %d", added)
	}
	f, _ := Load(path)
	if f.Entries["fp-a"].Justification != "second" {
		t.Fatalf("re-accept must refresh metadata: %+v", f.Entries["fp-a"])
	}
}

func TestAcceptRejectsEmptyInput(t *testing.T) {
	var cfgErr *types.ConfigError
	_, err := Accept(tmpBaseline(t), nil, "x", 0, time.Now())
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	_, err = Accept(tmpBaseline(t), []string{""}, "x", 0, time.Now())
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError for empty fingerprint, got %v", err)
	}
}

func TestExpiryBoundaries(t *testing.T) {
	path := tmpBaseline(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := Accept(path, []string{"fp-ttl"}, "rotating", 24*time.Hour, now); err != nil {
		t.Fatal(err)
	}
	f, _ := Load(path)

	if !f.Suppresses("fp-ttl", now.Add(23*time.Hour)) {
		t.Fatal("entry must suppress before expiry")
	}
	if f.Suppresses("fp-ttl", now.Add(24*time.Hour)) {
		t.Fatal("entry must stop suppressing at expiry")
	}
	if f.Suppresses("fp-ttl", now.Add(48*time.Hour)) {
		t.Fatal("entry must stop suppressing after expiry")
	}
}

func TestPruneDropsOnlyExpired(t *testing.T) {
	path := tmpBaseline(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := Accept(path, []string{"fp-keep"}, "permanent", 0, now); err != nil {
		t.Fatal(err)
	}
	if _, err := Accept(path, []string{"fp-drop"}, "temporary", time.Hour, now); err != nil {
		t.Fatal(err)
	}

	removed, err := Prune(path, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("want 1 removed, got %d", removed)
	}
	f, _ := Load(path)
	if _, ok := f.Entries["fp-keep"]; !ok {
		t.Fatal("unexpired entry must survive prune")
	}
	if _, ok := f.Entries["fp-drop"]; ok {
		t.Fatal("expired entry must be pruned")
	}
}

func TestRemove(t *testing.T) {
	path := tmpBaseline(t)
	now := time.Now()
	if _, err := Accept(path, []string{"fp-a", "fp-b"}, "x", 0, now); err != nil {
		t.Fatal(err)
	}
	removed, err := Remove(path, []string{"fp-a", "fp-missing"})
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("want 1 removed, got %d", removed)
	}
	f, _ := Load(path)
	if f.Len() != 1 {
		t.Fatalf("want 1 entry left, got %d", f.Len())
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := tmpBaseline(t)
	b := tmpBaseline(t)
	// Same entries accepted in different order must serialize identically.
	if _, err := Accept(a, []string{"fp-1", "fp-2", "fp-3"}, "x", 0, now); err != nil {
		t.Fatal(err)
	}
	if _, err := Accept(b, []string{"fp-3", "fp-1", "fp-2"}, "x", 0, now); err != nil {
		t.Fatal(err)
	}
	ab, _ := os.ReadFile(a)
	bb, _ := os.ReadFile(b)
	if !bytes.Equal(ab, bb) {
		t.Fatalf("serialization depends on insertion order:\n%s\nvs\n%s", ab, bb)
	}
	if !bytes.HasSuffix(ab, []byte("\n")) {
		t.Fatal("baseline file should end with a newline")
	}
}

func TestFingerprintsSorted(t *testing.T) {
	f := Empty()
	f.Entries["zz"] = Entry{}
	f.Entries["aa"] = Entry{}
	f.Entries["mm"] = Entry{}
	got := f.Fingerprints()
	want := []string{"aa", "mm", "zz"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}
