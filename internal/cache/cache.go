// Package cache persists the most recent scan result so that review and
// baseline-accept flows can work from it without rescanning. The file lives
// under .git/ when possible, keeping it out of commits.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/safepush/safepush/internal/types"
)

// LastScan is the on-disk record of the previous scan.
type LastScan struct {
	Result    *types.ScanResult `json:"result"`
	Timestamp time.Time         `json:"timestamp"`
	Root      string            `json:"root"`
}

func resultsPath(root string) string {
	// Prefer storing under .git to avoid accidental commits; fall back to
	// the repo root when .git does not exist (tests, exported trees).
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "safepush_last_scan.json")
	}
	return filepath.Join(root, ".safepush_last_scan.json")
}

// Save writes the scan result for later review.
func Save(root string, res *types.ScanResult) error {
	rec := LastScan{Result: res, Timestamp: time.Now(), Root: root}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(root), b, 0o644)
}

// Load reads the last saved scan. Callers treat any error as "nothing to
// review".
func Load(root string) (LastScan, error) {
	var rec LastScan
	b, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Clear removes the stored scan, if any.
func Clear(root string) error {
	err := os.Remove(resultsPath(root))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
