package report

import (
	"encoding/json"
	"io"

	"github.com/safepush/safepush/internal/types"
)

// Summary is the machine-readable scan record for tooling and CI. Field
// order is fixed by the struct, map keys are emitted sorted, and findings
// keep their classified order, so identical scans serialize identically.
type Summary struct {
	Tool         string                 `json:"tool"`
	Version      string                 `json:"version"`
	Verdict      types.Verdict          `json:"verdict"`
	Threshold    types.Severity         `json:"threshold"`
	Counts       map[types.Severity]int `json:"counts"`
	Findings     []types.Finding        `json:"findings"`
	Fingerprints []string               `json:"fingerprints"`
	Notes        []types.Note           `json:"notes,omitempty"`
	Stats        types.Stats            `json:"stats"`
}

// NewSummary builds the JSON view of a result. Excerpts inside findings are
// already redacted; the raw match never serializes.
func NewSummary(res *types.ScanResult, version string) Summary {
	fps := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		fps = append(fps, f.Fingerprint)
	}
	return Summary{
		Tool:         "safepush",
		Version:      version,
		Verdict:      res.Verdict,
		Threshold:    res.Threshold,
		Counts:       res.Counts,
		Findings:     res.Findings,
		Fingerprints: fps,
		Notes:        res.Notes,
		Stats:        res.Stats,
	}
}

// WriteJSON writes the summary with stable two-space indentation.
func WriteJSON(w io.Writer, res *types.ScanResult, version string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewSummary(res, version))
}
