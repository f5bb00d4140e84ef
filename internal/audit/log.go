// Package audit keeps an append-only JSONL trail of scans and baseline
// acceptances. Records carry locations and rule ids, never matched content,
// so the log itself cannot leak what the scanner caught.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/safepush/safepush/internal/types"
)

const (
	EventScan   = "scan"
	EventAccept = "baseline_accept"
)

// FindingSummary is the audit view of one finding: location and rule only.
type FindingSummary struct {
	Path     string `json:"path"`
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
}

// Record is one audit event. Scan and accept events share the struct;
// unused fields stay empty and are omitted from the JSON.
type Record struct {
	Event     string    `json:"event"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Root      string    `json:"root,omitempty"`

	Verdict        string           `json:"verdict,omitempty"`
	Threshold      string           `json:"threshold,omitempty"`
	TotalFindings  int              `json:"total_findings,omitempty"`
	Suppressed     int              `json:"suppressed,omitempty"`
	SeverityCounts map[string]int   `json:"severity_counts,omitempty"`
	FilesScanned   int              `json:"files_scanned,omitempty"`
	Duration       string           `json:"duration,omitempty"`
	BaselineFile   string           `json:"baseline_file,omitempty"`
	TopFindings    []FindingSummary `json:"top_findings,omitempty"`

	Fingerprints  []string `json:"fingerprints,omitempty"`
	Justification string   `json:"justification,omitempty"`
}

type Log struct {
	path string
}

// NewLog places the audit trail under .git when possible so it never ends
// up committed.
func NewLog(root string) *Log {
	gitDir := filepath.Join(root, ".git")
	path := filepath.Join(root, ".safepush_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		path = filepath.Join(gitDir, "safepush_audit.jsonl")
	}
	return &Log{path: path}
}

// Path returns the file the trail is written to.
func (l *Log) Path() string { return l.path }

// Append writes one record. The log is owner-readable only; it names files
// that contain secrets even though it never stores the secrets themselves.
func (l *Log) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("%s_%d", rec.Event, time.Now().UnixNano())
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// History returns all records, newest first. Lines that fail to decode are
// skipped so one corrupt record cannot hide the rest of the trail.
func (l *Log) History() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// ScanRecord summarizes a classified result for the trail. At most ten
// findings are itemized; counts cover the rest.
func ScanRecord(root string, res *types.ScanResult, baselineFile string) Record {
	counts := make(map[string]int, len(res.Counts))
	for sev, n := range res.Counts {
		counts[string(sev)] = n
	}
	top := make([]FindingSummary, 0, 10)
	for i, f := range res.Findings {
		if i >= 10 {
			break
		}
		top = append(top, FindingSummary{
			Path:     f.Path,
			RuleID:   f.RuleID,
			Severity: string(f.Severity),
			Line:     f.Line,
		})
	}
	return Record{
		Event:          EventScan,
		Root:           root,
		Verdict:        string(res.Verdict),
		Threshold:      string(res.Threshold),
		TotalFindings:  len(res.Findings),
		Suppressed:     res.Stats.Suppressed,
		SeverityCounts: counts,
		FilesScanned:   res.Stats.FilesScanned,
		Duration:       res.Stats.Duration.String(),
		BaselineFile:   baselineFile,
		TopFindings:    top,
	}
}

// AcceptRecord notes who accepted which fingerprints and why.
func AcceptRecord(root string, fps []string, justification string) Record {
	return Record{
		Event:         EventAccept,
		Root:          root,
		Fingerprints:  fps,
		Justification: justification,
	}
}
