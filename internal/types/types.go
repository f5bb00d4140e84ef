package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Severity is a coarse-grained risk level for a finding.
type Severity string

const (
	SevLow      Severity = "low"
	SevMed      Severity = "medium"
	SevHigh     Severity = "high"
	SevCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SevLow:      1,
	SevMed:      2,
	SevHigh:     3,
	SevCritical: 4,
}

// Rank returns the ordering weight of s (low=1 .. critical=4), 0 for unknown.
func (s Severity) Rank() int { return severityRank[s] }

// AtLeast reports whether s ranks at or above t.
func (s Severity) AtLeast(t Severity) bool { return s.Rank() >= t.Rank() }

// ParseSeverity validates a user-supplied severity string.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := severityRank[s]; !ok {
		return "", fmt.Errorf("unknown severity %q (want low, medium, high or critical)", raw)
	}
	return s, nil
}

// Verdict is the outcome of a scan after classification.
type Verdict string

const (
	VerdictPass     Verdict = "PASS"
	VerdictFail     Verdict = "FAIL"
	VerdictWarnings Verdict = "FAIL_WITH_WARNINGS"
)

// Blocking reports whether the verdict should stop the commit.
func (v Verdict) Blocking() bool { return v == VerdictFail }

// Finding describes a rule hit at a path and line. Excerpt is already
// redacted for display; Match holds the raw matched text for fingerprinting
// and in-process triage and is never serialized.
type Finding struct {
	RuleID      string   `json:"rule_id"`
	RuleIDs     []string `json:"rule_ids,omitempty"` // all contributing rules after a same-line merge
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Column      int      `json:"column,omitempty"`
	Excerpt     string   `json:"excerpt"`
	Severity    Severity `json:"severity"`
	Fingerprint string   `json:"fingerprint"`
	Match       string   `json:"-"`
	Description string   `json:"description,omitempty"`
}

// NormalizeMatch canonicalizes matched text before hashing so that
// reformatting (leading/trailing or doubled whitespace) does not change a
// finding's identity.
func NormalizeMatch(match string) string {
	return strings.Join(strings.Fields(match), " ")
}

// FingerprintOf derives the stable identity of a finding. Line numbers are
// deliberately excluded so unrelated edits above a finding do not invalidate
// baseline entries.
func FingerprintOf(ruleID, path, match string) string {
	h := xxhash.New()
	h.WriteString(ruleID)
	h.WriteString("\x00")
	h.WriteString(path)
	h.WriteString("\x00")
	h.WriteString(NormalizeMatch(match))
	sum := h.Sum64()
	const hexdig = "0123456789abcdef"
	var b [16]byte
	for i := 15; i >= 0; i-- {
		b[i] = hexdig[sum&0xF]
		sum >>= 4
	}
	return string(b[:])
}

// Redact masks a matched value for display. Short values are fully masked;
// longer ones keep the first and last four characters.
func Redact(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// Truncate shortens s for display without masking.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return s[:max-1] + "…"
}

// NoteKind classifies non-finding scan observations.
type NoteKind string

const (
	NoteSkippedBinary   NoteKind = "skipped-binary"
	NoteSkippedTooLarge NoteKind = "skipped-too-large"
	NoteRuleError       NoteKind = "rule-error"
	NoteReadError       NoteKind = "read-error"
)

// Note records a file the scan could not fully inspect. Notes are reported,
// never silently dropped.
type Note struct {
	Kind   NoteKind `json:"kind"`
	Path   string   `json:"path"`
	RuleID string   `json:"rule_id,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

// Stats summarizes the work performed by a scan.
type Stats struct {
	FilesScanned  int           `json:"files_scanned"`
	FilesSkipped  int           `json:"files_skipped"`
	LinesScanned  int           `json:"lines_scanned"`
	RulesLoaded   int           `json:"rules_loaded"`
	Suppressed    int           `json:"suppressed"`
	Duration      time.Duration `json:"-"`
	DurationMilli int64         `json:"duration_ms"`
}

// ScanResult is the classified outcome handed to reporters.
type ScanResult struct {
	Verdict   Verdict          `json:"verdict"`
	Findings  []Finding        `json:"findings"`
	Notes     []Note           `json:"notes,omitempty"`
	Counts    map[Severity]int `json:"counts"`
	Threshold Severity         `json:"threshold"`
	Stats     Stats            `json:"stats"`
}
