package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/safepush/safepush/internal/types"
)

func sampleResult() *types.ScanResult {
	return &types.ScanResult{
		Verdict: types.VerdictFail,
		Findings: []types.Finding{
			{RuleID: "aws-access-key-id", Path: "cfg/prod.env", Line: 2, Column: 21, Excerpt: "AKIA…MPLE", Severity: types.SevHigh, Fingerprint: "fp-aws", Description: "AWS access key ID"},
			{RuleID: "debug-enabled", Path: "settings.py", Line: 14, Excerpt: "DEBUG = True", Severity: types.SevLow, Fingerprint: "fp-dbg", Description: "Debug mode switched on"},
		},
		Notes: []types.Note{
			{Kind: types.NoteSkippedBinary, Path: "img/logo.png", Detail: "binary content (5000 bytes)"},
		},
		Counts:    map[types.Severity]int{types.SevHigh: 1, types.SevLow: 1},
		Threshold: types.SevMed,
		Stats:     types.Stats{FilesScanned: 3, FilesSkipped: 1, LinesScanned: 120, RulesLoaded: 18, Duration: 430 * time.Millisecond, DurationMilli: 430},
	}
}

func TestPrintText_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	res := &types.ScanResult{
		Verdict:   types.VerdictPass,
		Counts:    map[types.Severity]int{},
		Threshold: types.SevMed,
		Stats:     types.Stats{FilesScanned: 10, Duration: 1200 * time.Millisecond},
	}
	PrintText(&buf, res, PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.Contains(out, "No findings") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files scanned: 10") {
		t.Fatalf("expected footer with files scanned; got: %q", out)
	}
	if !strings.Contains(out, "Verdict: PASS") {
		t.Fatalf("expected verdict line; got: %q", out)
	}
}

func TestPrintText_GroupsByFile(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sampleResult(), PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.Contains(out, "cfg/prod.env\n") {
		t.Fatalf("expected file header; got: %q", out)
	}
	if !strings.Contains(out, "aws-access-key-id") {
		t.Fatalf("expected rule column; got: %q", out)
	}
	if strings.Index(out, "cfg/prod.env") > strings.Index(out, "settings.py") {
		t.Fatalf("files must appear in path order; got: %q", out)
	}
	if !strings.Contains(out, "skipped-binary img/logo.png") {
		t.Fatalf("expected skip note; got: %q", out)
	}
	if !strings.Contains(out, "Verdict: FAIL (threshold: medium)") {
		t.Fatalf("expected verdict footer; got: %q", out)
	}
}

func TestPrintText_DoesNotReorderResult(t *testing.T) {
	res := sampleResult()
	// Deliberately unsorted input; render must not rearrange the slice the
	// caller holds.
	res.Findings[0], res.Findings[1] = res.Findings[1], res.Findings[0]
	first := res.Findings[0].RuleID
	var buf bytes.Buffer
	PrintText(&buf, res, PrintOptions{NoColor: true})
	if res.Findings[0].RuleID != first {
		t.Fatalf("render mutated the result slice")
	}
}

func TestPrintText_MergedRuleLabel(t *testing.T) {
	res := sampleResult()
	res.Findings[0].RuleIDs = []string{"aws-access-key-id", "entropy-keyed-strong"}
	var buf bytes.Buffer
	PrintText(&buf, res, PrintOptions{NoColor: true})
	if !strings.Contains(buf.String(), "aws-access-key-id (+1)") {
		t.Fatalf("expected merged label; got: %q", buf.String())
	}
}

func TestPrintText_SeverityLegendOnlyWithFindings(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sampleResult(), PrintOptions{NoColor: true})
	if !strings.Contains(buf.String(), "Severity scale: low < medium < high < critical") {
		t.Fatalf("expected legend; got: %q", buf.String())
	}
	buf.Reset()
	empty := &types.ScanResult{Verdict: types.VerdictPass, Counts: map[types.Severity]int{}, Threshold: types.SevMed}
	PrintText(&buf, empty, PrintOptions{NoColor: true})
	if strings.Contains(buf.String(), "Severity scale") {
		t.Fatalf("legend should not print without findings; got: %q", buf.String())
	}
}

func TestPrintText_ColorToggle(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sampleResult(), PrintOptions{NoColor: false})
	if !strings.Contains(buf.String(), "\x1b[31m") {
		t.Fatalf("expected ANSI color; got: %q", buf.String())
	}
	buf.Reset()
	PrintText(&buf, sampleResult(), PrintOptions{NoColor: true})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("NoColor output must be escape-free; got: %q", buf.String())
	}
}

func TestPrintTable_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, sampleResult(), PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.Contains(out, "SEVERITY") {
		t.Fatalf("expected table header with SEVERITY; got: %q", out)
	}
	if !strings.Contains(out, "aws-access-key-id") {
		t.Fatalf("expected rule in table; got: %q", out)
	}
	if !strings.Contains(out, "cfg/prod.env:2") {
		t.Fatalf("expected location cell; got: %q", out)
	}
}

func TestPrintTable_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	res := &types.ScanResult{
		Verdict:   types.VerdictPass,
		Counts:    map[types.Severity]int{},
		Threshold: types.SevMed,
		Stats:     types.Stats{FilesScanned: 10, Duration: 1200 * time.Millisecond},
	}
	PrintTable(&buf, res, PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.Contains(out, "No findings") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files scanned: 10") {
		t.Fatalf("expected footer with files scanned; got: %q", out)
	}
}
