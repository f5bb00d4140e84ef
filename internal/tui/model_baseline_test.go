package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/types"
)

func TestNewModel_MarksBaselinedFindings(t *testing.T) {
	findings := []types.Finding{
		{Path: "file1.go", Line: 10, RuleID: "aws-access-key-id", Fingerprint: "fp-live", Severity: types.SevHigh},
		{Path: "file2.go", Line: 20, RuleID: "sensitive-assignment", Fingerprint: "fp-known", Severity: types.SevMed},
	}

	base := baseline.Empty()
	base.Entries["fp-known"] = baseline.Entry{Justification: "test fixture", AcceptedAt: time.Now()}

	m := NewModel(reviewResult(findings), "", "", base, nil)

	if len(m.baselined) != 1 || !m.baselined["fp-known"] {
		t.Fatalf("expected fp-known marked, got %v", m.baselined)
	}

	rows := m.table.Rows()
	if strings.HasPrefix(rows[0][0], "(b)") {
		t.Errorf("first finding should not carry the baseline marker: %q", rows[0][0])
	}
	if !strings.HasPrefix(rows[1][0], "(b)") {
		t.Errorf("second finding should carry the baseline marker: %q", rows[1][0])
	}
}

func TestNewModel_ExpiredEntriesAreNotMarked(t *testing.T) {
	findings := []types.Finding{
		{Path: "file.go", Line: 1, RuleID: "r", Fingerprint: "fp-old", Severity: types.SevHigh},
	}

	past := time.Now().Add(-time.Hour)
	base := baseline.Empty()
	base.Entries["fp-old"] = baseline.Entry{Justification: "expired", AcceptedAt: past.Add(-24 * time.Hour), ExpiresAt: &past}

	m := NewModel(reviewResult(findings), "", "", base, nil)
	if m.baselined["fp-old"] {
		t.Error("expired entry must not mark the finding as baselined")
	}
}

func TestAcceptCurrent_WritesBaselineAndMarksRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".safepush.baseline.json")

	findings := []types.Finding{
		{Path: "svc.go", Line: 4, RuleID: "stripe-secret-key", Fingerprint: "fp-stripe", Severity: types.SevCritical},
	}
	m := NewModel(reviewResult(findings), dir, path, nil, nil)

	cmd := m.acceptCurrent("rotated, old key")
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	if msg, ok := cmd().(statusMsg); !ok || !strings.Contains(string(msg), "Accepted") {
		t.Fatalf("unexpected message: %v", cmd())
	}

	f, err := baseline.Load(path)
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	if !f.Suppresses("fp-stripe", time.Now()) {
		t.Error("baseline file should suppress the accepted fingerprint")
	}
	if !m.baselined["fp-stripe"] {
		t.Error("model should mark the fingerprint as baselined")
	}
	if !strings.HasPrefix(m.table.Rows()[0][0], "(b)") {
		t.Errorf("row should carry the baseline marker: %q", m.table.Rows()[0][0])
	}
}

func TestAcceptCurrent_RequiresJustification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".safepush.baseline.json")

	m := NewModel(reviewResult([]types.Finding{
		{Path: "a.go", Line: 1, RuleID: "r", Fingerprint: "fp", Severity: types.SevHigh},
	}), dir, path, nil, nil)

	cmd := m.acceptCurrent("")
	if msg, ok := cmd().(statusMsg); !ok || !strings.Contains(string(msg), "justification required") {
		t.Fatalf("expected justification-required message, got %v", cmd())
	}
	if f, err := baseline.Load(path); err != nil || f.Len() != 0 {
		t.Errorf("baseline must stay empty, got len=%d err=%v", f.Len(), err)
	}
}

func TestRemoveCurrent_DropsEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".safepush.baseline.json")

	findings := []types.Finding{
		{Path: "svc.go", Line: 4, RuleID: "r", Fingerprint: "fp-x", Severity: types.SevHigh},
	}
	m := NewModel(reviewResult(findings), dir, path, nil, nil)

	if cmd := m.acceptCurrent("temp"); cmd == nil {
		t.Fatal("accept failed")
	}
	if cmd := m.removeCurrent(); cmd == nil {
		t.Fatal("expected a status command")
	}

	f, err := baseline.Load(path)
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	if f.Suppresses("fp-x", time.Now()) {
		t.Error("fingerprint should be gone from the baseline")
	}
	if m.baselined["fp-x"] {
		t.Error("model marker should be cleared")
	}
}

func TestRemoveCurrent_NotBaselined(t *testing.T) {
	m := NewModel(reviewResult([]types.Finding{
		{Path: "a.go", Line: 1, RuleID: "r", Fingerprint: "fp", Severity: types.SevHigh},
	}), "", "", nil, nil)

	cmd := m.removeCurrent()
	if msg, ok := cmd().(statusMsg); !ok || !strings.Contains(string(msg), "not baselined") {
		t.Fatalf("expected not-baselined message, got %v", cmd())
	}
}
