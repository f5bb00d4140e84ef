package tui

import (
	"testing"

	"github.com/safepush/safepush/internal/types"
)

func reviewResult(findings []types.Finding) *types.ScanResult {
	return &types.ScanResult{
		Verdict:   types.VerdictFail,
		Findings:  findings,
		Threshold: types.SevMed,
	}
}

func TestApplyFilters_SearchQuery(t *testing.T) {
	findings := []types.Finding{
		{Path: "src/config.go", RuleID: "aws-access-key-id", Excerpt: "AKIA…MPLE", Fingerprint: "fp1", Severity: types.SevHigh},
		{Path: "src/main.go", RuleID: "sensitive-assignment", Excerpt: "password = …", Fingerprint: "fp2", Severity: types.SevMed},
		{Path: "test/test.go", RuleID: "aws-access-key-id", Excerpt: "AKIA…4567", Fingerprint: "fp3", Severity: types.SevLow},
	}

	m := NewModel(reviewResult(findings), "", "", nil, nil)

	// Search by path
	m.searchQuery = "config"
	m.applyFilters()
	if len(m.filteredFindings) != 1 {
		t.Errorf("expected 1 finding matching 'config', got %d", len(m.filteredFindings))
	}
	if m.filteredFindings[0].Path != "src/config.go" {
		t.Errorf("expected src/config.go, got %s", m.filteredFindings[0].Path)
	}

	// Search by rule id
	m.searchQuery = "aws"
	m.applyFilters()
	if len(m.filteredFindings) != 2 {
		t.Errorf("expected 2 findings matching 'aws', got %d", len(m.filteredFindings))
	}

	// Search by excerpt
	m.searchQuery = "password"
	m.applyFilters()
	if len(m.filteredFindings) != 1 {
		t.Errorf("expected 1 finding matching 'password', got %d", len(m.filteredFindings))
	}

	// Case insensitivity
	m.searchQuery = "AKIA"
	m.applyFilters()
	if len(m.filteredFindings) != 2 {
		t.Errorf("expected 2 findings matching 'AKIA' (case insensitive), got %d", len(m.filteredFindings))
	}
}

func TestApplyFilters_SeverityFilter(t *testing.T) {
	findings := []types.Finding{
		{Path: "file1.go", Fingerprint: "a", Severity: types.SevCritical},
		{Path: "file2.go", Fingerprint: "b", Severity: types.SevHigh},
		{Path: "file3.go", Fingerprint: "c", Severity: types.SevMed},
		{Path: "file4.go", Fingerprint: "d", Severity: types.SevHigh},
	}

	m := NewModel(reviewResult(findings), "", "", nil, nil)

	m.severityFilter = types.SevHigh
	m.applyFilters()
	if len(m.filteredFindings) != 2 {
		t.Errorf("expected 2 high findings, got %d", len(m.filteredFindings))
	}

	m.severityFilter = types.SevCritical
	m.applyFilters()
	if len(m.filteredFindings) != 1 {
		t.Errorf("expected 1 critical finding, got %d", len(m.filteredFindings))
	}
}

func TestApplyFilters_Combined(t *testing.T) {
	findings := []types.Finding{
		{Path: "src/config.go", RuleID: "aws-access-key-id", Fingerprint: "a", Severity: types.SevHigh},
		{Path: "src/main.go", RuleID: "aws-access-key-id", Fingerprint: "b", Severity: types.SevMed},
		{Path: "test/config.go", RuleID: "generic", Fingerprint: "c", Severity: types.SevHigh},
	}

	m := NewModel(reviewResult(findings), "", "", nil, nil)

	m.searchQuery = "config"
	m.severityFilter = types.SevHigh
	m.applyFilters()
	if len(m.filteredFindings) != 2 {
		t.Errorf("expected 2 findings matching 'config' AND high, got %d", len(m.filteredFindings))
	}
}

func TestClearFilters(t *testing.T) {
	findings := []types.Finding{
		{Path: "file1.go", Fingerprint: "a", Severity: types.SevHigh},
		{Path: "file2.go", Fingerprint: "b", Severity: types.SevMed},
	}

	m := NewModel(reviewResult(findings), "", "", nil, nil)
	m.searchQuery = "file1"
	m.severityFilter = types.SevHigh
	m.applyFilters()

	m.clearFilters()
	if m.searchQuery != "" || m.severityFilter != "" {
		t.Error("filters should be cleared")
	}
	if m.filteredFindings != nil {
		t.Error("filteredFindings should be nil after clear")
	}
	if len(m.table.Rows()) != 2 {
		t.Errorf("expected all rows restored, got %d", len(m.table.Rows()))
	}
}

func TestGetOriginalIndex(t *testing.T) {
	findings := []types.Finding{
		{Path: "a.go", Fingerprint: "a", Severity: types.SevLow},
		{Path: "b.go", Fingerprint: "b", Severity: types.SevHigh},
		{Path: "c.go", Fingerprint: "c", Severity: types.SevHigh},
	}

	m := NewModel(reviewResult(findings), "", "", nil, nil)
	m.severityFilter = types.SevHigh
	m.applyFilters()

	if got := m.getOriginalIndex(0); got != 1 {
		t.Errorf("display 0 should map to original 1, got %d", got)
	}
	if got := m.getOriginalIndex(1); got != 2 {
		t.Errorf("display 1 should map to original 2, got %d", got)
	}
	if got := m.getOriginalIndex(5); got != -1 {
		t.Errorf("out of range should map to -1, got %d", got)
	}
}

func TestJumpToSeverityAtLeast(t *testing.T) {
	findings := []types.Finding{
		{Path: "a.go", Fingerprint: "a", Severity: types.SevLow},
		{Path: "b.go", Fingerprint: "b", Severity: types.SevMed},
		{Path: "c.go", Fingerprint: "c", Severity: types.SevHigh},
		{Path: "d.go", Fingerprint: "d", Severity: types.SevCritical},
	}

	m := NewModel(reviewResult(findings), "", "", nil, nil)
	m.table.SetCursor(0)

	if !m.jumpToSeverityAtLeast(types.SevHigh, 1) {
		t.Fatal("expected a high+ finding")
	}
	if m.table.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", m.table.Cursor())
	}

	if !m.jumpToSeverityAtLeast(types.SevHigh, 1) {
		t.Fatal("expected another high+ finding")
	}
	if m.table.Cursor() != 3 {
		t.Errorf("expected cursor 3, got %d", m.table.Cursor())
	}

	// Wraps around past low/med back to the first high
	if !m.jumpToSeverityAtLeast(types.SevHigh, 1) {
		t.Fatal("expected wrap-around")
	}
	if m.table.Cursor() != 2 {
		t.Errorf("expected cursor 2 after wrap, got %d", m.table.Cursor())
	}
}

func TestJumpToSeverityAtLeast_NoneFound(t *testing.T) {
	findings := []types.Finding{
		{Path: "a.go", Fingerprint: "a", Severity: types.SevLow},
	}
	m := NewModel(reviewResult(findings), "", "", nil, nil)
	if m.jumpToSeverityAtLeast(types.SevHigh, 1) {
		t.Error("no high+ findings exist, jump should report false")
	}
}

func TestRebuildTableRows_MergedRuleLabel(t *testing.T) {
	findings := []types.Finding{
		{
			Path:        "cfg.yml",
			Line:        3,
			RuleID:      "sensitive-assignment",
			RuleIDs:     []string{"entropy-keyed-strong", "sensitive-assignment"},
			Fingerprint: "fp",
			Severity:    types.SevHigh,
		},
	}
	m := NewModel(reviewResult(findings), "", "", nil, nil)
	rows := m.table.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][1] != "sensitive-assignment (+1)" {
		t.Errorf("expected merged label, got %q", rows[0][1])
	}
	if rows[0][2] != "cfg.yml:3" {
		t.Errorf("expected location column, got %q", rows[0][2])
	}
}

func TestUpdate_ResultMsgRefreshes(t *testing.T) {
	m := NewModel(reviewResult([]types.Finding{
		{Path: "a.go", Fingerprint: "a", Severity: types.SevHigh},
	}), "", "", nil, nil)

	next := reviewResult([]types.Finding{
		{Path: "b.go", Fingerprint: "b", Severity: types.SevLow},
		{Path: "c.go", Fingerprint: "c", Severity: types.SevMed},
	})

	updated, _ := m.Update(resultMsg(next))
	m2, ok := updated.(Model)
	if !ok {
		t.Fatal("Update should return a Model")
	}
	if len(m2.findings) != 2 {
		t.Errorf("expected 2 findings after refresh, got %d", len(m2.findings))
	}
	if m2.scanning {
		t.Error("scanning should be cleared after a result arrives")
	}
	if len(m2.table.Rows()) != 2 {
		t.Errorf("expected 2 table rows, got %d", len(m2.table.Rows()))
	}
}

func TestSetSeverityFilter_Toggles(t *testing.T) {
	findings := []types.Finding{
		{Path: "a.go", Fingerprint: "a", Severity: types.SevHigh},
		{Path: "b.go", Fingerprint: "b", Severity: types.SevLow},
	}
	m := NewModel(reviewResult(findings), "", "", nil, nil)

	m.setSeverityFilter(types.SevHigh)
	if m.severityFilter != types.SevHigh {
		t.Fatalf("filter should be set, got %q", m.severityFilter)
	}
	if len(m.getDisplayFindings()) != 1 {
		t.Errorf("expected 1 displayed finding, got %d", len(m.getDisplayFindings()))
	}

	// Same key again clears the filter
	m.setSeverityFilter(types.SevHigh)
	if m.severityFilter != "" {
		t.Errorf("filter should toggle off, got %q", m.severityFilter)
	}
	if len(m.getDisplayFindings()) != 2 {
		t.Errorf("expected all findings displayed, got %d", len(m.getDisplayFindings()))
	}
}
