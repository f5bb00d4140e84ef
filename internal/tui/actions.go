package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/safepush/safepush/internal/audit"
	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/report"
	"github.com/safepush/safepush/internal/types"
	"github.com/safepush/safepush/pkg/core"
)

func (m *Model) getSelectedFinding() *types.Finding {
	displayFindings := m.getDisplayFindings()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(displayFindings) {
		return nil
	}
	return &displayFindings[idx]
}

// openEditor launches $EDITOR at the finding's line. Argument shape differs
// per editor family.
func (m Model) openEditor() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	editorBase := editor
	if idx := strings.LastIndex(editor, "/"); idx != -1 {
		editorBase = editor[idx+1:]
	}

	var args []string
	switch editorBase {
	case "code", "code-insiders":
		args = []string{"-g", fmt.Sprintf("%s:%d:%d", f.Path, f.Line, f.Column)}
	case "subl", "sublime", "sublime_text":
		args = []string{fmt.Sprintf("%s:%d:%d", f.Path, f.Line, f.Column)}
	case "emacs", "emacsclient":
		args = []string{fmt.Sprintf("+%d:%d", f.Line, f.Column), f.Path}
	case "nano":
		args = []string{fmt.Sprintf("+%d,%d", f.Line, f.Column), f.Path}
	case "vi", "vim", "nvim":
		if f.Column > 0 {
			args = []string{fmt.Sprintf("+call cursor(%d,%d)", f.Line, f.Column), f.Path}
		} else {
			args = []string{fmt.Sprintf("+%d", f.Line), f.Path}
		}
	default:
		args = []string{fmt.Sprintf("+%d", f.Line), f.Path}
	}

	c := exec.Command(editor, args...)
	c.Dir = m.root
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return statusMsg(fmt.Sprintf("Error opening editor: %v", err))
		}
		return statusMsg("Editor closed")
	})
}

// acceptCurrent writes the selected finding into the baseline under the
// given justification and records the accept in the audit log.
func (m *Model) acceptCurrent(justification string) tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}
	if justification == "" {
		return func() tea.Msg { return statusMsg("Accept cancelled: justification required") }
	}

	fp := f.Fingerprint
	if _, err := baseline.Accept(m.baselinePath, []string{fp}, justification, 0, time.Now()); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Baseline accept failed: %v", err)) }
	}
	_ = audit.NewLog(m.root).Append(audit.AcceptRecord(m.root, []string{fp}, justification))

	m.baselined[fp] = true
	idx := m.table.Cursor()
	m.rebuildTableRows()
	m.table.SetCursor(idx)

	return func() tea.Msg { return statusMsg("Accepted into baseline") }
}

// removeCurrent drops the selected finding from the baseline.
func (m *Model) removeCurrent() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}
	fp := f.Fingerprint
	if !m.baselined[fp] {
		return func() tea.Msg { return statusMsg("Finding is not baselined") }
	}

	if _, err := baseline.Remove(m.baselinePath, []string{fp}); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Baseline remove failed: %v", err)) }
	}

	delete(m.baselined, fp)
	idx := m.table.Cursor()
	m.rebuildTableRows()
	m.table.SetCursor(idx)

	return func() tea.Msg { return statusMsg("Removed from baseline") }
}

func (m Model) copyPathToClipboard() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}
	if err := clipboard.WriteAll(fmt.Sprintf("%s:%d", f.Path, f.Line)); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg("Copied location to clipboard") }
}

// copyFindingToClipboard copies the triage summary. Only the redacted
// excerpt goes to the clipboard, never the raw match.
func (m Model) copyFindingToClipboard() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "rule: %s\n", f.RuleID)
	if len(f.RuleIDs) > 1 {
		fmt.Fprintf(&sb, "also: %s\n", strings.Join(f.RuleIDs, ", "))
	}
	fmt.Fprintf(&sb, "severity: %s\n", f.Severity)
	fmt.Fprintf(&sb, "location: %s:%d\n", f.Path, f.Line)
	fmt.Fprintf(&sb, "fingerprint: %s\n", f.Fingerprint)
	fmt.Fprintf(&sb, "excerpt: %s\n", f.Excerpt)

	if err := clipboard.WriteAll(sb.String()); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg("Copied finding details to clipboard") }
}

// exportFindings writes the displayed findings to safepush-findings.<ext>
// in the current directory using the standard report writers.
func (m *Model) exportFindings(format string) tea.Cmd {
	display := m.getDisplayFindings()
	if len(display) == 0 || m.result == nil {
		return func() tea.Msg { return statusMsg("Nothing to export") }
	}

	res := *m.result
	res.Findings = display

	var filename string
	switch format {
	case "sarif":
		filename = "safepush-findings.sarif"
	default:
		filename = "safepush-findings.json"
	}

	out, err := os.Create(filename)
	if err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Export failed: %v", err)) }
	}
	defer out.Close()

	switch format {
	case "sarif":
		err = report.WriteSARIF(out, &res, core.Version)
	default:
		err = report.WriteJSON(out, &res, core.Version)
	}
	if err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Export failed: %v", err)) }
	}

	return func() tea.Msg {
		return statusMsg(fmt.Sprintf("Exported %d findings to %s", len(display), filename))
	}
}
