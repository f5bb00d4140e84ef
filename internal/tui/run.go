package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/types"
)

// Run starts the review UI over a classified result.
func Run(res *types.ScanResult, root, baselinePath string, base *baseline.File, rescanFunc func() (*types.ScanResult, error)) error {
	m := NewModel(res, root, baselinePath, base, rescanFunc)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running review UI: %w", err)
	}
	return nil
}

// RunCached starts the review UI over the last saved scan result.
func RunCached(res *types.ScanResult, root, baselinePath string, base *baseline.File, rescanFunc func() (*types.ScanResult, error), timestamp time.Time) error {
	m := NewModel(res, root, baselinePath, base, rescanFunc)
	m.viewingCached = true
	m.lastScanTime = timestamp
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running review UI: %w", err)
	}
	return nil
}
