package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	sevCritStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	sevHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "CRIT"
	case types.SevHigh:
		return "HIGH"
	case types.SevMed:
		return "MED"
	case types.SevLow:
		return "LOW"
	default:
		return string(s)
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// Model is the state of the review UI.
type Model struct {
	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model

	result           *types.ScanResult
	findings         []types.Finding
	filteredFindings []types.Finding // findings after filter applied (nil = no filter)
	filteredIndices  []int           // maps filtered index to original findings index
	baselined        map[string]bool // fingerprints already accepted into the baseline
	baselinePath     string
	root             string

	quitting       bool
	ready          bool // terminal dimensions known
	scanning       bool // rescan in progress
	hasScannedOnce bool
	viewingCached  bool
	lastScanTime   time.Time
	height         int
	width          int
	statusMessage  string
	statusTimeout  *time.Time
	rescanFunc     func() (*types.ScanResult, error)
	showEmpty      bool
	showHelp       bool
	showExportMenu bool

	// Search & filter state
	searchMode     bool
	searchInput    textinput.Model
	searchQuery    string
	severityFilter types.Severity // "" = no filter

	// Baseline accept state: 'b' opens a justification prompt.
	acceptMode  bool
	acceptInput textinput.Model

	contextLines int // lines shown around a finding in the detail pane
}

type statusMsg string

type resultMsg *types.ScanResult

func defaultStatus(empty bool) string {
	if empty {
		return "q: quit | r: rescan"
	}
	return "q: quit | ?: help | j/k: navigate | o: open | b: accept | r: rescan"
}

// NewModel builds the review UI over a classified scan result. base may be
// nil; accepted fingerprints are rendered with a (b) marker.
func NewModel(res *types.ScanResult, root, baselinePath string, base *baseline.File, rescanFunc func() (*types.ScanResult, error)) Model {
	columns := []table.Column{
		{Title: "Sev", Width: 10},
		{Title: "Rule", Width: 24},
		{Title: "Location", Width: 36},
		{Title: "Excerpt", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().
		Padding(0, 1)
	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	ti := textinput.New()
	ti.Placeholder = "Search path, rule, or excerpt..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	ji := textinput.New()
	ji.Placeholder = "why is this finding acceptable?"
	ji.CharLimit = 200
	ji.Width = 60
	ji.Prompt = "justification: "
	ji.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	baselined := map[string]bool{}
	if base != nil {
		now := time.Now()
		for fp := range base.Entries {
			if base.Suppresses(fp, now) {
				baselined[fp] = true
			}
		}
	}

	var findings []types.Finding
	if res != nil {
		findings = res.Findings
	}

	m := Model{
		table:          t,
		spinner:        sp,
		result:         res,
		findings:       findings,
		baselined:      baselined,
		baselinePath:   baselinePath,
		root:           root,
		rescanFunc:     rescanFunc,
		showEmpty:      len(findings) == 0,
		hasScannedOnce: true,
		lastScanTime:   time.Now(),
		searchInput:    ti,
		acceptInput:    ji,
		contextLines:   LoadPrefs().ContextLines,
	}
	m.statusMessage = defaultStatus(m.showEmpty)
	m.rebuildTableRows()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) rescan() tea.Cmd {
	return func() tea.Msg {
		if m.rescanFunc == nil {
			return statusMsg("Rescan not available")
		}
		res, err := m.rescanFunc()
		if err != nil {
			return statusMsg(fmt.Sprintf("Scan error: %v", err))
		}
		return resultMsg(res)
	}
}

func (m *Model) applyFilters() {
	hasSearchFilter := m.searchQuery != ""
	hasSeverityFilter := m.severityFilter != ""

	if !hasSearchFilter && !hasSeverityFilter {
		m.filteredFindings = nil
		m.filteredIndices = nil
		m.rebuildTableRows()
		return
	}

	var filtered []types.Finding
	var indices []int
	query := strings.ToLower(m.searchQuery)

	for i, f := range m.findings {
		if hasSeverityFilter && f.Severity != m.severityFilter {
			continue
		}
		if hasSearchFilter {
			pathMatch := strings.Contains(strings.ToLower(f.Path), query)
			ruleMatch := strings.Contains(strings.ToLower(f.RuleID), query)
			excerptMatch := strings.Contains(strings.ToLower(f.Excerpt), query)
			if !pathMatch && !ruleMatch && !excerptMatch {
				continue
			}
		}
		filtered = append(filtered, f)
		indices = append(indices, i)
	}

	m.filteredFindings = filtered
	m.filteredIndices = indices
	m.rebuildTableRows()
}

func (m *Model) clearFilters() {
	m.searchQuery = ""
	m.severityFilter = ""
	m.filteredFindings = nil
	m.filteredIndices = nil
	m.rebuildTableRows()
}

func (m *Model) rebuildTableRows() {
	findings := m.getDisplayFindings()
	rows := make([]table.Row, len(findings))
	for i, f := range findings {
		sev := severityText(f.Severity)
		if m.baselined[f.Fingerprint] {
			sev = "(b) " + sev
		}
		rule := f.RuleID
		if n := len(f.RuleIDs); n > 1 {
			rule = fmt.Sprintf("%s (+%d)", f.RuleID, n-1)
		}
		rows[i] = table.Row{
			sev,
			rule,
			fmt.Sprintf("%s:%d", f.Path, f.Line),
			f.Excerpt,
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(findings) {
		m.table.SetCursor(0)
	}
	m.showEmpty = len(findings) == 0
	m.updateViewportContent()
}

func (m *Model) getDisplayFindings() []types.Finding {
	if m.filteredFindings != nil {
		return m.filteredFindings
	}
	return m.findings
}

func (m *Model) getOriginalIndex(displayIdx int) int {
	if m.filteredIndices != nil {
		if displayIdx >= 0 && displayIdx < len(m.filteredIndices) {
			return m.filteredIndices[displayIdx]
		}
		return -1
	}
	return displayIdx
}

// jumpToSeverityAtLeast moves the cursor to the next finding at or above
// floor (direction: 1=forward, -1=backward). Returns false when none exists.
func (m *Model) jumpToSeverityAtLeast(floor types.Severity, direction int) bool {
	displayFindings := m.getDisplayFindings()
	if len(displayFindings) == 0 {
		return false
	}
	current := m.table.Cursor()
	n := len(displayFindings)
	for i := 1; i <= n; i++ {
		idx := (current + direction*i + n) % n
		if displayFindings[idx].Severity.AtLeast(floor) {
			m.table.SetCursor(idx)
			return true
		}
	}
	return false
}

func (m *Model) expandContext() {
	if m.contextLines < 20 {
		m.contextLines += 2
		m.savePrefs()
		m.updateViewportContent()
	}
}

func (m *Model) contractContext() {
	if m.contextLines > 1 {
		m.contextLines -= 2
		if m.contextLines < 1 {
			m.contextLines = 1
		}
		m.savePrefs()
		m.updateViewportContent()
	}
}

func (m *Model) savePrefs() {
	_ = SavePrefs(Prefs{ContextLines: m.contextLines})
}

// readFileContext returns up to contextLines lines either side of
// targetLine plus the 1-based number of the first returned line.
func readFileContext(path string, targetLine, contextLines int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	start := targetLine - contextLines
	if start < 1 {
		start = 1
	}
	end := targetLine + contextLines

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		if n < start {
			continue
		}
		if n > end {
			break
		}
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	if len(out) == 0 {
		return nil, 0, fmt.Errorf("line %d out of range", targetLine)
	}
	return out, start, nil
}

func highlightCode(code, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

func highlightLine(line, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return line // no highlighting for unknown file types
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (m *Model) updateViewportContent() {
	displayFindings := m.getDisplayFindings()
	if len(displayFindings) == 0 || !m.ready {
		m.viewport.SetContent("")
		return
	}
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(displayFindings) {
		m.updateViewportContentForFinding(displayFindings[idx])
	}
}

func (m *Model) updateViewportContentForFinding(f types.Finding) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n\n", titleStyle.Render("Finding Details")))

	if m.baselined[f.Fingerprint] {
		baselineStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)
		b.WriteString(baselineStyle.Render("BASELINED: this finding is accepted. Press 'U' to remove it from the baseline."))
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Path:"), f.Path))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Rule:"), f.RuleID))
	if len(f.RuleIDs) > 1 {
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Also matched:"), strings.Join(f.RuleIDs, ", ")))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Severity:"), f.Severity))
	b.WriteString(fmt.Sprintf("%s %d\n", keyStyle.Render("Line:"), f.Line))
	if f.Column > 0 {
		b.WriteString(fmt.Sprintf("%s %d\n", keyStyle.Render("Column:"), f.Column))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Fingerprint:"), f.Fingerprint))
	if f.Description != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Description:"), f.Description))
	}

	contextHint := fmt.Sprintf(" (+/- to expand/contract, showing %d lines)", m.contextLines*2+1)
	b.WriteString(fmt.Sprintf("\n%s%s\n",
		keyStyle.Render("Context:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(contextHint)))

	path := f.Path
	if m.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(m.root, path)
	}
	lines, startLine, err := readFileContext(path, f.Line, m.contextLines)
	if err == nil && len(lines) > 0 {
		lineNumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		focusLineStyle := lipgloss.NewStyle().Background(lipgloss.Color("236"))

		for i, line := range lines {
			lineNum := startLine + i
			lineNumStr := lineNumStyle.Render(fmt.Sprintf("%4d ", lineNum))
			highlighted := highlightLine(line, f.Path)
			if lineNum == f.Line {
				if f.Match != "" {
					highlighted = strings.ReplaceAll(highlighted, f.Match, matchStyle.Render(f.Match))
				}
				b.WriteString(lineNumStr + focusLineStyle.Render(highlighted) + "\n")
			} else {
				b.WriteString(lineNumStr + highlighted + "\n")
			}
		}
	} else {
		// File unreadable (deleted since the scan, or a structured-field
		// finding); fall back to the redacted excerpt.
		b.WriteString(highlightCode(f.Excerpt, f.Path))
	}

	m.viewport.SetContent(b.String())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if m.showExportMenu {
			switch msg.String() {
			case "1", "j":
				m.showExportMenu = false
				return m, m.exportFindings("json")
			case "2", "s":
				m.showExportMenu = false
				return m, m.exportFindings("sarif")
			case "esc", "q", "e":
				m.showExportMenu = false
			}
			return m, nil
		}

		if m.acceptMode {
			switch msg.String() {
			case "enter":
				just := strings.TrimSpace(m.acceptInput.Value())
				m.acceptMode = false
				m.acceptInput.Blur()
				m.acceptInput.SetValue("")
				return m, m.acceptCurrent(just)
			case "esc":
				m.acceptMode = false
				m.acceptInput.Blur()
				m.acceptInput.SetValue("")
				return m, nil
			default:
				m.acceptInput, cmd = m.acceptInput.Update(msg)
				return m, cmd
			}
		}

		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchQuery = m.searchInput.Value()
				m.searchMode = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchInput.SetValue(m.searchQuery)
				m.applyFilters()
				return m, nil
			default:
				m.searchInput, cmd = m.searchInput.Update(msg)
				m.searchQuery = m.searchInput.Value()
				m.applyFilters()
				return m, cmd
			}
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "/":
			if len(m.findings) > 0 {
				m.searchMode = true
				m.searchInput.SetValue(m.searchQuery)
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "1":
			m.setSeverityFilter(types.SevCritical)
			return m, nil
		case "2":
			m.setSeverityFilter(types.SevHigh)
			return m, nil
		case "3":
			m.setSeverityFilter(types.SevMed)
			return m, nil
		case "4":
			m.setSeverityFilter(types.SevLow)
			return m, nil
		case "esc":
			if m.searchQuery != "" || m.severityFilter != "" {
				m.clearFilters()
				m.setStatus("Filters cleared", 3*time.Second)
				return m, nil
			}
		case "n":
			if !m.showEmpty {
				if m.jumpToSeverityAtLeast(types.SevHigh, 1) {
					m.updateViewportContent()
				} else {
					m.setStatus("No high or critical findings", 2*time.Second)
				}
				return m, nil
			}
		case "N":
			if !m.showEmpty {
				if m.jumpToSeverityAtLeast(types.SevHigh, -1) {
					m.updateViewportContent()
				} else {
					m.setStatus("No high or critical findings", 2*time.Second)
				}
				return m, nil
			}
		case "o", "enter":
			if !m.showEmpty {
				return m, m.openEditor()
			}
		case "b":
			if !m.showEmpty {
				if f := m.getSelectedFinding(); f != nil && m.baselined[f.Fingerprint] {
					m.setStatus("Already baselined (U to remove)", 2*time.Second)
					return m, nil
				}
				m.acceptMode = true
				m.acceptInput.Focus()
				return m, textinput.Blink
			}
		case "U":
			if !m.showEmpty {
				return m, m.removeCurrent()
			}
		case "e":
			if len(m.getDisplayFindings()) > 0 {
				m.showExportMenu = true
				return m, nil
			}
		case "+", "=":
			if !m.showEmpty {
				m.expandContext()
				m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
				return m, nil
			}
		case "-", "_":
			if !m.showEmpty {
				m.contractContext()
				m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
				return m, nil
			}
		case "y":
			if !m.showEmpty {
				return m, m.copyPathToClipboard()
			}
		case "Y":
			if !m.showEmpty {
				return m, m.copyFindingToClipboard()
			}
		case "r":
			if m.rescanFunc == nil {
				m.setStatus("Rescan not available", 3*time.Second)
				return m, nil
			}
			if !m.scanning {
				m.scanning = true
				m.statusMessage = "Rescanning..."
				return m, m.rescan()
			}
		case "?", "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "down", "j":
			if !m.showEmpty {
				m.table, cmd = m.table.Update(msg)
				m.updateViewportContent()
				return m, cmd
			}
		case "up", "k":
			if !m.showEmpty {
				m.table, cmd = m.table.Update(msg)
				m.updateViewportContent()
				return m, cmd
			}
		case "ctrl+d":
			if !m.showEmpty {
				m.table.MoveDown(halfPage(m.table.Height()))
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+u":
			if !m.showEmpty {
				m.table.MoveUp(halfPage(m.table.Height()))
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+f", "pgdown":
			if !m.showEmpty {
				m.table.MoveDown(m.table.Height())
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+b", "pgup":
			if !m.showEmpty {
				m.table.MoveUp(m.table.Height())
				m.updateViewportContent()
				return m, nil
			}
		case "g", "home":
			if !m.showEmpty {
				m.table.GotoTop()
				m.updateViewportContent()
				return m, nil
			}
		case "G", "end":
			if !m.showEmpty {
				m.table.GotoBottom()
				m.updateViewportContent()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		usableWidth := m.width - 10
		sevWidth := 10
		ruleWidth := 24
		remainingWidth := usableWidth - sevWidth - ruleWidth
		locWidth := int(float64(remainingWidth) * 0.5)
		excerptWidth := remainingWidth - locWidth
		if locWidth < 25 {
			locWidth = 25
		}
		if excerptWidth < 20 {
			excerptWidth = 20
		}

		cols := m.table.Columns()
		cols[0].Width = sevWidth
		cols[1].Width = ruleWidth
		cols[2].Width = locWidth
		cols[3].Width = excerptWidth
		m.table.SetColumns(cols)

		statsHeaderHeight := 1
		availableHeight := m.height - lipgloss.Height(statusStyle.Render("")) - statsHeaderHeight
		tableHeight := int(float64(availableHeight) * 0.45)
		viewportHeight := availableHeight - tableHeight - detailPaneBorderStyle.GetVerticalFrameSize() - 1

		m.table.SetWidth(m.width)
		m.table.SetHeight(tableHeight)

		if m.viewport.Height == 0 {
			m.viewport = viewport.New(m.width, viewportHeight)
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()
		statusStyle = statusStyle.Width(m.width)

	case resultMsg:
		res := (*types.ScanResult)(msg)
		if res != nil {
			m.result = res
			m.findings = res.Findings
		} else {
			m.result = nil
			m.findings = nil
		}
		m.lastScanTime = time.Now()
		m.viewingCached = false
		m.scanning = false
		m.filteredFindings = nil
		m.filteredIndices = nil
		m.rebuildTableRows()
		if m.showEmpty {
			m.setStatus("Rescan complete - no findings", 5*time.Second)
		} else {
			m.setStatus(fmt.Sprintf("Rescan complete - %d findings", len(m.findings)), 5*time.Second)
		}

	case statusMsg:
		m.scanning = false
		m.setStatus(string(msg), 3*time.Second)

	case spinner.TickMsg:
		var spinCmd tea.Cmd
		m.spinner, spinCmd = m.spinner.Update(msg)
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			m.statusMessage = defaultStatus(m.showEmpty)
		}
		return m, spinCmd
	}

	m.updateViewportContent()
	return m, cmd
}

func (m *Model) setStatus(s string, d time.Duration) {
	timeout := time.Now().Add(d)
	m.statusTimeout = &timeout
	m.statusMessage = s
}

func (m *Model) setSeverityFilter(s types.Severity) {
	if m.severityFilter == s {
		m.severityFilter = ""
	} else {
		m.severityFilter = s
	}
	m.applyFilters()
	if m.severityFilter == "" {
		m.setStatus("Severity filter cleared", 3*time.Second)
	} else {
		m.setStatus(fmt.Sprintf("Showing %s only (Esc to clear)", severityText(s)), 3*time.Second)
	}
}

func halfPage(h int) int {
	if h < 2 {
		return 1
	}
	return h / 2
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.scanning {
		msgContent := fmt.Sprintf("%s  Rescanning...\n\nPlease wait", m.spinner.View())
		popupBox := popupStyle.
			Width(55).
			Align(lipgloss.Center).
			Render(msgContent)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupBox)
	}

	displayFindings := m.getDisplayFindings()
	var critCount, highCount, medCount, lowCount int
	for _, f := range displayFindings {
		switch f.Severity {
		case types.SevCritical:
			critCount++
		case types.SevHigh:
			highCount++
		case types.SevMed:
			medCount++
		case types.SevLow:
			lowCount++
		}
	}

	var statsContent string
	if len(m.findings) == 0 {
		statsContent = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[OK] No findings to review")
	} else {
		var filterInfo string
		if m.searchQuery != "" || m.severityFilter != "" {
			var parts []string
			if m.searchQuery != "" {
				parts = append(parts, fmt.Sprintf("search:'%s'", m.searchQuery))
			}
			if m.severityFilter != "" {
				parts = append(parts, fmt.Sprintf("sev:%s", severityText(m.severityFilter)))
			}
			filterInfo = fmt.Sprintf("  [FILTER: %s]", strings.Join(parts, ", "))
		}

		var verdictInfo string
		if m.result != nil {
			verdictInfo = fmt.Sprintf("  |  Verdict: %s", m.result.Verdict)
		}

		shown := fmt.Sprintf("Total: %-4d", len(m.findings))
		if m.filteredFindings != nil {
			shown = fmt.Sprintf("Showing: %d/%d", len(displayFindings), len(m.findings))
		}
		statsContent = fmt.Sprintf(
			"%s  |  %s %-3d  |  %s %-3d  |  %s %-3d  |  %s %-3d%s%s",
			shown,
			sevCritStyle.Render("Crit:"), critCount,
			sevHighStyle.Render("High:"), highCount,
			sevMedStyle.Render("Med:"), medCount,
			sevLowStyle.Render("Low:"), lowCount,
			verdictInfo,
			filterInfo,
		)
	}

	statsHeader := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(statsContent)

	tableRender := tableBorderStyle.
		Width(m.width).
		Height(m.table.Height()).
		Render(m.table.View())

	var detailContent string
	if len(displayFindings) == 0 {
		var emptyMsg string
		if len(m.findings) == 0 {
			emptyMsg = "Nothing to review.\n\nPress 'r' to rescan\nPress '?' for help"
		} else {
			emptyMsg = "No findings match filter.\n\nPress 'Esc' to clear filter"
		}
		detailContent = lipgloss.Place(
			m.width,
			m.viewport.Height,
			lipgloss.Center,
			lipgloss.Center,
			emptyTextStyle.Render(emptyMsg),
		)
	} else {
		detailContent = m.viewport.View()
	}

	detailRender := detailPaneBorderStyle.
		Width(m.width).
		Height(m.viewport.Height).
		Render(detailContent)

	var timeInfo string
	if m.viewingCached {
		timeInfo = fmt.Sprintf("Cached: %s", m.lastScanTime.Format("Jan 2, 15:04"))
	} else if !m.lastScanTime.IsZero() {
		timeInfo = fmt.Sprintf("Scanned: %s ago", formatDuration(time.Since(m.lastScanTime)))
	}

	statusLeft := m.statusMessage
	statusRight := timeInfo
	leftWidth := lipgloss.Width(statusLeft)
	rightWidth := lipgloss.Width(statusRight)
	availWidth := m.width - 4
	spacer := availWidth - leftWidth - rightWidth
	if spacer < 1 {
		spacer = 1
	}

	var statusContent string
	if timeInfo != "" {
		statusContent = statusLeft + strings.Repeat(" ", spacer) + statusRight
	} else {
		statusContent = statusLeft
	}

	statusRender := statusStyle.
		Width(m.width).
		Padding(0, 2).
		Render(statusContent)

	var bottomBar string
	switch {
	case m.searchMode:
		matchCount := len(m.getDisplayFindings())
		searchStatus := fmt.Sprintf(" (%d matches)", matchCount)
		searchBarStyle := lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1)
		bottomBar = searchBarStyle.Render(m.searchInput.View() + searchStatus)
	case m.acceptMode:
		acceptBarStyle := lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1)
		bottomBar = acceptBarStyle.Render(m.acceptInput.View() + "  (Enter: accept, Esc: cancel)")
	default:
		bottomBar = statusRender
	}

	mainView := lipgloss.JoinVertical(lipgloss.Left,
		statsHeader,
		tableRender,
		detailRender,
		bottomBar,
	)

	if m.showHelp {
		return m.helpOverlay()
	}
	if m.showExportMenu {
		return m.exportOverlay()
	}

	return mainView
}

func (m Model) helpOverlay() string {
	helpTitleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyColor := lipgloss.Color("10")
	descColor := lipgloss.Color("250")

	formatRow := func(key, desc string) string {
		keyStyled := lipgloss.NewStyle().Foreground(keyColor).Render(key)
		descStyled := lipgloss.NewStyle().Foreground(descColor).Render(desc)
		padding := 12 - len(key)
		if padding < 1 {
			padding = 1
		}
		return "  " + keyStyled + strings.Repeat(" ", padding) + descStyled
	}

	var lines []string
	lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts"))
	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Navigation"))
	lines = append(lines, formatRow("j / k", "Move down / up"))
	lines = append(lines, formatRow("Ctrl+d/u", "Half-page down / up"))
	lines = append(lines, formatRow("Ctrl+f/b", "Full page down / up"))
	lines = append(lines, formatRow("g / G", "First / last row"))
	lines = append(lines, formatRow("n / N", "Next / prev high+ finding"))
	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Search & Filter"))
	lines = append(lines, formatRow("/", "Search findings"))
	lines = append(lines, formatRow("1/2/3/4", "Filter CRIT / HIGH / MED / LOW"))
	lines = append(lines, formatRow("Esc", "Clear filters"))
	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Baseline"))
	lines = append(lines, formatRow("b", "Accept finding (with justification)"))
	lines = append(lines, formatRow("U", "Remove from baseline"))
	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Export & Copy"))
	lines = append(lines, formatRow("e", "Export (JSON/SARIF)"))
	lines = append(lines, formatRow("y / Y", "Copy path / full finding"))
	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Other"))
	lines = append(lines, formatRow("Enter", "Open in $EDITOR"))
	lines = append(lines, formatRow("+ / -", "Expand / contract context"))
	lines = append(lines, formatRow("r", "Rescan"))
	lines = append(lines, formatRow("?", "Toggle help"))
	lines = append(lines, formatRow("q", "Quit"))
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Italic(true).
		Render("Press any key to close"))

	helpContent := lipgloss.JoinVertical(lipgloss.Left, lines...)
	helpBox := popupStyle.Width(48).Padding(1, 3).Render(helpContent)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpBox)
}

func (m Model) exportOverlay() string {
	exportTitleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15"))

	keyColor := lipgloss.Color("10")
	descColor := lipgloss.Color("250")

	var lines []string
	lines = append(lines, exportTitleStyle.Render("Export Findings"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("  %s  JSON  (machine summary)",
		lipgloss.NewStyle().Foreground(keyColor).Bold(true).Render("1/j")))
	lines = append(lines, fmt.Sprintf("  %s  SARIF (CI/CD integration)",
		lipgloss.NewStyle().Foreground(keyColor).Bold(true).Render("2/s")))
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().
		Foreground(descColor).
		Italic(true).
		Render(fmt.Sprintf("Exporting %d findings", len(m.getDisplayFindings()))))
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Italic(true).
		Render("Esc to cancel"))

	exportContent := lipgloss.JoinVertical(lipgloss.Left, lines...)
	exportBox := popupStyle.
		Width(40).
		Padding(1, 3).
		Render(exportContent)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, exportBox)
}
