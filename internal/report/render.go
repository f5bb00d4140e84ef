package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/safepush/safepush/internal/types"
)

type PrintOptions struct {
	NoColor bool
}

// AutoOptions disables color when stdout is not a terminal.
func AutoOptions() PrintOptions {
	return PrintOptions{NoColor: !term.IsTerminal(int(os.Stdout.Fd()))}
}

// PrintText renders the result grouped by file: findings under their path,
// then notes, then the summary footer. Excerpts arrive already redacted;
// nothing here re-derives the matched content.
func PrintText(w io.Writer, res *types.ScanResult, opts PrintOptions) {
	fs := ordered(res)
	if len(fs) == 0 {
		fmt.Fprintln(w, "No findings ✅")
	} else {
		maxRule := 8
		for _, f := range fs {
			if l := len(ruleLabel(f)); l > maxRule {
				maxRule = l
			}
		}
		lastPath := ""
		for _, f := range fs {
			if f.Path != lastPath {
				if lastPath != "" {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%s\n", f.Path)
				lastPath = f.Path
			}
			sev := string(f.Severity)
			if !opts.NoColor {
				sev = colorSeverity(f.Severity)
			}
			fmt.Fprintf(w, "  %5d  %-10s %-*s  %s\n", f.Line, sev, maxRule, ruleLabel(f), f.Excerpt)
		}
	}
	printNotes(w, res.Notes)
	printFooter(w, res, opts)
}

// PrintTable renders the same content as PrintText in a bordered table.
func PrintTable(w io.Writer, res *types.ScanResult, opts PrintOptions) {
	fs := ordered(res)
	if len(fs) == 0 {
		fmt.Fprintln(w, "No findings ✅")
	} else {
		tbl := tablewriter.NewTable(w)
		tbl.Header("Severity", "Rule", "Location", "Excerpt")
		for _, f := range fs {
			tbl.Append([]string{
				string(f.Severity),
				ruleLabel(f),
				fmt.Sprintf("%s:%d", f.Path, f.Line),
				f.Excerpt,
			})
		}
		tbl.Render()
	}
	printNotes(w, res.Notes)
	printFooter(w, res, opts)
}

// ordered returns the findings sorted for display without touching the
// slice inside the result.
func ordered(res *types.ScanResult) []types.Finding {
	fs := make([]types.Finding, len(res.Findings))
	copy(fs, res.Findings)
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Path != fs[j].Path {
			return fs[i].Path < fs[j].Path
		}
		if fs[i].Line != fs[j].Line {
			return fs[i].Line < fs[j].Line
		}
		return fs[i].RuleID < fs[j].RuleID
	})
	return fs
}

func ruleLabel(f types.Finding) string {
	if len(f.RuleIDs) > 1 {
		return fmt.Sprintf("%s (+%d)", f.RuleID, len(f.RuleIDs)-1)
	}
	return f.RuleID
}

func printNotes(w io.Writer, notes []types.Note) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	for _, n := range notes {
		if n.RuleID != "" {
			fmt.Fprintf(w, "  %s %s [%s]: %s\n", n.Kind, n.Path, n.RuleID, n.Detail)
			continue
		}
		fmt.Fprintf(w, "  %s %s: %s\n", n.Kind, n.Path, n.Detail)
	}
}

func printFooter(w io.Writer, res *types.ScanResult, opts PrintOptions) {
	st := res.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (critical: %d, high: %d, medium: %d, low: %d)\n",
		len(res.Findings),
		res.Counts[types.SevCritical], res.Counts[types.SevHigh],
		res.Counts[types.SevMed], res.Counts[types.SevLow])
	if len(res.Findings) > 0 {
		fmt.Fprintln(w, "Severity scale: low < medium < high < critical")
	}
	fmt.Fprintf(w, "Files scanned: %d (%d skipped)\n", st.FilesScanned, st.FilesSkipped)
	if st.Suppressed > 0 {
		fmt.Fprintf(w, "Suppressed by baseline: %d\n", st.Suppressed)
	}
	if st.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", st.Duration.Seconds())
	}
	verdict := string(res.Verdict)
	if !opts.NoColor {
		verdict = colorVerdict(res.Verdict)
	}
	fmt.Fprintf(w, "Verdict: %s (threshold: %s)\n", verdict, res.Threshold)
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "\x1b[1;31mcritical\x1b[0m" // bold red
	case types.SevHigh:
		return "\x1b[31mhigh\x1b[0m" // red
	case types.SevMed:
		return "\x1b[33mmedium\x1b[0m" // yellow
	default:
		return "\x1b[36mlow\x1b[0m" // cyan
	}
}

func colorVerdict(v types.Verdict) string {
	switch v {
	case types.VerdictFail:
		return "\x1b[31mFAIL\x1b[0m"
	case types.VerdictWarnings:
		return "\x1b[33mFAIL_WITH_WARNINGS\x1b[0m"
	default:
		return "\x1b[32mPASS\x1b[0m"
	}
}
