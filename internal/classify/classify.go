// Package classify turns raw engine output into a final ScanResult: it
// deduplicates findings, merges same-line hits from overlapping rules,
// applies severity overrides and the baseline, and computes the verdict.
package classify

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/engine"
	"github.com/safepush/safepush/internal/types"
)

// Options configures one classification pass.
type Options struct {
	Threshold   types.Severity            // findings at or above fail the scan; zero means medium
	Overrides   map[string]types.Severity // per-invocation severity by rule id
	Baseline    *baseline.File            // nil disables suppression
	Now         time.Time                 // expiry reference; zero means time.Now()
	RulesLoaded int                       // carried into Stats
}

// Run classifies the raw engine result. The input is not mutated; reporters
// receive the returned ScanResult and nothing else.
func Run(raw *engine.Result, opts Options) *types.ScanResult {
	threshold := opts.Threshold
	if threshold == "" {
		threshold = types.SevMed
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	findings := make([]types.Finding, len(raw.Findings))
	copy(findings, raw.Findings)

	applyOverrides(findings, opts.Overrides)
	findings = dedupe(findings)
	findings, suppressed := suppress(findings, opts.Baseline, now)
	findings = mergeSameLine(findings)
	sortFindings(findings)

	counts := map[types.Severity]int{}
	verdict := types.VerdictPass
	for _, f := range findings {
		counts[f.Severity]++
		if f.Severity.AtLeast(threshold) {
			verdict = types.VerdictFail
		} else if verdict == types.VerdictPass {
			verdict = types.VerdictWarnings
		}
	}

	return &types.ScanResult{
		Verdict:   verdict,
		Findings:  findings,
		Notes:     raw.Notes,
		Counts:    counts,
		Threshold: threshold,
		Stats: types.Stats{
			FilesScanned:  raw.FilesScanned,
			FilesSkipped:  raw.FilesSkipped,
			LinesScanned:  raw.LinesScanned,
			RulesLoaded:   opts.RulesLoaded,
			Suppressed:    suppressed,
			Duration:      raw.Duration,
			DurationMilli: raw.Duration.Milliseconds(),
		},
	}
}

func applyOverrides(fs []types.Finding, overrides map[string]types.Severity) {
	if len(overrides) == 0 {
		return
	}
	for i := range fs {
		if sev, ok := overrides[fs[i].RuleID]; ok {
			fs[i].Severity = sev
		}
	}
}

// dedupe keeps the first finding per fingerprint. Engine output arrives
// sorted by path and line, so the representative is the earliest occurrence
// of the secret.
func dedupe(fs []types.Finding) []types.Finding {
	seen := make(map[string]bool, len(fs))
	out := fs[:0]
	for _, f := range fs {
		if seen[f.Fingerprint] {
			continue
		}
		seen[f.Fingerprint] = true
		out = append(out, f)
	}
	return out
}

func suppress(fs []types.Finding, bl *baseline.File, now time.Time) ([]types.Finding, int) {
	if bl == nil || bl.Len() == 0 {
		return fs, 0
	}
	suppressed := 0
	out := fs[:0]
	for _, f := range fs {
		if bl.Suppresses(f.Fingerprint, now) {
			suppressed++
			continue
		}
		out = append(out, f)
	}
	return out, suppressed
}

// mergeSameLine fuses findings that flag the same content at the same spot
// under different rules. One secret should read as one finding, at the
// highest severity any rule assigned, with every contributing rule id
// recorded. Suppression ran first, so a partially baselined overlap keeps
// only its unaccepted rules.
func mergeSameLine(fs []types.Finding) []types.Finding {
	byKey := make(map[string]int, len(fs))
	out := fs[:0]
	for _, f := range fs {
		key := f.Path + "\x00" + strconv.Itoa(f.Line) + "\x00" + types.NormalizeMatch(f.Match)
		i, ok := byKey[key]
		if !ok {
			byKey[key] = len(out)
			out = append(out, f)
			continue
		}
		out[i] = mergeTwo(out[i], f)
	}
	return out
}

// mergeTwo combines two findings for the same content. The dominant rule is
// the one with the higher severity, ties broken by rule id, so the merge is
// order-independent.
func mergeTwo(a, b types.Finding) types.Finding {
	ids := append([]string{}, contributors(a)...)
	ids = append(ids, contributors(b)...)
	sort.Strings(ids)
	ids = compactIDs(ids)

	dominant := a
	if b.Severity.Rank() > a.Severity.Rank() ||
		(b.Severity.Rank() == a.Severity.Rank() && b.RuleID < a.RuleID) {
		dominant = b
	}
	dominant.RuleIDs = ids
	return dominant
}

func contributors(f types.Finding) []string {
	if len(f.RuleIDs) > 0 {
		return f.RuleIDs
	}
	return []string{f.RuleID}
}

func compactIDs(sorted []string) []string {
	out := sorted[:0]
	for _, id := range sorted {
		if n := len(out); n > 0 && out[n-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}

func sortFindings(fs []types.Finding) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Path != fs[j].Path {
			return fs[i].Path < fs[j].Path
		}
		if fs[i].Line != fs[j].Line {
			return fs[i].Line < fs[j].Line
		}
		if fs[i].RuleID != fs[j].RuleID {
			return fs[i].RuleID < fs[j].RuleID
		}
		return fs[i].Column < fs[j].Column
	})
}

// Describe renders a one-line summary of the verdict for log output.
func Describe(res *types.ScanResult) string {
	if len(res.Findings) == 0 {
		return "no findings"
	}
	parts := make([]string, 0, 4)
	for _, sev := range []types.Severity{types.SevCritical, types.SevHigh, types.SevMed, types.SevLow} {
		if n := res.Counts[sev]; n > 0 {
			parts = append(parts, strconv.Itoa(n)+" "+string(sev))
		}
	}
	return strings.Join(parts, ", ")
}
