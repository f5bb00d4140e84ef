package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/safepush/safepush/internal/changeset"
	"github.com/safepush/safepush/internal/rules"
	"github.com/safepush/safepush/internal/types"
	"github.com/safepush/safepush/internal/validate"
)

// Config controls scan behavior.
type Config struct {
	Threads    int      // worker count, 0 = GOMAXPROCS
	Markers    []string // inline suppression markers; a line containing one yields no findings
	Structured bool     // extra pass over YAML/JSON values with decoder line info
	Progress   func()   // optional per-file callback
}

// DefaultMarkers are the inline suppression markers recognized out of the box.
var DefaultMarkers = []string{"safepush:ignore"}

// Result is the raw engine output, before classification.
type Result struct {
	Findings     []types.Finding
	Notes        []types.Note
	FilesScanned int
	FilesSkipped int
	LinesScanned int
	Duration     time.Duration
}

// fileOutput is the message workers send to the collector; results never go
// through shared state.
type fileOutput struct {
	findings []types.Finding
	notes    []types.Note
	lines    int
}

// Scan evaluates every applicable rule against every scannable entry in the
// change set. Skipped entries become notes. A cancelled or expired context
// aborts the whole scan with a ConfigError so a timeout can never pass.
func Scan(ctx context.Context, cfg Config, cs *changeset.ChangeSet, reg *rules.Registry) (*Result, error) {
	start := time.Now()
	res := &Result{}

	markers := cfg.Markers
	if markers == nil {
		markers = DefaultMarkers
	}

	var scannable []*changeset.File
	for i := range cs.Files {
		f := &cs.Files[i]
		if f.Skip != changeset.SkipNone {
			res.FilesSkipped++
			res.Notes = append(res.Notes, skipNote(f))
			continue
		}
		scannable = append(scannable, f)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > len(scannable) {
		threads = len(scannable)
	}
	if threads < 1 {
		threads = 1
	}

	jobs := make(chan *changeset.File)
	outputs := make(chan fileOutput, threads)

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				outputs <- scanFile(cfg, markers, f, reg)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range scannable {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outputs)
	}()

	// Single collector; determinism comes from the sort below, not from
	// arrival order.
	for out := range outputs {
		res.Findings = append(res.Findings, out.findings...)
		res.Notes = append(res.Notes, out.notes...)
		res.LinesScanned += out.lines
		res.FilesScanned++
		if cfg.Progress != nil {
			cfg.Progress()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, types.ConfigErrorf("scan aborted after %s: %v", time.Since(start).Round(time.Millisecond), err)
	}

	sortFindings(res.Findings)
	sortNotes(res.Notes)
	res.Duration = time.Since(start)
	return res, nil
}

func skipNote(f *changeset.File) types.Note {
	n := types.Note{Path: f.Path, Detail: f.Detail}
	switch f.Skip {
	case changeset.SkipBinary:
		n.Kind = types.NoteSkippedBinary
		n.Detail = fmt.Sprintf("binary content (%d bytes)", f.Size)
	case changeset.SkipTooLarge:
		n.Kind = types.NoteSkippedTooLarge
		n.Detail = fmt.Sprintf("%d bytes over the size ceiling", f.Size)
	default:
		n.Kind = types.NoteReadError
	}
	return n
}

func scanFile(cfg Config, markers []string, f *changeset.File, reg *rules.Registry) fileOutput {
	lines := f.Lines()
	out := fileOutput{}

	suppressed := make([]bool, len(lines))
	for i, line := range lines {
		for _, m := range markers {
			if strings.Contains(line, m) {
				suppressed[i] = true
				break
			}
		}
	}
	for i := range lines {
		if f.LineEligible(i+1) && !suppressed[i] {
			out.lines++
		}
	}

	for _, r := range reg.ForPath(f.Path) {
		fs, err := evalRule(&r, f, lines, suppressed)
		if err != nil {
			out.notes = append(out.notes, types.Note{
				Kind:   types.NoteRuleError,
				Path:   f.Path,
				RuleID: r.ID,
				Detail: err.Error(),
			})
			continue
		}
		out.findings = append(out.findings, fs...)
	}

	if cfg.Structured && isStructuredPath(f.Path) {
		out.findings = append(out.findings, structuredFindings(f, reg)...)
	}
	return out
}

// evalRule runs one rule over one file. A panic inside rule evaluation is
// recovered here and degraded to a rule-error note, so a single bad rule
// cannot take down the scan.
func evalRule(r *rules.Rule, f *changeset.File, lines []string, suppressed []bool) (fs []types.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fs = nil
			err = fmt.Errorf("rule evaluation panicked: %v", rec)
		}
	}()
	if r.IsEntropy() {
		return entropyFindings(r, f, lines, suppressed), nil
	}
	return patternFindings(r, f, lines, suppressed), nil
}

func patternFindings(r *rules.Rule, f *changeset.File, lines []string, suppressed []bool) []types.Finding {
	re := r.Regexp()
	var out []types.Finding
	for i, line := range lines {
		lineNo := i + 1
		if !f.LineEligible(lineNo) || suppressed[i] {
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
			match := line[m[0]:m[1]]
			candidate := match
			if len(m) >= 4 && m[2] >= 0 {
				candidate = line[m[2]:m[3]]
			}
			if !validate.Check(r.Validator, candidate) {
				continue
			}
			out = append(out, newFinding(r, f.Path, lineNo, m[0]+1, match))
		}
	}
	return out
}

func newFinding(r *rules.Rule, path string, line, col int, match string) types.Finding {
	excerpt := types.Truncate(match, 64)
	if r.Secretive() {
		excerpt = types.Redact(match)
	}
	return types.Finding{
		RuleID:      r.ID,
		Path:        path,
		Line:        line,
		Column:      col,
		Match:       match,
		Excerpt:     excerpt,
		Severity:    r.Severity,
		Description: r.Description,
		Fingerprint: types.FingerprintOf(r.ID, path, match),
	}
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

func sortNotes(ns []types.Note) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Path != ns[j].Path {
			return ns[i].Path < ns[j].Path
		}
		return ns[i].RuleID < ns[j].RuleID
	})
}
