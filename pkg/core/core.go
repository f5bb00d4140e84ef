package core

import (
	"context"
	"path/filepath"
	"time"

	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/changeset"
	"github.com/safepush/safepush/internal/classify"
	"github.com/safepush/safepush/internal/engine"
	"github.com/safepush/safepush/internal/rules"
	"github.com/safepush/safepush/internal/types"
)

// Version is the engine version rule packs check their min_engine gate
// against. The CLI reports the same value.
const Version = "0.1.0"

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type (
	Finding    = types.Finding
	Note       = types.Note
	ScanResult = types.ScanResult
	Severity   = types.Severity
	Verdict    = types.Verdict
)

// Severity levels and verdicts, re-exported for callers switching on them.
const (
	SevLow      = types.SevLow
	SevMed      = types.SevMed
	SevHigh     = types.SevHigh
	SevCritical = types.SevCritical

	VerdictPass     = types.VerdictPass
	VerdictFail     = types.VerdictFail
	VerdictWarnings = types.VerdictWarnings
)

// Options configures a programmatic scan of a repository's staged changes.
// The zero value scans the current directory with built-in rules, the
// default baseline location and a medium threshold.
type Options struct {
	Root      string        // repository root (default ".")
	Full      bool          // scan whole staged files instead of changed lines
	Threshold Severity      // findings at or above fail the scan (default medium)
	Baseline  string        // baseline path, relative to Root unless absolute
	RulePacks []string      // extra rule packs merged over the built-ins, in order
	Threads   int           // worker count (0 = GOMAXPROCS)
	MaxBytes  int64         // per-file size ceiling (0 = 1 MiB)
	Timeout   time.Duration // overall budget; exceeding it fails the scan
}

// Scan is the stable entrypoint for other programs: it resolves the staged
// change set under opts.Root, evaluates the effective rules against the
// changed lines, and returns the classified result.
func Scan(ctx context.Context, opts Options) (*ScanResult, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}

	reg, err := rules.Load(Version, opts.RulePacks...)
	if err != nil {
		return nil, err
	}

	blPath := opts.Baseline
	if blPath == "" {
		blPath = baseline.DefaultPath
	}
	if !filepath.IsAbs(blPath) {
		blPath = filepath.Join(root, blPath)
	}
	bl, err := baseline.Load(blPath)
	if err != nil {
		return nil, err
	}

	cs, err := changeset.Resolve(changeset.Options{
		Root:            root,
		Full:            opts.Full,
		MaxBytes:        opts.MaxBytes,
		DefaultExcludes: true,
	})
	if err != nil {
		return nil, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	raw, err := engine.Scan(ctx, engine.Config{Threads: opts.Threads, Structured: true}, cs, reg)
	if err != nil {
		return nil, err
	}
	return classify.Run(raw, classify.Options{
		Threshold:   opts.Threshold,
		Baseline:    bl,
		RulesLoaded: reg.Len(),
	}), nil
}

// RuleIDs returns the built-in rule identifiers.
// This is exposed for convenience to avoid importing internals directly.
func RuleIDs() []string { return rules.BuiltinIDs() }
