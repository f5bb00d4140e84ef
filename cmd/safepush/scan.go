package safepush

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/audit"
	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/cache"
	"github.com/safepush/safepush/internal/changeset"
	"github.com/safepush/safepush/internal/classify"
	"github.com/safepush/safepush/internal/config"
	"github.com/safepush/safepush/internal/engine"
	"github.com/safepush/safepush/internal/logging"
	"github.com/safepush/safepush/internal/notify"
	"github.com/safepush/safepush/internal/report"
	"github.com/safepush/safepush/internal/rules"
	"github.com/safepush/safepush/internal/types"
	"github.com/safepush/safepush/internal/update"
)

var (
	flagFull            bool
	flagThreshold       string
	flagProfile         string
	flagFormat          string
	flagTable           bool
	flagRules           []string
	flagSeverity        []string
	flagMaxBytes        int64
	flagTimeout         time.Duration
	flagNoStructured    bool
	flagDefaultExcludes bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan staged changes for secrets",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().BoolVar(&flagFull, "full", false, "scan entire staged files instead of changed lines only")
	cmd.Flags().StringVar(&flagThreshold, "threshold", "", "fail on low|medium|high|critical (default medium)")
	cmd.Flags().StringVar(&flagProfile, "profile", "", "policy profile: strict | balanced | relaxed")
	cmd.Flags().StringVar(&flagFormat, "format", "", "output format: text | json | sarif")
	cmd.Flags().BoolVar(&flagTable, "table", false, "render text output as a bordered table")
	cmd.Flags().StringArrayVar(&flagRules, "rules", nil, "additional rule pack (repeatable; later packs override by id)")
	cmd.Flags().StringArrayVar(&flagSeverity, "severity", nil, "override rule severity, rule=level (repeatable)")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip staged files larger than this (default 1 MiB)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "scan budget; an exceeded budget fails the scan (e.g. 5s)")
	cmd.Flags().BoolVar(&flagNoStructured, "no-structured", false, "disable the structured YAML/JSON value pass")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "skip vendored and generated noise (lockfiles etc.)")
}

func runScan(_ *cobra.Command, _ []string) error {
	logging.Init(flagDebug)
	defer logging.Sync()

	root, err := os.Getwd()
	if err != nil {
		return types.IOErrorf("getwd: %v", err)
	}
	lcfg, gcfg := loadConfigs(root)

	format := pickString(flagFormat, lcfg.Format, gcfg.Format)
	if format == "" {
		format = "text"
	}
	switch format {
	case "text", "json", "sarif":
	default:
		return types.ConfigErrorf("unknown format %q (want text, json or sarif)", format)
	}
	textOut := format == "text"

	// Friendly banner before scanning
	if textOut {
		if !flagNoUpdateCheck {
			if latest, newer, _ := update.Check(version, false); newer && latest != "" {
				_, _ = fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'safepush update' to upgrade\n", latest)
			}
		}
		if flagSelfUpdate {
			// invoke in-band self update
			if err := selfUpdate(); err == nil {
				_, _ = fmt.Fprintln(os.Stderr, "updated to latest; re-run command")
				return nil
			}
		}
	}

	res, err := runPipeline(root, lcfg, gcfg, textOut)
	if err != nil {
		return err
	}

	opts := report.AutoOptions()
	if pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor) {
		opts.NoColor = true
	}
	switch {
	case format == "json":
		if err := report.WriteJSON(os.Stdout, res, version); err != nil {
			return err
		}
	case format == "sarif":
		if err := report.WriteSARIF(os.Stdout, res, version); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagTable || pickBool(false, lcfg.Table, gcfg.Table):
		report.PrintTable(os.Stdout, res, opts)
	default:
		report.PrintText(os.Stdout, res, opts)
	}

	if res.Verdict.Blocking() {
		os.Exit(1)
	}
	return nil
}

// runPipeline resolves the staged change set, runs the engine and classifies
// the outcome. Shared by scan and review; showProgress gates the stderr
// progress line.
func runPipeline(root string, lcfg, gcfg config.FileConfig, showProgress bool) (*types.ScanResult, error) {
	threshold, err := resolveThreshold(lcfg, gcfg)
	if err != nil {
		return nil, err
	}
	overrides, err := severityOverrides(lcfg, gcfg)
	if err != nil {
		return nil, err
	}

	packs := pickStrings(flagRules, lcfg.RuleFiles, gcfg.RuleFiles)
	reg, err := rules.Load(version, packs...)
	if err != nil {
		return nil, err
	}

	blPath := resolveBaselinePath(root, lcfg, gcfg)
	bl, err := baseline.Load(blPath)
	if err != nil {
		return nil, err
	}

	cs, err := changeset.Resolve(changeset.Options{
		Root:            root,
		Full:            pickBool(flagFull, lcfg.Full, gcfg.Full),
		MaxBytes:        pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		IgnorePaths:     pickStrings(nil, lcfg.IgnorePaths, gcfg.IgnorePaths),
		DefaultExcludes: flagDefaultExcludes,
	})
	if err != nil {
		return nil, err
	}

	// Resolve time budget precedence: CLI > local > global
	budget := flagTimeout
	if budget == 0 {
		d, err := lcfg.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		if d == 0 {
			if d, err = gcfg.TimeoutDuration(); err != nil {
				return nil, err
			}
		}
		budget = d
	}
	ctx := context.Background()
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	ecfg := engine.Config{
		Threads:    pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		Markers:    pickStrings(nil, lcfg.Markers, gcfg.Markers),
		Structured: !pickBool(flagNoStructured, lcfg.NoStructured, gcfg.NoStructured),
	}

	scannable := len(cs.Files) - cs.SkippedCount()
	if showProgress && scannable > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "Scanning %d staged file(s) with %d rules...\n", scannable, reg.Len())
		progressed := 0
		ecfg.Progress = func() {
			progressed++
			if progressed%10 == 0 || progressed == scannable {
				pct := float64(progressed) / float64(scannable) * 100
				_, _ = fmt.Fprintf(os.Stderr, "\r[%d/%d] %.0f%%", progressed, scannable, pct)
			}
		}
	}

	raw, err := engine.Scan(ctx, ecfg, cs, reg)
	if err != nil {
		return nil, err
	}
	if showProgress && scannable > 0 {
		_, _ = fmt.Fprintln(os.Stderr)
	}

	res := classify.Run(raw, classify.Options{
		Threshold:   threshold,
		Overrides:   overrides,
		Baseline:    bl,
		RulesLoaded: reg.Len(),
	})
	logging.Logger.Debugw("scan classified", "verdict", res.Verdict, "findings", classify.Describe(res))

	if err := cache.Save(root, res); err != nil {
		logging.Logger.Debugw("could not save scan snapshot", "err", err)
	}
	if err := audit.NewLog(root).Append(audit.ScanRecord(root, res, blPath)); err != nil {
		logging.Logger.Debugw("could not append audit record", "err", err)
	}
	alertCanaries(lcfg, gcfg, res)

	return res, nil
}

// alertCanaries fires the webhook for surviving canary findings. Failures
// are logged and never change the scan outcome.
func alertCanaries(lcfg, gcfg config.FileConfig, res *types.ScanResult) {
	canaries := notify.CanaryFindings(res.Findings)
	if len(canaries) == 0 {
		return
	}
	url := notify.WebhookURL(pickString("", lcfg.AlertWebhook, gcfg.AlertWebhook))
	if url == "" {
		return
	}
	if err := notify.CanaryAlert(url, version, canaries); err != nil {
		logging.Logger.Debugw("canary alert failed", "err", err)
		return
	}
	logging.Logger.Debugw("canary alert sent", "findings", len(canaries))
}

func resolveThreshold(lcfg, gcfg config.FileConfig) (types.Severity, error) {
	if flagThreshold != "" {
		return types.ParseSeverity(flagThreshold)
	}
	if flagProfile != "" {
		return config.ProfileThreshold(flagProfile)
	}
	if s := pickString("", lcfg.Threshold, gcfg.Threshold); s != "" {
		return types.ParseSeverity(s)
	}
	if p := pickString("", lcfg.Profile, gcfg.Profile); p != "" {
		return config.ProfileThreshold(p)
	}
	return types.SevMed, nil
}

func severityOverrides(lcfg, gcfg config.FileConfig) (map[string]types.Severity, error) {
	out, err := lcfg.Overrides()
	if err != nil {
		return nil, err
	}
	if out == nil {
		if out, err = gcfg.Overrides(); err != nil {
			return nil, err
		}
	}
	for _, kv := range flagSeverity {
		rule, level, ok := strings.Cut(kv, "=")
		rule = strings.TrimSpace(rule)
		if !ok || rule == "" {
			return nil, types.ConfigErrorf("--severity wants rule=level, got %q", kv)
		}
		sev, err := types.ParseSeverity(strings.TrimSpace(level))
		if err != nil {
			return nil, types.ConfigErrorf("--severity %s: %v", rule, err)
		}
		if out == nil {
			out = map[string]types.Severity{}
		}
		out[rule] = sev
	}
	return out, nil
}
