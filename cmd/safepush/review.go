package safepush

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/cache"
	"github.com/safepush/safepush/internal/logging"
	"github.com/safepush/safepush/internal/tui"
	"github.com/safepush/safepush/internal/types"
)

var reviewRescan bool

func init() {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Triage findings interactively",
		Long: "Opens the last scan (or a fresh one with --rescan) in a terminal UI: browse\n" +
			"findings with syntax-highlighted context, accept them into the baseline with a\n" +
			"justification, or jump straight into your editor.",
		RunE: runReview,
	}
	cmd.Flags().BoolVar(&reviewRescan, "rescan", false, "run a fresh scan instead of loading the last snapshot")
	rootCmd.AddCommand(cmd)
}

func runReview(_ *cobra.Command, _ []string) error {
	logging.Init(flagDebug)
	defer logging.Sync()

	root, err := os.Getwd()
	if err != nil {
		return types.IOErrorf("getwd: %v", err)
	}
	lcfg, gcfg := loadConfigs(root)
	blPath := resolveBaselinePath(root, lcfg, gcfg)

	rescan := func() (*types.ScanResult, error) {
		return runPipeline(root, lcfg, gcfg, false)
	}

	if !reviewRescan {
		if last, err := cache.Load(root); err == nil && last.Result != nil {
			bl, err := baseline.Load(blPath)
			if err != nil {
				return err
			}
			return tui.RunCached(last.Result, root, blPath, bl, rescan, last.Timestamp)
		}
	}

	res, err := rescan()
	if err != nil {
		return err
	}
	bl, err := baseline.Load(blPath)
	if err != nil {
		return err
	}
	return tui.Run(res, root, blPath, bl, rescan)
}
