package safepush

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/types"
	"github.com/safepush/safepush/pkg/core"
)

var (
	flagChdir         string
	flagBaselinePath  string
	flagThreads       int
	flagNoColor       bool
	flagDebug         bool
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = core.Version
)

// rootCmd is the base Cobra command for the SafePush CLI.
var rootCmd = &cobra.Command{
	Use:           "safepush",
	Short:         "Keep secrets out of your commits",
	Long:          "SafePush scans the changes you are about to commit and blocks secrets, planted canary tokens and unsafe constructs before they reach the repository.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if flagChdir != "" {
			if err := os.Chdir(flagChdir); err != nil {
				return types.IOErrorf("chdir %s: %v", flagChdir, err)
			}
		}
		return nil
	},
}

// Execute runs the SafePush CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagChdir, "chdir", "C", "", "run as if started in this directory")
	rootCmd.PersistentFlags().StringVar(&flagBaselinePath, "baseline", "", "baseline file (default .safepush.baseline.json)")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagSelfUpdate, "self-update", false, "update safepush to the latest release")
}
