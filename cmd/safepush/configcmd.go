package safepush

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/safepush/safepush/internal/config"
)

var (
	cfgOutput          string
	cfgProfile         string
	cfgBaseline        string
	cfgThreads         int
	cfgMaxBytes        int64
	cfgTimeout         string
	cfgWebhook         string
	cfgNoColor         bool
	cfgDefaultExcludes bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .safepush.yml with the selected policy and options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".safepush.yml", "output file path")
	initCmd.Flags().StringVar(&cfgProfile, "profile", "balanced", "policy profile: strict | balanced | relaxed")
	initCmd.Flags().StringVar(&cfgBaseline, "baseline", "", "baseline file path (default .safepush.baseline.json)")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads (0=GOMAXPROCS)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "max-bytes", 1<<20, "skip staged files larger than this")
	initCmd.Flags().StringVar(&cfgTimeout, "timeout", "", "scan budget, e.g. 5s (empty = none)")
	initCmd.Flags().StringVar(&cfgWebhook, "webhook", "", "canary alert webhook URL")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().BoolVar(&cfgDefaultExcludes, "default-excludes", true, "enable default ignore patterns")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if _, err := config.ProfileThreshold(cfgProfile); err != nil {
		return err
	}

	fc := config.FileConfig{
		Profile:         strPtr(cfgProfile),
		Baseline:        optStrPtr(cfgBaseline),
		Threads:         intPtr(cfgThreads),
		MaxBytes:        int64Ptr(cfgMaxBytes),
		Timeout:         optStrPtr(cfgTimeout),
		AlertWebhook:    optStrPtr(cfgWebhook),
		NoColor:         boolPtr(cfgNoColor),
		DefaultExcludes: boolPtr(cfgDefaultExcludes),
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string { return &s }
func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
