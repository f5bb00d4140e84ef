package safepush

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/audit"
	"github.com/safepush/safepush/internal/baseline"
	"github.com/safepush/safepush/internal/cache"
	"github.com/safepush/safepush/internal/logging"
	"github.com/safepush/safepush/internal/types"
)

var (
	acceptReason       string
	acceptExpires      time.Duration
	acceptFingerprints []string
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage accepted findings",
	}
	rootCmd.AddCommand(cmd)

	accept := &cobra.Command{
		Use:   "accept",
		Short: "Accept findings into the baseline",
		Long:  "Accept suppresses the named findings in future scans. Without --fingerprint, every finding from the last scan is accepted.",
		RunE:  runBaselineAccept,
	}
	accept.Flags().StringVar(&acceptReason, "reason", "", "justification recorded with each accepted finding")
	accept.Flags().DurationVar(&acceptExpires, "expires", 0, "suppression lifetime (0 = never, e.g. 720h)")
	accept.Flags().StringArrayVar(&acceptFingerprints, "fingerprint", nil, "fingerprint to accept (repeatable)")
	if err := accept.MarkFlagRequired("reason"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --reason as required:", err)
	}
	cmd.AddCommand(accept)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List baseline entries",
		RunE:  runBaselineList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop expired baseline entries",
		RunE:  runBaselinePrune,
	})
}

func runBaselineAccept(_ *cobra.Command, _ []string) error {
	logging.Init(flagDebug)
	defer logging.Sync()

	root, err := os.Getwd()
	if err != nil {
		return types.IOErrorf("getwd: %v", err)
	}
	lcfg, gcfg := loadConfigs(root)
	path := resolveBaselinePath(root, lcfg, gcfg)

	fps := acceptFingerprints
	if len(fps) == 0 {
		last, err := cache.Load(root)
		if err != nil || last.Result == nil {
			return types.ConfigErrorf("no --fingerprint given and no scan snapshot to accept from; run 'safepush scan' first")
		}
		for _, f := range last.Result.Findings {
			fps = append(fps, f.Fingerprint)
		}
		if len(fps) == 0 {
			fmt.Println("Last scan had no findings; nothing to accept.")
			return nil
		}
	}

	added, err := baseline.Accept(path, fps, acceptReason, acceptExpires, time.Now())
	if err != nil {
		return err
	}
	if err := audit.NewLog(root).Append(audit.AcceptRecord(root, fps, acceptReason)); err != nil {
		logging.Logger.Debugw("could not append audit record", "err", err)
	}
	refreshed := len(fps) - added
	if refreshed > 0 {
		fmt.Printf("Accepted %d new finding(s), refreshed %d, into %s\n", added, refreshed, path)
	} else {
		fmt.Printf("Accepted %d finding(s) into %s\n", added, path)
	}
	return nil
}

func runBaselineList(_ *cobra.Command, _ []string) error {
	root, err := os.Getwd()
	if err != nil {
		return types.IOErrorf("getwd: %v", err)
	}
	lcfg, gcfg := loadConfigs(root)
	path := resolveBaselinePath(root, lcfg, gcfg)

	bl, err := baseline.Load(path)
	if err != nil {
		return err
	}
	if bl.Len() == 0 {
		fmt.Println("Baseline is empty.")
		return nil
	}
	now := time.Now()
	for _, fp := range bl.Fingerprints() {
		e := bl.Entries[fp]
		expires := "never"
		if e.ExpiresAt != nil {
			expires = e.ExpiresAt.Local().Format("2006-01-02")
			if e.Expired(now) {
				expires += " (expired)"
			}
		}
		fmt.Printf("%s  accepted %s  expires %s\n    %s\n", fp, e.AcceptedAt.Local().Format("2006-01-02"), expires, e.Justification)
	}
	return nil
}

func runBaselinePrune(_ *cobra.Command, _ []string) error {
	root, err := os.Getwd()
	if err != nil {
		return types.IOErrorf("getwd: %v", err)
	}
	lcfg, gcfg := loadConfigs(root)
	path := resolveBaselinePath(root, lcfg, gcfg)

	removed, err := baseline.Prune(path, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d expired entr%s from %s\n", removed, plural(removed, "y", "ies"), path)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
