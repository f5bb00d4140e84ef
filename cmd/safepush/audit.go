package safepush

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/audit"
	"github.com/safepush/safepush/internal/types"
)

var auditLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent scan and baseline activity",
		Long:  "Prints the append-only audit trail, newest first. Records name files and rules, never matched content.",
		RunE:  runAudit,
	}
	cmd.Flags().IntVar(&auditLimit, "limit", 20, "show at most this many records (0 = all)")
	rootCmd.AddCommand(cmd)
}

func runAudit(_ *cobra.Command, _ []string) error {
	root, err := os.Getwd()
	if err != nil {
		return types.IOErrorf("getwd: %v", err)
	}
	lg := audit.NewLog(root)
	if _, err := os.Stat(lg.Path()); os.IsNotExist(err) {
		fmt.Println("No audit records yet.")
		return nil
	}
	recs, err := lg.History()
	if err != nil {
		return err
	}
	for i, r := range recs {
		if auditLimit > 0 && i >= auditLimit {
			fmt.Printf("... %d older record(s); raise --limit to see them\n", len(recs)-i)
			break
		}
		ts := r.Timestamp.Local().Format("2006-01-02 15:04:05")
		switch r.Event {
		case audit.EventScan:
			fmt.Printf("%s  scan    %-18s  %d finding(s), %d suppressed, %d file(s) in %s\n",
				ts, r.Verdict, r.TotalFindings, r.Suppressed, r.FilesScanned, r.Duration)
			for _, f := range r.TopFindings {
				fmt.Printf("%s    - %s:%d %s (%s)\n", strings.Repeat(" ", 19), f.Path, f.Line, f.RuleID, f.Severity)
			}
		case audit.EventAccept:
			fmt.Printf("%s  accept  %d fingerprint(s): %s\n", ts, len(r.Fingerprints), r.Justification)
		default:
			fmt.Printf("%s  %s\n", ts, r.Event)
		}
	}
	return nil
}
