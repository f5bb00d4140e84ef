package safepush

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update safepush to the latest release",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("checking releases (current %s)...\n", version)
			if err := selfUpdate(); err != nil {
				return fmt.Errorf("self-update: %w", err)
			}
			fmt.Println("safepush is up to date.")
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
