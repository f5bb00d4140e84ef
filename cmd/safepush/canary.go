package safepush

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/types"
)

var (
	canaryCount int
	canaryWrite string
)

func init() {
	cmd := &cobra.Command{
		Use:   "canary",
		Short: "Generate canary tokens",
		Long: "Generates tokens that look like credentials but are not. Plant them in files\n" +
			"that must never be committed; the built-in canary rule treats any of them in a\n" +
			"staged change as a critical finding and triggers the webhook alert.",
		RunE: runCanary,
	}
	cmd.Flags().IntVar(&canaryCount, "count", 1, "number of tokens to generate")
	cmd.Flags().StringVar(&canaryWrite, "write", "", "append tokens to this file instead of printing them")
	rootCmd.AddCommand(cmd)
}

func runCanary(_ *cobra.Command, _ []string) error {
	if canaryCount < 1 {
		return types.ConfigErrorf("--count must be at least 1")
	}
	tokens := make([]string, canaryCount)
	for i := range tokens {
		tok, err := canaryToken()
		if err != nil {
			return err
		}
		tokens[i] = tok
	}

	if canaryWrite == "" {
		for _, tok := range tokens {
			fmt.Println(tok)
		}
		return nil
	}
	f, err := os.OpenFile(canaryWrite, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return types.IOErrorf("write canaries %s: %v", canaryWrite, err)
	}
	defer f.Close()
	for _, tok := range tokens {
		if _, err := fmt.Fprintln(f, tok); err != nil {
			return types.IOErrorf("write canaries %s: %v", canaryWrite, err)
		}
	}
	fmt.Printf("Appended %d canary token(s) to %s\n", canaryCount, canaryWrite)
	return nil
}

const canaryAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func canaryToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("canary entropy: %w", err)
	}
	for i := range b {
		b[i] = canaryAlphabet[int(b[i])%len(canaryAlphabet)]
	}
	return "SAFEPUSH_CANARY_" + string(b), nil
}
