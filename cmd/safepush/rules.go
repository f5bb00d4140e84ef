package safepush

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/safepush/safepush/internal/changeset"
	"github.com/safepush/safepush/internal/classify"
	"github.com/safepush/safepush/internal/engine"
	"github.com/safepush/safepush/internal/report"
	"github.com/safepush/safepush/internal/rules"
	"github.com/safepush/safepush/internal/types"
)

var (
	rulesPacks  []string
	rulesOutput string
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the effective rules",
		Long:  "Lists built-in rules merged with the configured packs, after override-by-id.",
		RunE:  runRulesList,
	}
	cmd.PersistentFlags().StringArrayVar(&rulesPacks, "rules", nil, "additional rule pack (repeatable)")
	rootCmd.AddCommand(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate rule packs without scanning",
		RunE:  runRulesCheck,
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter rule pack",
		RunE:  runRulesInit,
	}
	initCmd.Flags().StringVar(&rulesOutput, "output", ".safepush.rules.yml", "output file path")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "test <id>",
		Short: "Run one rule against text on stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  runRulesTest,
	})
}

func effectiveRegistry() (*rules.Registry, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, types.IOErrorf("getwd: %v", err)
	}
	lcfg, gcfg := loadConfigs(root)
	packs := pickStrings(rulesPacks, lcfg.RuleFiles, gcfg.RuleFiles)
	return rules.Load(version, packs...)
}

func runRulesList(_ *cobra.Command, _ []string) error {
	reg, err := effectiveRegistry()
	if err != nil {
		return err
	}
	for _, r := range reg.Rules() {
		fmt.Printf("%-26s %-18s %-9s %s\n", r.ID, r.Category, r.Severity, r.Description)
	}
	return nil
}

func runRulesCheck(_ *cobra.Command, _ []string) error {
	reg, err := effectiveRegistry()
	if err != nil {
		return err
	}
	fmt.Printf("OK: %d effective rule(s)\n", reg.Len())
	return nil
}

// starterPack mirrors the on-disk rule pack shape.
type starterPack struct {
	MinEngine string       `yaml:"min_engine"`
	Rules     []rules.Rule `yaml:"rules"`
}

func runRulesInit(_ *cobra.Command, _ []string) error {
	pack := starterPack{
		MinEngine: version,
		Rules: []rules.Rule{
			{
				ID:          "acme-internal-token",
				Category:    rules.CatCustomRegex,
				Severity:    types.SevHigh,
				Description: "ACME internal service token",
				Pattern:     `\bacme_[a-z]+_[A-Za-z0-9]{24}\b`,
			},
			{
				ID:          "config-entropy",
				Category:    rules.CatEntropyThreshold,
				Severity:    types.SevMed,
				Description: "High-entropy values near credential words in config files",
				Context:     `(?i)(key|secret|token)`,
				Threshold:   4.2,
				Window:      24,
				MinLength:   20,
				AppliesTo:   []string{"**/*.yml", "**/*.yaml", "**/*.json", "**/*.env"},
			},
		},
	}
	b, err := yaml.Marshal(&pack)
	if err != nil {
		return err
	}
	out := append([]byte("# safepush rule pack\n# Rules replace built-ins with the same id; run 'safepush rules' to see the effective set.\n"), b...)
	if err := os.WriteFile(rulesOutput, out, 0644); err != nil {
		return err
	}
	fmt.Println("Wrote", rulesOutput)
	return nil
}

func runRulesTest(_ *cobra.Command, args []string) error {
	id := args[0]
	reg, err := effectiveRegistry()
	if err != nil {
		return err
	}
	if _, ok := reg.Get(id); !ok {
		fmt.Fprintf(os.Stderr, "unknown rule id: %s\n", id)
		fmt.Fprintf(os.Stderr, "available: %s\n", strings.Join(ruleIDs(reg), ", "))
		os.Exit(2)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	cs := &changeset.ChangeSet{Root: ".", Files: []changeset.File{{
		Path:    "stdin",
		Status:  changeset.StatusAdded,
		Content: data,
		Size:    int64(len(data)),
	}}}
	raw, err := engine.Scan(context.Background(), engine.Config{Structured: true}, cs, reg)
	if err != nil {
		return err
	}
	var kept []types.Finding
	for _, f := range raw.Findings {
		if f.RuleID == id {
			kept = append(kept, f)
		}
	}
	raw.Findings = kept

	res := classify.Run(raw, classify.Options{RulesLoaded: reg.Len()})
	opts := report.AutoOptions()
	if flagNoColor {
		opts.NoColor = true
	}
	report.PrintTable(os.Stdout, res, opts)
	return nil
}

func ruleIDs(reg *rules.Registry) []string {
	ids := make([]string, 0, reg.Len())
	for _, r := range reg.Rules() {
		ids = append(ids, r.ID)
	}
	return ids
}
