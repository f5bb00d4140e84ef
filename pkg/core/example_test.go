package core_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/safepush/safepush/pkg/core"
)

// ExampleScan demonstrates scanning the staged changes of a repository.
func ExampleScan() {
	// 1. Configure the scan
	opts := core.Options{
		Root:      ".",            // repository to inspect
		Threshold: core.SevHigh,   // only high and critical block
		Timeout:   5 * time.Second,
	}

	// 2. Run it
	res, err := core.Scan(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return
	}

	// 3. Act on the verdict
	if res.Verdict.Blocking() {
		fmt.Printf("blocked: %d finding(s)\n", len(res.Findings))
		_ = core.MarshalResult(os.Stdout, res)
		return
	}
	fmt.Println("clean")
}

// ExampleScan_rulePacks shows how team rule packs merge over the built-ins.
func ExampleScan_rulePacks() {
	res, err := core.Scan(context.Background(), core.Options{
		Root:      ".",
		RulePacks: []string{".safepush.rules.yml"},
	})
	if err != nil {
		panic(err)
	}
	for _, f := range res.Findings {
		fmt.Printf("%s:%d %s (%s)\n", f.Path, f.Line, f.RuleID, f.Severity)
	}
}
