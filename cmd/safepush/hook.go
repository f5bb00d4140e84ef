package safepush

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/files"
	"github.com/safepush/safepush/internal/types"
)

const hookMarker = "# installed by safepush"

const hookScript = `#!/bin/sh
` + hookMarker + `
# Runs the project's fast checks when present, then scans the staged changes.
# Exit status 1 blocks the commit; use 'safepush review' to triage findings.
set -e

if [ -x .git/hooks/pre-commit-tests ]; then
    .git/hooks/pre-commit-tests
fi

exec safepush scan
`

var hookForce bool

func init() {
	hook := &cobra.Command{Use: "hook", Short: "Manage the git pre-commit hook"}
	rootCmd.AddCommand(hook)

	install := &cobra.Command{
		Use:   "install",
		Short: "Install the pre-commit hook",
		RunE:  runHookInstall,
	}
	install.Flags().BoolVar(&hookForce, "force", false, "replace an existing pre-commit hook")
	hook.AddCommand(install)

	hook.AddCommand(&cobra.Command{
		Use:   "uninstall",
		Short: "Remove the pre-commit hook",
		RunE:  runHookUninstall,
	})
}

func hookPath() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", types.IOErrorf("getwd: %v", err)
	}
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err != nil || !st.IsDir() {
		return "", types.ConfigErrorf("not a git repository (no .git in %s)", root)
	}
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

func runHookInstall(_ *cobra.Command, _ []string) error {
	path, err := hookPath()
	if err != nil {
		return err
	}
	if b, err := os.ReadFile(path); err == nil && !hookForce {
		if !strings.Contains(string(b), hookMarker) {
			return types.ConfigErrorf("a pre-commit hook already exists at %s; re-run with --force to replace it", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.IOErrorf("create hooks dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(hookScript), 0o755); err != nil {
		return types.IOErrorf("write hook: %v", err)
	}
	// Keep safepush's repo-local artifacts out of future commits.
	root := filepath.Dir(filepath.Dir(filepath.Dir(path)))
	if err := files.EnsureIgnored(root); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not update .gitignore:", err)
	}
	fmt.Println("Installed", path)
	return nil
}

func runHookUninstall(_ *cobra.Command, _ []string) error {
	path, err := hookPath()
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("No pre-commit hook installed.")
		return nil
	}
	if err != nil {
		return types.IOErrorf("read hook: %v", err)
	}
	if !strings.Contains(string(b), hookMarker) {
		return types.ConfigErrorf("the pre-commit hook at %s was not installed by safepush; not touching it", path)
	}
	if err := os.Remove(path); err != nil {
		return types.IOErrorf("remove hook: %v", err)
	}
	fmt.Println("Removed", path)
	return nil
}
