package files

import (
	"os"
	"path/filepath"
	"strings"
)

// AppendIgnore ensures pattern is present in .gitignore at repoRoot,
// creating the file if missing. Idempotent.
func AppendIgnore(repoRoot, pattern string) error {
	path := filepath.Join(repoRoot, ".gitignore")
	if b, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(b), "\n") {
			if strings.TrimSpace(line) == pattern {
				return nil
			}
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(pattern + "\n")
	return err
}

// LocalArtifacts lists the files safepush may drop at the repo root when
// .git is not writable. The baseline itself is deliberately absent: it is
// shared team state and belongs in the repository.
func LocalArtifacts() []string {
	return []string{
		".safepush_last_scan.json",
		".safepush_audit.jsonl",
		".safepush.baseline.json.lock",
	}
}

// EnsureIgnored appends every local artifact pattern to .gitignore.
func EnsureIgnored(repoRoot string) error {
	for _, p := range LocalArtifacts() {
		if err := AppendIgnore(repoRoot, p); err != nil {
			return err
		}
	}
	return nil
}
