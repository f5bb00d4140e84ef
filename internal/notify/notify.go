// Package notify sends best-effort webhook alerts when a planted canary
// token shows up in a commit. Alerting failures never affect the verdict;
// a flaky webhook must not be the thing that blocks or unblocks a commit.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/safepush/safepush/internal/rules"
	"github.com/safepush/safepush/internal/types"
)

const alertTimeout = 3 * time.Second

// Event is the webhook payload. Repository metadata comes from the CI
// environment when present and is omitted otherwise.
type Event struct {
	Type     string         `json:"type"`
	Tool     string         `json:"tool"`
	Version  string         `json:"version"`
	Repo     string         `json:"repo,omitempty"`
	Commit   string         `json:"commit,omitempty"`
	Branch   string         `json:"branch,omitempty"`
	Actor    string         `json:"actor,omitempty"`
	Findings []EventFinding `json:"findings"`
}

// EventFinding carries the redacted view of one canary hit.
type EventFinding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Snippet  string `json:"snippet"`
}

// WebhookURL resolves the alert destination. An explicitly configured URL
// wins; otherwise SAFEPUSH_WEBHOOK applies. Empty means alerting is off.
func WebhookURL(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("SAFEPUSH_WEBHOOK")
}

// CanaryFindings filters the findings that came from the canary rule,
// including ones where it contributed to a merge.
func CanaryFindings(fs []types.Finding) []types.Finding {
	var out []types.Finding
	for _, f := range fs {
		if isCanary(f) {
			out = append(out, f)
		}
	}
	return out
}

func isCanary(f types.Finding) bool {
	if f.RuleID == rules.CanaryID {
		return true
	}
	for _, id := range f.RuleIDs {
		if id == rules.CanaryID {
			return true
		}
	}
	return false
}

// CanaryAlert POSTs a canary event to url. The returned error is for debug
// logging only; callers must not propagate it into the scan outcome.
func CanaryAlert(url, version string, findings []types.Finding) error {
	if url == "" || len(findings) == 0 {
		return nil
	}
	ev := Event{
		Type:     "safepush_canary_alert",
		Tool:     "safepush",
		Version:  version,
		Repo:     os.Getenv("GITHUB_REPOSITORY"),
		Commit:   os.Getenv("GITHUB_SHA"),
		Branch:   os.Getenv("GITHUB_REF"),
		Actor:    os.Getenv("GITHUB_ACTOR"),
		Findings: make([]EventFinding, 0, len(findings)),
	}
	for _, f := range findings {
		ev.Findings = append(ev.Findings, EventFinding{
			File:     f.Path,
			Line:     f.Line,
			RuleID:   f.RuleID,
			Severity: string(f.Severity),
			Snippet:  f.Excerpt,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: alertTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
