// internal/report/sarif.go
package report

import (
	"encoding/json"
	"io"

	"github.com/safepush/safepush/internal/types"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID   string       `json:"id"`
	Desc sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID       string            `json:"ruleId"`
	RuleIndex    int               `json:"ruleIndex"`
	Level        string            `json:"level"`
	Message      sarifMessage      `json:"message"`
	Locations    []sarifLoc        `json:"locations"`
	Fingerprints map[string]string `json:"partialFingerprints"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine"`
	StartColumn int           `json:"startColumn,omitempty"`
	Snippet     *sarifMessage `json:"snippet,omitempty"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

const sarifSchema = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/os/schemas/sarif-schema-2.1.0.json"

// WriteSARIF writes the result as SARIF 2.1.0. Rules appear once in the
// driver and results point back via ruleIndex; snippets carry the redacted
// excerpt, never the raw match.
func WriteSARIF(w io.Writer, res *types.ScanResult, version string) error {
	driver := sarifDriver{Name: "safepush", Version: version, Rules: []sarifRule{}}
	index := map[string]int{}
	run := sarifRun{Results: []sarifResult{}}

	for _, f := range res.Findings {
		i, ok := index[f.RuleID]
		if !ok {
			i = len(driver.Rules)
			index[f.RuleID] = i
			driver.Rules = append(driver.Rules, sarifRule{
				ID:   f.RuleID,
				Desc: sarifMessage{Text: f.Description},
			})
		}
		msg := f.Description
		if msg == "" {
			msg = f.RuleID + " matched"
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.RuleID,
			RuleIndex: i,
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: msg},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Path},
					Region: sarifRegion{
						StartLine:   f.Line,
						StartColumn: f.Column,
						Snippet:     &sarifMessage{Text: f.Excerpt},
					},
				},
			}},
			Fingerprints: map[string]string{"safepush/v1": f.Fingerprint},
		})
	}
	run.Tool = sarifTool{Driver: driver}
	doc := sarif{Version: "2.1.0", Schema: sarifSchema, Runs: []sarifRun{run}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
