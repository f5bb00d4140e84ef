package engine

import (
	"math"
	"regexp"

	"github.com/safepush/safepush/internal/changeset"
	"github.com/safepush/safepush/internal/rules"
	"github.com/safepush/safepush/internal/types"
)

// reToken extracts credential-shaped runs. The minimum run here is a floor;
// each rule applies its own min_length on top.
var reToken = regexp.MustCompile(`[A-Za-z0-9+/=_.\-]{8,}`)

// maxTokenLen caps entropy work per token; anything longer is blob-like and
// already covered by the binary/size skips.
const maxTokenLen = 200

func entropyFindings(r *rules.Rule, f *changeset.File, lines []string, suppressed []bool) []types.Finding {
	ctxRe := r.ContextRegexp()
	minLen := r.EffectiveMinLength()
	window := r.EffectiveWindow()
	var out []types.Finding
	for i, line := range lines {
		lineNo := i + 1
		if !f.LineEligible(lineNo) || suppressed[i] {
			continue
		}
		if ctxRe != nil && !ctxRe.MatchString(line) {
			continue
		}
		for _, loc := range reToken.FindAllStringIndex(line, -1) {
			token := line[loc[0]:loc[1]]
			if len(token) < minLen || len(token) > maxTokenLen {
				continue
			}
			for _, span := range flaggedSpans(token, window, r.Threshold) {
				match := token[span.Start:span.End]
				out = append(out, newFinding(r, f.Path, lineNo, loc[0]+span.Start+1, match))
			}
		}
	}
	return out
}

// span is a half-open [Start, End) byte interval inside a token.
type span struct{ Start, End int }

// flaggedSpans slides a fixed-width window across the token and returns the
// merged intervals whose Shannon entropy reaches the threshold. Tokens
// shorter than the window are measured whole. Overlapping and adjacent hot
// windows fuse into a single span, so one secret yields one finding.
func flaggedSpans(token string, window int, threshold float64) []span {
	if len(token) <= window {
		if shannonEntropy(token) >= threshold {
			return []span{{Start: 0, End: len(token)}}
		}
		return nil
	}
	var out []span
	for i := 0; i+window <= len(token); i++ {
		if shannonEntropy(token[i:i+window]) < threshold {
			continue
		}
		if n := len(out); n > 0 && i <= out[n-1].End {
			if i+window > out[n-1].End {
				out[n-1].End = i + window
			}
			continue
		}
		out = append(out, span{Start: i, End: i + window})
	}
	return out
}

// shannonEntropy returns bits per byte of s.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	n := float64(len(s))
	var h float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}
