package engine

import (
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/safepush/safepush/internal/changeset"
	"github.com/safepush/safepush/internal/rules"
	"github.com/safepush/safepush/internal/types"
)

// field is a flattened scalar from a structured file, with the decoder's
// 1-based position of the value.
type field struct {
	Key    string
	Value  string
	Line   int
	Column int
}

func isStructuredPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return false
}

// structuredFindings runs the context-gated entropy rules against values of
// sensitive-named keys. The decoder supplies exact positions, which catches
// secrets the line tokenizer misses (quoted values with spaces, block
// scalars). Duplicates against the line pass share a fingerprint and are
// dropped by the classifier.
func structuredFindings(f *changeset.File, reg *rules.Registry) []types.Finding {
	fields := structuredFields(f.Content)
	if len(fields) == 0 {
		return nil
	}
	var out []types.Finding
	for _, r := range reg.ForPath(f.Path) {
		if !r.IsEntropy() || r.ContextRegexp() == nil {
			continue
		}
		for _, fd := range fields {
			if !f.LineEligible(fd.Line) {
				continue
			}
			if !r.ContextRegexp().MatchString(fd.Key) {
				continue
			}
			v := strings.TrimSpace(fd.Value)
			if len(v) < r.EffectiveMinLength() || len(v) > maxTokenLen {
				continue
			}
			for _, span := range flaggedSpans(v, r.EffectiveWindow(), r.Threshold) {
				out = append(out, newFinding(&r, f.Path, fd.Line, fd.Column, v[span.Start:span.End]))
			}
		}
	}
	return out
}

// structuredFields flattens scalars with dotted-path keys. yaml.v3 parses
// JSON as well, so both formats go through the same walk.
func structuredFields(b []byte) []field {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil
	}
	var out []field
	var walk func(n *yaml.Node, path []string)
	walk = func(n *yaml.Node, path []string) {
		switch n.Kind {
		case yaml.DocumentNode, yaml.SequenceNode:
			for _, c := range n.Content {
				walk(c, path)
			}
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				k := n.Content[i]
				v := n.Content[i+1]
				walk(v, append(path, k.Value))
			}
		case yaml.ScalarNode:
			if len(path) > 0 && n.Value != "" {
				out = append(out, field{
					Key:    strings.Join(path, "."),
					Value:  n.Value,
					Line:   n.Line,
					Column: n.Column,
				})
			}
		}
	}
	walk(&root, nil)
	return out
}
