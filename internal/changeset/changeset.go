// Package changeset resolves what a scan should look at: the files staged
// for commit and, within each file, which lines are new. Content comes from
// the git object store, never the working tree, so the scan sees exactly
// what the commit would contain.
package changeset

import (
	"sort"
	"strings"
)

// Status classifies a staged file relative to HEAD.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
)

// SkipReason marks entries the scan must not read but the report must mention.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipBinary    SkipReason = "binary"
	SkipTooLarge  SkipReason = "too-large"
	SkipReadError SkipReason = "read-error"
)

// LineRange is a 1-based inclusive span of lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool { return line >= r.Start && line <= r.End }

// File is one staged entry. Ranges lists the changed lines in canonical form
// (ascending, non-overlapping); a nil Ranges means every line is eligible,
// which is how newly added files and full-content scans are represented.
// Skipped entries carry no content.
type File struct {
	Path    string
	Status  Status
	Content []byte
	Ranges  []LineRange
	Skip    SkipReason
	Detail  string // populated for read-error skips
	Size    int64
}

// LineEligible reports whether the given 1-based line should be scanned.
func (f *File) LineEligible(line int) bool {
	if f.Ranges == nil {
		return true
	}
	for _, r := range f.Ranges {
		if r.Contains(line) {
			return true
		}
		if r.Start > line {
			break
		}
	}
	return false
}

// Lines splits the staged content for line-oriented scanning.
func (f *File) Lines() []string {
	if len(f.Content) == 0 {
		return nil
	}
	lines := strings.Split(string(f.Content), "\n")
	// A trailing newline yields a phantom empty last element.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ChangeSet is the resolved scan input.
type ChangeSet struct {
	Root  string
	Files []File
}

// SkippedCount returns how many entries were withheld from scanning.
func (cs *ChangeSet) SkippedCount() int {
	n := 0
	for i := range cs.Files {
		if cs.Files[i].Skip != SkipNone {
			n++
		}
	}
	return n
}

// MergeRanges canonicalizes spans: sorted ascending by start, overlapping
// and adjacent spans fused. The input is not modified.
func MergeRanges(in []LineRange) []LineRange {
	if len(in) == 0 {
		return nil
	}
	rs := make([]LineRange, len(in))
	copy(rs, in)
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		return rs[i].End < rs[j].End
	})
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
