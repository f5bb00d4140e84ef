package changeset

import "testing"

func TestMergeRanges(t *testing.T) {
	got := MergeRanges([]LineRange{{Start: 10, End: 12}, {Start: 3, End: 4}, {Start: 5, End: 6}, {Start: 11, End: 15}})
	want := []LineRange{{Start: 3, End: 6}, {Start: 10, End: 15}}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if MergeRanges(nil) != nil {
		t.Fatalf("empty input should stay nil")
	}
}

func TestMergeRangesKeepsDisjoint(t *testing.T) {
	got := MergeRanges([]LineRange{{Start: 1, End: 1}, {Start: 5, End: 5}})
	if len(got) != 2 || got[0] != (LineRange{Start: 1, End: 1}) || got[1] != (LineRange{Start: 5, End: 5}) {
		t.Fatalf("disjoint ranges must not merge: %v", got)
	}
}

func TestLineEligible(t *testing.T) {
	f := File{Ranges: []LineRange{{Start: 2, End: 3}, {Start: 7, End: 7}}}
	for line, want := range map[int]bool{1: false, 2: true, 3: true, 4: false, 7: true, 8: false} {
		if got := f.LineEligible(line); got != want {
			t.Fatalf("line %d: got %v want %v", line, got, want)
		}
	}
	all := File{}
	if !all.LineEligible(999) {
		t.Fatalf("nil ranges means every line is eligible")
	}
}

func TestLines(t *testing.T) {
	f := File{Content: []byte("a\nb\nc\n")}
	if got := f.Lines(); len(got) != 3 || got[2] != "c" {
		t.Fatalf("unexpected lines: %q", got)
	}
	noTrail := File{Content: []byte("a\nb")}
	if got := noTrail.Lines(); len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected lines: %q", got)
	}
	if (&File{}).Lines() != nil {
		t.Fatalf("empty content has no lines")
	}
}

func TestLooksBinary(t *testing.T) {
	if !looksBinary([]byte{'a', 0x00, 'b'}) {
		t.Fatalf("NUL byte should mark binary")
	}
	if looksBinary([]byte("plain text, no nulls")) {
		t.Fatalf("text misdetected as binary")
	}
}

func TestLooksNonTextMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest")
	if !looksNonTextMIME("shot.png", png) {
		t.Fatalf("png magic should be non-text")
	}
	if !looksNonTextMIME("archive.bin", []byte("PK\x03\x04")) {
		t.Fatalf("zip magic should be non-text")
	}
	if !looksNonTextMIME("logo.jpg", []byte("whatever")) {
		t.Fatalf("jpg extension should be non-text")
	}
	if looksNonTextMIME("notes.txt", []byte("hello")) {
		t.Fatalf("txt misdetected")
	}
}

func TestIsDefaultExcluded(t *testing.T) {
	for _, p := range []string{"vendor/pkg/a.go", "web/node_modules/x/y.js", "yarn.lock", "app/package-lock.json", "assets/app.min.js"} {
		if !isDefaultExcluded(p) {
			t.Fatalf("%s should be excluded by default", p)
		}
	}
	for _, p := range []string{"cmd/main.go", "config/prod.yml", "vendored_names.txt"} {
		if isDefaultExcluded(p) {
			t.Fatalf("%s should not be excluded", p)
		}
	}
}

func TestAddedLineRanges(t *testing.T) {
	before := "a\nb\nc\n"
	after := "a\nX\nc\nY\n"
	got := addedLineRanges(before, after)
	want := []LineRange{{Start: 2, End: 2}, {Start: 4, End: 4}}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestAddedLineRangesWholeFile(t *testing.T) {
	got := addedLineRanges("", "one\ntwo\nthree")
	if len(got) != 1 || got[0] != (LineRange{Start: 1, End: 3}) {
		t.Fatalf("new content should cover all lines: %v", got)
	}
	if addedLineRanges("same\n", "same\n") != nil {
		t.Fatalf("identical content has no added lines")
	}
}

func TestAddedLineRangesPureDeletion(t *testing.T) {
	if got := addedLineRanges("a\nb\nc\n", "a\nc\n"); got != nil {
		t.Fatalf("pure deletion should add nothing, got %v", got)
	}
}
