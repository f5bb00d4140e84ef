package changeset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	gitdiff "github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/safepush/safepush/internal/types"
)

// Options control change-set resolution.
type Options struct {
	Root            string
	Full            bool  // scan entire staged files instead of changed lines
	MaxBytes        int64 // size ceiling; 0 means the 1 MiB default
	IgnorePaths     []string
	DefaultExcludes bool // filter vendored/generated noise (lockfiles etc.)
}

const defaultMaxBytes = 1 << 20

// Resolve reads the index and HEAD of the repository at opts.Root and
// returns the staged entries with their changed-line ranges. Content comes
// from staged blobs, so unstaged edits in the working tree are invisible.
func Resolve(opts Options) (*ChangeSet, error) {
	root, err := validateRoot(opts.Root)
	if err != nil {
		return nil, types.IOErrorf("%v", err)
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, types.IOErrorf("open repository at %s: %v", root, err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, types.IOErrorf("read index: %v", err)
	}
	headTree, err := resolveHeadTree(repo)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{Root: root}
	for _, e := range idx.Entries {
		if e.IntentToAdd {
			continue // `git add -N`: no staged content yet
		}
		if e.Mode != filemode.Regular && e.Mode != filemode.Executable {
			continue
		}
		rel := filepath.ToSlash(e.Name)
		if ignored(rel, opts.IgnorePaths) {
			continue
		}
		if opts.DefaultExcludes && isDefaultExcluded(rel) {
			continue
		}

		status := StatusAdded
		var headContent string
		if headTree != nil {
			hf, ferr := headTree.File(rel)
			switch {
			case ferr == nil:
				if hf.Hash == e.Hash {
					continue // staged copy identical to HEAD
				}
				status = StatusModified
				headContent, ferr = hf.Contents()
				if ferr != nil {
					cs.Files = append(cs.Files, File{Path: rel, Status: status, Skip: SkipReadError, Detail: ferr.Error()})
					continue
				}
			case errors.Is(ferr, object.ErrFileNotFound):
				// stays StatusAdded
			default:
				cs.Files = append(cs.Files, File{Path: rel, Status: status, Skip: SkipReadError, Detail: ferr.Error()})
				continue
			}
		}

		blob, berr := repo.BlobObject(e.Hash)
		if berr != nil {
			cs.Files = append(cs.Files, File{Path: rel, Status: status, Skip: SkipReadError, Detail: berr.Error()})
			continue
		}
		if blob.Size > maxBytes {
			cs.Files = append(cs.Files, File{Path: rel, Status: status, Skip: SkipTooLarge, Size: blob.Size})
			continue
		}
		content, berr := readBlob(blob)
		if berr != nil {
			cs.Files = append(cs.Files, File{Path: rel, Status: status, Skip: SkipReadError, Detail: berr.Error()})
			continue
		}
		if looksBinary(content) || looksNonTextMIME(rel, content) {
			cs.Files = append(cs.Files, File{Path: rel, Status: status, Skip: SkipBinary, Size: blob.Size})
			continue
		}

		f := File{Path: rel, Status: status, Content: content, Size: blob.Size}
		if !opts.Full && status == StatusModified {
			f.Ranges = addedLineRanges(headContent, string(content))
			if len(f.Ranges) == 0 {
				continue // nothing new to scan (pure deletions)
			}
		}
		cs.Files = append(cs.Files, f)
	}

	sort.Slice(cs.Files, func(i, j int) bool { return cs.Files[i].Path < cs.Files[j].Path })
	return cs, nil
}

// resolveHeadTree returns HEAD's tree, or nil on an unborn branch (first
// commit): every staged entry is then an add.
func resolveHeadTree(repo *git.Repository) (*object.Tree, error) {
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, types.IOErrorf("resolve HEAD: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, types.IOErrorf("read HEAD commit: %v", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, types.IOErrorf("read HEAD tree: %v", err)
	}
	return tree, nil
}

func readBlob(blob *object.Blob) ([]byte, error) {
	r, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// addedLineRanges diff-walks old vs new content and collects the 1-based
// line spans present only on the new side.
func addedLineRanges(before, after string) []LineRange {
	if before == after {
		return nil
	}
	diffs := gitdiff.Do(before, after)
	var out []LineRange
	line := 1
	for _, d := range diffs {
		n := chunkLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			line += n
		case diffmatchpatch.DiffInsert:
			if n > 0 {
				out = append(out, LineRange{Start: line, End: line + n - 1})
			}
			line += n
		case diffmatchpatch.DiffDelete:
			// consumes only lines on the old side
		}
	}
	return MergeRanges(out)
}

// chunkLines counts lines in a diff chunk; a trailing fragment without a
// newline is still a line.
func chunkLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func ignored(rel string, globs []string) bool {
	base := filepath.Base(rel)
	for _, g := range globs {
		if ok, err := doublestar.Match(g, rel); err == nil && ok {
			return true
		}
		if !strings.Contains(g, "/") {
			if ok, err := doublestar.Match(g, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", errors.New("invalid path: contains null byte")
	}
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", errors.New("path is not a directory: " + root)
	}
	return abs, nil
}
