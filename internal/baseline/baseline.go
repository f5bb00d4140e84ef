// Package baseline persists fingerprints of findings that were reviewed and
// accepted. A baselined finding is excluded from future verdicts until its
// entry expires. The file is read-only during scans; only the explicit
// accept and prune operations write it, under an exclusive lock.
package baseline

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/safepush/safepush/internal/types"
)

// DefaultPath is the baseline location relative to the repository root.
const DefaultPath = ".safepush.baseline.json"

const currentVersion = 1

// Entry records why a fingerprint was accepted and for how long.
type Entry struct {
	Justification string     `json:"justification"`
	AcceptedAt    time.Time  `json:"accepted_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the entry no longer suppresses at the given time.
func (e Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// File is an in-memory baseline. Entries maps fingerprint to acceptance
// metadata; encoding/json emits map keys sorted, which keeps the on-disk
// form fingerprint-ordered and diff-friendly.
type File struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// Empty returns a baseline with no entries.
func Empty() *File {
	return &File{Version: currentVersion, Entries: map[string]Entry{}}
}

// Load reads the baseline at path. A missing file is an empty baseline; a
// file that cannot be read or parsed is an IOError, because silently
// scanning without a baseline the user believes is active would flip
// verdicts.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return nil, types.IOErrorf("read baseline %s: %v", path, err)
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, types.IOErrorf("parse baseline %s: %v", path, err)
	}
	if f.Version == 0 {
		f.Version = currentVersion
	}
	if f.Version > currentVersion {
		return nil, types.IOErrorf("baseline %s is version %d, this build understands up to %d", path, f.Version, currentVersion)
	}
	if f.Entries == nil {
		f.Entries = map[string]Entry{}
	}
	return &f, nil
}

// Suppresses reports whether fp is accepted and unexpired at the given time.
func (f *File) Suppresses(fp string, now time.Time) bool {
	if f == nil {
		return false
	}
	e, ok := f.Entries[fp]
	return ok && !e.Expired(now)
}

// Len returns the number of entries, expired ones included.
func (f *File) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Entries)
}

// Fingerprints returns all entry keys in sorted order.
func (f *File) Fingerprints() []string {
	fps := make([]string, 0, len(f.Entries))
	for fp := range f.Entries {
		fps = append(fps, fp)
	}
	sort.Strings(fps)
	return fps
}

// Accept adds the fingerprints to the baseline at path, creating the file if
// needed. Existing entries are overwritten with the new metadata, so
// re-accepting refreshes a justification or expiry. A zero ttl means the
// acceptance never expires. Returns how many fingerprints were new.
func Accept(path string, fps []string, justification string, ttl time.Duration, now time.Time) (int, error) {
	if len(fps) == 0 {
		return 0, types.ConfigErrorf("no fingerprints to accept")
	}
	return mutate(path, func(f *File) (int, error) {
		entry := Entry{Justification: justification, AcceptedAt: now.UTC()}
		if ttl > 0 {
			t := now.Add(ttl).UTC()
			entry.ExpiresAt = &t
		}
		added := 0
		for _, fp := range fps {
			if fp == "" {
				return 0, types.ConfigErrorf("empty fingerprint")
			}
			if _, ok := f.Entries[fp]; !ok {
				added++
			}
			f.Entries[fp] = entry
		}
		return added, nil
	})
}

// Prune drops entries that have expired by now and returns how many were
// removed. The file is rewritten even when nothing changed, normalizing its
// formatting.
func Prune(path string, now time.Time) (int, error) {
	return mutate(path, func(f *File) (int, error) {
		removed := 0
		for fp, e := range f.Entries {
			if e.Expired(now) {
				delete(f.Entries, fp)
				removed++
			}
		}
		return removed, nil
	})
}

// Remove deletes specific fingerprints and returns how many existed.
func Remove(path string, fps []string) (int, error) {
	return mutate(path, func(f *File) (int, error) {
		removed := 0
		for _, fp := range fps {
			if _, ok := f.Entries[fp]; ok {
				delete(f.Entries, fp)
				removed++
			}
		}
		return removed, nil
	})
}

// mutate performs a locked read-modify-write cycle on the baseline file.
// The lock lives next to the baseline so concurrent accepts from parallel
// hooks serialize instead of clobbering each other's writes.
func mutate(path string, fn func(*File) (int, error)) (int, error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return 0, types.IOErrorf("lock baseline %s: %v", path, err)
	}
	defer func() {
		lock.Unlock()
		os.Remove(lock.Path())
	}()

	f, err := Load(path)
	if err != nil {
		return 0, err
	}
	n, err := fn(f)
	if err != nil {
		return 0, err
	}
	if err := write(path, f); err != nil {
		return 0, err
	}
	return n, nil
}

// write serializes the baseline atomically: temp file in the same directory,
// then rename over the target.
func write(path string, f *File) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return types.IOErrorf("encode baseline: %v", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".safepush-baseline-*")
	if err != nil {
		return types.IOErrorf("write baseline %s: %v", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return types.IOErrorf("write baseline %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return types.IOErrorf("write baseline %s: %v", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return types.IOErrorf("write baseline %s: %v", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return types.IOErrorf("write baseline %s: %v", path, err)
	}
	return nil
}
