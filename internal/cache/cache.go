package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// Store is the keyed cache collaborator. Restore reports a hit or a miss; a
// miss is never an error to the caller. Save archives the given workspace
// paths under key.
type Store interface {
	Restore(key string) (bool, error)
	Save(key string, paths []string) error
}

// Key computes the content fingerprint for a set of dependency manifests:
// a hex sha256 over each manifest's relative path and contents, in the
// order given. A missing manifest is an error; callers degrade it to a miss.
func Key(root string, manifests []string) (string, error) {
	h := sha256.New()
	for _, manifest := range manifests {
		full := manifest
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, manifest)
		}
		f, err := os.Open(full)
		if err != nil {
			return "", fmt.Errorf("open manifest %q: %w", manifest, err)
		}
		io.WriteString(h, filepath.ToSlash(manifest))
		h.Write([]byte{0})
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("read manifest %q: %w", manifest, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DefaultDir returns the per-user archive directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("determine cache directory: %w", err)
	}
	return filepath.Join(base, "gantry"), nil
}

// DirStore keeps cache entries as tar.gz archives in a directory. Entries
// are written to a temporary file and renamed into place, so concurrent
// writers from separate processes cannot corrupt an entry; within one
// process, saves of the same key are collapsed by singleflight and an
// existing entry makes later saves a no-op.
type DirStore struct {
	dir   string
	root  string
	group singleflight.Group
}

// NewDirStore creates a store archiving into dir; restored and saved paths
// are resolved relative to root.
func NewDirStore(dir, root string) *DirStore {
	return &DirStore{dir: dir, root: root}
}

// Restore unpacks the entry for key into the workspace root. The first
// return is false on a miss.
func (s *DirStore) Restore(key string) (bool, error) {
	f, err := os.Open(s.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open cache entry %s: %w", key, err)
	}
	defer f.Close()

	if err := extractArchive(f, s.root); err != nil {
		return false, fmt.Errorf("extract cache entry %s: %w", key, err)
	}
	return true, nil
}

// Save archives the given paths under key. Paths that do not exist are
// skipped; an already-present entry is left untouched.
func (s *DirStore) Save(key string, paths []string) error {
	_, err, _ := s.group.Do(key, func() (interface{}, error) {
		entry := s.entryPath(key)
		if _, err := os.Stat(entry); err == nil {
			return nil, nil
		}
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}

		tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
		if err != nil {
			return nil, fmt.Errorf("create cache temp file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if err := writeArchive(tmp, s.root, paths); err != nil {
			tmp.Close()
			return nil, fmt.Errorf("write cache entry %s: %w", key, err)
		}
		if err := tmp.Close(); err != nil {
			return nil, fmt.Errorf("close cache temp file: %w", err)
		}
		if err := os.Rename(tmp.Name(), entry); err != nil {
			return nil, fmt.Errorf("store cache entry %s: %w", key, err)
		}
		return nil, nil
	})
	return err
}

func (s *DirStore) entryPath(key string) string {
	return filepath.Join(s.dir, key+".tar.gz")
}
