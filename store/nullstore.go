package store

import (
	"encoding/hex"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// NullStore is a deterministic in-memory stand-in for unit tests that don't
// want a real SQLite file or real files on disk: it hashes the path string
// itself rather than reading a file tree, so it works with the made-up
// paths a unit test passes in, matching the teacher's habit of stubbing its
// vm/database layers with an in-memory variant in tests rather than
// standing up a real backend.
type NullStore struct {
	ReadOnlyMode bool
	paths        map[string]string
}

func NewNullStore(readOnly bool) *NullStore {
	return &NullStore{ReadOnlyMode: readOnly, paths: make(map[string]string)}
}

func (s *NullStore) ReadOnly() bool { return s.ReadOnlyMode }

func (s *NullStore) AddToStore(path string) (string, error) {
	if existing, ok := s.paths[path]; ok {
		return existing, nil
	}
	storePath, _, err := s.ComputeStorePathForPath(path)
	if err != nil {
		return "", err
	}
	s.paths[path] = storePath
	return storePath, nil
}

func (s *NullStore) ComputeStorePathForPath(path string) (string, string, error) {
	sum := blake2b.Sum256([]byte(path))
	hash := hex.EncodeToString(sum[:])
	return formatStorePath(hash, filepath.Base(path)), hash, nil
}
