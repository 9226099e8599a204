package store

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	_ "modernc.org/sqlite" // SQLite, pure-Go
)

// SQLiteStore is a real, if narrow, content-addressed store: every path
// copied in is hashed and recorded in a single SQLite table, the way the
// teacher's own database package opens a modernc.org/sqlite connection for
// its SQL-service builtins, adapted here to back the store instead of a
// user database.
type SQLiteStore struct {
	db       *sql.DB
	storeDir string
	readOnly bool
}

// Open opens (creating if necessary) a SQLite-backed store rooted at
// storeDir, with its bookkeeping database at dbPath.
func Open(dbPath, storeDir string, readOnly bool) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS store_paths (
		path TEXT PRIMARY KEY,
		store_path TEXT NOT NULL,
		hash TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, storeDir: storeDir, readOnly: readOnly}, nil
}

func (s *SQLiteStore) ReadOnly() bool { return s.readOnly }

func (s *SQLiteStore) AddToStore(path string) (string, error) {
	if existing, ok := s.lookup(path); ok {
		return existing, nil
	}

	storePath, hash, err := s.ComputeStorePathForPath(path)
	if err != nil {
		return "", err
	}

	if !s.readOnly {
		if err := copyTree(path, filepath.Join(s.storeDir, filepath.Base(storePath))); err != nil {
			return "", err
		}
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO store_paths(path, store_path, hash) VALUES (?, ?, ?)`,
		path, storePath, hash)
	if err != nil {
		return "", err
	}

	return storePath, nil
}

func (s *SQLiteStore) lookup(path string) (string, bool) {
	var storePath string
	err := s.db.QueryRow(`SELECT store_path FROM store_paths WHERE path = ?`, path).Scan(&storePath)
	return storePath, err == nil
}

// ComputeStorePathForPath hashes path's contents with blake2b and formats
// the resulting store path, without touching storeDir — the branch a
// read-only-mode session takes instead of actually copying anything.
func (s *SQLiteStore) ComputeStorePathForPath(path string) (string, string, error) {
	h, err := hashTree(path)
	if err != nil {
		return "", "", err
	}
	storePath := formatStorePath(h, filepath.Base(path))
	return storePath, h, nil
}

func formatStorePath(hash, name string) string {
	return fmt.Sprintf("/thicket/store/%s-%s", hash[:32], name)
}

func hashTree(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(h, f)
			return err
		})
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		_, err = io.Copy(h, f)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
