package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
)

// MailStore drops raw messages into the inbox as <sha256>.eml. Files are
// written under a hidden name and renamed, so the inbox watcher never sees a
// half-written message.
type MailStore struct {
	dir string
}

func NewMailStore(dir string) *MailStore {
	return &MailStore{dir: dir}
}

// Store writes raw and returns its path and hash. An existing file with the
// same content is left alone.
func (s *MailStore) Store(raw []byte) (string, string, error) {
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", err
	}

	path := filepath.Join(s.dir, hash+".eml")
	if _, err := os.Stat(path); err == nil {
		return path, hash, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".mail-*")
	if err != nil {
		return "", "", err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	return path, hash, nil
}
