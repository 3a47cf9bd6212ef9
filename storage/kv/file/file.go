// Package filekv is the file-backed keyed blob backend: one file per key
// under a data directory. Suited to a single-process desktop deployment.
package filekv

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var _ core.Storage = (*Storage)(nil)

// keys are storage names like "sms_data_v1"; anything else is rejected rather
// than risk a path escape
var keyRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type Storage struct {
	dir string
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data dir")
	}
	return &Storage{dir: dir}, nil
}

func (s *Storage) Get(key string) (string, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return string(raw), true, nil
}

// Set writes to a temp file in the same directory, then renames over the
// destination so a crashed write never leaves a truncated value behind.
func (s *Storage) Set(key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	if _, err = tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "writing %s", key)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "writing %s", key)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "writing %s", key)
	}
	return nil
}

func (s *Storage) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (s *Storage) path(key string) (string, error) {
	if !keyRegex.MatchString(key) {
		return "", errors.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
