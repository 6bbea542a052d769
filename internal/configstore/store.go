package configstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"typst-relay/internal/relay"
)

// FileName is the config document inside the app config dir.
const FileName = "config.json"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store persists one schemaless JSON document.
type Store struct {
	dir string
}

// New creates a store rooted at the app config dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the app config dir.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location of the config document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Read loads and validates the config document. A missing file is an
// error, never an empty default.
func (s *Store) Read() (json.RawMessage, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, relay.IOError(err)
	}

	var doc json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, relay.ParseError(err)
	}
	return doc, nil
}

// Write replaces the config document with value, serialized compactly.
// The directory is created first; the file is swapped in by rename so a
// reader never sees a partial document.
func (s *Store) Write(value json.RawMessage) error {
	if len(bytes.TrimSpace(value)) == 0 {
		value = json.RawMessage("null")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return relay.ParseError(err)
	}

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return relay.IOError(err)
	}
	return relay.IOError(writeAtomic(s.Path(), buf.Bytes()))
}

func writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-"+FileName+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(err, tmp.Close(), os.Remove(tmpPath))
	}
	if err := tmp.Sync(); err != nil {
		return errors.Join(err, tmp.Close(), os.Remove(tmpPath))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(err, os.Remove(tmpPath))
	}
	_ = os.Chmod(tmpPath, filePerm)

	if err := os.Rename(tmpPath, dest); err != nil {
		return errors.Join(err, os.Remove(tmpPath))
	}
	return nil
}
