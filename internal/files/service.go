package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"typst-relay/internal/relay"
)

// WriteSuccessMessage is the result of a successful write_file.
const WriteSuccessMessage = "File written successfully"

const filePerm = 0o644

// ParentDir returns the directory containing path, always terminated by a
// path separator so it can be used directly as a prefix. Roots and bare
// file names have no parent.
func ParentDir(path string) (string, error) {
	vol := filepath.VolumeName(path)
	rest := strings.TrimRightFunc(path[len(vol):], isSeparator)
	if rest == "" {
		return "", relay.PathError("failed to get parent directory")
	}

	i := strings.LastIndexFunc(rest, isSeparator)
	if i < 0 {
		return "", relay.PathError("failed to get parent directory")
	}

	parent := strings.TrimRightFunc(rest[:i], isSeparator)
	if parent == "" {
		// the parent is the root itself, which already ends in a separator
		return vol + rest[:1], nil
	}
	return vol + parent + string(filepath.Separator), nil
}

func isSeparator(r rune) bool {
	return r < utf8.RuneSelf && os.IsPathSeparator(uint8(r))
}

// ReadFile returns the whole file as text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", relay.IOError(err)
	}
	if !utf8.Valid(data) {
		return "", relay.IOError(fmt.Errorf("read %s: stream did not contain valid UTF-8", path))
	}
	return string(data), nil
}

// WriteFile replaces the file contents, creating it if needed. The write is
// not transactional; a failure part way may leave a truncated file.
func WriteFile(path, contents string) (string, error) {
	if err := os.WriteFile(path, []byte(contents), filePerm); err != nil {
		return "", relay.IOError(err)
	}
	return WriteSuccessMessage, nil
}
