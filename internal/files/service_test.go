package files

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"typst-relay/internal/relay"
)

func TestParentDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path layout")
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "nested file", path: "/home/user/docs/main.typ", want: "/home/user/docs/"},
		{name: "relative file", path: "docs/main.typ", want: "docs/"},
		{name: "file at root", path: "/main.typ", want: "/"},
		{name: "trailing separator ignored", path: "/home/user/docs/", want: "/home/user/"},
		{name: "repeated separators", path: "docs//main.typ", want: "docs/"},
		{name: "dot dir", path: "./main.typ", want: "./"},
		{name: "path need not exist", path: "/does/not/exist.typ", want: "/does/not/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParentDir(tt.path)
			if err != nil {
				t.Fatalf("ParentDir(%q) error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Fatalf("ParentDir(%q) = %q, want %q", tt.path, got, tt.want)
			}
			if !strings.HasSuffix(got, string(filepath.Separator)) {
				t.Fatalf("ParentDir(%q) = %q does not end with a separator", tt.path, got)
			}
			if !strings.HasPrefix(tt.path, strings.TrimSuffix(got, "/")) {
				t.Fatalf("ParentDir(%q) = %q is not a prefix of the path", tt.path, got)
			}
		})
	}
}

func TestParentDirNoParent(t *testing.T) {
	for _, path := range []string{"", "/", "//", "main.typ"} {
		_, err := ParentDir(path)
		if err == nil {
			t.Fatalf("ParentDir(%q) expected error", path)
		}
		if kind := relay.KindOf(err); kind != relay.KindPath {
			t.Fatalf("ParentDir(%q) kind = %q, want %q", path, kind, relay.KindPath)
		}
		if err.Error() != "failed to get parent directory" {
			t.Fatalf("unexpected message: %q", err.Error())
		}
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.typ")
	texts := []string{
		"",
		"#set page(width: 10cm)\n= Hello\n",
		"unicode: αβγ · 日本語 🎉",
		"no trailing newline",
	}

	for _, text := range texts {
		msg, err := WriteFile(path, text)
		if err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if msg != WriteSuccessMessage {
			t.Fatalf("unexpected write result: %q", msg)
		}

		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if got != text {
			t.Fatalf("round trip mismatch: got %q, want %q", got, text)
		}
	}
}

func TestWriteFileOverwritesCompletely(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if _, err := WriteFile(path, "a much longer first version"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := WriteFile(path, "short"); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "short" {
		t.Fatalf("expected full replace, got %q", got)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.typ"))
	if kind := relay.KindOf(err); kind != relay.KindIO {
		t.Fatalf("expected IOError, got %q (%v)", kind, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected underlying not-exist error, got %v", err)
	}
}

func TestReadFileInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.bin")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := ReadFile(path)
	if kind := relay.KindOf(err); kind != relay.KindIO {
		t.Fatalf("expected IOError, got %q (%v)", kind, err)
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "main.typ")
	_, err := WriteFile(path, "x")
	if kind := relay.KindOf(err); kind != relay.KindIO {
		t.Fatalf("expected IOError, got %q (%v)", kind, err)
	}
}
