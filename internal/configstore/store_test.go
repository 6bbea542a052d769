package configstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"typst-relay/internal/relay"
)

func TestStore_WriteThenReadRoundTrip(t *testing.T) {
	values := []string{
		`{"theme":"dark","recent":["/a.typ","/b.typ"],"fontSize":14,"preview":{"zoom":1.5,"sync":true}}`,
		`[1,2,3]`,
		`"just a string"`,
		`42`,
		`true`,
		`null`,
		`{"nested":{"deeper":{"empty":{},"list":[]}}}`,
	}

	store := New(filepath.Join(t.TempDir(), "app"))
	for _, v := range values {
		if err := store.Write(json.RawMessage(v)); err != nil {
			t.Fatalf("Write(%s): %v", v, err)
		}

		got, err := store.Read()
		if err != nil {
			t.Fatalf("Read after Write(%s): %v", v, err)
		}
		assertSameJSON(t, got, json.RawMessage(v))
	}
}

func TestStore_WriteIsIdempotent(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "app"))
	value := json.RawMessage(`{"lastFile":"/docs/main.typ"}`)

	for i := 0; i < 2; i++ {
		if err := store.Write(value); err != nil {
			t.Fatalf("write %d: %v", i+1, err)
		}
	}

	got, err := store.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	assertSameJSON(t, got, value)
}

func TestStore_WriteCreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	store := New(dir)

	if err := store.Write(json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
}

func TestStore_WriteReplacesAndCompacts(t *testing.T) {
	store := New(t.TempDir())

	if err := store.Write(json.RawMessage(`{"a": 1, "b": [1, 2, 3], "c": "long value"}`)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := store.Write(json.RawMessage("{\n  \"a\": 2\n}")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != `{"a":2}` {
		t.Fatalf("expected compact full replace, got %q", string(data))
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only %s in config dir, got %d entries", FileName, len(entries))
	}
}

func TestStore_ReadMissingIsIOError(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-written"))

	got, err := store.Read()
	if err == nil {
		t.Fatalf("expected error, got value %s", string(got))
	}
	if kind := relay.KindOf(err); kind != relay.KindIO {
		t.Fatalf("expected IOError, got %q (%v)", kind, err)
	}
}

func TestStore_ReadInvalidJSONIsParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(`{"theme": "dark",`), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := New(dir).Read()
	if kind := relay.KindOf(err); kind != relay.KindParse {
		t.Fatalf("expected ParseError, got %q (%v)", kind, err)
	}
}

func TestStore_WriteInvalidJSONIsParseError(t *testing.T) {
	store := New(t.TempDir())
	err := store.Write(json.RawMessage(`{not json`))
	if kind := relay.KindOf(err); kind != relay.KindParse {
		t.Fatalf("expected ParseError, got %q (%v)", kind, err)
	}
}

func TestStore_WriteIntoFileIsIOError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := New(filepath.Join(blocker, "app")).Write(json.RawMessage(`{}`))
	if kind := relay.KindOf(err); kind != relay.KindIO {
		t.Fatalf("expected IOError, got %q (%v)", kind, err)
	}
}

func assertSameJSON(t *testing.T, got, want json.RawMessage) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("decode got %s: %v", string(got), err)
	}
	if err := json.Unmarshal(want, &w); err != nil {
		t.Fatalf("decode want %s: %v", string(want), err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Fatalf("JSON mismatch: got %s, want %s", string(got), string(want))
	}
}
