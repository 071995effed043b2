package source

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/spf13/afero"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverPrunesAndCounts(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/proj/b.py", "x = 1\ny = 2\n")
	writeFile(t, fs, "/proj/a.py", "print(1)")
	writeFile(t, fs, "/proj/pkg/c.py", "a\r\nb\r\nc\r\n")
	writeFile(t, fs, "/proj/notes.txt", "ignored\n")
	writeFile(t, fs, "/proj/.venv/lib.py", "skipped\n")
	writeFile(t, fs, "/proj/pkg/__pycache__/c.py", "skipped\n")
	writeFile(t, fs, "/proj/node_modules/x.py", "skipped\n")

	set, err := Discover(fs, "/proj")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{"/proj/a.py", "/proj/b.py", "/proj/pkg/c.py"}
	if set.Len() != len(want) {
		t.Fatalf("expected %v, got %v", want, set.Paths())
	}
	for i, p := range want {
		if set.Paths()[i] != p {
			t.Errorf("path %d: expected %s, got %s", i, p, set.Paths()[i])
		}
	}
	if set.TotalLines() != 6 {
		t.Errorf("expected 6 lines, got %d", set.TotalLines())
	}
}

func TestDiscoverRootErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/file.py", "x = 1\n")

	if _, err := Discover(fs, "/missing"); err == nil {
		t.Error("expected error for missing root")
	}
	if _, err := Discover(fs, "/file.py"); err == nil {
		t.Error("expected error for file root")
	}
}

func TestInvalidUTF8(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/proj/bad.py", "x = '\xff\xfe'\n")
	writeFile(t, fs, "/proj/good.py", "x = 1\n")

	set, err := Discover(fs, "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 files, got %d", set.Len())
	}
	if set.TotalLines() != 1 {
		t.Errorf("undecodable file must not count lines, got %d", set.TotalLines())
	}

	_, err = set.Load("/proj/bad.py")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if !IsFileLocal(err) {
		t.Error("decode errors are file-local")
	}
}

func TestVanishedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/proj/gone.py", "x = 1\n")

	set, err := Discover(fs, "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Remove("/proj/gone.py"); err != nil {
		t.Fatal(err)
	}

	_, err = set.Load("/proj/gone.py")
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError, got %v", err)
	}
	if !IsFileLocal(err) {
		t.Error("read errors are file-local")
	}
}

func TestModuleMemoizesParseErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/proj/broken.py", "def f(:\n")

	set, err := Discover(fs, "/proj")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	_, first := set.Module(ctx, "/proj/broken.py")
	var perr *pyparse.ParseError
	if !errors.As(first, &perr) {
		t.Fatalf("expected ParseError, got %v", first)
	}
	_, second := set.Module(ctx, "/proj/broken.py")
	if first != second {
		t.Error("expected memoized parse error")
	}
	if !IsFileLocal(first) {
		t.Error("parse errors are file-local")
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\n\n", 2},
	}
	for _, tt := range tests {
		if got := len(SplitLines(tt.text)); got != tt.want {
			t.Errorf("SplitLines(%q): expected %d, got %d", tt.text, tt.want, got)
		}
		if got := CountLines([]byte(tt.text)); got != tt.want {
			t.Errorf("CountLines(%q): expected %d, got %d", tt.text, tt.want, got)
		}
	}
}
