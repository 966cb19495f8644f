package pg0

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/reusee/pg0/libs/sample"
	"github.com/reusee/pg0/pg0vm"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func runFile(t *testing.T, path string, opts Options, args ...string) (*pg0vm.Value, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	opts.Stdout = stdout
	ret, err := Env{
		Options:      opts,
		FilePatterns: []string{path},
	}.Run(args...)
	return ret, stdout.String(), err
}

func TestImportOnce(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.pg0": "#import(\"lib.pg0\")\n#import(\"a.pg0\")\nprint(\"main\");\nreturn twice(21);\n",
		"a.pg0":    "#import(\"lib.pg0\")\nprint(\"a\");\n",
		"lib.pg0":  "print(\"lib\");\nfunction twice(x) {\n return x * 2;\n}\n",
	})
	ret, out, err := runFile(t, filepath.Join(dir, "main.pg0"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "libamain" {
		t.Fatalf("got %q", out)
	}
	if ret.Int != 42 {
		t.Fatalf("got %v", ret.Display(false))
	}
}

func TestImportSiblingFunctions(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.pg0":  "#import(\"sub/b.pg0\")\nreturn fromB();\n",
		"sub/b.pg0": "#import(\"c.pg0\")\nfunction fromB() {\n return fromC() + 1;\n}\n",
		"sub/c.pg0": "function fromC() {\n return 1;\n}\n",
	})
	ret, _, err := runFile(t, filepath.Join(dir, "main.pg0"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if ret.Int != 2 {
		t.Fatalf("got %v", ret.Display(false))
	}
}

func TestImportGlob(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.pg0": "#import(\"*.pg0\")\nreturn one() + two();\n",
		"one.pg0":  "function one() {\n return 1;\n}\n",
		"two.pg0":  "function two() {\n return 2;\n}\n",
	})
	ret, _, err := runFile(t, filepath.Join(dir, "main.pg0"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if ret.Int != 3 {
		t.Fatalf("got %v", ret.Display(false))
	}
}

func TestImportPaths(t *testing.T) {
	libDir := writeFiles(t, map[string]string{
		"shared.pg0": "function shared() {\n return 7;\n}\n",
	})
	dir := writeFiles(t, map[string]string{
		"main.pg0": "#import(\"shared.pg0\")\nreturn shared();\n",
	})
	ret, _, err := runFile(t, filepath.Join(dir, "main.pg0"), Options{
		ImportPaths: []string{libDir},
	})
	if err != nil {
		t.Fatal(err)
	}
	if ret.Int != 7 {
		t.Fatalf("got %v", ret.Display(false))
	}
}

func TestImportLibraryFallback(t *testing.T) {
	ret, _ := mustRun(t, "#import(\"sample.dll\")\nreturn sum(1, 2);\n", Options{})
	if ret.Int != 3 {
		t.Fatalf("got %v", ret.Display(false))
	}
}

func TestLibraryDirective(t *testing.T) {
	ret, _ := mustRun(t, "#library(\"sample\")\n#library(\"SAMPLE\")\nreturn toupper(\"abc\");\n", Options{})
	if ret.Str != "ABC" {
		t.Fatalf("got %v", ret.Display(false))
	}

	_, _, err := run(t, "#library(\"nope\")\n", Options{})
	if !errors.Is(err, pg0vm.ErrFileOpen) {
		t.Fatalf("got %v", err)
	}
}

func TestPreload(t *testing.T) {
	ret, _ := mustRun(t, "return sum(2, 3);", Options{
		Extension: true,
		Preload:   []string{"sample"},
	})
	if ret.Int != 5 {
		t.Fatalf("got %v", ret.Display(false))
	}

	_, _, err := run(t, "return 1;", Options{
		Preload: []string{"nope"},
	})
	if !errors.Is(err, pg0vm.ErrFileOpen) {
		t.Fatalf("got %v", err)
	}
}

func TestImportErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.pg0":   "#import(\"broken.pg0\")\n",
		"broken.pg0": "var a = 1;\na = = 2;\n",
	})
	stderr := new(bytes.Buffer)
	_, _, err := runFile(t, filepath.Join(dir, "main.pg0"), Options{
		Stderr: stderr,
	})
	if !errors.Is(err, pg0vm.ErrScript) {
		t.Fatalf("got %v", err)
	}
	var inner *pg0vm.Error
	if !errors.As(errors.Unwrap(err), &inner) || inner.Unit != "broken.pg0" || inner.Line != 2 {
		t.Fatalf("cause lost: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stderr.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "[broken.pg0]") || !strings.Contains(lines[1], "[main.pg0]") {
		t.Fatalf("got %q", stderr.String())
	}

	_, _, err = run(t, "#import(\"missing.pg0\")\n", Options{})
	if !errors.Is(err, pg0vm.ErrScript) {
		t.Fatalf("got %v", err)
	}
}

func TestFilePatterns(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.pg0": "return helper() + argc;\n",
		"b.pg0": "function helper() {\n return 10;\n}\n",
	})
	ret, _, err := runFile(t, filepath.Join(dir, "*.pg0"), Options{Extension: true}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if ret.Int != 11 {
		t.Fatalf("got %v", ret.Display(false))
	}

	_, _, err = runFile(t, filepath.Join(dir, "missing.pg0"), Options{})
	if !errors.Is(err, pg0vm.ErrFileOpen) {
		t.Fatalf("got %v", err)
	}
}

func TestDecodeSource(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain", []byte("a = 1")},
		{"utf8 bom", []byte("\xef\xbb\xbfa = 1")},
		{"utf16le", []byte{0xff, 0xfe, 'a', 0, ' ', 0, '=', 0, ' ', 0, '1', 0}},
		{"utf16be", []byte{0xfe, 0xff, 0, 'a', 0, ' ', 0, '=', 0, ' ', 0, '1'}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := DecodeSource(test.data)
			if err != nil {
				t.Fatal(err)
			}
			if got != "a = 1" {
				t.Fatalf("got %q", got)
			}
		})
	}
}
