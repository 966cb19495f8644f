package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reusee/pg0/debugs"
	"github.com/reusee/pg0/pg0"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		args   []string
		expect flagGroup
		rest   int
	}{
		{nil, flagGroup{}, 0},
		{[]string{"a.pg0"}, flagGroup{}, 1},
		{[]string{"/ps", "a.pg0"}, flagGroup{pg0: true, strict: true}, 1},
		{[]string{"-X", "a.pg0", "1"}, flagGroup{hex: true}, 2},
		{[]string{"/v"}, flagGroup{version: true}, 0},
		{[]string{"-?"}, flagGroup{help: true}, 0},
	}
	for _, test := range tests {
		t.Run(strings.Join(test.args, " "), func(t *testing.T) {
			flags, rest := parseFlags(test.args)
			if flags != test.expect {
				t.Fatalf("got %+v", flags)
			}
			if len(rest) != test.rest {
				t.Fatalf("got %v", rest)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	opts := flagGroup{pg0: true, hex: true}.apply(pg0.Options{Extension: true})
	if opts.Extension || !opts.Hex || opts.Strict {
		t.Fatalf("got %+v", opts)
	}
}

func TestUsage(t *testing.T) {
	buf := new(bytes.Buffer)
	writeUsage(buf)
	for _, want := range []string{"[/psxv]", "-break", "-dump"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in %s", want, buf.String())
		}
	}
}

func testOptions() (pg0.Options, *bytes.Buffer, *bytes.Buffer) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	return pg0.Options{
		Extension: true,
		Stdout:    stdout,
		Stderr:    stderr,
	}, stdout, stderr
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.pg0")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFile(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	path := writeScript(t, "return argv;\n")

	opts, stdout, _ := testOptions()
	if code := runFile(t.Context(), opts, logger, path, []string{"41", "x"}); code != 0 {
		t.Fatalf("got %d", code)
	}
	if got := stdout.String(); got != "{\"41\",\"x\"}\n" {
		t.Fatalf("got %q", got)
	}

	opts, stdout, _ = testOptions()
	opts.Hex = true
	path = writeScript(t, "return 255;\n")
	if code := runFile(t.Context(), opts, logger, path, nil); code != 0 {
		t.Fatalf("got %d", code)
	}
	if got := stdout.String(); got != "0xFF\n" {
		t.Fatalf("got %q", got)
	}

	opts, stdout, _ = testOptions()
	path = writeScript(t, "var a = 1;\n")
	if code := runFile(t.Context(), opts, logger, path, nil); code != 0 {
		t.Fatalf("got %d", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("got %q", stdout.String())
	}
}

func TestRunFileError(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	opts, _, stderr := testOptions()
	path := writeScript(t, "var a = 1;\na = a / 0;\n")
	if code := runFile(t.Context(), opts, logger, path, nil); code == 0 {
		t.Fatal("expected failure")
	}
	if got := stderr.String(); got != "Error: [main.pg0]: Division by zero(2): a = a / 0;\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDump(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	out := filepath.Join(t.TempDir(), "dump.cbor")
	*dumpPath = out
	defer func() {
		*dumpPath = ""
	}()

	opts, _, _ := testOptions()
	path := writeScript(t, "var a = 3;\nvar s = \"x\";\n")
	if code := runFile(t.Context(), opts, logger, path, nil); code != 0 {
		t.Fatalf("got %d", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	snapshot, err := debugs.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	globals := snapshot.Globals()
	if globals["a"] != int64(3) || globals["s"] != "x" {
		t.Fatalf("got %v", globals)
	}
}
