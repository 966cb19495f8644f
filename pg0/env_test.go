package pg0

import (
	"bytes"
	"errors"
	"testing"

	"github.com/reusee/pg0/pg0vm"
)

func run(t *testing.T, src string, opts Options, args ...string) (*pg0vm.Value, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	opts.Stdout = stdout
	if opts.Stderr == nil {
		opts.Stderr = new(bytes.Buffer)
	}
	ret, err := Env{
		Options:    opts,
		Source:     src,
		SourceName: "test.pg0",
	}.Run(args...)
	return ret, stdout.String(), err
}

func mustRun(t *testing.T, src string, opts Options, args ...string) (*pg0vm.Value, string) {
	t.Helper()
	ret, out, err := run(t, src, opts, args...)
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	return ret, out
}

var extension = Options{
	Extension: true,
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		opts   Options
		output string
	}{
		{"sum", "var a=1; var b=2; print(a+b);", extension, "3"},
		{"function", "function f(x){return x*2;} print(f(21));", extension, "42"},
		{"recursion", "function fib(n){ if (n < 2) { return n; } return fib(n-1) + fib(n-2); } print(fib(10));", extension, "55"},
		{"while", "var i = 0; var s = 0; while (i < 5) { i = i + 1; s = s + i; } print(s);", extension, "15"},
		{"for", "var s = 0; for (var i = 0; i < 4; i++) { s += i; } print(s);", extension, "6"},
		{"for continue", "var s = 0; for (var i = 0; i < 5; i++) { if (i == 2) { continue; } s += i; } print(s);", extension, "8"},
		{"do", "var i = 0; do { i++; } while (i < 3); print(i);", extension, "3"},
		{"break", "var i = 0; while (1) { i++; if (i == 4) { break; } } print(i);", extension, "4"},
		{"if else", "var a = 2; if (a == 1) { print(\"one\"); } else if (a == 2) { print(\"two\"); } else { print(\"other\"); }", extension, "two"},
		{"string concat", "var s = \"ab\"; s = s + \"c\"; print(s);", extension, "abc"},
		{"escape", "print(\"a\\tb\");", extension, "a\tb"},
		{"print array", "var a = {1, \"x\", {2}}; print(a);", extension, "{1,\"x\",{2}}"},
		{"print array hex", "var a = {255}; print(a);", Options{Extension: true, Hex: true}, "{0xFF}"},
		{"exit", "print(1); exit; print(2);", extension, "1"},
		{"exit from function", "function f() { exit; } f(); print(2);", extension, ""},
		{"by ref", "function inc(&x) { x = x + 1; } var a = 1; inc(a); print(a);", extension, "2"},
		{"by value", "function inc(x) { x = x + 1; } var a = 1; inc(a); print(a);", extension, "1"},
		{"array param copy", "function set(a) { a[0] = 9; } var b = {1}; set(b); print(b[0]);", extension, "1"},
		{"default param", "function f(a, b = 5) { return a + b; } print(f(1));", extension, "6"},
		{"shift precedence", "print(1 + 2 * 3 << 1);", extension, "14"},
		{"numbers", "print(123 == 0x7B); print(0173 == 123);", extension, "11"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, out := mustRun(t, test.src, test.opts)
			if out != test.output {
				t.Fatalf("got %q, expected %q", out, test.output)
			}
		})
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		src    string
		output string
	}{
		{"if (1) { print(1); }", "1"},
		{"if (0) { print(1); } print(2);", "2"},
		{"if (1) { print(1); } else { print(2); } print(3);", "13"},
		{"if (0) { print(1); } else { print(2); } print(3);", "23"},
		{"function f() { return 1; } print(f()); print(2);", "12"},
		{"function f() { return 1; } function g() { return f() + 1; } print(g());", "2"},
		{"while (0) { print(1); } print(2);", "2"},
		{"var i = 0; while (i < 2 && 1) { i++; } print(i);", "2"},
		{"if (0 && nope()) { print(1); } print(2);", "2"},
		{"if (1 || nope()) { print(1); } print(2);", "12"},
		{"var a = 0 && 5; var b = 3 || 0; print(a); print(b);", "01"},
		{"for (var i = 0; i < 3; i = i + (1 || 0)) { print(i); }", "012"},
		{"var i = 0; do { i++; } while (i < 2 && 1); print(i);", "2"},
		{"var s = 0; switch (1) { case 0 || 1: s = 1; break; default: s = 2; } print(s);", "1"},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			_, out := mustRun(t, test.src, extension)
			if out != test.output {
				t.Fatalf("got %q, expected %q", out, test.output)
			}
		})
	}
}

func TestIntegerLiterals(t *testing.T) {
	for _, src := range []string{"return 123;", "return 0x7B;", "return 0173;"} {
		ret, _ := mustRun(t, src, extension)
		if ret.Type != pg0vm.TypeInt || ret.Int != 123 {
			t.Fatalf("%s: got %v", src, ret.Display(false))
		}
	}
}

func TestShortCircuit(t *testing.T) {
	var calls int
	counter := pg0vm.NativeFunc{
		Name: "count",
		Func: func(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
			calls++
			return args[0], nil
		},
	}
	opts := Options{
		Extension: true,
		Natives: map[string]pg0vm.NativeFunc{
			"Count": counter,
		},
	}

	tests := []struct {
		src    string
		calls  int
		result int64
	}{
		{"return count(0) && count(1);", 1, 0},
		{"return count(1) && count(1);", 2, 1},
		{"return count(1) || count(1);", 1, 1},
		{"return count(0) || count(1);", 2, 1},
		{"return count(0) || count(0) || count(1);", 3, 1},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			calls = 0
			ret, _ := mustRun(t, test.src, opts)
			if calls != test.calls {
				t.Fatalf("got %d calls", calls)
			}
			if ret.Int != test.result {
				t.Fatalf("got %v", ret.Display(false))
			}
		})
	}
}

func TestBlockScoping(t *testing.T) {
	ret, _ := mustRun(t, "var a = 1; { var a = 5; a = 6; } return a;", extension)
	if ret.Int != 1 {
		t.Fatalf("got %v", ret.Display(false))
	}

	ret, _ = mustRun(t, "var a = 1; { a = 2; { a = a + 1; } } return a;", extension)
	if ret.Int != 3 {
		t.Fatalf("got %v", ret.Display(false))
	}

	_, _, err := run(t, "{ var b = 1; } return b;", Options{Extension: true, Strict: true})
	if !errors.Is(err, pg0vm.ErrNotDeclared) {
		t.Fatalf("got %v", err)
	}
}

func TestDivision(t *testing.T) {
	ret, _ := mustRun(t, "return 7/2;", extension)
	if ret.Type != pg0vm.TypeFloat || ret.Float != 3.5 {
		t.Fatalf("got %v", ret.Display(false))
	}

	ret, _ = mustRun(t, "return 6/2;", extension)
	if ret.Type != pg0vm.TypeInt || ret.Int != 3 {
		t.Fatalf("got %v", ret.Display(false))
	}

	for _, src := range []string{"return 1/0;", "return 1%0;"} {
		_, _, err := run(t, src, extension)
		if !errors.Is(err, pg0vm.ErrDivZero) {
			t.Fatalf("%s: got %v", src, err)
		}
		var e *pg0vm.Error
		if !errors.As(err, &e) || e.Line != 1 {
			t.Fatalf("%s: got %v", src, err)
		}
	}
}

func TestArrays(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		expect string
	}{
		{"length", "var a; a[0]=1; a[1]=2; return length(a);", "2"},
		{"promote scalar", "var a = 5; a[\"k\"] = 7; return a;", `{"k":7}`},
		{"key lookup", "var a; a[\"x\"] = 1; a[\"y\"] = 2; return a[\"Y\"];", "2"},
		{"keyed literal", "var a = {\"x\": 1, 2}; return a[\"x\"] + a[1];", "3"},
		{"setkey", "var a = {1, 2}; setkey(a, 1, \"name\"); return getkey(a, 1);", `name`},
		{"setkey clear", "var a = {\"k\": 1}; setkey(a, 0, 0); return getkey(a, 0);", ``},
		{"setkey lookup", "var a = {1, 2}; setkey(a, 0, \"first\"); return a[\"first\"];", "1"},
		{"copy", "var a = {1}; var b = a; b[0] = 2; return a[0];", "1"},
		{"nested", "var a; a[1][2] = 3; return a;", "{0,{0,0,3}}"},
		{"array ops", "return {1, 2} + {3};", "{1,2,3}"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ret, _ := mustRun(t, test.src, extension)
			if got := ret.Display(false); got != test.expect {
				t.Fatalf("got %s, expected %s", got, test.expect)
			}
		})
	}

	_, _, err := run(t, "var a; a[-1] = 1;", extension)
	if !errors.Is(err, pg0vm.ErrIndex) {
		t.Fatalf("got %v", err)
	}
}

func TestPostfixDeferral(t *testing.T) {
	ret, _ := mustRun(t, "var x=0; var y=x++ + x++; return {x, y};", extension)
	if got := ret.Display(false); got != `{"x":2,"y":0}` {
		t.Fatalf("got %s", got)
	}
}

func TestSwitch(t *testing.T) {
	src := `
function pick(n) {
	var r = 0;
	switch (n) {
	case 1:
		r = 10;
		break;
	case 2:
		r = 20;
		break;
	default:
		r = 30;
		break;
	case 3:
		r = 40;
	}
	return r;
}
return {pick(1), pick(2), pick(3), pick(9)};
`
	ret, _ := mustRun(t, src, extension)
	if got := ret.Display(false); got != "{10,20,40,30}" {
		t.Fatalf("got %s", got)
	}
}

func TestStrict(t *testing.T) {
	_, _, err := run(t, "var a = 1;\nb = a;\n", Options{Strict: true})
	if !errors.Is(err, pg0vm.ErrNotDeclared) {
		t.Fatalf("got %v", err)
	}
	var e *pg0vm.Error
	if !errors.As(err, &e) || e.Line != 2 || e.Text != "b = a;" {
		t.Fatalf("got %#v", err)
	}

	_, _, err = run(t, "#option(\"strict\")\nc = 1;\n", Options{})
	if !errors.Is(err, pg0vm.ErrNotDeclared) {
		t.Fatalf("got %v", err)
	}

	if _, _, err := run(t, "b = 1;\n", Options{}); err != nil {
		t.Fatal(err)
	}
}

func TestArgv(t *testing.T) {
	ret, _ := mustRun(t, "return {argc, argv};", extension, "a", "1")
	if got := ret.Display(false); got != `{"argc":2,"argv":{"a","1"}}` {
		t.Fatalf("got %s", got)
	}

	ret, _ = mustRun(t, "return argc;", extension)
	if ret.Int != 0 {
		t.Fatalf("got %v", ret.Display(false))
	}
}

func TestFunctionErrors(t *testing.T) {
	_, _, err := run(t, "nope(1);", extension)
	if !errors.Is(err, pg0vm.ErrFunction) {
		t.Fatalf("got %v", err)
	}

	_, _, err = run(t, "function f(a, b) { return a; } f(1);", extension)
	if !errors.Is(err, pg0vm.ErrArgumentCount) {
		t.Fatalf("got %v", err)
	}

	fail := errors.New("boom")
	_, _, err = run(t, "bad();", Options{
		Extension: true,
		Natives: map[string]pg0vm.NativeFunc{
			"bad": {
				Name: "bad",
				Func: func(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
					return nil, fail
				},
			},
		},
	})
	if !errors.Is(err, pg0vm.ErrFunctionExec) || !errors.Is(err, fail) {
		t.Fatalf("got %v", err)
	}
}

func TestCallback(t *testing.T) {
	var lines []int
	var finished bool
	_, _, err := run(t, "var a = 1;\nvar b = 2;\n", Options{
		Callback: func(scope *pg0vm.Scope, inst *pg0vm.Instruction) bool {
			if inst == nil {
				finished = true
				return true
			}
			if len(lines) == 0 || lines[len(lines)-1] != inst.Line {
				lines = append(lines, inst.Line)
			}
			return true
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !finished {
		t.Fatal("no final callback")
	}
	if len(lines) != 2 || lines[0] != 1 || lines[1] != 2 {
		t.Fatalf("got %v", lines)
	}

	_, out, err := run(t, "print(1);\nprint(2);\n", Options{
		Extension: true,
		Callback: func(scope *pg0vm.Scope, inst *pg0vm.Instruction) bool {
			return inst == nil || inst.Line < 2
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "1" {
		t.Fatalf("got %q", out)
	}
}

func TestReport(t *testing.T) {
	stderr := new(bytes.Buffer)
	_, _, err := run(t, "var a = 1;\na = 1 / 0;\n", Options{
		Extension: true,
		Stderr:    stderr,
	})
	if !errors.Is(err, pg0vm.ErrDivZero) {
		t.Fatalf("got %v", err)
	}
	if got := stderr.String(); got != "Error: [test.pg0]: Division by zero(2): a = 1 / 0;\n" {
		t.Fatalf("got %q", got)
	}
}

func TestReportIntercepted(t *testing.T) {
	type report struct {
		msg  string
		line int64
		args int
	}
	var reports []report
	stderr := new(bytes.Buffer)
	opts := Options{
		Extension: true,
		Stderr:    stderr,
		Natives: map[string]pg0vm.NativeFunc{
			"error": {
				Name: "error",
				Func: func(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
					r := report{
						msg:  args[0].String(),
						args: len(args),
					}
					if len(args) > 1 {
						r.line = args[1].ToInt()
					}
					reports = append(reports, r)
					return nil, nil
				},
			},
		},
	}

	_, _, err := run(t, "var a = 1 / 0;", opts)
	if !errors.Is(err, pg0vm.ErrDivZero) {
		t.Fatalf("got %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %+v", reports)
	}
	if reports[0].line != 1 || reports[0].msg != "Error: [test.pg0]: Division by zero(1): var a = 1 / 0;" {
		t.Fatalf("got %+v", reports[0])
	}
	if stderr.Len() != 0 {
		t.Fatalf("got %q", stderr.String())
	}

	reports = nil
	_, _, err = run(t, "var a = (1;", opts)
	if err == nil || len(reports) != 1 {
		t.Fatalf("got %v %+v", err, reports)
	}

	reports = nil
	opts.Report("other.pg0", pg0vm.NewError(pg0vm.ErrDivZero, nil, 0, ""))
	opts.Report("", errors.New("plain"))
	if len(reports) != 2 || reports[0].args != 1 || reports[1].msg != "plain" {
		t.Fatalf("got %+v", reports)
	}
}
