package toml

import (
	"strings"
	"testing"

	"github.com/reusee/pg0/pg0vm"
)

func call(t *testing.T, name string, args ...*pg0vm.Value) (*pg0vm.Value, error) {
	t.Helper()
	lib, err := pg0vm.OpenLibrary("toml")
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := lib.Func(name)
	if !ok {
		t.Fatalf("%s not found", name)
	}
	return fn.Func(&pg0vm.Context{Host: new(pg0vm.Host)}, args)
}

func TestDecode(t *testing.T) {
	ret, err := call(t, "toml_decode", pg0vm.NewString(`
title = "doc"
count = 3
ratio = 0.25
ok = true

[server]
ports = [80, 443]

[[items]]
name = "a"
`))
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"count":3,"items":{{"name":"a"}},"ok":1,"ratio":0.2500000000000000,"server":{"ports":{80,443}},"title":"doc"}`
	if got := ret.Display(false); got != expected {
		t.Fatalf("got %s", got)
	}
}

func TestDecodeError(t *testing.T) {
	if _, err := call(t, "toml_decode", pg0vm.NewString("a = ")); err == nil {
		t.Fatal("expected error")
	}
}

func TestEncode(t *testing.T) {
	v := pg0vm.NewArray(
		&pg0vm.Slot{Name: "name", Value: pg0vm.NewString("x")},
		&pg0vm.Slot{Value: pg0vm.NewInt(7)},
		&pg0vm.Slot{Name: "list", Value: pg0vm.NewArray(
			&pg0vm.Slot{Value: pg0vm.NewInt(1)},
			&pg0vm.Slot{Value: pg0vm.NewInt(2)},
		)},
	)
	ret, err := call(t, "toml_encode", v)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`name = "x"`,
		`_1 = 7`,
		`list = [1, 2]`,
	} {
		if !strings.Contains(ret.Str, want) {
			t.Fatalf("missing %q in %s", want, ret.Str)
		}
	}

	back, err := call(t, "toml_decode", ret)
	if err != nil {
		t.Fatal(err)
	}
	if got := back.Display(false); got != `{"_1":7,"list":{1,2},"name":"x"}` {
		t.Fatalf("got %s", got)
	}
}

func TestEncodeNonArray(t *testing.T) {
	if _, err := call(t, "toml_encode", pg0vm.NewInt(1)); err == nil {
		t.Fatal("expected error")
	}
}
