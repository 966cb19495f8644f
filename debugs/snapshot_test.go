package debugs

import (
	"bytes"
	"testing"

	"github.com/reusee/pg0/pg0vm"
)

func TestSnapshot(t *testing.T) {
	unit := runWithCallback(t, `
var n = 3
var s = "text"
var f = 1.5
var a = {"x": 1, {2, 3}}
`, nil)

	snapshot := TakeSnapshot(unit.Scope, 0)
	if snapshot.Unit != "test.pg0" {
		t.Fatalf("got %v", snapshot.Unit)
	}
	if len(snapshot.Vars) != 4 {
		t.Fatalf("got %+v", snapshot.Vars)
	}

	data, err := MarshalSnapshot(snapshot)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}

	globals := decoded.Globals()
	if globals["n"] != int64(3) {
		t.Fatalf("got %#v", globals["n"])
	}
	if globals["s"] != "text" {
		t.Fatalf("got %#v", globals["s"])
	}
	if globals["f"] != 1.5 {
		t.Fatalf("got %#v", globals["f"])
	}

	a := decoded.Vars[3]
	if a.Name != "a" || a.Type != "array" || len(a.Elems) != 2 {
		t.Fatalf("got %+v", a)
	}
	if a.Elems[0].Name != "x" || a.Elems[0].Int != 1 {
		t.Fatalf("got %+v", a.Elems[0])
	}
	if nested := a.Elems[1]; nested.Type != "array" || len(nested.Elems) != 2 || nested.Elems[1].Int != 3 {
		t.Fatalf("got %+v", nested)
	}

	buf := new(bytes.Buffer)
	if err := WriteSnapshot(buf, snapshot); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Fatal("encoder output differs")
	}
}

func TestNewVar(t *testing.T) {
	v := NewVar("x", pg0vm.NewArray())
	if v.Type != "array" || v.Native() == nil {
		t.Fatalf("got %+v", v)
	}
	if list, ok := v.Native().([]any); !ok || len(list) != 0 {
		t.Fatalf("got %#v", v.Native())
	}
}
