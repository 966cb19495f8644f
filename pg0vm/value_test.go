package pg0vm

import (
	"errors"
	"testing"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		value *Value
		want  bool
	}{
		{NewInt(0), false},
		{NewInt(-1), true},
		{NewFloat(0), false},
		{NewFloat(0.5), true},
		{NewString(""), false},
		{NewString("0"), true},
		{NewArray(), false},
		{NewArray(&Slot{Value: NewInt(0)}), true},
	}
	for _, test := range tests {
		if got := test.value.Truthy(); got != test.want {
			t.Errorf("%v %q: got %v", test.value.Type, test.value.String(), got)
		}
	}
}

func TestSetDeepCopies(t *testing.T) {
	src := NewArray(
		&Slot{Name: "a", Value: NewInt(1)},
		&Slot{Value: NewArray(&Slot{Value: NewString("x")})},
	)
	dst := NewInt(0)
	alias := dst
	dst.Set(src)
	src.Array[0].Value.Int = 42
	src.Array[1].Value.Array[0].Value.Str = "y"
	if alias.Type != TypeArray {
		t.Fatalf("got %v", alias.Type)
	}
	if alias.Array[0].Value.Int != 1 {
		t.Fatalf("got %d", alias.Array[0].Value.Int)
	}
	if alias.Array[0].Name != "a" {
		t.Fatalf("got %q", alias.Array[0].Name)
	}
	if alias.Array[1].Value.Array[0].Value.Str != "x" {
		t.Fatal("nested array shared")
	}
}

func TestSetCollapsesWholeFloat(t *testing.T) {
	v := NewInt(0)
	v.Set(NewFloat(3))
	if v.Type != TypeInt || v.Int != 3 {
		t.Fatalf("got %v %d", v.Type, v.Int)
	}
	v.Set(NewFloat(3.5))
	if v.Type != TypeFloat || v.Float != 3.5 {
		t.Fatalf("got %v %v", v.Type, v.Float)
	}
}

func TestIndexExtends(t *testing.T) {
	v := NewString("abc")
	slot, err := v.Index(2)
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != TypeArray || v.Len() != 3 {
		t.Fatalf("got %v len %d", v.Type, v.Len())
	}
	slot.Value.Set(NewInt(7))
	if v.Array[2].Value.Int != 7 {
		t.Fatal("element not aliased")
	}
	if _, err := v.Index(-1); !errors.Is(err, ErrIndex) {
		t.Fatalf("got %v", err)
	}
}

func TestKeyCaseInsensitive(t *testing.T) {
	v := NewArray()
	a := v.Key("Name")
	a.Value.Set(NewString("x"))
	b := v.Key("NAME")
	if a != b {
		t.Fatal("expected same slot")
	}
	if v.Len() != 1 {
		t.Fatalf("got %d", v.Len())
	}
	if v.Array[0].Name != "Name" {
		t.Fatalf("got %q", v.Array[0].Name)
	}
	if v.Lookup("name") == nil {
		t.Fatal("lookup failed")
	}
	if v.Lookup("other") != nil {
		t.Fatal("unexpected element")
	}
}

func TestElement(t *testing.T) {
	v := NewInt(5)
	s, err := v.Element(NewFloat(1.9))
	if err != nil {
		t.Fatal(err)
	}
	if v.Len() != 2 || s != v.Array[1] {
		t.Fatal("bad index")
	}
	s, err = v.Element(NewString("k"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "k" || v.Len() != 3 {
		t.Fatal("bad key")
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		value *Value
		hex   bool
		want  string
	}{
		{NewInt(255), false, "255"},
		{NewInt(255), true, "0xFF"},
		{NewInt(-1), true, "0xFFFFFFFF"},
		{NewFloat(1.5), false, "1.5000000000000000"},
		{NewString("a\"b"), false, "a\"b"},
		{NewArray(&Slot{Value: NewInt(1)}, &Slot{Name: "k", Value: NewString("v")}), false, `{1,"k":"v"}`},
	}
	for _, test := range tests {
		if got := test.value.Display(test.hex); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}
