package debugs

import (
	"testing"

	"github.com/reusee/pg0/pg0vm"
	"go.starlark.net/starlark"
)

func TestToStarlarkValue(t *testing.T) {
	keyed := pg0vm.NewArray(
		&pg0vm.Slot{Name: "a", Value: pg0vm.NewInt(1)},
		&pg0vm.Slot{Name: "b", Value: pg0vm.NewString("c")},
	)
	mixed := pg0vm.NewArray(
		&pg0vm.Slot{Value: pg0vm.NewInt(1)},
		&pg0vm.Slot{Name: "x", Value: pg0vm.NewFloat(1.5)},
	)

	testCases := []struct {
		name     string
		input    any
		expected starlark.Value
	}{
		{"nil", nil, starlark.None},
		{"bool", true, starlark.True},
		{"string", "hello", starlark.String("hello")},
		{"int", 42, starlark.MakeInt(42)},
		{"int64", int64(42), starlark.MakeInt64(42)},
		{"float64", 3.14, starlark.Float(3.14)},
		{"int value", pg0vm.NewInt(7), starlark.MakeInt64(7)},
		{"string value", pg0vm.NewString("s"), starlark.String("s")},
		{"keyed array", keyed, func() starlark.Value {
			d := starlark.NewDict(2)
			d.SetKey(starlark.String("a"), starlark.MakeInt64(1))
			d.SetKey(starlark.String("b"), starlark.String("c"))
			return d
		}()},
		{"mixed array", mixed, starlark.NewList([]starlark.Value{
			starlark.MakeInt64(1),
			starlark.Float(1.5),
		})},
		{"var", Var{Type: "string", Str: "v"}, starlark.String("v")},
		{"[]any", []any{int64(1), "a"}, starlark.NewList([]starlark.Value{
			starlark.MakeInt64(1),
			starlark.String("a"),
		})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := toStarlarkValue(tc.input)
			equal, err := starlark.Equal(actual, tc.expected)
			if err != nil {
				t.Fatalf("comparison failed: %v", err)
			}
			if !equal {
				t.Errorf("toStarlarkValue(%#v) = %v, want %v", tc.input, actual, tc.expected)
			}
		})
	}

	t.Run("func", func(t *testing.T) {
		v := toStarlarkValue(func(s string) string { return s })
		if v == nil || v == starlark.None {
			t.Fatalf("got %v", v)
		}
	})

	t.Run("panic on unsupported type", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("toStarlarkValue did not panic on unsupported type")
			}
		}()
		toStarlarkValue(make(chan bool))
	})
}
