// Package sample is a small native library demonstrating the function ABI.
package sample

import (
	"strings"

	"github.com/reusee/pg0/pg0vm"
)

func init() {
	pg0vm.RegisterLibrary("sample", New)
}

func New() (*pg0vm.Library, error) {
	return &pg0vm.Library{
		Name: "sample",
		Funcs: map[string]pg0vm.NativeFunc{
			"sum":     {Name: "sum", Func: sum},
			"tolower": {Name: "tolower", Func: mapASCII('A', 'Z', 'a'-'A')},
			"toupper": {Name: "toupper", Func: mapASCII('a', 'z', 'A'-'a')},
		},
	}, nil
}

// sum adds two ints; any other operand types give 0.
func sum(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	if len(args) < 2 {
		return nil, pg0vm.ErrArgumentCount
	}
	a, b := args[0], args[1]
	if a.Type != pg0vm.TypeInt || b.Type != pg0vm.TypeInt {
		return pg0vm.NewInt(0), nil
	}
	return pg0vm.NewInt(a.Int + b.Int), nil
}

func mapASCII(lo, hi rune, delta rune) func(*pg0vm.Context, []*pg0vm.Value) (*pg0vm.Value, error) {
	return func(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
		v, err := ctx.Arg(args, 0)
		if err != nil {
			return nil, err
		}
		if v.Type != pg0vm.TypeString {
			return pg0vm.NewInt(0), nil
		}
		return pg0vm.NewString(strings.Map(func(r rune) rune {
			if r >= lo && r <= hi {
				return r + delta
			}
			return r
		}, v.Str)), nil
	}
}
