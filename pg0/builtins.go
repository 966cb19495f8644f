package pg0

import (
	"fmt"
	"io"
	"strings"

	"github.com/reusee/pg0/pg0vm"
	"github.com/samber/lo"
)

// Builtins returns a fresh set of the standard functions, keyed by lowercase name.
func Builtins() map[string]pg0vm.NativeFunc {
	fns := []pg0vm.NativeFunc{
		{Name: "istype", Func: builtinIsType},
		{Name: "length", Func: builtinLength},
		{Name: "array", Func: builtinArray},
		{Name: "string", Func: builtinString},
		{Name: "number", Func: builtinNumber},
		{Name: "int", Func: builtinInt},
		{Name: "code", Func: builtinCode},
		{Name: "char", Func: builtinChar},
		{Name: "getkey", Func: builtinGetKey},
		{Name: "setkey", Func: builtinSetKey},
		{Name: "print", Func: builtinPrint},
		{Name: "input", Func: builtinInput},
		{Name: "error", Func: builtinError},
	}
	return lo.SliceToMap(fns, func(fn pg0vm.NativeFunc) (string, pg0vm.NativeFunc) {
		return fn.Name, fn
	})
}

// joinArray concatenates the stringified scalar elements of v.
func joinArray(v *pg0vm.Value) string {
	var b strings.Builder
	for _, s := range v.Array {
		if s.Value.Type == pg0vm.TypeArray {
			continue
		}
		b.WriteString(s.Value.String())
	}
	return b.String()
}

// text renders v the way string() does.
func text(v *pg0vm.Value) string {
	if v.Type == pg0vm.TypeArray {
		return joinArray(v)
	}
	return v.String()
}

func builtinIsType(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	return pg0vm.NewInt(int64(v.Type)), nil
}

func builtinLength(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case pg0vm.TypeArray:
		return pg0vm.NewInt(int64(v.Len())), nil
	case pg0vm.TypeString:
		return pg0vm.NewInt(int64(len([]rune(v.Str)))), nil
	}
	return pg0vm.NewInt(int64(len([]rune(v.String())))), nil
}

func splitChars(s string) *pg0vm.Value {
	return pg0vm.NewArray(lo.Map([]rune(s), func(r rune, _ int) *pg0vm.Slot {
		return &pg0vm.Slot{Value: pg0vm.NewString(string(r))}
	})...)
}

func builtinArray(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if v.Type == pg0vm.TypeArray {
		return v.Copy(), nil
	}
	return splitChars(v.String()), nil
}

func builtinString(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	return pg0vm.NewString(text(v)), nil
}

func builtinNumber(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case pg0vm.TypeInt, pg0vm.TypeFloat:
		return v.Copy(), nil
	}
	s := text(v)
	if strings.Contains(s, ".") {
		return pg0vm.NewFloat(pg0vm.Atof(s)), nil
	}
	return pg0vm.NewInt(pg0vm.Atoi(s)), nil
}

func builtinInt(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case pg0vm.TypeString, pg0vm.TypeArray:
		return pg0vm.NewInt(pg0vm.Atoi(text(v))), nil
	}
	return pg0vm.NewInt(v.ToInt()), nil
}

// index reads an optional position argument; strings are parsed as decimal.
func index(v *pg0vm.Value) int64 {
	if v.Type == pg0vm.TypeString {
		return pg0vm.Atoi(v.Str)
	}
	return v.ToInt()
}

func builtinCode(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	runes := []rune(v.String())
	var i int64
	if len(args) > 1 {
		i = max(index(args[1]), 0)
	}
	if i >= int64(len(runes)) {
		return pg0vm.NewInt(0), nil
	}
	return pg0vm.NewInt(int64(runes[i])), nil
}

func builtinChar(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	code := index(v)
	if code <= 0 {
		return pg0vm.NewString(""), nil
	}
	return pg0vm.NewString(string(rune(code))), nil
}

func builtinGetKey(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	if len(args) < 2 {
		return nil, pg0vm.ErrArgumentCount
	}
	a := args[0]
	if a.Type != pg0vm.TypeArray {
		return pg0vm.NewString(""), nil
	}
	i := index(args[1])
	if i < 0 || i >= int64(a.Len()) {
		return pg0vm.NewString(""), nil
	}
	return pg0vm.NewString(a.Array[i].Name), nil
}

func builtinSetKey(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	a, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if a.Type != pg0vm.TypeArray {
		return pg0vm.NewInt(0), nil
	}
	if len(args) < 3 {
		return nil, pg0vm.ErrArgumentCount
	}
	slot, err := a.Index(index(args[1]))
	if err != nil {
		return nil, pg0vm.ErrIndex
	}
	key := args[2]
	if key.Type == pg0vm.TypeString && key.Str != "" {
		slot.Name = key.Str
	} else {
		slot.Name = ""
	}
	return pg0vm.NewInt(0), nil
}

func builtinPrint(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	out := v.String()
	if v.Type == pg0vm.TypeArray {
		out = v.Display(ctx.Host.Hex)
	}
	if _, err := io.WriteString(ctx.Stdout(), out); err != nil {
		return nil, err
	}
	return pg0vm.NewInt(0), nil
}

func builtinInput(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	host := ctx.Host
	if host.Stdin == nil {
		return pg0vm.NewString(""), nil
	}
	line, ok, err := host.Stdin.ReadLine(host.Context)
	if !ok {
		return pg0vm.NewString(""), nil
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("input: %w", err)
	}
	return pg0vm.NewString(strings.TrimRight(line, "\r\n")), nil
}

func builtinError(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	msg := v.String()
	if v.Type == pg0vm.TypeArray {
		msg = v.Display(ctx.Host.Hex)
	}
	if len(args) > 1 {
		ctx.Logger().Debug("script error",
			"line", args[1].ToInt(),
		)
	}
	if _, err := fmt.Fprintln(ctx.Stderr(), msg); err != nil {
		return nil, err
	}
	return pg0vm.NewInt(0), nil
}
