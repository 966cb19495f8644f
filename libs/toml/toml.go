// Package toml converts between TOML documents and keyed script arrays.
package toml

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/reusee/pg0/pg0vm"
)

func init() {
	pg0vm.RegisterLibrary("toml", New)
}

func New() (*pg0vm.Library, error) {
	return &pg0vm.Library{
		Name: "toml",
		Funcs: map[string]pg0vm.NativeFunc{
			"toml_decode": {Name: "toml_decode", Func: decode},
			"toml_encode": {Name: "toml_encode", Func: encode},
		},
	}, nil
}

func decode(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	text, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if _, err := toml.Decode(text.String(), &doc); err != nil {
		return nil, err
	}
	return fromTOML(doc), nil
}

func fromTOML(v any) *pg0vm.Value {
	switch v := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ret := pg0vm.NewArray()
		for _, k := range keys {
			ret.Array = append(ret.Array, &pg0vm.Slot{
				Name:  k,
				Value: fromTOML(v[k]),
			})
		}
		return ret
	case []map[string]any:
		ret := pg0vm.NewArray()
		for _, e := range v {
			ret.Array = append(ret.Array, &pg0vm.Slot{Value: fromTOML(e)})
		}
		return ret
	case []any:
		ret := pg0vm.NewArray()
		for _, e := range v {
			ret.Array = append(ret.Array, &pg0vm.Slot{Value: fromTOML(e)})
		}
		return ret
	case int64:
		return pg0vm.NewInt(v)
	case float64:
		return pg0vm.NewFloat(v)
	case string:
		return pg0vm.NewString(v)
	case bool:
		return pg0vm.NewBool(v)
	case time.Time:
		return pg0vm.NewString(v.Format(time.RFC3339Nano))
	}
	return pg0vm.NewString(fmt.Sprint(v))
}

func encode(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if v.Type != pg0vm.TypeArray {
		return nil, fmt.Errorf("toml_encode: array expected, got %s", v.Type)
	}
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(toTable(v)); err != nil {
		return nil, err
	}
	return pg0vm.NewString(buf.String()), nil
}

// toTable keys named elements by name and unnamed ones by _N, N being the element index.
func toTable(v *pg0vm.Value) map[string]any {
	ret := make(map[string]any, len(v.Array))
	for i, s := range v.Array {
		key := s.Name
		if key == "" {
			key = "_" + strconv.Itoa(i)
		}
		ret[key] = toTOML(s.Value)
	}
	return ret
}

func toTOML(v *pg0vm.Value) any {
	switch v.Type {
	case pg0vm.TypeFloat:
		return v.Float
	case pg0vm.TypeString:
		return v.Str
	case pg0vm.TypeArray:
		for _, s := range v.Array {
			if s.Name != "" {
				return toTable(v)
			}
		}
		list := make([]any, 0, len(v.Array))
		for _, s := range v.Array {
			list = append(list, toTOML(s.Value))
		}
		return list
	}
	return v.Int
}
