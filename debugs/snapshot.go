package debugs

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/reusee/pg0/pg0vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("debugs: cbor enc mode: %w", err))
	}
	cborEncMode = em
}

// Snapshot is the state of the visible variables at one point of a run.
type Snapshot struct {
	Unit string `cbor:"1,keyasint"`
	Line int    `cbor:"2,keyasint,omitempty"`
	Vars []Var  `cbor:"3,keyasint,omitempty"`
}

// Var is a lossless copy of one script value and its name.
type Var struct {
	Name  string  `cbor:"1,keyasint,omitempty"`
	Type  string  `cbor:"2,keyasint"`
	Int   int64   `cbor:"3,keyasint,omitempty"`
	Float float64 `cbor:"4,keyasint,omitempty"`
	Str   string  `cbor:"5,keyasint,omitempty"`
	Elems []Var   `cbor:"6,keyasint,omitempty"`
}

func NewVar(name string, v *pg0vm.Value) Var {
	ret := Var{
		Name: name,
		Type: v.Type.String(),
	}
	switch v.Type {
	case pg0vm.TypeInt:
		ret.Int = v.Int
	case pg0vm.TypeFloat:
		ret.Float = v.Float
	case pg0vm.TypeString:
		ret.Str = v.Str
	case pg0vm.TypeArray:
		for _, s := range v.Array {
			ret.Elems = append(ret.Elems, NewVar(s.Name, s.Value))
		}
	}
	return ret
}

// TakeSnapshot copies every variable visible from scope.
func TakeSnapshot(scope *pg0vm.Scope, line int) Snapshot {
	snapshot := Snapshot{
		Line: line,
	}
	if scope.Unit != nil {
		snapshot.Unit = scope.Unit.Name
	}
	for _, slot := range scope.Variables() {
		snapshot.Vars = append(snapshot.Vars, NewVar(slot.Name, slot.Value))
	}
	return snapshot
}

// Native converts v to plain Go values: int64, float64, string, []any,
// or map[string]any for arrays whose elements are all named.
func (v Var) Native() any {
	switch v.Type {
	case "float":
		return v.Float
	case "string":
		return v.Str
	case "array":
		named := len(v.Elems) > 0
		for _, e := range v.Elems {
			if e.Name == "" {
				named = false
				break
			}
		}
		if named {
			m := make(map[string]any, len(v.Elems))
			for _, e := range v.Elems {
				m[e.Name] = e.Native()
			}
			return m
		}
		list := make([]any, 0, len(v.Elems))
		for _, e := range v.Elems {
			list = append(list, e.Native())
		}
		return list
	}
	return v.Int
}

// Globals maps variable names to their Native values.
func (s Snapshot) Globals() map[string]any {
	ret := make(map[string]any, len(s.Vars))
	for _, v := range s.Vars {
		ret[v.Name] = v.Native()
	}
	return ret
}

func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("debugs: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

func WriteSnapshot(w io.Writer, s Snapshot) error {
	return cborEncMode.NewEncoder(w).Encode(s)
}
