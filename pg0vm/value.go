package pg0vm

import (
	"math"
	"strconv"
	"strings"
)

type Type int

const (
	TypeInt Type = iota
	TypeFloat
	TypeString
	TypeArray
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	}
	return "unknown"
}

type Value struct {
	Type  Type
	Int   int64
	Float float64
	Str   string
	Array []*Slot
}

// Slot holds one named or anonymous value.
// A borrowed slot aliases a value owned by a variable or an array element.
type Slot struct {
	Name     string
	Value    *Value
	Borrowed bool
}

func NewInt(i int64) *Value {
	return &Value{Type: TypeInt, Int: i}
}

func NewFloat(f float64) *Value {
	return &Value{Type: TypeFloat, Float: f}
}

// NewNumber returns an int when f has no fractional part.
func NewNumber(f float64) *Value {
	if isWhole(f) {
		return NewInt(int64(f))
	}
	return NewFloat(f)
}

func NewString(s string) *Value {
	return &Value{Type: TypeString, Str: s}
}

func NewArray(elems ...*Slot) *Value {
	return &Value{Type: TypeArray, Array: elems}
}

func NewBool(b bool) *Value {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

func isWhole(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64
}

func (v *Value) Copy() *Value {
	ret := *v
	if v.Type == TypeArray {
		ret.Array = copySlots(v.Array)
	}
	return &ret
}

func copySlots(slots []*Slot) []*Slot {
	if len(slots) == 0 {
		return nil
	}
	ret := make([]*Slot, 0, len(slots))
	for _, s := range slots {
		ret = append(ret, &Slot{
			Name:  s.Name,
			Value: s.Value.Copy(),
		})
	}
	return ret
}

// Set replaces v with a deep copy of src in place, so every alias of v observes it.
func (v *Value) Set(src *Value) {
	cp := src.Copy()
	if cp.Type == TypeFloat && isWhole(cp.Float) {
		cp = NewInt(int64(cp.Float))
	}
	*v = *cp
}

func (v *Value) Truthy() bool {
	switch v.Type {
	case TypeString:
		return v.Str != ""
	case TypeFloat:
		return v.Float != 0
	case TypeArray:
		return len(v.Array) > 0
	}
	return v.Int != 0
}

func (v *Value) ToInt() int64 {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		return int64(v.Float)
	}
	return 0
}

func (v *Value) ToFloat() float64 {
	switch v.Type {
	case TypeInt:
		return float64(v.Int)
	case TypeFloat:
		return v.Float
	}
	return 0
}

// String converts scalars to text; arrays become the empty string.
func (v *Value) String() string {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeFloat:
		return FormatFloat(v.Float)
	case TypeArray:
		return ""
	}
	return strconv.FormatInt(v.Int, 10)
}

// Display renders any value for output, arrays included.
func (v *Value) Display(hex bool) string {
	switch v.Type {
	case TypeArray:
		return FormatArray(v.Array, hex)
	case TypeInt:
		return FormatInt(v.Int, hex)
	}
	return v.String()
}

func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 16, 64)
}

func FormatInt(i int64, hex bool) string {
	if !hex {
		return strconv.FormatInt(i, 10)
	}
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return "0x" + strings.ToUpper(strconv.FormatUint(uint64(uint32(i)), 16))
	}
	return "0x" + strings.ToUpper(strconv.FormatUint(uint64(i), 16))
}

func (v *Value) Len() int {
	return len(v.Array)
}

func (s *Slot) Is(name string) bool {
	return s.Name != "" && strings.EqualFold(s.Name, name)
}

// Index returns the element at i, extending the array with int zeros as needed.
// A non-array value is replaced by an empty array first.
func (v *Value) Index(i int64) (*Slot, error) {
	if i < 0 {
		return nil, ErrIndex
	}
	if v.Type != TypeArray {
		*v = Value{Type: TypeArray}
	}
	for int64(len(v.Array)) <= i {
		v.Array = append(v.Array, &Slot{Value: NewInt(0)})
	}
	return v.Array[i], nil
}

// Key returns the element named key, appending one when missing.
func (v *Value) Key(key string) *Slot {
	if v.Type != TypeArray {
		*v = Value{Type: TypeArray}
	}
	lower := strings.ToLower(key)
	for _, s := range v.Array {
		if s.Name != "" && strings.ToLower(s.Name) == lower {
			return s
		}
	}
	s := &Slot{
		Name:  key,
		Value: NewInt(0),
	}
	v.Array = append(v.Array, s)
	return s
}

// Element resolves an index or key operand against v.
func (v *Value) Element(key *Value) (*Slot, error) {
	if key.Type != TypeString {
		return v.Index(key.ToInt())
	}
	return v.Key(key.Str), nil
}

// Lookup finds an element by name without modifying v.
func (v *Value) Lookup(name string) *Slot {
	if v.Type != TypeArray {
		return nil
	}
	for _, s := range v.Array {
		if s.Is(name) {
			return s
		}
	}
	return nil
}
