package pg0vm

import "strings"

type Scope struct {
	Parent *Scope
	Unit   *Unit
	// LineMode keeps the operand stack across LINEEND.
	LineMode bool

	vars  map[string]*Slot
	order []*Slot
	funcs map[string]callee
	incs  []*Value
	decs  []*Value
}

func NewScope(parent *Scope, unit *Unit) *Scope {
	return &Scope{
		Parent: parent,
		Unit:   unit,
		vars:   make(map[string]*Slot),
	}
}

// Root returns the outermost scope of the chain.
func (s *Scope) Root() *Scope {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}

func (s *Scope) Local(name string) *Slot {
	return s.vars[strings.ToLower(name)]
}

// Lookup walks the chain outward.
func (s *Scope) Lookup(name string) *Slot {
	key := strings.ToLower(name)
	for scope := s; scope != nil; scope = scope.Parent {
		if slot, ok := scope.vars[key]; ok {
			return slot
		}
	}
	return nil
}

// Declare adds a variable initialized to int 0.
// It returns the existing slot and false when the name is already declared in this scope.
func (s *Scope) Declare(name string) (*Slot, bool) {
	key := strings.ToLower(name)
	if slot, ok := s.vars[key]; ok {
		return slot, false
	}
	slot := &Slot{
		Name:  name,
		Value: NewInt(0),
	}
	s.vars[key] = slot
	s.order = append(s.order, slot)
	return slot, true
}

// Define declares or replaces name with a copy of v.
func (s *Scope) Define(name string, v *Value) *Slot {
	slot, _ := s.Declare(name)
	slot.Value.Set(v)
	return slot
}

// alias binds name to an existing value, for by-ref parameters.
func (s *Scope) alias(name string, v *Value) bool {
	key := strings.ToLower(name)
	if _, ok := s.vars[key]; ok {
		return false
	}
	slot := &Slot{
		Name:     name,
		Value:    v,
		Borrowed: true,
	}
	s.vars[key] = slot
	s.order = append(s.order, slot)
	return true
}

// Variables returns the visible bindings, innermost scope first, each scope in declaration order.
// Shadowed names are reported once.
func (s *Scope) Variables() []*Slot {
	var ret []*Slot
	seen := make(map[string]bool)
	for scope := s; scope != nil; scope = scope.Parent {
		for _, slot := range scope.order {
			key := strings.ToLower(slot.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			ret = append(ret, slot)
		}
	}
	return ret
}

func (s *Scope) queueInc(v *Value) {
	s.incs = append(s.incs, v)
}

func (s *Scope) queueDec(v *Value) {
	s.decs = append(s.decs, v)
}
