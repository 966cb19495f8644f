package pg0vm

import "strings"

// callee is a resolved function, cached per scope.
type callee struct {
	decl   *FuncDecl
	unit   *Unit
	parent *Scope
	native *NativeFunc
}

// resolve looks a function up in the scope cache, the scope's unit, the sibling units,
// the attached libraries, then the host builtins.
func resolve(scope *Scope, name string) (callee, bool) {
	key := strings.ToLower(name)
	if c, ok := scope.funcs[key]; ok {
		return c, true
	}
	c, ok := lookupCallee(scope, key)
	if !ok {
		return c, false
	}
	if scope.funcs == nil {
		scope.funcs = make(map[string]callee)
	}
	scope.funcs[key] = c
	return c, true
}

func lookupCallee(scope *Scope, key string) (callee, bool) {
	unit := scope.Unit
	if decl := unit.Program.Func(key); decl != nil {
		return callee{
			decl:   decl,
			unit:   unit,
			parent: scope,
		}, true
	}
	for _, u := range unit.Units() {
		if u.Program == nil {
			continue
		}
		if decl := u.Program.Func(key); decl != nil {
			return callee{
				decl:   decl,
				unit:   u,
				parent: u.Scope,
			}, true
		}
	}
	for _, lib := range unit.Libraries() {
		if fn, ok := lib.Func(key); ok {
			return callee{
				native: &fn,
			}, true
		}
	}
	if fn, ok := unit.Host.Builtins[key]; ok {
		return callee{
			native: &fn,
		}, true
	}
	return callee{}, false
}

// call invokes a function by name. A StatusExit result means the callee ran exit.
func call(scope *Scope, name string, args []*Value, line int) (*Value, Status, error) {
	c, ok := resolve(scope, name)
	if !ok {
		return nil, 0, NewError(ErrFunction, scope.Unit, line, "")
	}
	if c.native != nil {
		ctx := &Context{
			Scope: scope,
			Unit:  scope.Unit,
			Host:  scope.Unit.Host,
			Line:  line,
		}
		v, err := c.native.call(ctx, args)
		if err != nil {
			return nil, 0, err
		}
		return v, StatusSuccess, nil
	}
	return callUser(c, args)
}

// Call invokes a script or native function visible from scope.
func Call(scope *Scope, name string, args ...*Value) (*Value, error) {
	v, _, err := call(scope, name, args, 0)
	return v, err
}

func callUser(c callee, args []*Value) (*Value, Status, error) {
	unit := c.unit
	var parent *Scope
	if c.parent != nil {
		parent = c.parent.Root()
	}
	scope := NewScope(parent, unit)

	insts := unit.Program.Blocks[c.decl.Block]
	start := c.decl.Index + 1
	body := start
	for body < len(insts) && !(insts[body].Op == OpCall && insts[body].Target >= 0) {
		body++
	}
	if body >= len(insts) {
		return nil, 0, NewError(ErrSentence, unit, insts[c.decl.Index].Line, "")
	}

	if err := expandArguments(scope, insts, c.decl.Block, start, body, args); err != nil {
		return nil, 0, err
	}

	res, err := run(scope, insts[body].Target, 0, -1, false)
	if err != nil {
		return nil, 0, err
	}
	switch res.Status {
	case StatusBreak, StatusContinue:
		return nil, 0, NewError(ErrSentence, unit, res.Line, "")
	}
	v := res.Value
	if v == nil {
		v = NewInt(0)
	}
	if res.Status == StatusExit {
		return v, StatusExit, nil
	}
	return v, StatusSuccess, nil
}

// expandArguments binds call arguments to the parameter declarations in [start, end),
// then evaluates the declarations left unbound, which must all carry defaults.
func expandArguments(scope *Scope, insts []Instruction, block int, start int, end int, args []*Value) error {
	unit := scope.Unit
	i := start
	for i < end && len(args) > 0 {
		inst := insts[i]
		if inst.Op != OpDeclVar {
			return NewError(ErrSentence, unit, inst.Line, "")
		}
		if name, ok := strings.CutPrefix(inst.Text, "&"); ok {
			if !scope.alias(name, args[0]) {
				return NewError(ErrDeclared, unit, inst.Line, name)
			}
		} else {
			slot, ok := scope.Declare(inst.Text)
			if !ok {
				return NewError(ErrDeclared, unit, inst.Line, inst.Text)
			}
			slot.Value.Set(args[0])
		}
		args = args[1:]
		for i < end && insts[i].Op != OpWordEnd {
			i++
		}
		if i < end {
			i++
		}
	}
	if i >= end {
		return nil
	}

	if _, err := run(scope, block, i, end, false); err != nil {
		return err
	}

	assigned := false
	depth := 0
	for ; i < end; i++ {
		switch insts[i].Op {
		case OpArgStart:
			depth++
		case OpCall:
			depth--
		case OpAssign:
			if depth == 0 {
				assigned = true
			}
		case OpWordEnd:
			if depth > 0 {
				break
			}
			if !assigned {
				return NewError(ErrArgumentCount, unit, insts[i].Line, "")
			}
			assigned = false
		}
	}
	if !assigned {
		return NewError(ErrArgumentCount, unit, insts[end].Line, "")
	}
	return nil
}
