package pg0vm

import "strings"

type Status int

const (
	StatusSuccess Status = iota
	StatusBreak
	StatusContinue
	StatusReturn
	StatusExit
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBreak:
		return "break"
	case StatusContinue:
		return "continue"
	case StatusReturn:
		return "return"
	case StatusExit:
		return "exit"
	}
	return "unknown"
}

type result struct {
	Status Status
	// Value is the operand of return or exit.
	Value *Value
	// Stack is the remaining operand stack, collected only when requested.
	Stack []*Slot
	// Line is the line of the last executed instruction.
	Line int
}

type machine struct {
	scope     *Scope
	unit      *Unit
	host      *Host
	insts     []Instruction
	stack     []*Slot
	wantStack bool
	ret       *Value
	line      int
}

// run executes instructions [from, to) of a block in scope.
func run(scope *Scope, block int, from int, to int, wantStack bool) (res result, err error) {
	unit := scope.Unit
	insts := unit.Program.Blocks[block]
	if to < 0 || to > len(insts) {
		to = len(insts)
	}
	m := &machine{
		scope:     scope,
		unit:      unit,
		host:      unit.Host,
		insts:     insts,
		wantStack: wantStack,
	}
	status, err := m.exec(from, to)
	if err != nil {
		return
	}
	if e := scope.flushPostfix(); e != nil {
		err = m.fail(e, m.line)
		return
	}
	res = result{
		Status: status,
		Value:  m.ret,
		Line:   m.line,
	}
	if wantStack {
		res.Stack = m.stack
	}
	return
}

func (m *machine) push(s *Slot) {
	m.stack = append(m.stack, s)
}

func (m *machine) pushValue(v *Value) {
	m.stack = append(m.stack, &Slot{Value: v})
}

func (m *machine) pop() *Slot {
	s := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return s
}

// operands checks that n non-sentinel values are on the stack.
func (m *machine) operands(n int) bool {
	if len(m.stack) < n {
		return false
	}
	for _, s := range m.stack[len(m.stack)-n:] {
		if s == nil {
			return false
		}
	}
	return true
}

func (m *machine) fail(err error, line int) error {
	if kind, ok := err.(ErrorKind); ok {
		return NewError(kind, m.unit, line, "")
	}
	return err
}

func (m *machine) syntaxError(inst *Instruction) error {
	return NewError(ErrSentence, m.unit, inst.Line, "")
}

func (m *machine) notify(inst *Instruction) bool {
	if m.host.Cancelled() {
		return false
	}
	if m.host.Trace {
		m.host.logger().Debug("exec",
			"unit", m.unit.Name,
			"line", inst.Line,
			"inst", inst.String(),
		)
	}
	if m.host.Callback != nil {
		return m.host.Callback(m.scope, inst)
	}
	return true
}

func (m *machine) exec(from int, to int) (Status, error) {
	insts := m.insts
	for pc := from; pc < to; pc++ {
		inst := &insts[pc]
		m.line = inst.Line
		if !m.notify(inst) {
			return StatusExit, nil
		}

		switch inst.Op {

		case OpBlockOpen, OpArrayLiteral:
			if err := m.scope.flushPostfix(); err != nil {
				return 0, m.fail(err, inst.Line)
			}
			child := NewScope(m.scope, m.unit)
			res, err := run(child, inst.Target, 0, -1, true)
			if err != nil {
				return 0, err
			}
			if inst.Op == OpArrayLiteral {
				elems := make([]*Slot, 0, len(res.Stack))
				for _, s := range res.Stack {
					if s == nil {
						continue
					}
					elems = append(elems, &Slot{
						Name:  s.Name,
						Value: s.Value.Copy(),
					})
				}
				m.pushValue(NewArray(elems...))
			}
			if res.Status != StatusSuccess {
				if res.Value != nil {
					m.ret = res.Value
				}
				return res.Status, nil
			}

		case OpBlockClose, OpLanding, OpCmpStart, OpElse, OpCmpEnd, OpLoopStart, OpLoopEnd, OpFuncStart, OpFuncEnd:

		case OpLineEnd:
			if err := m.scope.flushPostfix(); err != nil {
				return 0, m.fail(err, inst.Line)
			}
			if !m.scope.LineMode {
				m.stack = m.stack[:0]
			}

		case OpLineSep:
			if err := m.scope.flushPostfix(); err != nil {
				return 0, m.fail(err, inst.Line)
			}
			m.stack = m.stack[:0]

		case OpWordEnd:
			if len(m.stack) == 0 {
				m.pushValue(NewInt(0))
			}
			if pc+1 < len(insts) && insts[pc+1].Op == OpWordEnd {
				m.pushValue(NewInt(0))
			}

		case OpJump:
			pc = inst.Link
			if !m.notify(&insts[pc]) {
				return StatusExit, nil
			}

		case OpJumpZero, OpJumpNonZero:
			if !m.operands(1) {
				return 0, m.syntaxError(inst)
			}
			cond := m.stack[len(m.stack)-1].Value.Truthy()
			if (inst.Op == OpJumpZero && !cond) || (inst.Op == OpJumpNonZero && cond) {
				m.stack[len(m.stack)-1] = &Slot{Value: NewBool(cond)}
				pc = inst.Link
				if !m.notify(&insts[pc]) {
					return StatusExit, nil
				}
			}

		case OpReturn, OpExit:
			if len(m.stack) > 0 && m.stack[len(m.stack)-1] != nil {
				v := NewInt(0)
				v.Set(m.pop().Value)
				m.ret = v
			}
			if inst.Op == OpExit {
				return StatusExit, nil
			}
			return StatusReturn, nil

		case OpBreak:
			return StatusBreak, nil

		case OpContinue:
			return StatusContinue, nil

		case OpCase, OpDefault:
			for pc+1 < len(insts) && insts[pc].Op != OpLabelEnd {
				pc++
			}

		case OpCmp:
			if !m.operands(1) {
				pc++
				break
			}
			if m.pop().Value.Truthy() {
				pc++
			}

		case OpSwitch:
			if !m.operands(1) {
				return 0, m.syntaxError(inst)
			}
			selector := m.pop().Value
			pc++
			if pc >= len(insts) {
				return 0, m.syntaxError(inst)
			}
			body := insts[pc].Target
			start, ok, err := m.findCase(body, selector)
			if err != nil {
				return 0, err
			}
			if !ok {
				break
			}
			child := NewScope(m.scope, m.unit)
			res, err := run(child, body, start, -1, false)
			if err != nil {
				return 0, err
			}
			if res.Status != StatusSuccess && res.Status != StatusBreak {
				if res.Value != nil {
					m.ret = res.Value
				}
				return res.Status, nil
			}

		case OpLoop:
			if m.operands(1) {
				if !m.pop().Value.Truthy() {
					// falls into the jump to the loop end
					break
				}
			}
			res, err := run(m.scope, inst.Target, 0, -1, false)
			if err != nil {
				return 0, err
			}
			switch res.Status {
			case StatusBreak:
				for pc+1 < len(insts) && insts[pc].Op != OpLoopEnd {
					pc++
				}
			case StatusSuccess, StatusContinue:
				pc++
			default:
				if res.Value != nil {
					m.ret = res.Value
				}
				return res.Status, nil
			}

		case OpArgStart:
			m.push(nil)

		case OpCall:
			if len(m.stack) == 0 {
				return 0, m.syntaxError(inst)
			}
			var args []*Value
			for len(m.stack) > 0 {
				s := m.pop()
				if s == nil {
					break
				}
				args = append(args, s.Value)
			}
			for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
				args[i], args[j] = args[j], args[i]
			}
			v, status, err := call(m.scope, inst.Text, args, inst.Line)
			if err != nil {
				return 0, err
			}
			if status == StatusExit {
				m.ret = v
				return StatusExit, nil
			}
			m.pushValue(v)

		case OpDeclVar:
			if strings.HasPrefix(inst.Text, "&") {
				return 0, m.syntaxError(inst)
			}
			slot, ok := m.scope.Declare(inst.Text)
			if !ok {
				return 0, NewError(ErrDeclared, m.unit, inst.Line, inst.Text)
			}
			m.push(&Slot{
				Value:    slot.Value,
				Borrowed: true,
			})

		case OpVar:
			slot := m.scope.Lookup(inst.Text)
			if slot == nil {
				if m.unit.Strict {
					return 0, NewError(ErrNotDeclared, m.unit, inst.Line, inst.Text)
				}
				slot, _ = m.scope.Declare(inst.Text)
			}
			s := &Slot{
				Value:    slot.Value,
				Borrowed: true,
			}
			if m.wantStack {
				s.Name = slot.Name
			}
			m.push(s)

		case OpIndex:
			if !m.operands(2) {
				return 0, m.syntaxError(inst)
			}
			key := m.pop()
			base := m.pop()
			elem, err := base.Value.Element(key.Value)
			if err != nil {
				return 0, m.fail(err, inst.Line)
			}
			if base.Borrowed {
				m.push(&Slot{
					Value:    elem.Value,
					Borrowed: true,
				})
			} else {
				m.pushValue(elem.Value.Copy())
			}

		case OpConstInt:
			m.pushValue(NewInt(inst.Int))

		case OpConstFloat:
			m.pushValue(NewFloat(inst.Float))

		case OpConstString:
			m.pushValue(NewString(Unescape(inst.Text)))

		case OpNot, OpBitNot, OpPlus, OpMinus, OpInc, OpDec:
			if !m.operands(1) {
				return 0, m.syntaxError(inst)
			}
			operand := m.pop()
			if inst.Op != OpNot && operand.Value.Type != TypeInt && operand.Value.Type != TypeFloat {
				return 0, NewError(ErrOperator, m.unit, inst.Line, "")
			}
			v, err := unary(inst.Op, operand.Value)
			if err != nil {
				return 0, m.fail(err, inst.Line)
			}
			m.pushValue(v)

		case OpPostInc, OpPostDec:
			if !m.operands(1) {
				return 0, m.syntaxError(inst)
			}
			operand := m.stack[len(m.stack)-1]
			if operand.Value.Type != TypeInt && operand.Value.Type != TypeFloat {
				return 0, NewError(ErrOperator, m.unit, inst.Line, "")
			}
			if !operand.Borrowed {
				break
			}
			if inst.Op == OpPostInc {
				m.scope.queueInc(operand.Value)
			} else {
				m.scope.queueDec(operand.Value)
			}

		case OpAssign:
			if !m.operands(2) {
				return 0, m.syntaxError(inst)
			}
			right := m.pop()
			left := m.pop()
			left.Value.Set(right.Value)
			if m.wantStack {
				right = &Slot{
					Name:     left.Name,
					Value:    right.Value,
					Borrowed: right.Borrowed,
				}
			}
			m.push(right)

		case OpCompound:
			if !m.operands(2) {
				return 0, m.syntaxError(inst)
			}
			left := m.stack[len(m.stack)-2]
			cp := &Slot{Value: left.Value.Copy()}
			if m.wantStack {
				cp.Name = left.Name
			}
			top := m.pop()
			m.push(cp)
			m.push(top)

		case OpLabelEnd:
			if !m.operands(2) {
				return 0, m.syntaxError(inst)
			}
			value := m.pop()
			key := m.pop()
			if key.Value.Type == TypeString && key.Value.Str != "" {
				value = &Slot{
					Name:     key.Value.Str,
					Value:    value.Value,
					Borrowed: value.Borrowed,
				}
			}
			m.push(value)

		case OpLogicalAnd, OpLogicalOr:
			if !m.operands(2) {
				return 0, m.syntaxError(inst)
			}
			r := m.pop().Value.Truthy()
			l := m.pop().Value.Truthy()
			if inst.Op == OpLogicalAnd {
				m.pushValue(NewBool(l && r))
			} else {
				m.pushValue(NewBool(l || r))
			}

		case OpMul, OpDiv, OpMod, OpAdd, OpSub,
			OpLess, OpLessEq, OpGreater, OpGreaterEq, OpEq, OpNotEq,
			OpBitAnd, OpBitOr, OpBitXor,
			OpShl, OpShr, OpShlLogical, OpShrLogical:
			if !m.operands(2) {
				return 0, m.syntaxError(inst)
			}
			r := m.pop()
			l := m.pop()
			v, err := Calc(inst.Op, l.Value, r.Value, m.unit.Extension)
			if err != nil {
				return 0, m.fail(err, inst.Line)
			}
			m.pushValue(v)

		default:
			return 0, m.syntaxError(inst)
		}
	}
	return StatusSuccess, nil
}

// findCase returns the index in block where execution of a switch body starts.
// Case expressions run in the current scope.
func (m *machine) findCase(block int, selector *Value) (int, bool, error) {
	insts := m.unit.Program.Blocks[block]
	for i, inst := range insts {
		if inst.Op != OpCase {
			continue
		}
		end := i + 1
		for end < len(insts) && insts[end].Op != OpLabelEnd {
			end++
		}
		res, err := run(m.scope, block, i+1, end, true)
		if err != nil {
			return 0, false, err
		}
		if len(res.Stack) == 0 || res.Stack[0] == nil {
			return 0, false, nil
		}
		eq, err := Calc(OpEq, res.Stack[0].Value, selector, m.unit.Extension)
		if err != nil {
			return 0, false, m.fail(err, inst.Line)
		}
		if eq.Truthy() {
			return i, true, nil
		}
	}
	for i, inst := range insts {
		if inst.Op == OpDefault {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// Execute runs the top level of unit with preset variables such as argv and argc.
// The returned value is the operand of a top-level return or exit, or nil.
func Execute(unit *Unit, preset ...*Slot) (*Value, error) {
	scope := NewScope(nil, unit)
	for _, s := range preset {
		scope.Define(s.Name, s.Value)
	}
	unit.Scope = scope
	res, err := run(scope, unit.Program.Entry, 0, -1, false)
	if err != nil {
		return nil, err
	}
	if res.Status == StatusBreak || res.Status == StatusContinue {
		return nil, NewError(ErrSentence, unit, res.Line, "")
	}
	unit.Executed = true
	if unit.Host.Callback != nil {
		unit.Host.Callback(scope, nil)
	}
	return res.Value, nil
}

// ExecLine runs one block in a persistent line-mode scope and returns the values left on the stack.
// done reports a return or exit.
func ExecLine(scope *Scope, block int) (values []*Value, done bool, err error) {
	scope.LineMode = true
	res, err := run(scope, block, 0, -1, true)
	if err != nil {
		return nil, false, err
	}
	switch res.Status {
	case StatusBreak, StatusContinue:
		return nil, false, NewError(ErrSentence, scope.Unit, res.Line, "")
	case StatusReturn, StatusExit:
		done = true
	}
	for _, s := range res.Stack {
		if s != nil {
			values = append(values, s.Value)
		}
	}
	return values, done, nil
}
