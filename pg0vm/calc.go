package pg0vm

import "math"

// Calc applies a binary operator.
// Arrays take precedence over strings, strings over floats, floats over ints.
func Calc(op Op, l, r *Value, extension bool) (*Value, error) {
	switch {
	case l.Type == TypeArray || r.Type == TypeArray:
		return calcArray(op, l, r, extension)
	case l.Type == TypeString || r.Type == TypeString:
		return calcString(op, l, r)
	case l.Type == TypeFloat || r.Type == TypeFloat:
		return calcFloat(op, l.ToFloat(), r.ToFloat())
	}
	return calcInt(op, l.Int, r.Int, extension)
}

func calcArray(op Op, l, r *Value, extension bool) (*Value, error) {
	switch op {
	case OpAdd:
		if l.Type != TypeArray {
			return NewArray(copySlots(r.Array)...), nil
		}
		elems := copySlots(l.Array)
		if r.Type == TypeArray {
			elems = append(elems, copySlots(r.Array)...)
		}
		return NewArray(elems...), nil

	case OpEq, OpNotEq:
		// an array never equals a scalar
		eq := l.Type == TypeArray && r.Type == TypeArray && len(l.Array) == len(r.Array)
		if eq {
			for i, a := range l.Array {
				v, err := Calc(OpEq, a.Value, r.Array[i].Value, extension)
				if err != nil {
					return nil, err
				}
				if !v.Truthy() {
					eq = false
					break
				}
			}
		}
		if op == OpNotEq {
			eq = !eq
		}
		return NewBool(eq), nil
	}
	return nil, ErrArrayOperator
}

func calcString(op Op, l, r *Value) (*Value, error) {
	a, b := l.String(), r.String()
	switch op {
	case OpAdd:
		return NewString(a + b), nil
	case OpEq:
		return NewBool(a == b), nil
	case OpNotEq:
		return NewBool(a != b), nil
	}
	return nil, ErrOperator
}

func calcFloat(op Op, i, j float64) (*Value, error) {
	switch op {
	case OpDiv:
		if j == 0 {
			return nil, ErrDivZero
		}
		i /= j
	case OpMod:
		if j == 0 || int64(j) == 0 {
			return nil, ErrDivZero
		}
		i = float64(int64(i) % int64(j))
	case OpMul:
		i *= j
	case OpAdd:
		i += j
	case OpSub:
		i -= j
	case OpEq:
		i = b2f(i == j)
	case OpNotEq:
		i = b2f(i != j)
	case OpLessEq:
		i = b2f(i <= j)
	case OpLess:
		i = b2f(i < j)
	case OpGreaterEq:
		i = b2f(i >= j)
	case OpGreater:
		i = b2f(i > j)
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr, OpShlLogical, OpShrLogical:
		return calcInt(op, int64(i), int64(j), false)
	default:
		return nil, ErrOperator
	}
	return NewNumber(i), nil
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func calcInt(op Op, i, j int64, extension bool) (*Value, error) {
	switch op {
	case OpDiv:
		if j == 0 {
			return nil, ErrDivZero
		}
		if i%j != 0 && extension {
			return calcFloat(op, float64(i), float64(j))
		}
		if i == math.MinInt64 && j == -1 {
			return NewInt(i), nil
		}
		i /= j
	case OpMod:
		if j == 0 {
			return nil, ErrDivZero
		}
		if j == -1 {
			i = 0
		} else {
			i %= j
		}
	case OpMul:
		i *= j
	case OpAdd:
		i += j
	case OpSub:
		i -= j
	case OpEq:
		i = b2i(i == j)
	case OpNotEq:
		i = b2i(i != j)
	case OpLessEq:
		i = b2i(i <= j)
	case OpLess:
		i = b2i(i < j)
	case OpGreaterEq:
		i = b2i(i >= j)
	case OpGreater:
		i = b2i(i > j)
	case OpBitAnd:
		i &= j
	case OpBitOr:
		i |= j
	case OpBitXor:
		i ^= j
	case OpShl:
		i <<= uint64(j) & 63
	case OpShr:
		i >>= uint64(j) & 63
	case OpShlLogical:
		i = int64(uint32(i) << (uint64(j) & 31))
	case OpShrLogical:
		i = int64(uint32(i) >> (uint64(j) & 31))
	default:
		return nil, ErrOperator
	}
	return NewInt(i), nil
}

// unary applies NOT, BITNOT, PLUS, MINUS, INC or DEC.
// INC and DEC write the new value through v.
func unary(op Op, v *Value) (*Value, error) {
	switch v.Type {
	case TypeString:
		if op != OpNot {
			return nil, ErrOperator
		}
		return NewBool(v.Str == ""), nil

	case TypeFloat:
		f := v.Float
		switch op {
		case OpNot:
			f = b2f(f == 0)
		case OpPlus:
		case OpMinus:
			f = -f
		case OpBitNot:
			f = float64(^int64(f))
		case OpInc:
			f++
			v.Float = f
		case OpDec:
			f--
			v.Float = f
		default:
			return nil, ErrOperator
		}
		return NewNumber(f), nil

	case TypeInt:
		i := v.Int
		switch op {
		case OpNot:
			i = b2i(i == 0)
		case OpPlus:
		case OpMinus:
			i = -i
		case OpBitNot:
			i = ^i
		case OpInc:
			i++
			v.Int = i
		case OpDec:
			i--
			v.Int = i
		default:
			return nil, ErrOperator
		}
		return NewInt(i), nil
	}
	return nil, ErrOperator
}

// flushPostfix applies queued post-increments, then post-decrements.
func (s *Scope) flushPostfix() error {
	incs, decs := s.incs, s.decs
	s.incs, s.decs = nil, nil
	for _, v := range incs {
		if err := step(v, 1); err != nil {
			return err
		}
	}
	for _, v := range decs {
		if err := step(v, -1); err != nil {
			return err
		}
	}
	return nil
}

func step(v *Value, d int64) error {
	switch v.Type {
	case TypeInt:
		v.Int += d
	case TypeFloat:
		v.Float += float64(d)
	default:
		return ErrOperator
	}
	return nil
}
