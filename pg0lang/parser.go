package pg0lang

import (
	"strings"

	"github.com/reusee/pg0/pg0vm"
)

// Directives resolves the #import and #library preprocessor directives.
type Directives interface {
	Import(path string) error
	Library(name string) error
}

type ParseOptions struct {
	Extension  bool
	Strict     bool
	Directives Directives
	// Into appends the parsed code as a new top-level block of an existing
	// program, keeping its functions visible.
	Into *pg0vm.Program
}

type parser struct {
	src  *Source
	tz   *Tokenizer
	prog *pg0vm.Program
	opts ParseOptions

	decl      bool
	caseEnd   bool
	condition bool
	level     int

	extension bool
	strict    bool
}

// Parse compiles src into a flattened instruction program.
func Parse(src *Source, opts ParseOptions) (*pg0vm.Program, error) {
	prog := opts.Into
	if prog == nil {
		prog = pg0vm.NewProgram()
	}
	p := &parser{
		src:       src,
		tz:        NewTokenizer(src, opts.Extension),
		prog:      prog,
		opts:      opts,
		extension: opts.Extension,
		strict:    opts.Strict,
	}

	nBlocks := len(prog.Blocks)
	nOrder := len(prog.Order)
	entry := 0
	if opts.Into != nil {
		entry = p.newBlock()
	}

	err := p.parse(entry)
	if err != nil {
		if opts.Into != nil {
			for _, name := range prog.Order[nOrder:] {
				delete(prog.Funcs, name)
			}
			prog.Order = prog.Order[:nOrder]
			prog.Blocks = prog.Blocks[:nBlocks]
		}
		return nil, err
	}

	prog.Entry = entry
	prog.Extension = p.extension
	prog.Strict = p.strict
	return prog, nil
}

func (p *parser) parse(b int) error {
	if err := p.next(); err != nil {
		return err
	}
	for p.op() != pg0vm.OpEOF {
		if err := p.statementList(b); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) next() error {
	return p.tz.Next()
}

func (p *parser) op() pg0vm.Op {
	return p.tz.current.Op
}

func (p *parser) fail(kind pg0vm.ErrorKind) error {
	return p.failAt(kind, p.tz.current.Pos.Line)
}

func (p *parser) failAt(kind pg0vm.ErrorKind, line int) error {
	return &pg0vm.Error{
		Kind: kind,
		Unit: p.src.Name,
		Line: line,
		Text: p.src.Line(line),
	}
}

// inst builds an instruction from the current token.
func (p *parser) inst(op pg0vm.Op) pg0vm.Instruction {
	return pg0vm.Instruction{
		Op:     op,
		Text:   p.tz.current.Text,
		Line:   p.tz.current.Pos.Line,
		Target: -1,
		Link:   -1,
	}
}

func (p *parser) emit(b int, inst pg0vm.Instruction) int {
	p.prog.Blocks[b] = append(p.prog.Blocks[b], inst)
	return len(p.prog.Blocks[b]) - 1
}

func (p *parser) emitOp(b int, op pg0vm.Op) int {
	inst := p.inst(op)
	inst.Text = ""
	return p.emit(b, inst)
}

func (p *parser) at(b, i int) *pg0vm.Instruction {
	return &p.prog.Blocks[b][i]
}

// land emits op and points the jump at index jump to it.
// The append may move the block, so the jump is resolved afterwards.
func (p *parser) land(b, jump int, op pg0vm.Op) int {
	to := p.emitOp(b, op)
	p.at(b, jump).Link = to
	return to
}

func (p *parser) newBlock() int {
	p.prog.Blocks = append(p.prog.Blocks, nil)
	return len(p.prog.Blocks) - 1
}

// splice moves the instructions of block from to the end of block b,
// shifting their jump links.
func (p *parser) splice(b, from int) {
	offset := len(p.prog.Blocks[b])
	for _, inst := range p.prog.Blocks[from] {
		if inst.Link >= 0 {
			inst.Link += offset
		}
		p.prog.Blocks[b] = append(p.prog.Blocks[b], inst)
	}
	p.prog.Blocks[from] = nil
}

func (p *parser) is(ops ...pg0vm.Op) bool {
	cur := p.op()
	for _, op := range ops {
		if cur == op {
			return true
		}
	}
	return false
}

func (p *parser) expect(op pg0vm.Op, kind pg0vm.ErrorKind) error {
	if p.op() != op {
		return p.fail(kind)
	}
	return nil
}

func (p *parser) primary(b int) error {
	switch p.op() {

	case pg0vm.OpBlockOpen:
		idx := p.emitOp(b, pg0vm.OpArrayLiteral)
		if err := p.next(); err != nil {
			return err
		}
		child := p.newBlock()
		if err := p.expression(child); err != nil {
			return err
		}
		p.at(b, idx).Target = child
		if err := p.expect(pg0vm.OpBlockClose, pg0vm.ErrSentence); err != nil {
			return err
		}
		return p.next()

	case pg0vm.OpOpen:
		if err := p.next(); err != nil {
			return err
		}
		if err := p.arrayKey(b); err != nil {
			return err
		}
		if err := p.expect(pg0vm.OpClose, pg0vm.ErrSentence); err != nil {
			return err
		}
		return p.next()

	case pg0vm.OpCall:
		if strings.HasPrefix(p.tz.current.Text, "&") {
			return p.fail(pg0vm.ErrSentence)
		}
		p.emitOp(b, pg0vm.OpArgStart)
		call := p.inst(pg0vm.OpCall)
		call.Text = strings.ToLower(call.Text)
		if err := p.next(); err != nil {
			return err
		}
		if err := p.expect(pg0vm.OpOpen, pg0vm.ErrSentence); err != nil {
			return err
		}
		if err := p.next(); err != nil {
			return err
		}
		if err := p.expression(b); err != nil {
			return err
		}
		if err := p.expect(pg0vm.OpClose, pg0vm.ErrSentence); err != nil {
			return err
		}
		if err := p.next(); err != nil {
			return err
		}
		p.emit(b, call)

	case pg0vm.OpVar:
		op := pg0vm.OpVar
		if p.decl {
			op = pg0vm.OpDeclVar
		}
		p.emit(b, p.inst(op))
		return p.next()

	case pg0vm.OpConstInt, pg0vm.OpConstFloat, pg0vm.OpConstString:
		inst := p.inst(p.op())
		text := inst.Text
		inst.Text = ""
		switch inst.Op {
		case pg0vm.OpConstInt:
			inst.Int = parseInt(text)
		case pg0vm.OpConstFloat:
			inst.Float = pg0vm.Atof(text)
		case pg0vm.OpConstString:
			inst.Text = text[1 : len(text)-1]
		}
		p.emit(b, inst)
		if err := p.next(); err != nil {
			return err
		}
		if p.decl || p.is(pg0vm.OpAssign, pg0vm.OpCompound) {
			return p.fail(pg0vm.ErrSentence)
		}
	}
	return nil
}

func parseInt(text string) int64 {
	if len(text) <= 1 || text[0] != '0' {
		return pg0vm.Atoi(text)
	}
	if text[1] == 'x' || text[1] == 'X' {
		return pg0vm.ParseHex(text[2:])
	}
	return pg0vm.ParseOctal(text[1:])
}

func (p *parser) array(b int) error {
	if err := p.primary(b); err != nil {
		return err
	}
	for p.op() == pg0vm.OpIndexOpen {
		if err := p.next(); err != nil {
			return err
		}
		if p.op() != pg0vm.OpIndexClose {
			line := p.tz.current.Pos.Line
			if err := p.logicalOr(b); err != nil {
				return err
			}
			if err := p.expect(pg0vm.OpIndexClose, pg0vm.ErrSentence); err != nil {
				return err
			}
			inst := p.inst(pg0vm.OpIndex)
			inst.Text = ""
			inst.Line = line
			p.emit(b, inst)
		}
		if err := p.next(); err != nil {
			return err
		}
		if err := p.primary(b); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) unary(b int) error {
	if err := p.array(b); err != nil {
		return err
	}
	for {
		switch op := p.op(); op {
		case pg0vm.OpPostInc, pg0vm.OpPostDec:
			p.emitOp(b, op)
			if err := p.next(); err != nil {
				return err
			}
			if err := p.unary(b); err != nil {
				return err
			}
		case pg0vm.OpNot, pg0vm.OpBitNot, pg0vm.OpPlus, pg0vm.OpMinus,
			pg0vm.OpInc, pg0vm.OpDec:
			inst := p.inst(op)
			inst.Text = ""
			if err := p.next(); err != nil {
				return err
			}
			if err := p.unary(b); err != nil {
				return err
			}
			p.emit(b, inst)
		default:
			return nil
		}
	}
}

// binary parses a left-associative level of the operator ladder.
func (p *parser) binary(b int, operand func(int) error, ops ...pg0vm.Op) error {
	if err := operand(b); err != nil {
		return err
	}
	for p.is(ops...) {
		inst := p.inst(p.op())
		inst.Text = ""
		if err := p.next(); err != nil {
			return err
		}
		if err := operand(b); err != nil {
			return err
		}
		p.emit(b, inst)
	}
	return nil
}

func (p *parser) multiplicative(b int) error {
	return p.binary(b, p.unary, pg0vm.OpMul, pg0vm.OpDiv, pg0vm.OpMod)
}

func (p *parser) additive(b int) error {
	return p.binary(b, p.multiplicative, pg0vm.OpAdd, pg0vm.OpSub)
}

func (p *parser) shift(b int) error {
	return p.binary(b, p.additive,
		pg0vm.OpShl, pg0vm.OpShr, pg0vm.OpShlLogical, pg0vm.OpShrLogical)
}

func (p *parser) relational(b int) error {
	return p.binary(b, p.shift,
		pg0vm.OpLess, pg0vm.OpLessEq, pg0vm.OpGreater, pg0vm.OpGreaterEq)
}

func (p *parser) equality(b int) error {
	return p.binary(b, p.relational, pg0vm.OpEq, pg0vm.OpNotEq)
}

func (p *parser) bitAnd(b int) error {
	return p.binary(b, p.equality, pg0vm.OpBitAnd)
}

func (p *parser) bitXor(b int) error {
	return p.binary(b, p.bitAnd, pg0vm.OpBitXor)
}

func (p *parser) bitOr(b int) error {
	return p.binary(b, p.bitXor, pg0vm.OpBitOr)
}

// logical emits a short-circuit jump over the right operand, landing on a
// placeholder after the operator.
func (p *parser) logical(b int, operand func(int) error, op, jump pg0vm.Op) error {
	if err := operand(b); err != nil {
		return err
	}
	for p.op() == op {
		j := p.emitOp(b, jump)
		inst := p.inst(op)
		inst.Text = ""
		if err := p.next(); err != nil {
			return err
		}
		if err := operand(b); err != nil {
			return err
		}
		p.emit(b, inst)
		p.land(b, j, pg0vm.OpLanding)
	}
	return nil
}

func (p *parser) logicalAnd(b int) error {
	return p.logical(b, p.bitOr, pg0vm.OpLogicalAnd, pg0vm.OpJumpZero)
}

func (p *parser) logicalOr(b int) error {
	return p.logical(b, p.logicalAnd, pg0vm.OpLogicalOr, pg0vm.OpJumpNonZero)
}

// arrayKey parses an expression optionally followed by "key: value" pairs.
func (p *parser) arrayKey(b int) error {
	if err := p.logicalOr(b); err != nil {
		return err
	}
	if p.caseEnd {
		return nil
	}
	for p.op() == pg0vm.OpLabelEnd {
		inst := p.inst(pg0vm.OpLabelEnd)
		inst.Text = ""
		if err := p.next(); err != nil {
			return err
		}
		if err := p.logicalOr(b); err != nil {
			return err
		}
		p.emit(b, inst)
	}
	return nil
}

func (p *parser) compoundAssignment(b int) error {
	if err := p.arrayKey(b); err != nil {
		return err
	}
	for p.op() == pg0vm.OpCompound {
		tok := p.tz.current
		inst := p.inst(pg0vm.OpCompound)
		inst.Text = ""
		if err := p.next(); err != nil {
			return err
		}
		if err := p.arrayKey(b); err != nil {
			return err
		}
		p.emit(b, inst)
		inst.Op = tok.Compound
		p.emit(b, inst)
		inst.Op = pg0vm.OpAssign
		p.emit(b, inst)
	}
	return nil
}

func (p *parser) assignment(b int) error {
	if p.condition {
		return p.arrayKey(b)
	}
	if err := p.compoundAssignment(b); err != nil {
		return err
	}
	for p.op() == pg0vm.OpAssign {
		inst := p.inst(pg0vm.OpAssign)
		inst.Text = ""
		if err := p.next(); err != nil {
			return err
		}
		if err := p.assignment(b); err != nil {
			return err
		}
		p.emit(b, inst)
	}
	return nil
}

func (p *parser) expression(b int) error {
	if err := p.assignment(b); err != nil {
		return err
	}
	for p.op() == pg0vm.OpWordEnd {
		p.emitOp(b, pg0vm.OpWordEnd)
		if err := p.next(); err != nil {
			return err
		}
		if err := p.assignment(b); err != nil {
			return err
		}
	}
	return nil
}
