package pg0lang

import (
	"strings"

	"github.com/reusee/pg0/pg0vm"
)

// endStatement accepts a statement terminator, leaving '}' and end of input
// for the enclosing list.
func (p *parser) endStatement(b int) error {
	if p.is(pg0vm.OpEOF, pg0vm.OpBlockClose) {
		return nil
	}
	if !p.is(pg0vm.OpLineEnd, pg0vm.OpLineSep) {
		return p.fail(pg0vm.ErrSentence)
	}
	p.emitOp(b, p.op())
	return p.next()
}

func (p *parser) expressionStatement(b int) error {
	if err := p.expression(b); err != nil {
		return err
	}
	return p.endStatement(b)
}

// conditionClause parses "(expr)". Unless the clause ends a do loop, a
// block must follow.
func (p *parser) conditionClause(b int, isDo bool) error {
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(pg0vm.OpOpen, pg0vm.ErrSentence); err != nil {
		return err
	}
	if err := p.next(); err != nil {
		return err
	}
	if p.op() == pg0vm.OpClose {
		return p.fail(pg0vm.ErrSentence)
	}
	p.condition = true
	if err := p.arrayKey(b); err != nil {
		return err
	}
	p.condition = false
	if err := p.expect(pg0vm.OpClose, pg0vm.ErrSentence); err != nil {
		return err
	}
	line := p.tz.current.Pos.Line
	p.tz.concat = !isDo
	if err := p.next(); err != nil {
		return err
	}
	if !isDo && p.op() != pg0vm.OpBlockOpen {
		return p.failAt(pg0vm.ErrBlock, line)
	}
	return nil
}

func (p *parser) ifStatement(b int) error {
	p.emitOp(b, pg0vm.OpCmpStart)
	if err := p.conditionClause(b, false); err != nil {
		return err
	}
	p.emitOp(b, pg0vm.OpCmp)
	toElse := p.emitOp(b, pg0vm.OpJump)
	if err := p.statementList(b); err != nil {
		return err
	}
	toEnd := p.emitOp(b, pg0vm.OpJump)
	p.land(b, toElse, pg0vm.OpElse)

	if p.op() == pg0vm.OpElse {
		line := p.tz.current.Pos.Line
		p.tz.concat = true
		if err := p.next(); err != nil {
			return err
		}
		if p.extension && p.op() == pg0vm.OpIf {
			if err := p.ifStatement(b); err != nil {
				return err
			}
		} else {
			if p.op() != pg0vm.OpBlockOpen {
				return p.failAt(pg0vm.ErrBlock, line)
			}
			if err := p.statementList(b); err != nil {
				return err
			}
		}
	}
	p.land(b, toEnd, pg0vm.OpCmpEnd)
	return nil
}

func (p *parser) switchStatement(b int) error {
	inst := p.inst(pg0vm.OpSwitch)
	inst.Text = ""
	if err := p.conditionClause(b, false); err != nil {
		return err
	}
	p.emit(b, inst)
	if err := p.expect(pg0vm.OpBlockOpen, pg0vm.ErrSentence); err != nil {
		return err
	}
	return p.statementList(b)
}

// loopTail closes a loop: leave, go back to the start, landing point.
func (p *parser) loopTail(b, start, exit int) {
	back := p.emitOp(b, pg0vm.OpJump)
	p.at(b, back).Link = start
	p.land(b, exit, pg0vm.OpLoopEnd)
}

func (p *parser) whileStatement(b int) error {
	start := p.emitOp(b, pg0vm.OpLoopStart)
	if err := p.conditionClause(b, false); err != nil {
		return err
	}
	loop := p.emitOp(b, pg0vm.OpLoop)
	body := p.newBlock()
	if err := p.statementList(body); err != nil {
		return err
	}
	p.at(b, loop).Target = body
	exit := p.emitOp(b, pg0vm.OpJump)
	p.loopTail(b, start, exit)
	return nil
}

func (p *parser) doStatement(b int) error {
	start := p.emitOp(b, pg0vm.OpLoopStart)
	loop := p.emitOp(b, pg0vm.OpLoop)
	line := p.tz.current.Pos.Line
	if err := p.next(); err != nil {
		return err
	}
	if p.op() != pg0vm.OpBlockOpen {
		return p.failAt(pg0vm.ErrBlock, line)
	}
	body := p.newBlock()
	if err := p.statementList(body); err != nil {
		return err
	}
	p.at(b, loop).Target = body
	p.emitOp(b, pg0vm.OpLanding)
	if err := p.expect(pg0vm.OpWhile, pg0vm.ErrSentence); err != nil {
		return err
	}
	if err := p.conditionClause(b, true); err != nil {
		return err
	}
	p.emitOp(b, pg0vm.OpCmp)
	if !p.is(pg0vm.OpLineEnd, pg0vm.OpLineSep, pg0vm.OpEOF, pg0vm.OpBlockClose) {
		return p.fail(pg0vm.ErrSentence)
	}
	exit := p.emitOp(b, pg0vm.OpJump)
	p.loopTail(b, start, exit)
	return nil
}

func (p *parser) forStatement(b int) error {
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(pg0vm.OpOpen, pg0vm.ErrSentence); err != nil {
		return err
	}
	if err := p.next(); err != nil {
		return err
	}

	if p.op() == pg0vm.OpKeywordVar {
		if err := p.next(); err != nil {
			return err
		}
		if err := p.varDeclList(b); err != nil {
			return err
		}
	} else if err := p.expression(b); err != nil {
		return err
	}
	if err := p.expect(pg0vm.OpLineSep, pg0vm.ErrSentence); err != nil {
		return err
	}
	p.emitOp(b, pg0vm.OpLineSep)

	start := p.emitOp(b, pg0vm.OpLoopStart)
	if err := p.next(); err != nil {
		return err
	}
	p.condition = true
	if err := p.arrayKey(b); err != nil {
		return err
	}
	p.condition = false
	if err := p.expect(pg0vm.OpLineSep, pg0vm.ErrSentence); err != nil {
		return err
	}
	if err := p.next(); err != nil {
		return err
	}

	reinit := p.newBlock()
	if err := p.expression(reinit); err != nil {
		return err
	}
	if err := p.expect(pg0vm.OpClose, pg0vm.ErrSentence); err != nil {
		return err
	}
	loop := p.emitOp(b, pg0vm.OpLoop)
	p.tz.concat = true
	if err := p.next(); err != nil {
		return err
	}
	body := p.newBlock()
	if err := p.statementList(body); err != nil {
		return err
	}
	p.at(b, loop).Target = body

	exit := p.emitOp(b, pg0vm.OpJump)
	p.splice(b, reinit)
	p.emitOp(b, pg0vm.OpLineSep)
	p.loopTail(b, start, exit)
	return nil
}

// jumpStatement parses break, continue, return and exit.
func (p *parser) jumpStatement(b int) error {
	inst := p.inst(p.op())
	inst.Text = ""
	if err := p.next(); err != nil {
		return err
	}
	if inst.Op == pg0vm.OpExit || inst.Op == pg0vm.OpReturn {
		p.condition = true
		if err := p.arrayKey(b); err != nil {
			return err
		}
		p.condition = false
	}
	p.emit(b, inst)
	return p.endStatement(b)
}

func (p *parser) caseStatement(b int) error {
	op := p.op()
	p.emitOp(b, op)
	if err := p.next(); err != nil {
		return err
	}
	if op == pg0vm.OpCase {
		p.caseEnd = true
		p.condition = true
		if err := p.arrayKey(b); err != nil {
			return err
		}
		p.caseEnd = false
		p.condition = false
	}
	if err := p.expect(pg0vm.OpLabelEnd, pg0vm.ErrSentence); err != nil {
		return err
	}
	p.emitOp(b, pg0vm.OpLabelEnd)
	return p.next()
}

func (p *parser) varDeclList(b int) error {
	for {
		p.decl = true
		if err := p.array(b); err != nil {
			return err
		}
		p.decl = false
		if p.op() == pg0vm.OpAssign {
			if err := p.assignment(b); err != nil {
				return err
			}
		}
		if p.op() != pg0vm.OpWordEnd {
			return nil
		}
		p.emitOp(b, pg0vm.OpWordEnd)
		if err := p.next(); err != nil {
			return err
		}
	}
}

func (p *parser) varDecl(b int) error {
	if err := p.next(); err != nil {
		return err
	}
	if err := p.varDeclList(b); err != nil {
		return err
	}
	return p.endStatement(b)
}

// funcDecl emits a function definition guarded by a jump over its body.
// The definition registers the function start so calls can find the
// parameter list and the body.
func (p *parser) funcDecl(b int) error {
	skip := p.emitOp(b, pg0vm.OpJump)
	start := p.emitOp(b, pg0vm.OpFuncStart)
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(pg0vm.OpCall, pg0vm.ErrSentence); err != nil {
		return err
	}
	call := p.inst(pg0vm.OpCall)
	call.Text = strings.ToLower(call.Text)
	if err := p.next(); err != nil {
		return err
	}
	if _, ok := p.prog.Funcs[call.Text]; !ok {
		p.prog.Funcs[call.Text] = &pg0vm.FuncDecl{
			Name:  call.Text,
			Block: b,
			Index: start,
		}
		p.prog.Order = append(p.prog.Order, call.Text)
	}

	if err := p.expect(pg0vm.OpOpen, pg0vm.ErrSentence); err != nil {
		return err
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.varDeclList(b); err != nil {
		return err
	}
	if err := p.expect(pg0vm.OpClose, pg0vm.ErrSentence); err != nil {
		return err
	}
	p.tz.concat = true
	if err := p.next(); err != nil {
		return err
	}
	idx := p.emit(b, call)
	if err := p.expect(pg0vm.OpBlockOpen, pg0vm.ErrSentence); err != nil {
		return err
	}
	if err := p.compoundStatement(b, idx); err != nil {
		return err
	}
	p.land(b, skip, pg0vm.OpFuncEnd)
	return nil
}

// compoundStatement parses "{ ... }" into a new block owned by the
// instruction at idx.
func (p *parser) compoundStatement(b, idx int) error {
	if err := p.next(); err != nil {
		return err
	}
	child := p.newBlock()
	for !p.is(pg0vm.OpEOF, pg0vm.OpBlockClose) {
		if err := p.statementList(child); err != nil {
			return err
		}
	}
	p.at(b, idx).Target = child
	if err := p.expect(pg0vm.OpBlockClose, pg0vm.ErrSentence); err != nil {
		return err
	}
	p.tz.concat = true
	p.emitOp(b, pg0vm.OpBlockClose)
	return p.next()
}

func (p *parser) statementList(b int) error {
	p.level++
	defer func() {
		p.level--
	}()

	switch p.op() {
	case pg0vm.OpEOF:
		return nil

	case pg0vm.OpPrep:
		if err := p.directive(); err != nil {
			return err
		}
		return p.next()

	case pg0vm.OpBlockOpen:
		idx := p.emitOp(b, pg0vm.OpBlockOpen)
		return p.compoundStatement(b, idx)

	case pg0vm.OpIf:
		return p.ifStatement(b)
	case pg0vm.OpWhile:
		return p.whileStatement(b)
	case pg0vm.OpSwitch:
		return p.switchStatement(b)
	case pg0vm.OpDo:
		return p.doStatement(b)
	case pg0vm.OpFor:
		return p.forStatement(b)

	case pg0vm.OpBreak, pg0vm.OpContinue, pg0vm.OpReturn, pg0vm.OpExit:
		return p.jumpStatement(b)

	case pg0vm.OpCase, pg0vm.OpDefault:
		return p.caseStatement(b)

	case pg0vm.OpFuncStart:
		if p.level > 1 {
			return p.fail(pg0vm.ErrSentence)
		}
		return p.funcDecl(b)

	case pg0vm.OpKeywordVar:
		return p.varDecl(b)

	case pg0vm.OpVar, pg0vm.OpConstInt, pg0vm.OpConstFloat, pg0vm.OpOpen,
		pg0vm.OpNot, pg0vm.OpPlus, pg0vm.OpMinus, pg0vm.OpWordEnd,
		pg0vm.OpLineEnd, pg0vm.OpLineSep, pg0vm.OpCall, pg0vm.OpBitNot,
		pg0vm.OpInc, pg0vm.OpDec:
		return p.expressionStatement(b)
	}
	return p.fail(pg0vm.ErrSentence)
}

// directive runs a #import, #library or #option line.
func (p *parser) directive() error {
	line := p.tz.current.Pos.Line
	name, arg, err := p.tz.directive()
	if err != nil {
		return err
	}
	fail := func(kind pg0vm.ErrorKind, cause error) error {
		e := p.failAt(kind, line).(*pg0vm.Error)
		e.Err = cause
		return e
	}

	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "import"):
		p.enableExtension()
		if p.opts.Directives == nil {
			return fail(pg0vm.ErrScript, nil)
		}
		if err := p.opts.Directives.Import(arg); err != nil {
			return fail(pg0vm.ErrScript, err)
		}

	case strings.HasPrefix(lower, "library"):
		p.enableExtension()
		if p.opts.Directives == nil {
			return fail(pg0vm.ErrFileOpen, nil)
		}
		if err := p.opts.Directives.Library(arg); err != nil {
			return fail(pg0vm.ErrFileOpen, err)
		}

	case strings.HasPrefix(lower, "option"):
		switch strings.ToLower(arg) {
		case "pg0.5":
			p.enableExtension()
		case "strict":
			p.strict = true
		default:
			return fail(pg0vm.ErrSentence, nil)
		}

	default:
		return fail(pg0vm.ErrSentence, nil)
	}
	return nil
}

func (p *parser) enableExtension() {
	p.extension = true
	p.tz.extension = true
}
