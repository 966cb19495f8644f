package pg0vm

import (
	"fmt"
	"strings"
)

type Instruction struct {
	Op    Op
	Int   int64
	Float float64
	Text  string
	Line  int
	// Target is the index of a nested block in Program.Blocks, or -1.
	Target int
	// Link is the jump destination inside the same block, or -1.
	Link int
}

func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString(i.Op.String())
	switch i.Op {
	case OpConstInt:
		fmt.Fprintf(&b, " %d", i.Int)
	case OpConstFloat:
		fmt.Fprintf(&b, " %g", i.Float)
	case OpConstString:
		fmt.Fprintf(&b, " %q", i.Text)
	case OpVar, OpDeclVar, OpCall:
		b.WriteString(" ")
		b.WriteString(i.Text)
	}
	if i.Target >= 0 {
		fmt.Fprintf(&b, " ->block%d", i.Target)
	}
	if i.Link >= 0 {
		fmt.Fprintf(&b, " ->%d", i.Link)
	}
	return b.String()
}

type FuncDecl struct {
	Name string
	// Block and Index locate the function start instruction.
	Block int
	Index int
}

type Program struct {
	Blocks [][]Instruction
	Funcs  map[string]*FuncDecl
	Order  []string
	// Entry is the top-level block of the most recent parse into this program.
	Entry int
	// Extension and Strict are the grammar flags in effect after directives.
	Extension bool
	Strict    bool
}

func NewProgram() *Program {
	return &Program{
		Blocks: [][]Instruction{nil},
		Funcs:  make(map[string]*FuncDecl),
	}
}

func (p *Program) Func(name string) *FuncDecl {
	return p.Funcs[strings.ToLower(name)]
}

// Shape counts control-flow markers across all blocks.
type Shape struct {
	CmpStart  int
	Cmp       int
	CmpEnd    int
	LoopStart int
	Loop      int
	LoopEnd   int
	Switch    int
	FuncStart int
}

func (p *Program) Shape() (s Shape) {
	for _, block := range p.Blocks {
		for _, inst := range block {
			switch inst.Op {
			case OpCmpStart:
				s.CmpStart++
			case OpCmp:
				s.Cmp++
			case OpCmpEnd:
				s.CmpEnd++
			case OpLoopStart:
				s.LoopStart++
			case OpLoop:
				s.Loop++
			case OpLoopEnd:
				s.LoopEnd++
			case OpSwitch:
				s.Switch++
			case OpFuncStart:
				s.FuncStart++
			}
		}
	}
	return
}

// Dump renders every block, one instruction per line.
func (p *Program) Dump() string {
	var b strings.Builder
	for i, block := range p.Blocks {
		fmt.Fprintf(&b, "block%d:\n", i)
		for j, inst := range block {
			fmt.Fprintf(&b, "  %3d %s\n", j, inst)
		}
	}
	return b.String()
}
