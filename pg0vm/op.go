package pg0vm

type Op uint8

const (
	OpNone Op = iota
	OpEOF
	OpPrep
	OpLineEnd
	OpLineSep
	OpWordEnd

	OpBlockOpen
	OpArrayLiteral
	OpBlockClose

	OpOpen
	OpClose
	OpIndexOpen
	OpIndexClose

	OpAssign
	OpLogicalAnd
	OpLogicalOr

	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpEq
	OpNotEq

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	OpNot
	OpPlus
	OpMinus

	OpConstInt
	OpDeclVar
	OpVar
	OpIndex

	OpKeywordVar
	OpIf
	OpElse
	OpWhile
	OpExit

	OpJump
	OpJumpZero
	OpJumpNonZero

	OpCmp
	OpCmpStart
	OpCmpEnd
	OpLoop
	OpLoopStart
	OpLoopEnd

	OpLabelEnd
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpShlLogical
	OpShrLogical
	OpBitNot

	OpCompound

	OpInc
	OpDec
	OpPostInc
	OpPostDec

	OpConstFloat
	OpConstString

	OpFor
	OpDo
	OpBreak
	OpContinue
	OpSwitch
	OpCase
	OpDefault
	OpLanding

	OpFuncStart
	OpFuncEnd
	OpCall
	OpArgStart
	OpReturn

	numOps
)

var opNames = [numOps]string{
	OpNone:         "none",
	OpEOF:          "eof",
	OpPrep:         "#",
	OpLineEnd:      "lineend",
	OpLineSep:      ";",
	OpWordEnd:      ",",
	OpBlockOpen:    "{",
	OpArrayLiteral: "{array",
	OpBlockClose:   "}",
	OpOpen:         "(",
	OpClose:        ")",
	OpIndexOpen:    "[",
	OpIndexClose:   "]",
	OpAssign:       "=",
	OpLogicalAnd:   "&&",
	OpLogicalOr:    "||",
	OpLess:         "<",
	OpLessEq:       "<=",
	OpGreater:      ">",
	OpGreaterEq:    ">=",
	OpEq:           "==",
	OpNotEq:        "!=",
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpNot:          "!",
	OpPlus:         "+unary",
	OpMinus:        "-unary",
	OpConstInt:     "int",
	OpDeclVar:      "declvar",
	OpVar:          "variable",
	OpIndex:        "index",
	OpKeywordVar:   "var",
	OpIf:           "if",
	OpElse:         "else",
	OpWhile:        "while",
	OpExit:         "exit",
	OpJump:         "jump",
	OpJumpZero:     "jze",
	OpJumpNonZero:  "jnz",
	OpCmp:          "cmp",
	OpCmpStart:     "cmpstart",
	OpCmpEnd:       "cmpend",
	OpLoop:         "loop",
	OpLoopStart:    "loopstart",
	OpLoopEnd:      "loopend",
	OpLabelEnd:     ":",
	OpBitAnd:       "&",
	OpBitOr:        "|",
	OpBitXor:       "^",
	OpShl:          "<<",
	OpShr:          ">>",
	OpShlLogical:   "<<<",
	OpShrLogical:   ">>>",
	OpBitNot:       "~",
	OpCompound:     "op=",
	OpInc:          "++",
	OpDec:          "--",
	OpPostInc:      "++postfix",
	OpPostDec:      "--postfix",
	OpConstFloat:   "float",
	OpConstString:  "string",
	OpFor:          "for",
	OpDo:           "do",
	OpBreak:        "break",
	OpContinue:     "continue",
	OpSwitch:       "switch",
	OpCase:         "case",
	OpDefault:      "default",
	OpLanding:      "landing",
	OpFuncStart:    "function",
	OpFuncEnd:      "funcend",
	OpCall:         "call",
	OpArgStart:     "argstart",
	OpReturn:       "return",
}

func (o Op) String() string {
	if o < numOps {
		return opNames[o]
	}
	return "unknown"
}
