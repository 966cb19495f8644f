package pg0lang

import (
	"strings"

	"github.com/reusee/pg0/pg0vm"
)

type Token struct {
	Op pg0vm.Op
	// Compound is the arithmetic operator of a compound assignment token.
	Compound pg0vm.Op
	Text     string
	Pos      Pos
}

var keywords = map[string]pg0vm.Op{
	"var":   pg0vm.OpKeywordVar,
	"exit":  pg0vm.OpExit,
	"if":    pg0vm.OpIf,
	"else":  pg0vm.OpElse,
	"while": pg0vm.OpWhile,
}

var extensionKeywords = map[string]pg0vm.Op{
	"for":      pg0vm.OpFor,
	"do":       pg0vm.OpDo,
	"break":    pg0vm.OpBreak,
	"continue": pg0vm.OpContinue,
	"switch":   pg0vm.OpSwitch,
	"case":     pg0vm.OpCase,
	"default":  pg0vm.OpDefault,
	"return":   pg0vm.OpReturn,
	"function": pg0vm.OpFuncStart,
}

func keyword(word string, extension bool) (pg0vm.Op, bool) {
	word = strings.ToLower(word)
	if op, ok := keywords[word]; ok {
		return op, true
	}
	if extension {
		if op, ok := extensionKeywords[word]; ok {
			return op, true
		}
	}
	return pg0vm.OpNone, false
}
