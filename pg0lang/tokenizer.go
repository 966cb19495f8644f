package pg0lang

import (
	"strings"

	"github.com/reusee/pg0/pg0vm"
)

// Tokenizer splits source text into tokens. The concat flag records whether
// an operand is expected next, which decides between unary and binary
// readings of + and - and whether a newline ends a statement.
type Tokenizer struct {
	src       []rune
	name      string
	lines     []string
	extension bool
	concat    bool

	p, r      int
	line      int
	lineStart int
	pos       Pos

	current Token
}

func NewTokenizer(src *Source, extension bool) *Tokenizer {
	return &Tokenizer{
		src:       []rune(src.Content),
		name:      src.Name,
		lines:     src.Lines,
		extension: extension,
		concat:    true,
		line:      1,
	}
}

func (t *Tokenizer) Current() Token {
	return t.current
}

func (t *Tokenizer) at(i int) rune {
	if i >= 0 && i < len(t.src) {
		return t.src[i]
	}
	return 0
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '　'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdent(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || isDigit(r) || r == '_'
}

func (t *Tokenizer) fail(kind pg0vm.ErrorKind) error {
	return &pg0vm.Error{
		Kind: kind,
		Unit: t.name,
		Line: t.line,
		Text: pg0vm.SourceLine(t.lines, t.line),
	}
}

func (t *Tokenizer) set(op pg0vm.Op) {
	t.current = Token{
		Op:  op,
		Pos: t.pos,
	}
}

// Next advances to the next token.
func (t *Tokenizer) Next() error {
	prev := t.current.Op
	for {
		t.p = t.r
		for isSpace(t.at(t.p)) {
			t.p++
		}
		t.r = t.p
		t.pos = Pos{
			Line:   t.line,
			Column: t.p - t.lineStart + 1,
		}
		t.set(pg0vm.OpNone)

		if t.extension {
			ok, err := t.extensionToken()
			if err != nil {
				return err
			}
			if ok {
				t.r++
				t.current.Text = string(t.src[t.p:t.r])
				return nil
			}
		}

		c := t.at(t.p)
		next := t.at(t.p + 1)
		op := pg0vm.OpNone
		switch c {
		case 0:
			t.set(pg0vm.OpEOF)
			return nil

		case '\n':
			if !t.concat || prev == pg0vm.OpExit || prev == pg0vm.OpReturn ||
				prev == pg0vm.OpBreak || prev == pg0vm.OpContinue {
				op = pg0vm.OpLineEnd
				t.concat = true
			}
			t.line++
			t.lineStart = t.p + 1
			if op == pg0vm.OpNone {
				t.r = t.p + 1
				continue
			}

		case ';':
			op = pg0vm.OpLineSep
			t.concat = true
		case ',':
			op = pg0vm.OpWordEnd
			t.concat = true

		case '{', '(':
			if !t.concat {
				return t.fail(pg0vm.ErrSentencePrev)
			}
			if t.pairBrace(t.p) < 0 {
				return t.fail(pg0vm.ErrParentheses)
			}
			op = pg0vm.OpBlockOpen
			if c == '(' {
				op = pg0vm.OpOpen
			}
			t.concat = true
		case '}':
			op = pg0vm.OpBlockClose
			t.concat = false
		case ')':
			op = pg0vm.OpClose
			t.concat = false

		case '[':
			if t.concat {
				return t.fail(pg0vm.ErrSentence)
			}
			if t.pairBrace(t.p) < 0 {
				return t.fail(pg0vm.ErrParentheses)
			}
			op = pg0vm.OpIndexOpen
			t.concat = true
		case ']':
			op = pg0vm.OpIndexClose
			t.concat = false

		case '=':
			if t.concat {
				return t.fail(pg0vm.ErrSentence)
			}
			op = pg0vm.OpAssign
			if next == '=' {
				op = pg0vm.OpEq
				t.r++
			}
			t.concat = true

		case '!':
			switch {
			case t.concat:
				op = pg0vm.OpNot
			case next == '=':
				op = pg0vm.OpNotEq
				t.r++
				t.concat = true
			default:
				return t.fail(pg0vm.ErrSentence)
			}

		case '<', '>':
			if t.concat {
				return t.fail(pg0vm.ErrSentence)
			}
			if c == '<' {
				op = pg0vm.OpLess
			} else {
				op = pg0vm.OpGreater
			}
			if next == '=' {
				op++
				t.r++
			}
			t.concat = true

		case '&':
			if t.concat {
				if !t.extension {
					return t.fail(pg0vm.ErrSentence)
				}
				// by-reference name, read as an identifier below
				break
			}
			if next != '&' {
				return t.fail(pg0vm.ErrSentence)
			}
			op = pg0vm.OpLogicalAnd
			t.r++
			t.concat = true

		case '|':
			if t.concat || next != '|' {
				return t.fail(pg0vm.ErrSentence)
			}
			op = pg0vm.OpLogicalOr
			t.r++
			t.concat = true

		case '/':
			if next == '/' {
				for t.r < len(t.src) && t.src[t.r] != '\r' && t.src[t.r] != '\n' {
					t.r++
				}
				continue
			}
			fallthrough
		case '*', '%':
			if t.concat {
				return t.fail(pg0vm.ErrSentence)
			}
			switch c {
			case '*':
				op = pg0vm.OpMul
			case '/':
				op = pg0vm.OpDiv
			default:
				op = pg0vm.OpMod
			}
			t.concat = true

		case '+', '-':
			if t.concat {
				if next == c {
					return t.fail(pg0vm.ErrSentence)
				}
				op = pg0vm.OpPlus
				if c == '-' {
					op = pg0vm.OpMinus
				}
			} else {
				op = pg0vm.OpAdd
				if c == '-' {
					op = pg0vm.OpSub
				}
				t.concat = true
			}

		case '#':
			op = pg0vm.OpPrep
			t.concat = true
		}

		if op != pg0vm.OpNone {
			t.r++
			t.set(op)
			t.current.Text = string(t.src[t.p:t.r])
			return nil
		}

		if !t.concat {
			return t.fail(pg0vm.ErrSentencePrev)
		}
		t.concat = false

		if isDigit(c) || c == '.' && isDigit(next) {
			return t.number()
		}
		return t.identifier()
	}
}

func (t *Tokenizer) number() error {
	c, next := t.at(t.p), t.at(t.p+1)
	op := pg0vm.OpConstInt
	switch {
	case t.extension && c == '0' && (next == 'x' || next == 'X'):
		t.r = t.p + 2
		for isHexDigit(t.at(t.r)) {
			t.r++
		}
	case t.extension && c == '0' && next != '.':
		t.r = t.p + 1
		for isDigit(t.at(t.r)) {
			t.r++
		}
	default:
		if t.extension && c == '.' {
			op = pg0vm.OpConstFloat
		}
		t.r = t.p + 1
		for r := t.at(t.r); isDigit(r) || r == '.'; r = t.at(t.r) {
			if t.extension && r == '.' {
				if op == pg0vm.OpConstFloat {
					return t.fail(pg0vm.ErrSentence)
				}
				op = pg0vm.OpConstFloat
			}
			t.r++
		}
	}
	t.current.Op = op
	t.current.Text = string(t.src[t.p:t.r])
	return nil
}

func isHexDigit(r rune) bool {
	return isDigit(r) || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

func (t *Tokenizer) identifier() error {
	t.r = t.p
	if t.extension && t.at(t.r) == '&' {
		t.r++
	}
	for isIdent(t.at(t.r)) {
		t.r++
	}
	if t.r == t.p {
		return t.fail(pg0vm.ErrSentence)
	}
	text := string(t.src[t.p:t.r])
	t.current.Text = text
	if op, ok := keyword(text, t.extension); ok {
		t.current.Op = op
		t.concat = true
		return nil
	}
	if t.extension {
		i := t.r
		for r := t.at(i); r == ' ' || r == '\t' || r == '　'; r = t.at(i) {
			i++
		}
		if t.at(i) == '(' {
			t.current.Op = pg0vm.OpCall
			t.concat = true
			return nil
		}
	}
	t.current.Op = pg0vm.OpVar
	return nil
}

// extensionToken recognizes operators only available with extension syntax.
// On success t.r points at the last rune of the token.
func (t *Tokenizer) extensionToken() (bool, error) {
	c, next := t.at(t.p), t.at(t.p+1)
	compound := func(op pg0vm.Op) {
		t.current.Op = pg0vm.OpCompound
		t.current.Compound = op
		t.r++
		t.concat = true
	}
	switch c {
	case ':':
		t.current.Op = pg0vm.OpLabelEnd
		t.concat = true
		return true, nil

	case '\'', '"':
		if !t.concat {
			return false, t.fail(pg0vm.ErrSentence)
		}
		end := skipString(t.src, t.p)
		if end < 0 {
			return false, t.fail(pg0vm.ErrSentence)
		}
		t.r = end
		t.current.Op = pg0vm.OpConstString
		t.concat = false
		return true, nil

	case '<', '>':
		if next != c {
			return false, nil
		}
		if t.concat {
			return false, t.fail(pg0vm.ErrSentence)
		}
		logical := t.at(t.p+2) == c
		var op pg0vm.Op
		switch {
		case c == '<' && logical:
			op = pg0vm.OpShlLogical
		case c == '<':
			op = pg0vm.OpShl
		case logical:
			op = pg0vm.OpShrLogical
		default:
			op = pg0vm.OpShr
		}
		t.r = t.p + 1
		if logical {
			t.r++
		}
		if t.at(t.r+1) == '=' {
			t.r++
			t.current.Op = pg0vm.OpCompound
			t.current.Compound = op
		} else {
			t.current.Op = op
		}
		t.concat = true
		return true, nil

	case '&', '|', '^':
		if c != '^' && next == c {
			return false, nil
		}
		if t.concat {
			if c == '&' {
				return false, nil
			}
			return false, t.fail(pg0vm.ErrSentence)
		}
		op := pg0vm.OpBitAnd
		if c == '|' {
			op = pg0vm.OpBitOr
		} else if c == '^' {
			op = pg0vm.OpBitXor
		}
		if next == '=' {
			compound(op)
			return true, nil
		}
		t.current.Op = op
		t.concat = true
		return true, nil

	case '~':
		if !t.concat {
			return false, t.fail(pg0vm.ErrSentence)
		}
		t.current.Op = pg0vm.OpBitNot
		return true, nil

	case '+', '-':
		inc, post, op := pg0vm.OpInc, pg0vm.OpPostInc, pg0vm.OpAdd
		if c == '-' {
			inc, post, op = pg0vm.OpDec, pg0vm.OpPostDec, pg0vm.OpSub
		}
		switch {
		case t.concat && next == c:
			t.current.Op = inc
			t.r++
			return true, nil
		case t.concat:
			return false, nil
		case next == c:
			t.current.Op = post
			t.r++
			t.concat = false
			return true, nil
		case next == '=':
			compound(op)
			return true, nil
		}
		return false, nil

	case '*', '/', '%':
		if t.concat || next != '=' {
			return false, nil
		}
		op := pg0vm.OpMul
		if c == '/' {
			op = pg0vm.OpDiv
		} else if c == '%' {
			op = pg0vm.OpMod
		}
		compound(op)
		return true, nil
	}
	return false, nil
}

// skipString returns the index of the quote closing the string opened at i, or -1.
func skipString(src []rune, i int) int {
	quote := src[i]
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

// pairBrace returns the index of the bracket closing the one at i, or -1.
// Quoted strings and line comments are skipped.
func (t *Tokenizer) pairBrace(i int) int {
	open := t.src[i]
	var closing rune
	switch open {
	case '(':
		closing = ')'
	case '{':
		closing = '}'
	case '[':
		closing = ']'
	default:
		return -1
	}
	depth := 0
	for ; i < len(t.src); i++ {
		switch c := t.src[i]; c {
		case '\'', '"':
			end := skipString(t.src, i)
			if end < 0 {
				return -1
			}
			i = end
		case '/':
			if t.at(i+1) == '/' {
				for i < len(t.src) && t.src[i] != '\r' && t.src[i] != '\n' {
					i++
				}
			}
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// directive reads the argument of a preprocessor directive following '#'
// and moves past its closing parenthesis.
func (t *Tokenizer) directive() (name, arg string, err error) {
	start := t.r
	open := start
	for open < len(t.src) && t.src[open] != '(' {
		open++
	}
	if open >= len(t.src) {
		return "", "", t.fail(pg0vm.ErrSentence)
	}
	end := t.pairBrace(open)
	if end < 0 {
		return "", "", t.fail(pg0vm.ErrParentheses)
	}
	name = strings.TrimSpace(string(t.src[start:open]))

	i := open + 1
	for i < end && isSpace(t.src[i]) {
		i++
	}
	if c := t.at(i); c == '\'' || c == '"' {
		q := skipString(t.src, i)
		if q < 0 || q > end {
			q = end
		}
		arg = string(t.src[i+1 : q])
	} else {
		arg = strings.TrimRight(string(t.src[i:end]), " \t\r　")
	}

	for j := start; j <= end; j++ {
		if t.src[j] == '\n' {
			t.line++
			t.lineStart = j + 1
		}
	}
	t.r = end + 1
	return name, arg, nil
}
