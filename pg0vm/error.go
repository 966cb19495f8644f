package pg0vm

import (
	"fmt"
	"strings"
)

type ErrorKind int

const (
	ErrSentence ErrorKind = iota
	ErrSentencePrev
	ErrNotDeclared
	ErrDeclared
	ErrIndex
	ErrParentheses
	ErrBlock
	ErrDivZero
	ErrOperator
	ErrArrayOperator
	ErrAlloc
	ErrArgumentCount
	ErrFileOpen
	ErrScript
	ErrFunction
	ErrFunctionExec
)

var kindMessages = [...]string{
	ErrSentence:      "Syntax error",
	ErrSentencePrev:  "Operators are required",
	ErrNotDeclared:   " :Undefined variable",
	ErrDeclared:      " :Duplicate variable declaration",
	ErrIndex:         "Array index is negative value",
	ErrParentheses:   "Unbalanced parentheses",
	ErrBlock:         "Block'{...}' expected",
	ErrDivZero:       "Division by zero",
	ErrOperator:      "Illegal operator",
	ErrArrayOperator: "Illegal operator to array",
	ErrAlloc:         "Alloc failed",
	ErrArgumentCount: "Too few arguments",
	ErrFileOpen:      "File open error",
	ErrScript:        "Read error in script or library",
	ErrFunction:      "Function not Found",
	ErrFunctionExec:  "Function error",
}

func (k ErrorKind) Error() string {
	if k >= 0 && int(k) < len(kindMessages) {
		return kindMessages[k]
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is a diagnostic tied to a script unit and line.
type Error struct {
	Kind ErrorKind
	Unit string
	Line int
	// Text is the trimmed source line, or a detail message when no line is known.
	Text   string
	Prefix string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("Error: ")
	if e.Unit != "" {
		b.WriteString("[")
		b.WriteString(e.Unit)
		b.WriteString("]: ")
	}
	b.WriteString(e.Prefix)
	b.WriteString(e.Kind.Error())
	if e.Line > 0 {
		fmt.Fprintf(&b, "(%d)", e.Line)
	}
	if e.Text != "" {
		b.WriteString(": ")
		b.WriteString(e.Text)
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a diagnostic for unit at line, quoting the source line when available.
func NewError(kind ErrorKind, unit *Unit, line int, prefix string) *Error {
	e := &Error{
		Kind:   kind,
		Line:   line,
		Prefix: prefix,
	}
	if unit != nil {
		e.Unit = unit.Name
		e.Text = unit.SourceLine(line)
	}
	return e
}
