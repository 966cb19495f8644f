package pg0vm

import (
	"errors"
	"io"
	"log/slog"
)

type NativeFunc struct {
	Name string
	Func func(ctx *Context, args []*Value) (*Value, error)
}

// Context is what a native function sees of its caller.
type Context struct {
	Scope *Scope
	Unit  *Unit
	Host  *Host
	Line  int
}

func (c *Context) Cancelled() bool {
	return c.Host.Cancelled()
}

func (c *Context) Stdout() io.Writer {
	return c.Host.stdout()
}

func (c *Context) Stderr() io.Writer {
	return c.Host.stderr()
}

func (c *Context) Logger() *slog.Logger {
	return c.Host.logger()
}

// Arg returns the i-th argument or ErrArgumentCount.
func (c *Context) Arg(args []*Value, i int) (*Value, error) {
	if i >= len(args) {
		return nil, ErrArgumentCount
	}
	return args[i], nil
}

func (n NativeFunc) call(ctx *Context, args []*Value) (*Value, error) {
	ret, err := n.Func(ctx, args)
	if err != nil {
		if errors.Is(err, ErrArgumentCount) {
			return nil, NewError(ErrArgumentCount, ctx.Unit, ctx.Line, "")
		}
		var e *Error
		if errors.As(err, &e) {
			return nil, e
		}
		return nil, &Error{
			Kind: ErrFunctionExec,
			Unit: unitName(ctx.Unit),
			Line: ctx.Line,
			Text: err.Error(),
			Err:  err,
		}
	}
	if ret == nil {
		ret = NewInt(0)
	}
	return ret, nil
}

func unitName(u *Unit) string {
	if u == nil {
		return ""
	}
	return u.Name
}
