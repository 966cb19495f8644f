package pg0

import (
	"errors"
	"slices"

	"github.com/reusee/pg0/pg0vm"
)

type diagnostic struct {
	text string
	unit string
	line int
}

// diagnostics flattens the chain of err, innermost first.
// Errors outside the script model keep their text.
func diagnostics(err error) []diagnostic {
	var ret []diagnostic
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		var e *pg0vm.Error
		if !errors.As(cur, &e) {
			ret = append(ret, diagnostic{
				text: cur.Error(),
			})
			break
		}
		ret = append(ret, diagnostic{
			text: e.Error(),
			unit: e.Unit,
			line: e.Line,
		})
		cur = e
	}
	slices.Reverse(ret)
	return ret
}

// Report passes every diagnostic in the chain of err to the error builtin, innermost first.
// The line number is passed along only for diagnostics of the root unit.
func (o Options) Report(root string, err error) {
	o.report(o.newHost(), root, err)
}

func (o Options) report(host *pg0vm.Host, root string, err error) {
	if err == nil {
		return
	}
	fn, ok := host.Builtins["error"]
	if !ok || fn.Func == nil {
		return
	}
	ctx := &pg0vm.Context{
		Host: host,
	}
	for _, d := range diagnostics(err) {
		args := []*pg0vm.Value{
			pg0vm.NewString(d.text),
		}
		if d.line > 0 && d.unit == root {
			args = append(args, pg0vm.NewInt(int64(d.line)))
		}
		if _, e := fn.Func(ctx, args); e != nil {
			o.logger().Warn("report diagnostic",
				"diagnostic", d.text,
				"error", e,
			)
		}
	}
}
