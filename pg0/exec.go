package pg0

import (
	"os"

	"github.com/reusee/pg0/pg0lang"
	"github.com/reusee/pg0/pg0vm"
)

// NewLineScope creates the persistent scope of a line-mode session.
func (o Options) NewLineScope() (*pg0vm.Scope, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	host := o.newHost()
	unit := pg0vm.NewUnit("line", dir, "", host)
	unit.Extension = o.Extension
	unit.Strict = o.Strict
	unit.Program = pg0vm.NewProgram()
	if err := o.attachLibraries(unit); err != nil {
		unit.Close()
		o.report(host, unit.Name, err)
		return nil, err
	}
	scope := pg0vm.NewScope(nil, unit)
	scope.LineMode = true
	unit.Scope = scope
	return scope, nil
}

// Exec parses one line into the session program and runs it in scope.
// It returns the values left on the operand stack; done reports exit or return.
// Failures are also reported through the error builtin.
func (o Options) Exec(scope *pg0vm.Scope, line string) (values []*pg0vm.Value, done bool, err error) {
	unit := scope.Unit
	defer func() {
		if err != nil {
			o.report(unit.Host, unit.Name, err)
		}
	}()
	src := pg0lang.NewSource(unit.Name, unit.Dir, line)
	prog, err := pg0lang.Parse(src, pg0lang.ParseOptions{
		Extension: unit.Extension,
		Strict:    unit.Strict,
		Directives: &loader{
			options: o,
			unit:    unit,
		},
		Into: unit.Program,
	})
	if err != nil {
		return nil, false, err
	}
	unit.Lines = src.Lines
	unit.Extension = prog.Extension
	unit.Strict = prog.Strict
	return pg0vm.ExecLine(scope, prog.Entry)
}
