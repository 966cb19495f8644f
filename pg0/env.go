package pg0

import (
	"os"
	"path/filepath"

	"github.com/reusee/pg0/pg0vm"
	"github.com/samber/lo"
)

// Env describes one script graph to load: either Source text or files matching FilePatterns.
type Env struct {
	Options
	Source     string
	SourceName string
	// FilePatterns are globs. The first matching file is the root unit; the rest load as imports.
	FilePatterns []string
}

func (e Env) files() ([]string, error) {
	var files []string
	for _, pattern := range e.FilePatterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			matches = []string{pattern}
		}
		for _, match := range matches {
			abs, err := filepath.Abs(match)
			if err != nil {
				return nil, err
			}
			info, err := os.Stat(abs)
			if err != nil {
				return nil, fileOpenError(filepath.Base(match), err)
			}
			if info.IsDir() {
				continue
			}
			files = append(files, abs)
		}
	}
	files = lo.Uniq(files)
	if len(files) == 0 {
		return nil, fileOpenError("", os.ErrNotExist)
	}
	return files, nil
}

func hasMeta(pattern string) bool {
	return lo.ContainsBy([]rune(pattern), func(r rune) bool {
		return r == '*' || r == '?' || r == '['
	})
}

func fileOpenError(name string, err error) *pg0vm.Error {
	return &pg0vm.Error{
		Kind: pg0vm.ErrFileOpen,
		Text: name,
		Err:  err,
	}
}

// NewUnit loads and parses the graph without running the root unit.
// Imported units run as their directives are parsed.
// Failures are also reported through the error builtin.
func (e Env) NewUnit() (_ *pg0vm.Unit, err error) {
	var (
		name   = e.SourceName
		dir    string
		path   string
		source = e.Source
		extra  []string
		host   = e.newHost()
	)
	defer func() {
		if err != nil {
			e.report(host, name, err)
		}
	}()

	if len(e.FilePatterns) > 0 {
		files, err := e.files()
		if err != nil {
			return nil, err
		}
		path = files[0]
		extra = files[1:]
		name = filepath.Base(path)
		dir = filepath.Dir(path)
		source, err = ReadSource(path)
		if err != nil {
			return nil, fileOpenError(name, err)
		}
	} else {
		if name == "" {
			name = "main"
		}
		dir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	unit := pg0vm.NewUnit(name, dir, source, host)
	unit.Extension = e.Extension
	unit.Strict = e.Strict
	defer func() {
		if err != nil {
			unit.Close()
		}
	}()

	if err := e.attachLibraries(unit); err != nil {
		return nil, err
	}

	l := &loader{
		options: e.Options,
		unit:    unit,
		path:    path,
	}
	for _, file := range extra {
		if err := l.importFile(file); err != nil {
			return nil, err
		}
	}

	e.logger().Debug("parse",
		"unit", name,
		"dir", dir,
	)
	if err := e.parseUnit(unit, path, source); err != nil {
		return nil, err
	}
	return unit, nil
}

// Execute runs the root unit with argv set to args and argc to their count.
func (e Env) Execute(unit *pg0vm.Unit, args ...string) (*pg0vm.Value, error) {
	argv := pg0vm.NewArray(lo.Map(args, func(arg string, _ int) *pg0vm.Slot {
		return &pg0vm.Slot{Value: pg0vm.NewString(arg)}
	})...)
	ret, err := pg0vm.Execute(unit,
		&pg0vm.Slot{Name: "argv", Value: argv},
		&pg0vm.Slot{Name: "argc", Value: pg0vm.NewInt(int64(len(args)))},
	)
	if err != nil {
		e.report(unit.Host, unit.Name, err)
	}
	return ret, err
}

// Run loads, executes, and closes the graph.
func (e Env) Run(args ...string) (_ *pg0vm.Value, err error) {
	unit, err := e.NewUnit()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := unit.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return e.Execute(unit, args...)
}
