package pg0

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reusee/pg0/pg0lang"
	"github.com/reusee/pg0/pg0vm"
)

var errNoScript = errors.New("no script matched")

// loader resolves the directives of one unit against its import graph.
type loader struct {
	options Options
	unit    *pg0vm.Unit
	// path is the absolute file of unit, skipped when a pattern matches it.
	path string
}

var _ pg0lang.Directives = new(loader)

// parseUnit compiles source into unit, running the imports it names.
func (o Options) parseUnit(unit *pg0vm.Unit, path string, source string) error {
	src := pg0lang.NewSource(unit.Name, unit.Dir, source)
	prog, err := pg0lang.Parse(src, pg0lang.ParseOptions{
		Extension: unit.Extension,
		Strict:    unit.Strict,
		Directives: &loader{
			options: o,
			unit:    unit,
			path:    path,
		},
	})
	if err != nil {
		return err
	}
	unit.Program = prog
	unit.Extension = prog.Extension
	unit.Strict = prog.Strict
	return nil
}

func (l *loader) Import(path string) error {
	var candidates []string
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		candidates = append(candidates, filepath.Join(l.unit.Dir, path))
		if wd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(wd, path))
		}
		for _, dir := range l.options.ImportPaths {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}

	for _, pattern := range candidates {
		err := l.importFiles(pattern)
		if errors.Is(err, errNoScript) {
			continue
		}
		return err
	}

	if err := l.Library(path); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return nil
}

// importFiles loads every regular file matching pattern.
func (l *loader) importFiles(pattern string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return errNoScript
	}
	found := false
	for _, match := range matches {
		abs, err := filepath.Abs(match)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if strings.EqualFold(abs, l.path) {
			continue
		}
		found = true
		if err := l.importFile(abs); err != nil {
			return err
		}
	}
	if !found {
		return errNoScript
	}
	return nil
}

// importFile parses and runs one script unless the graph already holds it.
func (l *loader) importFile(path string) error {
	name := filepath.Base(path)
	dir := filepath.Dir(path)
	if l.unit.FindUnit(name, dir) != nil {
		l.options.logger().Debug("import skipped",
			"unit", l.unit.Name,
			"file", path,
		)
		return nil
	}

	source, err := ReadSource(path)
	if err != nil {
		return err
	}
	l.options.logger().Debug("import",
		"unit", l.unit.Name,
		"file", path,
	)

	child := l.unit.NewSibling(name, dir, source)
	child.Extension = true
	child.Strict = l.options.Strict
	l.unit.AddUnit(child)

	if err := l.options.parseUnit(child, path, source); err != nil {
		return err
	}
	if !child.Executed {
		if _, err := pg0vm.Execute(child); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) Library(name string) error {
	lib, err := pg0vm.OpenLibrary(name)
	if err != nil {
		return err
	}
	for _, attached := range l.unit.Libraries() {
		if strings.EqualFold(attached.Name, lib.Name) {
			if lib.Close != nil {
				return lib.Close()
			}
			return nil
		}
	}
	l.options.logger().Debug("library",
		"unit", l.unit.Name,
		"library", lib.Name,
	)
	l.unit.AttachLibrary(lib)
	return nil
}
