package pg0vm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Callback runs before every instruction, and once with a nil instruction when a unit finishes.
// Returning false aborts the run as an exit.
type Callback func(scope *Scope, inst *Instruction) bool

// Host is shared by every unit of one script graph.
type Host struct {
	Context  context.Context
	Stdin    *LineReader
	Stdout   io.Writer
	Stderr   io.Writer
	Hex      bool
	Callback Callback
	Builtins map[string]NativeFunc
	Logger   *slog.Logger
	Trace    bool
}

func (h *Host) Cancelled() bool {
	if h.Context == nil {
		return false
	}
	return h.Context.Err() != nil
}

func (h *Host) stdout() io.Writer {
	if h.Stdout == nil {
		return io.Discard
	}
	return h.Stdout
}

func (h *Host) stderr() io.Writer {
	if h.Stderr == nil {
		return io.Discard
	}
	return h.Stderr
}

func (h *Host) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.Logger
}

// Unit is one loaded script and its place in the import graph.
type Unit struct {
	Name      string
	Dir       string
	Lines     []string
	Program   *Program
	Extension bool
	Strict    bool
	Root      *Unit
	Host      *Host
	// Scope is the top-level scope, set once execution starts.
	Scope    *Scope
	Executed bool

	units []*Unit
	libs  []*Library
}

func NewUnit(name string, dir string, source string, host *Host) *Unit {
	if host == nil {
		host = new(Host)
	}
	u := &Unit{
		Name:  name,
		Dir:   dir,
		Lines: splitLines(source),
		Host:  host,
	}
	u.Root = u
	u.units = []*Unit{u}
	return u
}

// NewSibling creates a unit sharing u's graph root and host. It is not registered until AddUnit.
func (u *Unit) NewSibling(name string, dir string, source string) *Unit {
	return &Unit{
		Name:      name,
		Dir:       dir,
		Lines:     splitLines(source),
		Host:      u.Host,
		Root:      u.Root,
		Extension: u.Extension,
	}
}

func splitLines(source string) []string {
	return strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
}

func (u *Unit) SourceLine(line int) string {
	return SourceLine(u.Lines, line)
}

// SourceLine returns the trimmed text of a 1-based line, or "" when out of range.
func SourceLine(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.Trim(lines[line-1], " \t\r\n")
}

func (u *Unit) Units() []*Unit {
	return u.Root.units
}

// FindUnit matches units by case-insensitive base name and directory.
func (u *Unit) FindUnit(name string, dir string) *Unit {
	for _, unit := range u.Root.units {
		if strings.EqualFold(unit.Name, name) &&
			strings.EqualFold(filepath.Clean(unit.Dir), filepath.Clean(dir)) {
			return unit
		}
	}
	return nil
}

func (u *Unit) AddUnit(unit *Unit) {
	unit.Root = u.Root
	u.Root.units = append(u.Root.units, unit)
}

func (u *Unit) AttachLibrary(lib *Library) {
	u.Root.libs = append(u.Root.libs, lib)
}

func (u *Unit) Libraries() []*Library {
	return u.Root.libs
}

// Close releases every library attached to the graph root, and stops the host's stdin reader.
func (u *Unit) Close() error {
	if u.Host.Stdin != nil {
		u.Host.Stdin.Close()
	}
	var errs []error
	for _, lib := range u.Root.libs {
		if lib.Close != nil {
			if err := lib.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	u.Root.libs = nil
	return errors.Join(errs...)
}
