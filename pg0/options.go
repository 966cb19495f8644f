package pg0

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/reusee/pg0/pg0vm"
)

type Options struct {
	// Extension enables the extended grammar; without it only the PG0 subset parses.
	Extension bool
	Strict    bool
	Hex       bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Context  context.Context
	Callback pg0vm.Callback

	// Libraries are attached to every graph root before parsing.
	Libraries []*pg0vm.Library
	// Preload names registered libraries opened on every graph root and closed with it.
	Preload []string
	// Natives are extra builtins, overriding the standard ones.
	Natives     map[string]pg0vm.NativeFunc
	ImportPaths []string
	Trace       bool
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) newHost() *pg0vm.Host {
	builtins := Builtins()
	for name, fn := range o.Natives {
		builtins[strings.ToLower(name)] = fn
	}
	host := &pg0vm.Host{
		Context:  o.Context,
		Stdout:   o.Stdout,
		Stderr:   o.Stderr,
		Hex:      o.Hex,
		Callback: o.Callback,
		Builtins: builtins,
		Logger:   o.logger(),
		Trace:    o.Trace,
	}
	if o.Stdin != nil {
		host.Stdin = pg0vm.NewLineReader(o.Stdin)
	}
	return host
}

// attachLibraries shares the preloaded libraries with a graph and opens the named ones.
// Closing Libraries stays with the caller.
func (o Options) attachLibraries(unit *pg0vm.Unit) error {
	for _, lib := range o.Libraries {
		shared := *lib
		shared.Close = nil
		unit.AttachLibrary(&shared)
	}
	l := &loader{
		options: o,
		unit:    unit,
	}
	for _, name := range o.Preload {
		if err := l.Library(name); err != nil {
			e := pg0vm.NewError(pg0vm.ErrFileOpen, nil, 0, "")
			e.Unit = unit.Name
			e.Text = name
			e.Err = err
			return e
		}
	}
	return nil
}
