package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/reusee/pg0/cmds"
	"github.com/reusee/pg0/pg0"
)

const (
	appName = "pg0"
	version = "1.0.0"
)

type flagGroup struct {
	pg0     bool
	strict  bool
	hex     bool
	version bool
	help    bool
}

// parseFlags reads the optional /psxv? group in front of the script name.
func parseFlags(args []string) (flagGroup, []string) {
	var flags flagGroup
	if len(args) == 0 {
		return flags, args
	}
	arg := args[0]
	if !strings.HasPrefix(arg, "/") && !strings.HasPrefix(arg, "-") {
		return flags, args
	}
	for _, c := range strings.ToLower(arg[1:]) {
		switch c {
		case 'p':
			flags.pg0 = true
		case 's':
			flags.strict = true
		case 'x':
			flags.hex = true
		case 'v':
			flags.version = true
		case '?':
			flags.help = true
		}
	}
	return flags, args[1:]
}

func (f flagGroup) apply(opts pg0.Options) pg0.Options {
	if f.pg0 {
		opts.Extension = false
	}
	if f.strict {
		opts.Strict = true
	}
	if f.hex {
		opts.Hex = true
	}
	return opts
}

func writeUsage(w io.Writer) {
	fmt.Fprintf(w, "%s [options] [/psxv] [file.pg0] [arg1[ arg2...]]\n", appName)
	fmt.Fprint(w, `
  p		PG0 mode
  s		Strict
  x		Hex result
  v		Version

  file.pg0	Script file; line mode without it
  arg1		Script arguments, as argv and argc

options:
`)
	cmds.GlobalExecutor.WriteUsage(w)
}
