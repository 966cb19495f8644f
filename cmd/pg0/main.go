package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/reusee/dscope"
	"github.com/reusee/pg0/cmds"
	"github.com/reusee/pg0/debugs"
	_ "github.com/reusee/pg0/libs/http"
	_ "github.com/reusee/pg0/libs/sample"
	_ "github.com/reusee/pg0/libs/sqlite"
	_ "github.com/reusee/pg0/libs/toml"
	"github.com/reusee/pg0/logs"
	"github.com/reusee/pg0/modes"
	"github.com/reusee/pg0/pg0"
)

var (
	breakLines = cmds.Collect[int]("-break", "open a starlark tap when a run reaches this line")
	dumpPath   = cmds.Var[string]("-dump", "write the final root scope as a CBOR snapshot")
	devFlag    = cmds.Switch("-dev", "development mode, tracing by default")
)

type Module struct {
	dscope.Module
	PG0    pg0.Module
	Debugs debugs.Module
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	args = cmds.ExecutePrefix(args)
	flags, args := parseFlags(args)
	if flags.help {
		writeUsage(os.Stdout)
		return 0
	}
	if flags.version {
		fmt.Println(appName + " Ver " + version)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var code int
	dscope.New(
		new(Module),
		modes.Select(*devFlag),
	).Call(func(
		opts pg0.Options,
		logger logs.Logger,
		newSpan logs.NewSpan,
		newBreakpoints debugs.NewBreakpoints,
	) {
		opts = flags.apply(opts)
		if opts.Trace {
			logs.SetLevel(slog.LevelDebug)
		}
		ctx, _ := newSpan(ctx, "",
			"args", args,
			"extension", opts.Extension,
			"strict", opts.Strict,
		)
		opts.Context = ctx

		if len(args) == 0 {
			code = runLines(ctx, opts, logger)
			return
		}

		if len(*breakLines) > 0 {
			opts.Callback = newBreakpoints(ctx, *breakLines, nil)
		}
		code = runFile(ctx, opts, logger, args[0], args[1:])
	})
	return code
}

func runFile(
	ctx context.Context,
	opts pg0.Options,
	logger logs.Logger,
	file string,
	args []string,
) int {
	logger.InfoContext(ctx, "run",
		"file", file,
	)
	env := pg0.Env{
		Options:      opts,
		FilePatterns: []string{file},
	}

	unit, err := env.NewUnit()
	if err != nil {
		logError(ctx, logger, err)
		return 1
	}
	defer func() {
		if err := unit.Close(); err != nil {
			logger.WarnContext(ctx, "close libraries",
				"error", err,
			)
		}
	}()

	ret, err := env.Execute(unit, args...)
	if err != nil {
		logError(ctx, logger, err)
		return 1
	}

	if *dumpPath != "" {
		if err := dumpScope(unit, *dumpPath); err != nil {
			logError(ctx, logger, err)
			opts.Report(unit.Name, err)
			return 1
		}
		logger.InfoContext(ctx, "snapshot written",
			"path", *dumpPath,
		)
	}

	if ret != nil {
		fmt.Fprintln(opts.Stdout, ret.Display(opts.Hex))
	}
	return 0
}

// logError records a failure the engine already reported through the error builtin.
func logError(ctx context.Context, logger logs.Logger, err error) {
	logger.DebugContext(ctx, "run failed",
		"error", logs.WrapSpan(ctx, err),
	)
}
