package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/reusee/pg0/logs"
	"github.com/reusee/pg0/pg0"
)

func runLines(ctx context.Context, opts pg0.Options, logger logs.Logger) int {
	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".pg0_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFile,
	})
	if err != nil {
		logError(ctx, logger, err)
		opts.Report("", err)
		return 1
	}
	defer rl.Close()
	opts.Stdout = rl.Stdout()
	opts.Stderr = rl.Stderr()

	scope, err := opts.NewLineScope()
	if err != nil {
		logError(ctx, logger, err)
		return 1
	}
	defer func() {
		if err := scope.Unit.Close(); err != nil {
			logger.WarnContext(ctx, "close libraries",
				"error", err,
			)
		}
	}()

	for {
		line, err := rl.Readline()
		if err != nil { // Ctrl-C or Ctrl-D
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		values, done, err := opts.Exec(scope, line)
		if err != nil {
			logError(ctx, logger, err)
			continue
		}
		if done {
			break
		}
		for _, v := range values {
			fmt.Fprintln(opts.Stdout, v.Display(opts.Hex))
		}
	}
	return 0
}
