package pg0

import (
	"os"

	"github.com/reusee/dscope"
	"github.com/reusee/pg0/logs"
	"github.com/reusee/pg0/modes"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}

func (Module) Options(
	config Config,
	logger logs.Logger,
	mode modes.Mode,
) Options {
	return Options{
		Extension:   config.Extension,
		Strict:      config.Strict,
		Hex:         config.Hex,
		Trace:       config.Trace || mode == modes.ModeDevelopment,
		ImportPaths: config.ImportPaths,
		Preload:     config.Libraries,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Logger:      logger,
	}
}
