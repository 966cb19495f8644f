package logs

import (
	"io"
	"os"

	"github.com/reusee/pg0/cmds"
)

type Writer io.Writer

var logFile = cmds.Var[string]("-log-file", "append logs to this file instead of stderr")

func (Module) Writer() Writer {
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return f
		}
	}
	return os.Stderr
}
