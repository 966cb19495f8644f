package debugs

import (
	"github.com/reusee/dscope"
	"github.com/reusee/pg0/logs"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}
