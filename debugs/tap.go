package debugs

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/reusee/pg0/logs"
	"github.com/reusee/pg0/pg0vm"
	"github.com/samber/lo"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Tap opens an interactive starlark session over globals.
type Tap func(ctx context.Context, what string, globals map[string]any)

func (Module) Tap(
	logger logs.Logger,
) Tap {
	return func(ctx context.Context, what string, globals map[string]any) {
		names := slices.Sorted(maps.Keys(globals))
		logger.InfoContext(ctx, "tap: "+what,
			"globals", names,
		)
		defer func() {
			logger.InfoContext(ctx, "tap end: "+what)
		}()

		mappings := make(starlark.StringDict)
		for name, value := range globals {
			mappings[name] = toStarlarkValue(value)
		}

		thread := &starlark.Thread{
			Name: what,
		}
		repl.REPLOptions(&syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
		}, thread, mappings)
	}
}

// NewBreakpoints returns a callback that taps the visible variables when a run enters one of lines.
// funcs are added to the tap globals. The callback aborts the run once ctx is done.
type NewBreakpoints func(ctx context.Context, lines []int, funcs map[string]any) pg0vm.Callback

func (Module) NewBreakpoints(
	tap Tap,
	logger logs.Logger,
) NewBreakpoints {
	return func(ctx context.Context, lines []int, funcs map[string]any) pg0vm.Callback {
		set := lo.SliceToMap(lines, func(line int) (int, bool) {
			return line, true
		})
		var (
			lastLine int
			lastUnit *pg0vm.Unit
		)
		return func(scope *pg0vm.Scope, inst *pg0vm.Instruction) bool {
			if ctx.Err() != nil {
				logger.InfoContext(ctx, "run cancelled")
				return false
			}
			if inst == nil {
				return true
			}
			if inst.Line == lastLine && scope.Unit == lastUnit {
				return true
			}
			lastLine = inst.Line
			lastUnit = scope.Unit
			if !set[inst.Line] {
				return true
			}
			snapshot := TakeSnapshot(scope, inst.Line)
			globals := snapshot.Globals()
			maps.Copy(globals, funcs)
			tap(ctx, fmt.Sprintf("%s:%d", snapshot.Unit, inst.Line), globals)
			return true
		}
	}
}
