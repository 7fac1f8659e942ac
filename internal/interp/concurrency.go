package interp

import (
	"log/slog"

	"hemlock/internal/value"
)

// spawnNative starts fn(args) on its own concurrently scheduled thread of
// execution with a fresh call frame on the closure's captured environment
// chain. The goroutine holds its own references to the task, the function
// and every argument until completion, so the spawner is free to drop the
// handle immediately.
func (in *Interp) spawnNative() *value.Native {
	return &value.Native{
		Name: "spawn",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) == 0 {
				return value.Value{}, value.Errorf(value.TypeError, "spawn needs a function")
			}
			if args[0].Kind != value.KindFunction {
				return value.Value{}, value.Errorf(value.TypeError, "spawn needs a function, got %s", args[0].Kind)
			}
			if in.taskSem != nil {
				select {
				case in.taskSem <- struct{}{}:
				default:
					return value.Value{}, value.Errorf(value.ConcurrencyUsageError, "task limit reached")
				}
			}

			fn := value.Retain(args[0])
			callArgs := make([]value.Value, len(args)-1)
			for i, a := range args[1:] {
				callArgs[i] = value.Retain(a)
			}

			taskVal := value.NewTask(in.NextHandleID())
			task := taskVal.TaskRef()
			runnerRef := value.Retain(taskVal)

			slog.Debug("task spawned", slog.Int64("task", task.ID))
			go func() {
				result, err := in.applyFunction(fn, callArgs, value.Null(), false)
				if err != nil {
					result = value.Null()
				}
				dropped := task.Complete(result, err)
				if dropped != nil {
					slog.Warn("detached task raised uncaught exception",
						slog.Int64("task", task.ID),
						slog.String("payload", dropped.Message()))
					dropped.Release()
				}
				releaseAll(callArgs)
				value.Release(fn)
				if in.taskSem != nil {
					<-in.taskSem
				}
				value.Release(runnerRef)
			}()

			return taskVal, nil
		},
	}
}

func (in *Interp) joinNative() *value.Native {
	return &value.Native{
		Name: "join",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 1 || args[0].Kind != value.KindTask {
				return value.Value{}, value.Errorf(value.TypeError, "join needs a task")
			}
			return in.joinTask(args[0].TaskRef())
		},
	}
}

func (in *Interp) detachNative() *value.Native {
	return &value.Native{
		Name: "detach",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 1 || args[0].Kind != value.KindTask {
				return value.Value{}, value.Errorf(value.TypeError, "detach needs a task")
			}
			if err := in.detachTask(args[0].TaskRef()); err != nil {
				return value.Value{}, err
			}
			return value.Null(), nil
		},
	}
}

// joinTask blocks until completion; an uncaught exception inside the task
// re-raises here in the joining thread.
func (in *Interp) joinTask(t *value.Task) (value.Value, *value.RuntimeError) {
	result, err := t.Join()
	if err != nil {
		slog.Debug("join re-raising task exception", slog.Int64("task", t.ID))
		return value.Value{}, err
	}
	return result, nil
}

// detachTask forfeits join rights. An uncaught exception from an already
// finished task is logged and dropped; the task metadata is reclaimed on
// completion either way.
func (in *Interp) detachTask(t *value.Task) *value.RuntimeError {
	dropped, usage := t.Detach()
	if usage != nil {
		return usage
	}
	if dropped != nil {
		slog.Warn("detached task raised uncaught exception",
			slog.Int64("task", t.ID),
			slog.String("payload", dropped.Message()))
		dropped.Release()
	}
	return nil
}

func (in *Interp) channelNative() *value.Native {
	return &value.Native{
		Name: "channel",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 1 || !value.IsIntegerKind(args[0].Kind) {
				return value.Value{}, value.Errorf(value.TypeError, "channel needs an integer capacity")
			}
			capacity := args[0].Int
			if capacity < 1 {
				return value.Value{}, value.Errorf(value.RangeError, "channel capacity must be >= 1, got %d", capacity)
			}
			return value.NewChannel(int(capacity)), nil
		},
	}
}
