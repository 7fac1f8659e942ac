package value

import "sync"

// Task is the handle for one concurrently running function. The result cell
// is written exactly once by Complete; join rights are consumed by Join or
// forfeited by Detach. The running thread holds its own reference to the
// task, so a handle dropped by the spawner stays alive until completion.
type Task struct {
	refHeader
	ID int64

	mu       sync.Mutex
	done     chan struct{}
	result   Value
	err      *RuntimeError
	finished bool
	joined   bool
	detached bool
	consumed bool
}

func NewTask(id int64) Value {
	t := &Task{ID: id, done: make(chan struct{})}
	track(&t.refHeader)
	return Value{Kind: KindTask, Ref: t}
}

// Complete writes the result cell and wakes joiners. Exactly one of result
// and err is meaningful; ownership of both moves into the task. If the task
// was detached first, the discarded outcome is released immediately and a
// dropped uncaught error is handed back for the caller to log.
func (t *Task) Complete(result Value, err *RuntimeError) (dropped *RuntimeError) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		panic("fatal: task completed twice")
	}
	t.finished = true
	if t.detached {
		t.consumed = true
		t.mu.Unlock()
		close(t.done)
		Release(result)
		return err
	}
	t.result = result
	t.err = err
	t.mu.Unlock()
	close(t.done)
	return nil
}

// Join blocks until completion and transfers the outcome to the caller: the
// result reference on success, the uncaught error for re-raising otherwise.
// Joining twice or joining a detached task is a usage error.
func (t *Task) Join() (Value, *RuntimeError) {
	t.mu.Lock()
	if t.detached {
		t.mu.Unlock()
		return Value{}, Errorf(ConcurrencyUsageError, "cannot join detached task")
	}
	if t.joined {
		t.mu.Unlock()
		return Value{}, Errorf(ConcurrencyUsageError, "task already joined")
	}
	t.joined = true
	t.mu.Unlock()

	<-t.done

	t.mu.Lock()
	defer t.mu.Unlock()
	t.consumed = true
	result, err := t.result, t.err
	t.result = Null()
	t.err = nil
	return result, err
}

// Detach forfeits join rights. If the task already finished, its outcome is
// released here; a dropped uncaught error is handed back for logging.
func (t *Task) Detach() (dropped *RuntimeError, usage *RuntimeError) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.joined {
		return nil, Errorf(ConcurrencyUsageError, "cannot detach joined task")
	}
	if t.detached {
		return nil, Errorf(ConcurrencyUsageError, "task already detached")
	}
	t.detached = true
	if t.finished && !t.consumed {
		t.consumed = true
		Release(t.result)
		t.result = Null()
		dropped = t.err
		t.err = nil
	}
	return dropped, nil
}

func (t *Task) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

func (t *Task) destroy() {
	if !t.consumed {
		Release(t.result)
		t.result = Null()
		if t.err != nil {
			t.err.Release()
			t.err = nil
		}
	}
}
