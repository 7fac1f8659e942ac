package value

import (
	"testing"
	"time"
)

func TestTaskCompleteThenJoin(t *testing.T) {
	tv := NewTask(1)
	task := tv.TaskRef()

	go func() {
		time.Sleep(10 * time.Millisecond)
		task.Complete(I32(42), nil)
	}()

	result, err := task.Join()
	if err != nil {
		t.Fatalf("join: %s", err.Message())
	}
	if result.Int != 42 {
		t.Errorf("join result = %d, want 42", result.Int)
	}
	Release(tv)
}

func TestTaskDoubleJoinIsUsageError(t *testing.T) {
	tv := NewTask(2)
	task := tv.TaskRef()
	task.Complete(Null(), nil)

	if _, err := task.Join(); err != nil {
		t.Fatalf("first join: %s", err.Message())
	}
	if _, err := task.Join(); err == nil || err.Kind != ConcurrencyUsageError {
		t.Errorf("second join must be a ConcurrencyUsageError")
	} else {
		err.Release()
	}
	Release(tv)
}

func TestTaskJoinAfterDetachIsUsageError(t *testing.T) {
	tv := NewTask(3)
	task := tv.TaskRef()

	if _, usage := task.Detach(); usage != nil {
		t.Fatalf("detach: %s", usage.Message())
	}
	if _, err := task.Join(); err == nil || err.Kind != ConcurrencyUsageError {
		t.Errorf("join after detach must be a ConcurrencyUsageError")
	} else {
		err.Release()
	}

	task.Complete(Null(), nil)
	Release(tv)
}

func TestTaskJoinTransfersUncaughtError(t *testing.T) {
	tv := NewTask(4)
	task := tv.TaskRef()

	task.Complete(Null(), Thrown(NewString("boom")))

	_, err := task.Join()
	if err == nil {
		t.Fatal("join must surface the task's uncaught error")
	}
	if err.Payload.StringRef().Text() != "boom" {
		t.Errorf("payload = %q, want boom", err.Payload.Inspect())
	}
	err.Release()
	Release(tv)
}

func TestDetachedTaskReclaimsMetadata(t *testing.T) {
	before := LiveHeapObjects()

	tv := NewTask(5)
	task := tv.TaskRef()
	if _, usage := task.Detach(); usage != nil {
		t.Fatal(usage.Message())
	}

	// completion after detach discards the result immediately
	result := NewString("discarded")
	if dropped := task.Complete(result, nil); dropped != nil {
		t.Errorf("unexpected dropped error")
	}

	Release(tv)
	if got := LiveHeapObjects() - before; got != 0 {
		t.Errorf("live=%d after detached completion, want 0", got)
	}
}

func TestDetachAfterCompletionDropsError(t *testing.T) {
	tv := NewTask(6)
	task := tv.TaskRef()

	task.Complete(Null(), Thrown(NewString("lost")))
	dropped, usage := task.Detach()
	if usage != nil {
		t.Fatalf("detach: %s", usage.Message())
	}
	if dropped == nil {
		t.Fatal("detach after a throwing completion must hand back the dropped error")
	}
	if dropped.Payload.StringRef().Text() != "lost" {
		t.Errorf("dropped payload = %q, want lost", dropped.Payload.Inspect())
	}
	dropped.Release()
	Release(tv)
}

func TestTaskResultCellWrittenOnce(t *testing.T) {
	tv := NewTask(7)
	task := tv.TaskRef()
	task.Complete(Null(), nil)

	defer func() {
		if recover() == nil {
			t.Errorf("second completion must be fatal")
		}
		if _, err := task.Join(); err != nil {
			err.Release()
		}
		Release(tv)
	}()
	task.Complete(Null(), nil)
}
