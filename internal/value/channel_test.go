package value

import (
	"testing"
	"time"
)

func TestChannelRendezvous(t *testing.T) {
	const n = 100
	const capacity = 4

	chv := NewChannel(capacity)
	ch := chv.ChannelRef()

	go func() {
		for i := 0; i < n; i++ {
			if err := ch.Send(I32(int64(i))); err != nil {
				t.Errorf("send %d: %s", i, err.Message())
				return
			}
		}
		if err := ch.Close(); err != nil {
			t.Errorf("close: %s", err.Message())
		}
	}()

	var sum int64
	for i := 0; i < n; i++ {
		v := ch.Recv()
		if v.Kind != KindI32 {
			t.Fatalf("recv %d: kind %s", i, v.Kind)
		}
		sum += v.Int
	}
	if want := int64(n * (n - 1) / 2); sum != want {
		t.Errorf("sum=%d, want %d", sum, want)
	}

	// closed and drained: the null sentinel comes back without blocking
	done := make(chan Value, 1)
	go func() { done <- ch.Recv() }()
	select {
	case v := <-done:
		if !v.IsNull() {
			t.Errorf("recv after close = %s, want null", v.Inspect())
		}
	case <-time.After(2 * time.Second):
		t.Errorf("recv on closed empty channel blocked")
	}

	Release(chv)
}

func TestChannelSendOnClosedFails(t *testing.T) {
	chv := NewChannel(1)
	ch := chv.ChannelRef()

	if err := ch.Close(); err != nil {
		t.Fatalf("close: %s", err.Message())
	}
	err := ch.Send(I32(1))
	if err == nil || err.Kind != ConcurrencyUsageError {
		t.Errorf("send on closed channel must be a ConcurrencyUsageError")
	} else {
		err.Release()
	}
	Release(chv)
}

func TestChannelCloseWakesBlockedSender(t *testing.T) {
	chv := NewChannel(1)
	ch := chv.ChannelRef()

	if err := ch.Send(I32(1)); err != nil {
		t.Fatal(err.Message())
	}

	errs := make(chan *RuntimeError, 1)
	go func() { errs <- ch.Send(I32(2)) }()

	time.Sleep(50 * time.Millisecond)
	if err := ch.Close(); err != nil {
		t.Fatal(err.Message())
	}

	select {
	case err := <-errs:
		if err == nil || err.Kind != ConcurrencyUsageError {
			t.Errorf("blocked sender must fail once the channel closes")
		} else {
			err.Release()
		}
	case <-time.After(2 * time.Second):
		t.Errorf("blocked sender not woken by close")
	}
	Release(chv)
}

func TestChannelDoubleCloseFails(t *testing.T) {
	chv := NewChannel(1)
	ch := chv.ChannelRef()

	if err := ch.Close(); err != nil {
		t.Fatal(err.Message())
	}
	if err := ch.Close(); err == nil || err.Kind != ConcurrencyUsageError {
		t.Errorf("double close must be a ConcurrencyUsageError")
	} else {
		err.Release()
	}
	Release(chv)
}

func TestChannelDestroyReleasesQueuedPayloads(t *testing.T) {
	before := LiveHeapObjects()

	chv := NewChannel(2)
	s := NewString("queued")
	if err := chv.ChannelRef().Send(s); err != nil {
		t.Fatal(err.Message())
	}
	Release(s)

	Release(chv)
	if got := LiveHeapObjects() - before; got != 0 {
		t.Errorf("live=%d after channel destroy, want 0", got)
	}
}
