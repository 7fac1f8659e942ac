package value

import "sync"

// Channel is a bounded blocking FIFO guarded by one mutex and two wait
// conditions: spaceAvail for senders, dataAvail for receivers. Queued
// payloads hold one reference each until received or the channel is
// destroyed.
type Channel struct {
	refHeader
	mu         sync.Mutex
	spaceAvail *sync.Cond
	dataAvail  *sync.Cond
	queue      []Value
	capacity   int
	closed     bool
}

// NewChannel builds a channel; the caller validates capacity >= 1.
func NewChannel(capacity int) Value {
	ch := &Channel{capacity: capacity}
	ch.spaceAvail = sync.NewCond(&ch.mu)
	ch.dataAvail = sync.NewCond(&ch.mu)
	track(&ch.refHeader)
	return Value{Kind: KindChannel, Ref: ch}
}

func (c *Channel) Capacity() int { return c.capacity }

func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Send enqueues a retained copy of v, blocking while the channel is full.
// Sending on a closed channel fails; the closed flag is checked again after
// every wait because close wakes blocked senders.
func (c *Channel) Send(v Value) *RuntimeError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Errorf(ConcurrencyUsageError, "send on closed channel")
	}
	for len(c.queue) >= c.capacity && !c.closed {
		c.spaceAvail.Wait()
	}
	if c.closed {
		return Errorf(ConcurrencyUsageError, "send on closed channel")
	}
	c.queue = append(c.queue, Retain(v))
	c.dataAvail.Signal()
	return nil
}

// Recv dequeues the oldest payload, transferring its reference to the
// caller. It blocks while the channel is empty and open, and returns the
// null sentinel immediately once the channel is empty and closed.
func (c *Channel) Recv() Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.closed {
		c.dataAvail.Wait()
	}
	if len(c.queue) == 0 {
		return Null()
	}
	v := c.queue[0]
	c.queue = append(c.queue[:0], c.queue[1:]...)
	c.spaceAvail.Signal()
	return v
}

// Close transitions Open to Closed and wakes every waiter on both
// conditions. Closing twice is a usage error.
func (c *Channel) Close() *RuntimeError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Errorf(ConcurrencyUsageError, "close of closed channel")
	}
	c.closed = true
	c.spaceAvail.Broadcast()
	c.dataAvail.Broadcast()
	return nil
}

func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) destroy() {
	for _, v := range c.queue {
		Release(v)
	}
	c.queue = nil
}
