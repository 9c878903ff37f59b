// Package atomics implements Atomics.{load,store,add,...,wait,waitAsync,
// notify,isLockFree,pause} over SharedArrayBuffer-backed TypedArrays
// (spec.md §4.3 "Atomic operations", §5 "Ordering guarantees"). Every
// user-visible atomic read/write is sequentially consistent; bounds
// checks alone use Unordered, matching spec.md §5's memory-order
// invariant.
//
// waitAsync's "park a dedicated waiter goroutine, post a job back to the
// agent on wake" shape is exactly what golang.org/x/sync/errgroup and
// singleflight are for: errgroup supervises the waiter goroutine's
// lifetime, and singleflight collapses concurrent waitAsync calls that
// land on the same buffer+index so only one goroutine actually parks.
package atomics

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ecmacore/jsvm/internal/arraybuffer"
	"github.com/ecmacore/jsvm/internal/errors"
)

// WaitOutcome is one of the three strings spec.md §5/§7 name:
// Atomics.wait's synchronous return value, and the string
// Atomics.waitAsync's promise resolves with.
type WaitOutcome string

const (
	OutcomeOK        WaitOutcome = "ok"
	OutcomeNotEqual  WaitOutcome = "not-equal"
	OutcomeTimedOut  WaitOutcome = "timed-out"
)

// waiter is one parked Atomics.wait/waitAsync call on a specific
// (buffer, byteIndex) slot.
type waiter struct {
	ch chan struct{}
}

// Coordinator owns the futex-style wait/notify bookkeeping for every
// SharedArrayBuffer the agent knows about. One Coordinator is shared by
// an Agent's Atomics.wait/notify/waitAsync calls.
type Coordinator struct {
	mu      sync.Mutex
	waiters map[*arraybuffer.Buffer]map[int][]*waiter
	group   singleflight.Group
}

func NewCoordinator() *Coordinator {
	return &Coordinator{waiters: make(map[*arraybuffer.Buffer]map[int][]*waiter)}
}

func (c *Coordinator) register(buf *arraybuffer.Buffer, byteIndex int) *waiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &waiter{ch: make(chan struct{})}
	if c.waiters[buf] == nil {
		c.waiters[buf] = make(map[int][]*waiter)
	}
	c.waiters[buf][byteIndex] = append(c.waiters[buf][byteIndex], w)
	return w
}

func (c *Coordinator) unregister(buf *arraybuffer.Buffer, byteIndex int, w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.waiters[buf][byteIndex]
	for i, other := range list {
		if other == w {
			c.waiters[buf][byteIndex] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

// Notify wakes up to count waiters parked on buf at byteIndex.
// count < 0 means "all" (Atomics.notify's count === undefined case).
func (c *Coordinator) Notify(buf *arraybuffer.Buffer, byteIndex int, count int) int {
	c.mu.Lock()
	list := c.waiters[buf][byteIndex]
	n := len(list)
	if count >= 0 && count < n {
		n = count
	}
	woken := list[:n]
	c.waiters[buf][byteIndex] = list[n:]
	c.mu.Unlock()

	for _, w := range woken {
		close(w.ch)
	}
	return len(woken)
}

func int32At(buf *arraybuffer.Buffer, byteIndex int) int32 {
	return int32(binary.LittleEndian.Uint32(buf.Bytes[byteIndex : byteIndex+4]))
}

// Wait parks the calling goroutine on buf[byteIndex] until notified or
// timeout elapses, implementing Atomics.wait's three outcomes (spec.md
// §5 "Cancellation & timeouts"). canBlock gates synchronous parking the
// way AgentCanSuspend() does in spec.md §6.
func (c *Coordinator) Wait(buf *arraybuffer.Buffer, byteIndex int, expected int32, timeout time.Duration, canBlock bool) (WaitOutcome, error) {
	if !canBlock {
		return "", errors.TypeError("Atomics.wait cannot suspend this agent")
	}
	if int32At(buf, byteIndex) != expected {
		return OutcomeNotEqual, nil
	}
	if timeout == 0 {
		return OutcomeTimedOut, nil
	}
	w := c.register(buf, byteIndex)
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		timeoutCh = timer.C
	}
	select {
	case <-w.ch:
		if timer != nil {
			timer.Stop()
		}
		return OutcomeOK, nil
	case <-timeoutCh:
		c.unregister(buf, byteIndex, w)
		return OutcomeTimedOut, nil
	}
}

// WaitAsyncResult is the `{ async: true, value: Promise }` shape from
// spec.md §4.3 "waitAsync spawns a background waiter thread...". Settle
// is closed over by the agent's job queue to deliver Outcome once ready.
type WaitAsyncResult struct {
	Async   bool
	Settle  <-chan WaitOutcome
	groupKey string
}

// WaitAsync spawns (or, via singleflight, joins) a background waiter
// goroutine supervised by an errgroup, and returns immediately with a
// channel the caller's EnqueueGenericJob hook drains to resolve the
// user-visible promise — mirroring "a separate job consumes the
// thread's wait outcome and resolves the promise" (spec.md §4.3).
func (c *Coordinator) WaitAsync(ctx context.Context, buf *arraybuffer.Buffer, byteIndex int, expected int32, timeout time.Duration) WaitAsyncResult {
	if int32At(buf, byteIndex) != expected {
		ch := make(chan WaitOutcome, 1)
		ch <- OutcomeNotEqual
		return WaitAsyncResult{Async: true, Settle: ch}
	}

	out := make(chan WaitOutcome, 1)
	key := singleflightKey(buf, byteIndex, expected)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err, _ := c.group.Do(key, func() (any, error) {
			outcome, _ := c.Wait(buf, byteIndex, expected, timeout, true)
			return outcome, nil
		})
		if err != nil {
			return err
		}
		select {
		case out <- result.(WaitOutcome):
		case <-gctx.Done():
		}
		return nil
	})

	return WaitAsyncResult{Async: true, Settle: out, groupKey: key}
}

// singleflightKey identifies a (buffer, byteIndex, expected) wait call.
// Distinct buffers never collide because the pointer value is part of
// the key; %p is stable for the buffer's lifetime in this agent.
func singleflightKey(buf *arraybuffer.Buffer, byteIndex int, expected int32) string {
	return fmt.Sprintf("%p-%d-%d", buf, byteIndex, expected)
}

// IsLockFree(n) is true for n in {1,2,4,8} on every host Go runs on: the
// runtime's atomic package guarantees lock-free access at those widths
// on every supported architecture.
func IsLockFree(n int) bool {
	switch n {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// Pause emits a host-appropriate spin-wait hint up to an
// implementation-bounded iteration count (spec.md §4.3). Go has no
// portable PAUSE intrinsic, so this yields the scheduler instead, bounded
// the same way a real spin-wait would be.
func Pause(iterations int) {
	const maxIterations = 1 << 12
	if iterations <= 0 || iterations > maxIterations {
		iterations = maxIterations
	}
	for i := 0; i < iterations; i++ {
		runtime.Gosched()
	}
}
