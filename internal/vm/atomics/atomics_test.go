package atomics

import (
	"context"
	"testing"
	"time"

	"github.com/ecmacore/jsvm/internal/arraybuffer"
	"github.com/ecmacore/jsvm/internal/value"
)

func newBuffer(n int) *arraybuffer.Buffer {
	return &arraybuffer.Buffer{Bytes: make([]byte, n), MaxByteLength: arraybuffer.NoMaxByteLength}
}

func TestOpsLoadStore(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	if _, err := ops.Store(buf, 0, arraybuffer.Int32, value.SmallInteger(42)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := ops.Load(buf, 0, arraybuffer.Int32)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SmallIntegerValue() != 42 {
		t.Fatalf("got %d, want 42", got.SmallIntegerValue())
	}
}

func TestOpsAddReturnsOldValue(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	ops.Store(buf, 0, arraybuffer.Int32, value.SmallInteger(10))
	old, err := ops.Add(buf, 0, arraybuffer.Int32, value.SmallInteger(5))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if old.SmallIntegerValue() != 10 {
		t.Fatalf("old value = %d, want 10", old.SmallIntegerValue())
	}
	got, _ := ops.Load(buf, 0, arraybuffer.Int32)
	if got.SmallIntegerValue() != 15 {
		t.Fatalf("new value = %d, want 15", got.SmallIntegerValue())
	}
}

func TestOpsCompareExchange(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	ops.Store(buf, 0, arraybuffer.Int32, value.SmallInteger(7))

	old, err := ops.CompareExchange(buf, 0, arraybuffer.Int32, value.SmallInteger(99), value.SmallInteger(1))
	if err != nil {
		t.Fatalf("CompareExchange (mismatch): %v", err)
	}
	if old.SmallIntegerValue() != 7 {
		t.Fatalf("expected unchanged 7, got %d", old.SmallIntegerValue())
	}

	old, err = ops.CompareExchange(buf, 0, arraybuffer.Int32, value.SmallInteger(7), value.SmallInteger(1))
	if err != nil {
		t.Fatalf("CompareExchange (match): %v", err)
	}
	if old.SmallIntegerValue() != 7 {
		t.Fatalf("expected old 7, got %d", old.SmallIntegerValue())
	}
	got, _ := ops.Load(buf, 0, arraybuffer.Int32)
	if got.SmallIntegerValue() != 1 {
		t.Fatalf("expected 1 after swap, got %d", got.SmallIntegerValue())
	}
}

func TestOpsRejectsNonIntegerElementType(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	if _, err := ops.Add(buf, 0, arraybuffer.Float32, value.SmallInteger(1)); err == nil {
		t.Fatal("expected TypeError for Float32 element type")
	}
}

func TestWaitNotify(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	ops.Store(buf, 0, arraybuffer.Int32, value.SmallInteger(0))

	done := make(chan WaitOutcome, 1)
	go func() {
		outcome, err := ops.Wait(buf, 0, 0, 2*time.Second, true)
		if err != nil {
			t.Errorf("Wait: %v", err)
		}
		done <- outcome
	}()

	// Give the waiter goroutine a chance to register before notifying.
	time.Sleep(20 * time.Millisecond)
	woken := ops.Notify(buf, 0, 1)
	if woken != 1 {
		t.Fatalf("Notify woke %d, want 1", woken)
	}

	select {
	case outcome := <-done:
		if outcome != OutcomeOK {
			t.Fatalf("outcome = %v, want ok", outcome)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for woken waiter")
	}
}

func TestWaitNotEqualReturnsImmediately(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	ops.Store(buf, 0, arraybuffer.Int32, value.SmallInteger(5))

	outcome, err := ops.Wait(buf, 0, 0, time.Second, true)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if outcome != OutcomeNotEqual {
		t.Fatalf("outcome = %v, want not-equal", outcome)
	}
}

func TestWaitRejectsWhenAgentCannotBlock(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	if _, err := ops.Wait(buf, 0, 0, time.Second, false); err == nil {
		t.Fatal("expected error when canBlock is false")
	}
}

func TestWaitAsyncResolves(t *testing.T) {
	ops := NewOps()
	buf := newBuffer(4)
	ops.Store(buf, 0, arraybuffer.Int32, value.SmallInteger(0))

	result := ops.WaitAsync(context.Background(), buf, 0, 0, 2*time.Second)
	if !result.Async {
		t.Fatal("expected Async=true")
	}

	time.Sleep(20 * time.Millisecond)
	ops.Notify(buf, 0, 1)

	select {
	case outcome := <-result.Settle:
		if outcome != OutcomeOK {
			t.Fatalf("outcome = %v, want ok", outcome)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for waitAsync settlement")
	}
}

func TestIsLockFree(t *testing.T) {
	cases := map[int]bool{1: true, 2: true, 4: true, 8: true, 3: false, 16: false}
	for n, want := range cases {
		if got := IsLockFree(n); got != want {
			t.Errorf("IsLockFree(%d) = %v, want %v", n, got, want)
		}
	}
}
