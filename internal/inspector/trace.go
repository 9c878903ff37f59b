package inspector

import (
	"github.com/ecmacore/jsvm/internal/agent"
	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/vm"
)

// Trace is the recorded sequence of OpDebug hits a script produced, one
// vm.Snapshot plus a heap occupancy sample per hit. Recording happens
// eagerly (the whole script runs to completion, or throws, before the
// inspector ever draws a frame) rather than the inspector pausing the
// VM live, since Agent.RunScript has no external step API to pause
// mid-Frame.
type Trace struct {
	Snapshots []vm.Snapshot
	HeapAt    []heapobj.HeapStats
	Result    error
}

// Record runs a program to completion against a, capturing one entry
// per OpDebug instruction it executes. It's the inspector's analogue
// of internal/gc/parser reading a whole GC log before the TUI ever
// renders a tab.
func Record(a *agent.Agent, run func(a *agent.Agent) error) *Trace {
	t := &Trace{}
	a.VM.OnDebug = func(s vm.Snapshot) {
		t.Snapshots = append(t.Snapshots, s)
		t.HeapAt = append(t.HeapAt, a.Heap.Stats())
	}
	t.Result = run(a)
	a.VM.OnDebug = nil
	return t
}
