package module

import (
	"fmt"
	"sort"
)

// evaluationOrderCounter is a process-wide monotonic counter driving
// AsyncEvaluationOrder. A package-level counter (rather than a field on
// some shared state threaded through every call) matches spec.md §5's
// framing: "observed in the order modules transition to
// async_evaluation = true" is a global ordering, not scoped to one
// Evaluate() call.
var evaluationOrderCounter int

func nextEvaluationOrder() int {
	evaluationOrderCounter++
	return evaluationOrderCounter
}

// Evaluate runs InnerModuleEvaluation over entry's whole graph, the
// public entry point a host calls once Link has completed.
func Evaluate(entry *Module) error {
	var stack []*Module
	_, err := InnerModuleEvaluation(entry, &stack, 0)
	return err
}

// InnerModuleEvaluation mirrors InnerModuleLinking's DFS over the
// evaluating state (spec.md §4.4): for each required module already
// evaluating-async/evaluated it follows that module's cycle_root and
// propagates a latched error immediately; otherwise it recurses,
// tracks pending_async_dependencies, and — once every dependency has
// settled — runs this module's body, synchronously or via
// ExecuteAsyncModule depending on HasTopLevelAwait.
func InnerModuleEvaluation(m *Module, stack *[]*Module, index int) (int, error) {
	switch m.Status {
	case StatusEvaluatingAsync, StatusEvaluated:
		if m.CycleRoot != nil && m.CycleRoot.EvaluationError != nil {
			return index, m.CycleRoot.EvaluationError
		}
		return index, nil
	case StatusEvaluating:
		return index, nil
	case StatusLinked:
		// proceed below
	default:
		return index, fmt.Errorf("module %q: cannot evaluate from state %s", m.Specifier, m.Status)
	}

	m.Status = StatusEvaluating
	m.DFSIndex = index
	m.DFSAncestorIndex = index
	index++
	m.PendingAsyncDependencies = 0
	*stack = append(*stack, m)

	for _, specifier := range m.RequestedModules {
		required := m.ResolvedModules[specifier]
		var err error
		index, err = InnerModuleEvaluation(required, stack, index)
		if err != nil {
			return index, fmt.Errorf("module %q: evaluating dependency %q: %w", m.Specifier, specifier, err)
		}

		// asyncCandidate is the module whose AsyncEvaluation flag this
		// dependency edge should consult: required itself while still
		// mid-SCC (status evaluating), or its settled cycle root once
		// it has finished evaluating (matches ECMA-262's "follow
		// requiredModule.[[CycleRoot]]" step).
		asyncCandidate := required
		if required.Status == StatusEvaluating {
			if required.DFSAncestorIndex < m.DFSAncestorIndex {
				m.DFSAncestorIndex = required.DFSAncestorIndex
			}
		} else {
			if required.CycleRoot != nil {
				asyncCandidate = required.CycleRoot
			}
			if asyncCandidate.EvaluationError != nil {
				return index, asyncCandidate.EvaluationError
			}
		}

		if asyncCandidate.AsyncEvaluation {
			m.PendingAsyncDependencies++
			asyncCandidate.AsyncParentModules = append(asyncCandidate.AsyncParentModules, m)
		}
	}

	if m.PendingAsyncDependencies > 0 || m.HasTopLevelAwait {
		m.AsyncEvaluation = true
		m.AsyncEvaluationOrder = nextEvaluationOrder()
		if m.PendingAsyncDependencies == 0 {
			ExecuteAsyncModule(m)
		}
	} else if err := runSync(m); err != nil {
		m.EvaluationError = err
	}

	if m.DFSAncestorIndex == m.DFSIndex {
		if err := popEvaluatedSCC(m, stack); err != nil {
			return index, err
		}
	}
	return index, nil
}

func runSync(m *Module) error {
	if m.ExecuteSync == nil {
		m.Status = StatusEvaluated
		return nil
	}
	err := m.ExecuteSync(m)
	m.Status = StatusEvaluated
	return err
}

func popEvaluatedSCC(root *Module, stack *[]*Module) error {
	for {
		n := len(*stack)
		if n == 0 {
			return fmt.Errorf("module %q: DFS stack underflow popping evaluated SCC", root.Specifier)
		}
		top := (*stack)[n-1]
		*stack = (*stack)[:n-1]
		// runSync/ExecuteAsyncModule already advanced top.Status unless
		// it is still blocked on a pending async dependency elsewhere
		// in (or beyond) this SCC, in which case it parks as
		// evaluating-async until that dependency settles.
		if top.Status == StatusEvaluating {
			top.Status = StatusEvaluatingAsync
		}
		top.CycleRoot = root
		if top == root {
			return nil
		}
	}
}

// ExecuteAsyncModule installs a promise capability whose settlement
// fans out to this module's async parents via GatherAvailableAncestors
// (spec.md §4.4). m.ExecuteAsync is responsible for actually invoking
// the module body and eventually calling capability.Resolve/Reject —
// typically once its own internal await-points settle.
func ExecuteAsyncModule(m *Module) {
	m.Status = StatusEvaluatingAsync
	capability := &PromiseCapability{}
	capability.Resolve = func(any) { AsyncModuleExecutionFulfilled(m) }
	capability.Reject = func(reason any) { AsyncModuleExecutionRejected(m, asError(reason)) }
	if m.ExecuteAsync != nil {
		m.ExecuteAsync(m, capability)
	} else {
		capability.Resolve(nil)
	}
}

func asError(reason any) error {
	if reason == nil {
		return nil
	}
	if err, ok := reason.(error); ok {
		return err
	}
	return fmt.Errorf("%v", reason)
}

// GatherAvailableAncestors performs the BFS spec.md §4.4 describes:
// decrement pending_async_dependencies on every async parent, and
// collect those whose counter reaches zero and whose cycle root carries
// no latched error.
func GatherAvailableAncestors(m *Module) []*Module {
	var available []*Module
	seen := make(map[*Module]bool)
	queue := append([]*Module{}, m.AsyncParentModules...)
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		if seen[parent] {
			continue
		}
		seen[parent] = true
		parent.PendingAsyncDependencies--
		if parent.PendingAsyncDependencies == 0 {
			if parent.CycleRoot == nil || parent.CycleRoot.EvaluationError == nil {
				available = append(available, parent)
			}
			queue = append(queue, parent.AsyncParentModules...)
		}
	}
	return available
}

// AsyncModuleExecutionFulfilled runs once m's own async body settles
// successfully: gathers newly-available ancestors, orders them by the
// sequence in which they transitioned to async_evaluation (spec.md §5),
// and executes each — synchronously if they have no pending async work
// of their own, or by re-entering ExecuteAsyncModule otherwise.
func AsyncModuleExecutionFulfilled(m *Module) {
	m.Status = StatusEvaluated
	ancestors := GatherAvailableAncestors(m)
	sort.SliceStable(ancestors, func(i, j int) bool {
		return ancestors[i].AsyncEvaluationOrder < ancestors[j].AsyncEvaluationOrder
	})
	for _, ancestor := range ancestors {
		if ancestor.HasTopLevelAwait {
			ExecuteAsyncModule(ancestor)
			continue
		}
		if err := runSync(ancestor); err != nil {
			AsyncModuleExecutionRejected(ancestor, err)
		} else {
			AsyncModuleExecutionFulfilled(ancestor)
		}
	}
}

// AsyncModuleExecutionRejected latches err onto m's cycle root and
// propagates it to every async parent transitively (spec.md §4.4
// "Error latching").
func AsyncModuleExecutionRejected(m *Module, err error) {
	if m.Status == StatusEvaluated && m.EvaluationError != nil {
		return
	}
	m.Status = StatusEvaluated
	m.EvaluationError = err
	if m.CycleRoot != nil {
		m.CycleRoot.EvaluationError = err
	}
	for _, parent := range m.AsyncParentModules {
		AsyncModuleExecutionRejected(parent, err)
	}
}
