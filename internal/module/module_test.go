package module

import (
	"errors"
	"testing"
)

func syncLoader(graph map[string]*Module) LoadImportedModuleFunc {
	return func(referrer *Module, specifier string, hostDefined any, state *GraphLoadingState) {
		resolved, ok := graph[specifier]
		if !ok {
			state.FinishLoadingImportedModule(referrer, specifier, nil, errors.New("module not found"))
			return
		}
		state.FinishLoadingImportedModule(referrer, specifier, resolved, nil)
	}
}

func TestLoadLinkEvaluateSingleModule(t *testing.T) {
	m := New("main", nil)
	ran := false
	m.ExecuteSync = func(*Module) error { ran = true; return nil }

	var loadErr error
	LoadRequestedModules(m, nil, syncLoader(nil), func(err error) { loadErr = err })
	if loadErr != nil {
		t.Fatalf("LoadRequestedModules: %v", loadErr)
	}
	if m.Status != StatusUnlinked {
		t.Fatalf("status after load = %v, want unlinked", m.Status)
	}

	if err := Link(m); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if m.Status != StatusLinked {
		t.Fatalf("status after link = %v, want linked", m.Status)
	}

	if err := Evaluate(m); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Status != StatusEvaluated {
		t.Fatalf("status after evaluate = %v, want evaluated", m.Status)
	}
	if !ran {
		t.Fatal("expected ExecuteSync to run")
	}
}

func TestLoadLinkEvaluateDependencyChain(t *testing.T) {
	leaf := New("leaf", nil)
	root := New("root", []string{"leaf"})

	var order []string
	leaf.ExecuteSync = func(*Module) error { order = append(order, "leaf"); return nil }
	root.ExecuteSync = func(*Module) error { order = append(order, "root"); return nil }

	graph := map[string]*Module{"leaf": leaf}
	var loadErr error
	LoadRequestedModules(root, nil, syncLoader(graph), func(err error) { loadErr = err })
	if loadErr != nil {
		t.Fatalf("LoadRequestedModules: %v", loadErr)
	}

	if err := Link(root); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if leaf.Status != StatusLinked || root.Status != StatusLinked {
		t.Fatalf("expected both modules linked, got leaf=%v root=%v", leaf.Status, root.Status)
	}

	if err := Evaluate(root); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(order) != 2 || order[0] != "leaf" || order[1] != "root" {
		t.Fatalf("expected leaf before root, got %v", order)
	}
}

func TestCyclicModulesLinkAndEvaluateTogether(t *testing.T) {
	a := New("a", []string{"b"})
	b := New("b", []string{"a"})
	var order []string
	a.ExecuteSync = func(*Module) error { order = append(order, "a"); return nil }
	b.ExecuteSync = func(*Module) error { order = append(order, "b"); return nil }

	a.ResolvedModules["b"] = b
	b.ResolvedModules["a"] = a
	a.Status = StatusUnlinked
	b.Status = StatusUnlinked

	if err := Link(a); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if a.Status != StatusLinked || b.Status != StatusLinked {
		t.Fatalf("expected cyclic SCC fully linked, got a=%v b=%v", a.Status, b.Status)
	}
	if a.CycleRoot != b.CycleRoot {
		t.Fatalf("expected a and b to share a cycle root")
	}

	if err := Evaluate(a); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("expected both cyclic modules to execute, got %v", order)
	}
}

func TestLoadRequestedModulesPropagatesError(t *testing.T) {
	root := New("root", []string{"missing"})
	var loadErr error
	LoadRequestedModules(root, nil, syncLoader(nil), func(err error) { loadErr = err })
	if loadErr == nil {
		t.Fatal("expected an error for an unresolved specifier")
	}
}

func TestTopLevelAwaitDependencyDefersParentUntilSettled(t *testing.T) {
	asyncLeaf := New("async-leaf", nil)
	asyncLeaf.HasTopLevelAwait = true
	var settle func(any)
	asyncLeaf.ExecuteAsync = func(m *Module, capability *PromiseCapability) {
		settle = capability.Resolve
	}

	root := New("root", []string{"async-leaf"})
	rootRan := false
	root.ExecuteSync = func(*Module) error { rootRan = true; return nil }
	root.ResolvedModules["async-leaf"] = asyncLeaf
	root.Status = StatusLinked
	asyncLeaf.Status = StatusLinked

	if err := Evaluate(root); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if rootRan {
		t.Fatal("root must not execute before its async dependency settles")
	}
	if root.Status != StatusEvaluatingAsync && root.Status != StatusEvaluating {
		t.Fatalf("root status = %v, want still pending", root.Status)
	}
	if settle == nil {
		t.Fatal("expected ExecuteAsync to capture a resolve callback")
	}

	settle(nil)

	if !rootRan {
		t.Fatal("expected root to execute once its async dependency settled")
	}
	if root.Status != StatusEvaluated {
		t.Fatalf("root status after settlement = %v, want evaluated", root.Status)
	}
}

func TestErrorLatchesAcrossAsyncParents(t *testing.T) {
	child := New("child", nil)
	parent := New("parent", nil)
	child.AsyncParentModules = []*Module{parent}
	parent.PendingAsyncDependencies = 1

	failure := errors.New("boom")
	AsyncModuleExecutionRejected(child, failure)

	if child.EvaluationError != failure {
		t.Fatalf("expected child latched error, got %v", child.EvaluationError)
	}
	if parent.EvaluationError != failure {
		t.Fatalf("expected parent to inherit latched error, got %v", parent.EvaluationError)
	}
}
