package module

import "fmt"

// LoadImportedModuleFunc is the host hook spec.md §6 names:
// "LoadImportedModule(referrer, specifier, host_defined, state)...must
// eventually call back with either a resolved Module or an error." The
// callback is state.FinishLoadingImportedModule, so the host may resolve
// synchronously or defer to its own job queue; this package does not
// care which.
type LoadImportedModuleFunc func(referrer *Module, specifier string, hostDefined any, state *GraphLoadingState)

// GraphLoadingState tracks one LoadRequestedModules call's in-flight
// fan-out (spec.md §4.4 "Creates a GraphLoadingState{pending_count: 1,
// is_loading: true, visited: []}").
type GraphLoadingState struct {
	PendingCount int
	IsLoading    bool
	Visited      map[*Module]bool
	HostDefined  any

	load       LoadImportedModuleFunc
	onComplete func(error)
	firstError error
}

// FinishLoadingImportedModule is the completion callback the host calls
// (possibly much later, possibly from a different goroutine than the one
// that called LoadRequestedModules) once a requested specifier resolves
// or fails to.
func (s *GraphLoadingState) FinishLoadingImportedModule(referrer *Module, specifier string, resolved *Module, err error) {
	if err != nil {
		if s.firstError == nil {
			s.firstError = fmt.Errorf("loading module %q from %q: %w", specifier, referrerSpecifier(referrer), err)
		}
	} else {
		if referrer != nil {
			referrer.ResolvedModules[specifier] = resolved
		}
		s.innerModuleLoading(resolved)
	}
	s.PendingCount--
	if s.PendingCount == 0 {
		s.IsLoading = false
		if s.onComplete != nil {
			s.onComplete(s.firstError)
		}
	}
}

func referrerSpecifier(m *Module) string {
	if m == nil {
		return "<entry>"
	}
	return m.Specifier
}

// innerModuleLoading recurses into module's requested modules, invoking
// the host hook for every specifier not yet resolved and bumping
// PendingCount once per outstanding call.
func (s *GraphLoadingState) innerModuleLoading(m *Module) {
	if s.Visited[m] {
		return
	}
	s.Visited[m] = true
	if m.Status == StatusNew {
		m.Status = StatusUnlinked
	}
	for _, specifier := range m.RequestedModules {
		if resolved, ok := m.ResolvedModules[specifier]; ok {
			s.innerModuleLoading(resolved)
			continue
		}
		s.PendingCount++
		s.load(m, specifier, s.HostDefined, s)
	}
}

// LoadRequestedModules drives entry's whole dependency graph to
// unlinked, calling onComplete exactly once when every transitive
// specifier has resolved (or the first error is known). (spec.md §4.4.)
func LoadRequestedModules(entry *Module, hostDefined any, load LoadImportedModuleFunc, onComplete func(error)) *GraphLoadingState {
	state := &GraphLoadingState{
		PendingCount: 1,
		IsLoading:    true,
		Visited:      make(map[*Module]bool),
		HostDefined:  hostDefined,
		load:         load,
		onComplete:   onComplete,
	}
	state.innerModuleLoading(entry)
	state.FinishLoadingImportedModule(nil, "", entry, nil)
	return state
}

// Link runs InnerModuleLinking over entry's whole graph, the public
// entry point a host calls once LoadRequestedModules has completed.
func Link(entry *Module) error {
	var stack []*Module
	_, err := InnerModuleLinking(entry, &stack, 0)
	return err
}

// InnerModuleLinking implements spec.md §4.4's linking DFS: assign
// dfs_index/dfs_ancestor_index, push onto stack, recurse into required
// modules, and — once dfs_ancestor_index settles back to dfs_index —
// pop the whole contiguous SCC off stack and mark every member linked.
func InnerModuleLinking(m *Module, stack *[]*Module, index int) (int, error) {
	switch m.Status {
	case StatusLinking, StatusLinked, StatusEvaluatingAsync, StatusEvaluated:
		return index, nil
	case StatusUnlinked:
		// proceed below
	default:
		return index, fmt.Errorf("module %q: cannot link from state %s", m.Specifier, m.Status)
	}

	m.Status = StatusLinking
	m.DFSIndex = index
	m.DFSAncestorIndex = index
	index++
	*stack = append(*stack, m)

	for _, specifier := range m.RequestedModules {
		required, ok := m.ResolvedModules[specifier]
		if !ok {
			return index, fmt.Errorf("module %q: specifier %q never resolved before linking", m.Specifier, specifier)
		}
		var err error
		index, err = InnerModuleLinking(required, stack, index)
		if err != nil {
			return index, fmt.Errorf("module %q: linking dependency %q: %w", m.Specifier, specifier, err)
		}
		switch required.Status {
		case StatusLinking:
			if required.DFSAncestorIndex < m.DFSAncestorIndex {
				m.DFSAncestorIndex = required.DFSAncestorIndex
			}
		case StatusLinked, StatusEvaluatingAsync, StatusEvaluated:
			if required.CycleRoot != nil && required.CycleRoot.DFSAncestorIndex < m.DFSAncestorIndex {
				m.DFSAncestorIndex = required.CycleRoot.DFSAncestorIndex
			}
		}
	}

	if err := initializeEnvironment(m); err != nil {
		return index, fmt.Errorf("module %q: initializing environment: %w", m.Specifier, err)
	}

	if m.DFSAncestorIndex == m.DFSIndex {
		if err := popLinkedSCC(m, stack); err != nil {
			return index, err
		}
	}
	return index, nil
}

// initializeEnvironment runs at the point where this module's
// exported/imported lexical bindings get bound, once its whole SCC is
// linkable. It is a no-op: this package creates no module environments,
// and no other package can replace it.
func initializeEnvironment(m *Module) error { return nil }

func popLinkedSCC(root *Module, stack *[]*Module) error {
	for {
		n := len(*stack)
		if n == 0 {
			return fmt.Errorf("module %q: DFS stack underflow popping SCC", root.Specifier)
		}
		top := (*stack)[n-1]
		*stack = (*stack)[:n-1]
		top.Status = StatusLinked
		top.CycleRoot = root
		if top == root {
			return nil
		}
	}
}
