// Package inspector implements a bubbletea TUI that renders a recorded VM
// trace: the operand stack, accumulator, and disassembly around the
// instruction pointer at every OpDebug instruction a program executes
// (F.1's "Interactive debug surface"), plus a running sparkline of heap
// arena occupancy. Grounded on the teacher's internal/tui/dashboard.go
// and internal/gc/tui/dashboard.go (tab model, KeyMap, styling), swapped
// from GC-log panes to VM-trace panes.
package inspector

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/heapobj"
)

// TabType mirrors internal/tui's TabType: one constant per top-level
// pane, switched with the number keys.
type TabType int

const (
	StackTab TabType = iota
	DisasmTab
	HeapTab
)

func (t TabType) String() string {
	switch t {
	case StackTab:
		return "Stack"
	case DisasmTab:
		return "Disasm"
	case HeapTab:
		return "Heap"
	default:
		return "?"
	}
}

const maxTab = HeapTab

// nextTab and prevTab wrap TabType around the Stack/Disasm/Heap cycle,
// the same modulo-cycle idiom the teacher's utils.GetNextEnum/
// GetPrevEnum used for its GC/heap-dump panel switcher, specialized to
// TabType instead of a generic ~int so Tab/Shift+Tab cycling doesn't
// need a type parameter for a 3-value enum.
func nextTab(t TabType) TabType {
	if t == maxTab {
		return 0
	}
	return t + 1
}

func prevTab(t TabType) TabType {
	if t == 0 {
		return maxTab
	}
	return t - 1
}

// KeyMap is internal/tui.KeyMap's shape, plus the "/" binding that opens
// the opcode command palette.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	Search  key.Binding
	Confirm key.Binding
	Escape  key.Binding
	Quit    key.Binding
}

func k(keys []string, help, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:    k([]string{"1"}, "1", "stack"),
		Tab2:    k([]string{"2"}, "2", "disasm"),
		Tab3:    k([]string{"3"}, "3", "heap"),
		Left:    k([]string{"left", "h"}, "←/h", "prev snapshot"),
		Right:   k([]string{"right", "l"}, "→/l", "next snapshot"),
		Up:      k([]string{"up", "k"}, "↑/k", "up"),
		Down:    k([]string{"down", "j"}, "↓/j", "down"),
		Search:  k([]string{"/"}, "/", "search opcode"),
		Confirm: k([]string{"enter"}, "enter", "jump"),
		Escape:  k([]string{"esc"}, "esc", "cancel"),
		Quit:    k([]string{"q", "ctrl+c"}, "q", "quit"),
	}
}

// Model is the inspector's bubbletea root model. It holds one complete
// Trace (every OpDebug Snapshot the run produced, plus the Executable
// and heap-occupancy samples recorded alongside them) and is otherwise
// read-only: the inspector replays a finished run rather than
// single-stepping a live one, since the VM's dispatch loop in this
// implementation runs a Frame to completion or suspension, not
// instruction-by-instruction under external control.
type Model struct {
	trace *Trace
	exec  *bytecode.Executable
	heap  *heapobj.Heap

	currentTab TabType
	cursor     int // index into trace.Snapshots
	width      int
	height     int

	keys KeyMap

	disasmView  viewport.Model
	disasmLines []string
	stackOffset int

	paletteOpen  bool
	paletteInput textinput.Model
	paletteMatch []paletteEntry
	paletteSel   int

	zoneManager zoneManager
}

// New builds a Model ready to display trace against its compiled exec
// and the heap that produced every Value in trace's snapshots.
func New(trace *Trace, exec *bytecode.Executable, heap *heapobj.Heap) *Model {
	ti := textinput.New()
	ti.Placeholder = "opcode name…"
	ti.CharLimit = 64

	return &Model{
		trace:        trace,
		exec:         exec,
		heap:         heap,
		currentTab:   StackTab,
		keys:         DefaultKeyMap(),
		disasmView:   viewport.New(0, 0),
		paletteInput: ti,
		zoneManager:  newZoneManager(),
	}
}
