package inspector

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ecmacore/jsvm/internal/bytecode"
	"github.com/ecmacore/jsvm/internal/heapobj"
)

// RunTrace starts the bubbletea program over a recorded Trace and
// blocks until the user quits, the way the teacher's internal/tui's
// model (driven from cmd/gc.go) runs its dashboard to completion.
// Mouse support is opt-in via tea.WithMouseCellMotion so the stack
// tab's clickable frames work without stealing terminal selection in
// panes that don't need it.
func RunTrace(trace *Trace, exec *bytecode.Executable, heap *heapobj.Heap) error {
	m := New(trace, exec, heap)
	p := tea.NewProgram(m, tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.MouseMsg:
		if m.currentTab == StackTab {
			if slot, ok := m.zoneManager.clickedFrame(msg, len(m.trace.Snapshots[m.cursor].Stack)); ok {
				m.stackOffset = slot
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.paletteOpen {
			return m.updatePalette(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "q" || msg.String() == "ctrl+c":
		return m, tea.Quit
	case msg.String() == "1":
		m.currentTab = StackTab
	case msg.String() == "2":
		m.currentTab = DisasmTab
	case msg.String() == "3":
		m.currentTab = HeapTab
	case msg.String() == "tab":
		m.currentTab = nextTab(m.currentTab)
	case msg.String() == "shift+tab":
		m.currentTab = prevTab(m.currentTab)
	case msg.String() == "left" || msg.String() == "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case msg.String() == "right" || msg.String() == "l":
		if m.cursor < len(m.trace.Snapshots)-1 {
			m.cursor++
		}
	case msg.String() == "/":
		m.paletteOpen = true
		m.paletteInput.SetValue("")
		m.paletteInput.Focus()
		m.paletteMatch = nil
		m.paletteSel = 0
	}
	return m, nil
}

func (m *Model) updatePalette(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.paletteOpen = false
		return m, nil
	case "enter":
		if len(m.paletteMatch) > 0 {
			entry := m.paletteMatch[m.paletteSel]
			if entry.has {
				m.jumpToIP(entry.ip)
			}
		}
		m.paletteOpen = false
		return m, nil
	case "up":
		if m.paletteSel > 0 {
			m.paletteSel--
		}
		return m, nil
	case "down":
		if m.paletteSel < len(m.paletteMatch)-1 {
			m.paletteSel++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(msg)
	m.paletteMatch = m.runPaletteSearch(m.paletteInput.Value())
	if m.paletteSel >= len(m.paletteMatch) {
		m.paletteSel = 0
	}
	return m, cmd
}
