package inspector

import (
	"fmt"
	"strings"
)

func (m *Model) View() string {
	if len(m.trace.Snapshots) == 0 {
		msg := "no debugger hits recorded"
		if m.trace.Result != nil {
			msg += fmt.Sprintf("; run error: %v", m.trace.Result)
		}
		return MutedStyle.Render(msg) + "\n"
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 24
	}

	tabs := m.renderTabBar()
	bodyHeight := height - 4
	var body string
	switch m.currentTab {
	case StackTab:
		body = m.renderStackTab(m.heap, width-4)
	case DisasmTab:
		body = m.renderDisasmTab(width-4, bodyHeight-2)
	case HeapTab:
		body = m.renderHeapTab(width-4, bodyHeight)
	}

	help := HelpBarStyle.Width(width).Render(
		fmt.Sprintf("snapshot %d/%d   1:stack 2:disasm 3:heap   ←/→ step   /:jump-to-opcode   q:quit",
			m.cursor+1, len(m.trace.Snapshots)))

	out := strings.Join([]string{
		tabs,
		BoxStyle.Width(width - 4).Height(bodyHeight).Render(body),
		help,
	}, "\n")

	if m.paletteOpen {
		out += "\n" + m.renderPalette(width)
	}

	return m.zoneManager.stripScan(out)
}

func (m *Model) renderTabBar() string {
	tabs := []TabType{StackTab, DisasmTab, HeapTab}
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if t == m.currentTab {
			rendered[i] = TabActiveStyle.Render(t.String())
		} else {
			rendered[i] = TabInactiveStyle.Render(t.String())
		}
	}
	return strings.Join(rendered, " ")
}
