package inspector

import (
	"fmt"
	"strings"

	"github.com/ecmacore/jsvm/internal/bytecode"
)

// renderDisasmTab feeds bytecode.Disassemble's output into a
// bubbles/viewport, highlighting the line whose offset matches the
// current snapshot's ip. Re-highlighting on every cursor move means
// re-disassembling is wasteful at any real script size, so the listing
// is cached and only the highlight position changes.
func (m *Model) ensureDisasmContent() {
	if m.disasmLines != nil {
		return
	}
	listing := bytecode.Disassemble(m.exec, "script")
	m.disasmLines = strings.Split(strings.TrimRight(listing, "\n"), "\n")
}

func (m *Model) renderDisasmTab(width, height int) string {
	m.ensureDisasmContent()
	ip := m.trace.Snapshots[m.cursor].IP
	prefix := fmt.Sprintf("%04d", ip)

	var b strings.Builder
	for _, line := range m.disasmLines {
		if strings.HasPrefix(line, prefix+"  ") {
			b.WriteString(HighlightIPStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}

	m.disasmView.Width = width
	m.disasmView.Height = height
	m.disasmView.SetContent(b.String())
	return m.disasmView.View()
}
