package inspector

import (
	"fmt"
	"strings"

	"github.com/ecmacore/jsvm/internal/heapobj"
)

// renderStackTab draws the operand stack, accumulator, and exception
// register of the current snapshot top-down (index 0 at the bottom,
// matching how a real stack grows), each row wrapped as its own
// bubblezone click target so a mouse click can drive the palette's
// jump-to-producer flow later.
func (m *Model) renderStackTab(heap *heapobj.Heap, width int) string {
	snap := m.trace.Snapshots[m.cursor]

	var b strings.Builder
	fmt.Fprintf(&b, "%s  (ip=%04d, exception-handlers=%d)\n\n",
		TitleStyle.Render("Registers"), snap.IP, snap.ExceptionDepth)
	fmt.Fprintf(&b, "  result:    %s\n", truncateDisplayWidth(formatValue(heap, snap.Result), width-14))
	if !snap.Exception.IsUndefined() {
		fmt.Fprintf(&b, "  exception: %s\n", ExceptionStyle.Render(formatValue(heap, snap.Exception)))
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "%s (%d)\n", TitleStyle.Render("Operand stack"), len(snap.Stack))
	if len(snap.Stack) == 0 {
		b.WriteString(MutedStyle.Render("  <empty>\n"))
	}
	for i := len(snap.Stack) - 1; i >= 0; i-- {
		row := fmt.Sprintf("  [%02d] %s", i, truncateDisplayWidth(formatValue(heap, snap.Stack[i]), width-10))
		b.WriteString(m.zoneManager.markFrame(i, row))
		b.WriteByte('\n')
	}
	return b.String()
}
