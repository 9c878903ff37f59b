package inspector

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"

	"github.com/ecmacore/jsvm/internal/heapobj"
)

// renderHeapTab draws one ntcharts sparkline per arena, tracking live
// object counts across every debugger hit recorded so far (F.2: "live
// heap-arena occupancy sparkline"). Grounded on the teacher's
// internal/gc/tui plots, which chart GC pause times the same way —
// one series sampled once per recorded event, rendered at the pane's
// width.
func (m *Model) renderHeapTab(width, height int) string {
	if len(m.trace.HeapAt) == 0 {
		return MutedStyle.Render("no debugger hits recorded yet")
	}

	rows := []string{
		m.sparklineRow("Objects", width, func(s heapobj.HeapStats) float64 { return float64(s.Objects) }),
		m.sparklineRow("Strings", width, func(s heapobj.HeapStats) float64 { return float64(s.Strings) }),
		m.sparklineRow("Numbers", width, func(s heapobj.HeapStats) float64 { return float64(s.Numbers) }),
		m.sparklineRow("BigInts", width, func(s heapobj.HeapStats) float64 { return float64(s.BigInts) }),
		m.sparklineRow("Symbols", width, func(s heapobj.HeapStats) float64 { return float64(s.Symbols) }),
	}

	cur := m.trace.HeapAt[m.cursor]
	summary := fmt.Sprintf(
		"objects %d/%d  strings %d/%d  numbers %d/%d  bigints %d/%d  symbols %d/%d",
		cur.Objects, cur.ObjectsCap, cur.Strings, cur.StringsCap,
		cur.Numbers, cur.NumbersCap, cur.BigInts, cur.BigIntsCap,
		cur.Symbols, cur.SymbolsCap,
	)

	return strings.Join(rows, "\n\n") + "\n\n" + MutedStyle.Render(summary)
}

func (m *Model) sparklineRow(label string, width int, pick func(heapobj.HeapStats) float64) string {
	sl := sparkline.New(maxInt(width-len(label)-2, 8), 3)
	for _, s := range m.trace.HeapAt[:m.cursor+1] {
		sl.Push(pick(s))
	}
	sl.Draw()
	return TitleStyle.Render(label) + " " + sl.View()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
