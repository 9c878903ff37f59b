package inspector

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// zoneManager wraps a bubblezone *zone.Manager so stack-frame rows can
// be marked clickable (F.2: "clickable stack frames") without reaching
// for the package's process-global default manager — each inspector
// Model owns its own, the way it owns its own KeyMap instead of a
// package-level default.
type zoneManager struct {
	mgr *zone.Manager
}

func newZoneManager() zoneManager {
	return zoneManager{mgr: zone.New()}
}

// markFrame wraps rendered with an invisible zone marker so a later
// mouse click on that row can be resolved back to the stack slot index.
func (z zoneManager) markFrame(slot int, rendered string) string {
	return z.mgr.Mark(frameZoneID(slot), rendered)
}

func frameZoneID(slot int) string {
	return "stack-frame-" + strconv.Itoa(slot)
}

// clickedFrame reports which stack slot (if any) a mouse message landed
// on, and stripScan removes every zone marker before the final View
// string reaches the terminal (bubblezone requires exactly one Scan
// call per rendered frame).
func (z zoneManager) clickedFrame(msg tea.MouseMsg, stackLen int) (int, bool) {
	for i := 0; i < stackLen; i++ {
		if info := z.mgr.Get(frameZoneID(i)); info != nil && info.InBounds(msg) {
			return i, true
		}
	}
	return 0, false
}

func (z zoneManager) stripScan(s string) string {
	return z.mgr.Scan(s)
}
