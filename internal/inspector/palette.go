package inspector

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ecmacore/jsvm/internal/bytecode"
)

// paletteEntry is one fuzzy-searchable row of the command palette: an
// opcode name and the ip of its first (and, for a loop body, often
// only interesting) occurrence in the compiled script.
type paletteEntry struct {
	op  bytecode.Op
	ip  int
	has bool // false until a matching instruction is actually found in exec
}

var opcodeNames = buildOpcodeNames()

func buildOpcodeNames() []string {
	ops := bytecode.AllOps()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

// runPaletteSearch implements F.2's "command palette (jump-to-opcode
// search)": sahilm/fuzzy ranks opcode mnemonics against the user's
// query, and the first instance of the chosen opcode anywhere in the
// compiled script's listing becomes the jump target.
func (m *Model) runPaletteSearch(query string) []paletteEntry {
	if query == "" {
		return nil
	}
	matches := fuzzy.Find(query, opcodeNames)
	entries := make([]paletteEntry, 0, len(matches))
	for _, match := range matches {
		op := bytecode.Op(match.Index)
		ip, found := m.firstOccurrence(op)
		entries = append(entries, paletteEntry{op: op, ip: ip, has: found})
	}
	return entries
}

// firstOccurrence scans the compiled Executable's instruction stream
// for the first ip whose disassembly line names op, reusing
// bytecode.Disassemble rather than re-decoding the stream by hand since
// the disassembler already resolves offsets to op names.
func (m *Model) firstOccurrence(op bytecode.Op) (int, bool) {
	m.ensureDisasmContent()
	needle := "  " + op.String() + " "
	for _, line := range m.disasmLines {
		fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
		if len(fields) == 0 {
			continue
		}
		var offset int
		if _, err := fmt.Sscanf(line, "%04d", &offset); err != nil {
			continue
		}
		if strings.Contains(line, needle) {
			return offset, true
		}
	}
	return 0, false
}

// jumpToIP moves the trace cursor to the nearest recorded snapshot at
// or after target, since the palette can only land on a debugger hit,
// not an arbitrary instruction the trace never paused at.
func (m *Model) jumpToIP(target int) bool {
	for i, snap := range m.trace.Snapshots {
		if snap.IP >= target {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m *Model) renderPalette(width int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Jump to opcode") + "\n")
	b.WriteString(m.paletteInput.View() + "\n\n")
	for i, e := range m.paletteMatch {
		line := fmt.Sprintf("%-28s ip=%04d", e.op.String(), e.ip)
		if !e.has {
			line = MutedStyle.Render(line + "  (not present)")
		} else if i == m.paletteSel {
			line = TabActiveStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return BoxStyle.Width(width - 4).Render(b.String())
}
