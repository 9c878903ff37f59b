package inspector

import (
	"fmt"
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/ecmacore/jsvm/internal/heapobj"
	"github.com/ecmacore/jsvm/internal/value"
)

// formatValue renders v the way a debugger's variable pane would,
// reading through the heap for the tags that need it rather than going
// through Agent.ToString (which can run user-observable getters/toJSON
// hooks — not appropriate for display-only code walking a finished
// trace).
func formatValue(heap *heapobj.Heap, v value.Value) string {
	switch v.Tag() {
	case value.TagUndefined:
		return "undefined"
	case value.TagNull:
		return "null"
	case value.TagBoolean:
		return strconv.FormatBool(v.Boolean())
	case value.TagSmallInteger:
		return strconv.FormatInt(v.SmallIntegerValue(), 10)
	case value.TagSmallFloat:
		return strconv.FormatFloat(v.SmallFloatValue(), 'g', -1, 64)
	case value.TagNumber:
		f, _ := heap.Numbers.Get(v.HeapIndex())
		return strconv.FormatFloat(f, 'g', -1, 64)
	case value.TagBigIntSmall:
		return strconv.FormatInt(v.BigIntSmallValue(), 10) + "n"
	case value.TagBigIntHeap:
		n, _ := heap.BigInts.Get(v.HeapIndex())
		if n != nil {
			return n.String() + "n"
		}
		return "<bigint>"
	case value.TagSmallString, value.TagString:
		return strconv.Quote(heap.StringValue(v))
	case value.TagSymbol:
		sym, _ := heap.Symbols.Get(v.HeapIndex())
		return fmt.Sprintf("Symbol(%s)", sym.Description)
	case value.TagObject:
		return fmt.Sprintf("#%d %s", v.HeapIndex(), heap.Object(v).Kind)
	default:
		return v.Tag().String()
	}
}

// truncateDisplayWidth clips s to at most width terminal cells,
// counting with go-runewidth the way F.2 calls for ("string-width-aware
// rendering of JS string values in the inspector") rather than by byte
// or rune count, since a wide string value would otherwise blow out a
// fixed-width column.
func truncateDisplayWidth(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
