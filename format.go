package replaycache

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatArgs renders an argument tuple for the inputs history: strings are
// quoted, byte slices are written as b"...", numbers in base 10.
//
//	FormatArgs([]any{"hello"})       == `("hello")`
//	FormatArgs([]any{[]byte("x"), 4}) == `(b"x", 4)`
func FormatArgs(args []any) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatValue(a))
	}
	sb.WriteByte(')')
	return sb.String()
}

// FormatResult renders a result for the outputs history. Strings are written
// verbatim (a stored key reads back as the key itself).
func FormatResult(res any, err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	if s, ok := res.(string); ok {
		return s
	}
	return formatValue(res)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case []byte:
		return "b" + strconv.Quote(string(x))
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(x)
	case error:
		return "error: " + x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%+v", x)
	}
}
