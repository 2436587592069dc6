package inspect

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zclip-go/zclipd/pkg/wire"
)

// FormatValue renders a Value the way a REPL prints an attribute's
// current contents.
func FormatValue(v wire.Value) string {
	switch v.Kind {
	case wire.KindBool:
		return strconv.FormatBool(v.Bool)
	case wire.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case wire.KindUint:
		return strconv.FormatUint(v.Uint, 10)
	case wire.KindTime:
		return v.Time.Format(time.RFC3339)
	case wire.KindString:
		return strconv.Quote(v.Str)
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// ParseValue interprets a REPL-entered string as a Value, guessing the
// kind the way the teacher's write command does: try bool, then
// signed int, then fall back to a string literal.
func ParseValue(s string) wire.Value {
	if b, err := strconv.ParseBool(s); err == nil {
		return wire.BoolValue(b)
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return wire.IntValue(i)
	}
	return wire.StringValue(s)
}
