package resource

import (
	"strconv"
	"strings"
)

// Encode renders a Value back to its canonical PBS attribute string. It is
// the inverse of Parse for every kind, and a zero-byte Size always encodes
// as "0kb" regardless of the unit or shift it was computed in.
func Encode(v Value) string {
	if v.Unset {
		return ""
	}
	if v.Infinite {
		return "infinity"
	}

	switch v.Kind {
	case KindLong:
		return strconv.FormatInt(v.Long, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBoolean:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindString:
		return v.Str
	case KindStringArray:
		return strings.Join(v.Strs, ",")
	case KindSize:
		return encodeSize(v.Size)
	default:
		return ""
	}
}

func encodeSize(s Size) string {
	if s.Num == 0 {
		return "0kb"
	}
	num := strconv.FormatFloat(s.Num, 'f', -1, 64)
	suffix := shiftSuffix[s.Shift]
	if s.Unit == UnitWords {
		return num + suffix + "w"
	}
	return num + suffix + "b"
}
