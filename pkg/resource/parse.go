package resource

import (
	"regexp"
	"strconv"
	"strings"
)

var sizeRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(kb|mb|gb|tb|pb|kw|mw|gw|tw|pw|b|w)?$`)

var trueWords = map[string]bool{"true": true, "True": true, "1": true, "y": true, "Y": true, "yes": true}
var falseWords = map[string]bool{"false": true, "False": true, "0": true, "n": true, "N": true, "no": true}

// Parse converts a raw attribute string into a Value typed according to
// def.Kind. The special literal "infinity" (or the empty string) yields
// the Infinite / Unset sentinels respectively, matching PBS's own
// conventions for resources_available.<res> = unlimited.
func Parse(def *Def, s string) (Value, error) {
	if s == "" {
		return Unset(def), nil
	}
	if s == "infinity" || s == "unlimited" {
		return Infinity(def), nil
	}

	switch def.Kind {
	case KindLong:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, &ErrBadValue{Def: def, Input: s}
		}
		return Value{Kind: KindLong, Long: n}, nil

	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, &ErrBadValue{Def: def, Input: s}
		}
		return Value{Kind: KindFloat, Float: f}, nil

	case KindBoolean:
		if trueWords[s] {
			return Value{Kind: KindBoolean, Bool: true}, nil
		}
		if falseWords[s] {
			return Value{Kind: KindBoolean, Bool: false}, nil
		}
		return Value{}, &ErrBadValue{Def: def, Input: s}

	case KindString:
		return Value{Kind: KindString, Str: s}, nil

	case KindStringArray:
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return Value{Kind: KindStringArray, Strs: parts}, nil

	case KindSize:
		return parseSize(def, s)

	default:
		return Value{}, &ErrBadValue{Def: def, Input: s}
	}
}

func parseSize(def *Def, s string) (Value, error) {
	m := sizeRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Value{}, &ErrBadValue{Def: def, Input: s}
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Value{}, &ErrBadValue{Def: def, Input: s}
	}
	suffix := m[2]
	unit := UnitBytes
	shiftKey := suffix
	if strings.HasSuffix(suffix, "w") {
		unit = UnitWords
		shiftKey = strings.TrimSuffix(suffix, "w")
	} else {
		shiftKey = strings.TrimSuffix(suffix, "b")
	}
	shift, ok := suffixShift[shiftKey]
	if !ok {
		return Value{}, &ErrBadValue{Def: def, Input: s}
	}
	return Value{Kind: KindSize, Size: Size{Num: num, Shift: shift, Unit: unit}}, nil
}
