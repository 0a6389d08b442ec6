package resource

import "sort"

// Compare implements compare(a, b) -> {lt, eq, gt, incompatible}.
// Size values are normalised to bytes before comparison. String-array
// values only support equality (set-equal, order independent); any
// ordering comparison on them returns CmpIncompatible. Infinity sorts
// greater than every finite value of the same kind; two infinities are
// equal.
func Compare(a, b Value) CmpResult {
	if a.Kind != b.Kind {
		return CmpIncompatible
	}
	if a.Unset || b.Unset {
		if a.Unset && b.Unset {
			return CmpEqual
		}
		return CmpIncompatible
	}
	if a.Infinite || b.Infinite {
		switch {
		case a.Infinite && b.Infinite:
			return CmpEqual
		case a.Infinite:
			return CmpGreater
		default:
			return CmpLess
		}
	}

	switch a.Kind {
	case KindLong:
		return cmpFloat(float64(a.Long), float64(b.Long))
	case KindFloat:
		return cmpFloat(a.Float, b.Float)
	case KindSize:
		return cmpFloat(a.Size.Bytes(), b.Size.Bytes())
	case KindString:
		switch {
		case a.Str < b.Str:
			return CmpLess
		case a.Str > b.Str:
			return CmpGreater
		default:
			return CmpEqual
		}
	case KindBoolean:
		if a.Bool == b.Bool {
			return CmpEqual
		}
		if !a.Bool && b.Bool {
			return CmpLess
		}
		return CmpGreater
	case KindStringArray:
		if setEqual(a.Strs, b.Strs) {
			return CmpEqual
		}
		return CmpIncompatible
	default:
		return CmpIncompatible
	}
}

func cmpFloat(a, b float64) CmpResult {
	switch {
	case a < b:
		return CmpLess
	case a > b:
		return CmpGreater
	default:
		return CmpEqual
	}
}

// setEqual reports whether two string slices hold the same multiset of
// values, ignoring order.
func setEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// Subset reports whether every element of a is present in b.
func Subset(a, b Value) bool {
	if a.Kind != KindStringArray || b.Kind != KindStringArray {
		return false
	}
	set := make(map[string]struct{}, len(b.Strs))
	for _, s := range b.Strs {
		set[s] = struct{}{}
	}
	for _, s := range a.Strs {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
