package resource

// Add combines two consumable values. Non-consumable definitions return
// ErrTypeMismatch: arithmetic is meaningless for e.g. a string "arch"
// resource.
func Add(def *Def, a, b Value) (Value, error) {
	if !def.Flags.Has(FlagConsumable) {
		return Value{}, &ErrTypeMismatch{Def: def}
	}
	if a.Infinite || b.Infinite {
		return Infinity(def), nil
	}
	if a.Unset {
		return b, nil
	}
	if b.Unset {
		return a, nil
	}

	switch def.Kind {
	case KindLong:
		return Value{Kind: KindLong, Long: a.Long + b.Long}, nil
	case KindFloat:
		return Value{Kind: KindFloat, Float: a.Float + b.Float}, nil
	case KindSize:
		return Value{Kind: KindSize, Size: addSizes(a.Size, b.Size)}, nil
	default:
		return Value{}, &ErrTypeMismatch{Def: def}
	}
}

// Subtract is Add's inverse. The result is not clamped and can go
// negative for size/long/float; callers that need to detect
// over-subtraction Compare the result against Zero for the kind.
func Subtract(def *Def, a, b Value) (Value, error) {
	if !def.Flags.Has(FlagConsumable) {
		return Value{}, &ErrTypeMismatch{Def: def}
	}
	if a.Infinite {
		return Infinity(def), nil
	}
	if b.Infinite {
		return Value{}, &ErrTypeMismatch{Def: def}
	}
	if b.Unset {
		return a, nil
	}

	switch def.Kind {
	case KindLong:
		return Value{Kind: KindLong, Long: a.Long - b.Long}, nil
	case KindFloat:
		return Value{Kind: KindFloat, Float: a.Float - b.Float}, nil
	case KindSize:
		ab := a.Size.Bytes() - b.Size.Bytes()
		return Value{Kind: KindSize, Size: bytesToSize(ab, a.Size.Unit)}, nil
	default:
		return Value{}, &ErrTypeMismatch{Def: def}
	}
}

// addSizes sums two sizes in a's unit, normalising through bytes.
func addSizes(a, b Size) Size {
	total := a.Bytes() + b.Bytes()
	return bytesToSize(total, a.Unit)
}

// bytesToSize picks a natural (num, shift) pair for an absolute byte
// count, preferring the largest shift that keeps num >= 1 (matching the
// encode-as-smallest-readable-unit convention PBS itself uses), falling
// back to shift 0 for zero.
func bytesToSize(totalBytes float64, unit SizeUnit) Size {
	divisor := 1.0
	if unit == UnitWords {
		divisor = wordSizeBytes
	}
	units := totalBytes / divisor
	if units == 0 {
		return Size{Num: 0, Shift: 0, Unit: unit}
	}
	shift := uint(0)
	for _, s := range []uint{50, 40, 30, 20, 10} {
		mul := float64(uint64(1) << s)
		if units >= mul {
			shift = s
			break
		}
	}
	return Size{Num: units / float64(uint64(1)<<shift), Shift: shift, Unit: unit}
}

// Zero returns the additive identity for def's kind (used by callers that
// need to test "resources fully released").
func Zero(def *Def) Value {
	switch def.Kind {
	case KindLong:
		return Value{Kind: KindLong, Long: 0}
	case KindFloat:
		return Value{Kind: KindFloat, Float: 0}
	case KindSize:
		return Value{Kind: KindSize, Size: Size{Num: 0, Shift: 0, Unit: UnitBytes}}
	default:
		return Unset(def)
	}
}
