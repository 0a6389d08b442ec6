package placement

import (
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/types"
)

// fitsChunk reports whether one copy of req can be carved from res: every
// consumable entry in req must have enough unused (available - assigned)
// capacity in res, and every non-consumable entry must match (string_array
// as subset, everything else as equality).
func fitsChunk(res, req *types.ResourceList) bool {
	for _, e := range req.Entries() {
		ne, ok := res.Get(e.Def)
		if !ok {
			return false
		}
		if e.Def.Flags.Has(resource.FlagConsumable) {
			unused, err := resource.Subtract(e.Def, ne.EffectiveAvailable(), ne.Assigned)
			if err != nil {
				return false
			}
			if resource.Compare(unused, e.Available) == resource.CmpLess {
				return false
			}
			continue
		}
		if !matchesNonConsumable(e.Def, ne.EffectiveAvailable(), e.Available) {
			return false
		}
	}
	return true
}

func matchesNonConsumable(def *resource.Def, have, want resource.Value) bool {
	if !want.IsSet() {
		return true
	}
	if def.Kind == resource.KindStringArray {
		return resource.Subset(want, have)
	}
	return resource.Compare(have, want) == resource.CmpEqual
}

// consume deducts one copy of req from res by increasing each consumable
// entry's Assigned value, the in-place bookkeeping used while a
// candidate's placement is still tentative.
func consume(res, req *types.ResourceList) {
	for _, e := range req.Entries() {
		if !e.Def.Flags.Has(resource.FlagConsumable) {
			continue
		}
		ne, ok := res.Get(e.Def)
		if !ok {
			continue
		}
		sum, err := resource.Add(e.Def, ne.Assigned, e.Available)
		if err != nil {
			continue
		}
		ne.Assigned = sum
	}
}

// chunksPerNode computes how many whole copies of req one representative
// node's res can host, the ratio map_buckets uses to translate lit
// bucket bits into nspec counts. A req with no consumable dimensions
// (pure selector match) yields 1.
func chunksPerNode(res, req *types.ResourceList) int {
	best := -1
	for _, e := range req.Entries() {
		if !e.Def.Flags.Has(resource.FlagConsumable) {
			continue
		}
		ne, ok := res.Get(e.Def)
		if !ok {
			return 0
		}
		ratio := divideFloor(e.Def, ne.EffectiveAvailable(), e.Available)
		if ratio < 0 {
			continue
		}
		if best == -1 || ratio < best {
			best = ratio
		}
	}
	for _, e := range req.Entries() {
		if e.Def.Flags.Has(resource.FlagConsumable) {
			continue
		}
		ne, ok := res.Get(e.Def)
		if !ok || !matchesNonConsumable(e.Def, ne.EffectiveAvailable(), e.Available) {
			return 0
		}
	}
	if best == -1 {
		return 1
	}
	return best
}

// divideFloor returns floor(avail/want) for a consumable dimension, or -1
// when want is zero (meaning this dimension does not constrain the
// ratio).
func divideFloor(def *resource.Def, avail, want resource.Value) int {
	switch def.Kind {
	case resource.KindLong:
		if want.Long == 0 {
			return -1
		}
		return int(avail.Long / want.Long)
	case resource.KindFloat:
		if want.Float == 0 {
			return -1
		}
		return int(avail.Float / want.Float)
	case resource.KindSize:
		wb := want.Size.Bytes()
		if wb == 0 {
			return -1
		}
		return int(avail.Size.Bytes() / wb)
	default:
		return -1
	}
}
