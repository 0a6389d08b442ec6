package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncodeRoundTrip(t *testing.T) {
	r := Builtin()
	ncpus, _ := r.Lookup("ncpus")
	mem, _ := r.Lookup("mem")
	arch, _ := r.Lookup("arch")
	features, _ := r.Lookup("features")
	shared, _ := r.Lookup("shared")
	load, _ := r.Lookup("load")

	cases := []struct {
		def *Def
		in  string
	}{
		{ncpus, "4"},
		{mem, "8gb"},
		{mem, "512kb"},
		{mem, "2tw"},
		{arch, "linux"},
		{features, "gpu,highmem"},
		{shared, "True"},
		{load, "1.5"},
	}

	for _, tc := range cases {
		v, err := Parse(tc.def, tc.in)
		require.NoError(t, err, tc.in)
		_ = Encode(v)

		// Re-parsing the encoded form must reproduce an equal value.
		v2, err := Parse(tc.def, Encode(v))
		require.NoError(t, err)
		assert.Equal(t, CmpEqual, Compare(v, v2), "round-trip for %q", tc.in)
	}
}

func TestSizeZeroEncodesAsZeroKb(t *testing.T) {
	r := Builtin()
	mem, _ := r.Lookup("mem")
	v, err := Parse(mem, "0b")
	require.NoError(t, err)
	assert.Equal(t, "0kb", Encode(v))

	v2, err := Parse(mem, Encode(v))
	require.NoError(t, err)
	assert.Equal(t, CmpEqual, Compare(v, v2))
}

func TestSizeComparisonNormalisesUnits(t *testing.T) {
	r := Builtin()
	mem, _ := r.Lookup("mem")
	gb, _ := Parse(mem, "1gb")
	mb, _ := Parse(mem, "1024mb")
	assert.Equal(t, CmpEqual, Compare(gb, mb))

	small, _ := Parse(mem, "512mb")
	assert.Equal(t, CmpGreater, Compare(gb, small))
	assert.Equal(t, CmpLess, Compare(small, gb))
}

func TestStringArraySetEquality(t *testing.T) {
	r := Builtin()
	features, _ := r.Lookup("features")
	a, _ := Parse(features, "gpu,highmem")
	b, _ := Parse(features, "highmem,gpu")
	assert.Equal(t, CmpEqual, Compare(a, b))

	c, _ := Parse(features, "gpu")
	assert.True(t, Subset(c, a))
	assert.False(t, Subset(a, c))
}

func TestBooleanParsingVariants(t *testing.T) {
	r := Builtin()
	shared, _ := r.Lookup("shared")
	for _, s := range []string{"true", "True", "1", "y"} {
		v, err := Parse(shared, s)
		require.NoError(t, err)
		assert.True(t, v.Bool)
	}
	for _, s := range []string{"false", "False", "0", "n"} {
		v, err := Parse(shared, s)
		require.NoError(t, err)
		assert.False(t, v.Bool)
	}
}

func TestInfinityComparesGreaterThanFinite(t *testing.T) {
	r := Builtin()
	ncpus, _ := r.Lookup("ncpus")
	inf := Infinity(ncpus)
	four, _ := Parse(ncpus, "4")
	assert.Equal(t, CmpGreater, Compare(inf, four))
	assert.Equal(t, CmpLess, Compare(four, inf))
	assert.Equal(t, CmpEqual, Compare(inf, Infinity(ncpus)))
}

func TestAddSubtractConsumable(t *testing.T) {
	r := Builtin()
	ncpus, _ := r.Lookup("ncpus")
	a, _ := Parse(ncpus, "4")
	b, _ := Parse(ncpus, "2")

	sum, err := Add(ncpus, a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum.Long)

	diff, err := Subtract(ncpus, sum, b)
	require.NoError(t, err)
	assert.Equal(t, int64(4), diff.Long)
}

func TestAddNonConsumableIsTypeMismatch(t *testing.T) {
	r := Builtin()
	arch, _ := r.Lookup("arch")
	a, _ := Parse(arch, "linux")
	b, _ := Parse(arch, "linux")
	_, err := Add(arch, a, b)
	var mismatch *ErrTypeMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestParseBadValue(t *testing.T) {
	r := Builtin()
	ncpus, _ := r.Lookup("ncpus")
	_, err := Parse(ncpus, "not-a-number")
	var bad *ErrBadValue
	assert.ErrorAs(t, err, &bad)
}

func TestRegistryRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	d1, err := r.Register("ncpus", KindLong, FlagConsumable)
	require.NoError(t, err)
	d2, err := r.Register("ncpus", KindLong, FlagConsumable)
	require.NoError(t, err)
	assert.Same(t, d1, d2)

	_, err = r.Register("ncpus", KindFloat, FlagConsumable)
	assert.Error(t, err)
}
