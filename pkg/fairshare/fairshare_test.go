package fairshare

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleTree(t *testing.T) *Tree {
	t.Helper()
	src := strings.NewReader(strings.Join([]string{
		"gA root 50",
		"gB root 50",
		"alice gA 1",
		"bob gB 1",
	}, "\n"))
	tree, err := ParseResourceGroup(src)
	require.NoError(t, err)
	return tree
}

func TestCalcFairSharePercSumsToParent(t *testing.T) {
	tree := buildSampleTree(t)
	CalcFairSharePerc(tree.Root, 1.0)

	var sumChildren func(n *Node) float64
	sumChildren = func(n *Node) float64 {
		sum := 0.0
		for _, c := range n.Children {
			sum += c.TreePercentage
		}
		return sum
	}
	assert.InDelta(t, tree.Root.TreePercentage, sumChildren(tree.Root), 1e-9)
	gA, _ := tree.Find("gA")
	assert.InDelta(t, gA.TreePercentage, sumChildren(gA), 1e-9)
}

func TestComparePathPrefersLowerUsageRatio(t *testing.T) {
	tree := buildSampleTree(t)
	CalcFairSharePerc(tree.Root, 1.0)

	gA, _ := tree.Find("gA")
	gB, _ := tree.Find("gB")
	gA.Usage, gA.TempUsage = 100.0, 100.0
	gB.Usage, gB.TempUsage = 10.0, 10.0

	alice, _ := tree.Find("alice")
	bob, _ := tree.Find("bob")

	pAlice := CreatePath(alice)
	pBob := CreatePath(bob)

	assert.Equal(t, 1, ComparePath(pAlice, pBob), "bob (lower usage ratio) should be more deserving")
}

func TestDecayTreeScalesUsage(t *testing.T) {
	tree := buildSampleTree(t)
	gA, _ := tree.Find("gA")
	gA.Usage = 100.0
	DecayTree(tree.Root, 0.5)
	assert.Equal(t, 50.0, gA.Usage)
	assert.Equal(t, 50.0, gA.TempUsage)
}

func TestChargeUsagePropagatesToAncestors(t *testing.T) {
	tree := buildSampleTree(t)
	alice, _ := tree.Find("alice")
	gA, _ := tree.Find("gA")

	ChargeUsage(alice, 42.0)
	assert.Equal(t, 42.0, alice.Usage)
	assert.Equal(t, 42.0, gA.Usage)
	assert.Equal(t, 42.0, tree.Root.Usage)
}

func TestUsageFileRoundTrip(t *testing.T) {
	tree := buildSampleTree(t)
	gA, _ := tree.Find("gA")
	gA.Usage = 123.456
	alice, _ := tree.Find("alice")
	alice.Usage = 7.89

	path := filepath.Join(t.TempDir(), "usage")
	require.NoError(t, WriteUsage(path, tree))

	fresh := buildSampleTree(t)
	require.NoError(t, ReadUsage(path, fresh, 10))

	freshGA, _ := fresh.Find("gA")
	freshAlice, _ := fresh.Find("alice")
	assert.InDelta(t, 123.456, freshGA.Usage, 1e-9)
	assert.InDelta(t, 7.89, freshAlice.Usage, 1e-9)
}

func TestReadUsageRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(path, []byte("NOTMAGIC"), 0644))
	tree := buildSampleTree(t)
	err := ReadUsage(path, tree, 10)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestFindOrCreateAddsUnderUnknown(t *testing.T) {
	tree := buildSampleTree(t)
	n := tree.FindOrCreate("ghost", 3)
	assert.Equal(t, tree.Unknown, n.Parent)
	assert.Equal(t, 3, n.Shares)
}

func TestTrimRemovesEntitiesNotKept(t *testing.T) {
	tree := buildSampleTree(t)
	tree.Trim(map[string]bool{"alice": true})

	_, aliceOK := tree.Find("alice")
	_, bobOK := tree.Find("bob")
	assert.True(t, aliceOK)
	assert.False(t, bobOK)
}
