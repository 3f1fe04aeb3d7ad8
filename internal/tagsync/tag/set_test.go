package tag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetInsertRemove(t *testing.T) {
	s := NewSet()
	require.True(t, s.IsEmpty())

	x := MustNew("x")
	s.Insert(x)
	require.Equal(t, 1, s.Len())
	require.True(t, s.Contains(x))

	s.Remove(x)
	require.True(t, s.IsEmpty())
	require.False(t, s.Contains(x))
}

func TestSetInsertIsIdempotent(t *testing.T) {
	s := NewSet()
	x := MustNew("x")
	s.Insert(x)
	s.Insert(x)
	require.Equal(t, 1, s.Len())
}

func TestDiffSets(t *testing.T) {
	left := SetOf(MustNew("a"), MustNew("b"))
	right := SetOf(MustNew("b"), MustNew("c"))

	d := DiffSets(left, right)
	require.Equal(t, 1, d.LeftOnly.Len())
	require.True(t, d.LeftOnly.Contains(MustNew("a")))
	require.Equal(t, 1, d.RightOnly.Len())
	require.True(t, d.RightOnly.Contains(MustNew("c")))
	require.Equal(t, 1, d.Intersection.Len())
	require.True(t, d.Intersection.Contains(MustNew("b")))
	require.False(t, d.Empty())
}

func TestDiffSetsIdenticalIsEmpty(t *testing.T) {
	s := SetOf(MustNew("a"))
	d := DiffSets(s, s.Clone())
	require.True(t, d.Empty())
}

func TestUnionDoesNotMutateOperands(t *testing.T) {
	a := SetOf(MustNew("a"))
	b := SetOf(MustNew("b"))
	u := Union(a, b)
	require.Equal(t, 2, u.Len())
	require.Equal(t, 1, a.Len())
	require.Equal(t, 1, b.Len())
}

func TestUnionIntoMutates(t *testing.T) {
	a := SetOf(MustNew("a"))
	b := SetOf(MustNew("b"))
	a.UnionInto(b)
	require.Equal(t, 2, a.Len())
	require.Equal(t, 1, b.Len())
}

func TestSerializeRoundTrip(t *testing.T) {
	s := SetOf(MustNew("b"), MustNew("a"), MustNew("c"))
	serialized := s.Serialize()
	require.Equal(t, "a,b,c", serialized)

	parsed, dropped := Parse(serialized)
	require.Empty(t, dropped)
	require.Equal(t, s.Serialize(), parsed.Serialize())
}

func TestSerializeEmptySet(t *testing.T) {
	require.Equal(t, "", NewSet().Serialize())
	parsed, dropped := Parse("")
	require.True(t, parsed.IsEmpty())
	require.Empty(t, dropped)
}

func TestParseDropsInvalidTokens(t *testing.T) {
	parsed, dropped := Parse("valid,in#valid,")
	require.Equal(t, 1, parsed.Len())
	require.True(t, parsed.Contains(MustNew("valid")))
	require.Equal(t, []string{"in#valid"}, dropped)
}

func TestSetMarshalJSONRoundTrip(t *testing.T) {
	s := SetOf(MustNew("a"), MustNew("b"))
	data, err := s.MarshalJSON()
	require.NoError(t, err)

	var restored Set
	require.NoError(t, restored.UnmarshalJSON(data))
	require.Equal(t, s.Serialize(), restored.Serialize())
}
