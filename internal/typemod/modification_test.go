package typemod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samples covers bare flags, payload-carrying values and combinations.
func samples() []Modification {
	return []Modification{
		None,
		Const,
		Reference,
		RValueReference,
		Pointer(1),
		Pointer(3),
		FromFlags(FlagPointer),
		Array("4"),
		Array("", "8"),
		Array("2", "8"),
		FromFlags(FlagArray),
		Const.Or(Pointer(2)),
		Static.Or(Constexpr).Or(Array("N")),
		Volatile.Or(Mutable).Or(Reference),
	}
}

// =============================================================================
// Constructors and accessors
// =============================================================================

func TestPointer_OrderAndFlags(t *testing.T) {
	t.Parallel()
	m := Pointer(2).Or(Const)

	assert.True(t, m.IsPointer())
	assert.True(t, m.IsConst())
	order, ok := m.PointerOrder()
	require.True(t, ok)
	assert.Equal(t, uint32(2), order)

	fresh := Const.Or(Pointer(2))
	assert.True(t, m.Equal(fresh))
	assert.Equal(t, "const pointer(2)", m.String())
}

func TestPointer_ZeroDepthIsOne(t *testing.T) {
	t.Parallel()
	order, ok := Pointer(0).PointerOrder()
	require.True(t, ok)
	assert.Equal(t, uint32(1), order)
}

func TestArray_PayloadIsCopied(t *testing.T) {
	t.Parallel()
	dims := []string{"3", ""}
	m := Array(dims...)
	dims[0] = "99"

	got, ok := m.ArrayOrder()
	require.True(t, ok)
	assert.Equal(t, []string{"3", ""}, got)

	got[1] = "mutated"
	again, _ := m.ArrayOrder()
	assert.Equal(t, []string{"3", ""}, again)
}

func TestPayloadAbsentWithoutFlag(t *testing.T) {
	t.Parallel()
	_, ok := Const.PointerOrder()
	assert.False(t, ok)
	_, ok = Const.ArrayOrder()
	assert.False(t, ok)

	m := Pointer(3).Or(Array("2")).Minus(FromFlags(FlagPointer | FlagArray))
	_, ok = m.PointerOrder()
	assert.False(t, ok)
	_, ok = m.ArrayOrder()
	assert.False(t, ok)
}

// =============================================================================
// Equality
// =============================================================================

func TestEqual_BareConstantEquivalence(t *testing.T) {
	t.Parallel()
	assert.True(t, Pointer(1).Equal(FromFlags(FlagPointer)))
	assert.True(t, Array().Equal(FromFlags(FlagArray)))
	assert.False(t, Pointer(2).Equal(FromFlags(FlagPointer)))
	assert.False(t, Array("3").Equal(FromFlags(FlagArray)))
}

func TestEqual_RequiresSameFlags(t *testing.T) {
	t.Parallel()
	assert.False(t, Const.Equal(Volatile))
	assert.False(t, Pointer(1).Equal(Pointer(1).Or(Const)))
	assert.True(t, None.Equal(Modification{}))
}

// =============================================================================
// Algebra laws
// =============================================================================

func TestOr_Commutative(t *testing.T) {
	t.Parallel()
	for _, a := range samples() {
		for _, b := range samples() {
			assert.True(t, a.Or(b).Equal(b.Or(a)), "%s | %s", a, b)
		}
	}
}

func TestAnd_Idempotent(t *testing.T) {
	t.Parallel()
	for _, a := range samples() {
		assert.True(t, a.And(a).Equal(a), "%s & %s", a, a)
	}
}

func TestNot_InvolutionOnFlags(t *testing.T) {
	t.Parallel()
	for _, a := range samples() {
		assert.Equal(t, a.Flags(), a.Not().Not().Flags(), "~~%s", a)
	}
}

func TestNot_DropsPayload(t *testing.T) {
	t.Parallel()
	m := Pointer(3).Not().Not()
	assert.True(t, m.IsPointer())
	_, ok := m.PointerOrder()
	assert.False(t, ok)
}

func TestOr_DeeperPointerWins(t *testing.T) {
	t.Parallel()
	order, ok := Pointer(1).Or(Pointer(4)).PointerOrder()
	require.True(t, ok)
	assert.Equal(t, uint32(4), order)

	order, ok = Pointer(4).Or(FromFlags(FlagPointer)).PointerOrder()
	require.True(t, ok)
	assert.Equal(t, uint32(4), order)
}

func TestOr_MoreSpecificArrayWins(t *testing.T) {
	t.Parallel()
	dims, ok := Array("").Or(Array("", "")).ArrayOrder()
	require.True(t, ok)
	assert.Equal(t, []string{"", ""}, dims)

	dims, _ = Array("", "4").Or(Array("2", "4")).ArrayOrder()
	assert.Equal(t, []string{"2", "4"}, dims)

	dims, _ = Array("2", "4").Or(Array("2", "4")).ArrayOrder()
	assert.Equal(t, []string{"2", "4"}, dims)
	// equally specific lists: the pick does not depend on operand order
	left, _ := Array("3").Or(Array("N")).ArrayOrder()
	right, _ := Array("N").Or(Array("3")).ArrayOrder()
	assert.Equal(t, left, right)
	assert.Equal(t, []string{"N"}, left)
}

func TestAnd_MismatchedPayloadIsUnderspecified(t *testing.T) {
	t.Parallel()
	m := Pointer(2).And(Pointer(3))
	assert.True(t, m.IsPointer())
	_, ok := m.PointerOrder()
	assert.False(t, ok)

	m = Array("3").And(Array("4"))
	assert.True(t, m.IsArray())
	_, ok = m.ArrayOrder()
	assert.False(t, ok)

	m = Pointer(2).Or(Const).And(Pointer(2))
	order, ok := m.PointerOrder()
	require.True(t, ok)
	assert.Equal(t, uint32(2), order)
	assert.False(t, m.IsConst())
}

func TestXor_PayloadFromContributingSide(t *testing.T) {
	t.Parallel()
	m := Pointer(3).Xor(Const)
	order, ok := m.PointerOrder()
	require.True(t, ok)
	assert.Equal(t, uint32(3), order)
	assert.True(t, m.IsConst())

	m = Pointer(3).Xor(Pointer(2))
	assert.False(t, m.IsPointer())
	_, ok = m.PointerOrder()
	assert.False(t, ok)

	dims, ok := Const.Xor(Array("5")).ArrayOrder()
	require.True(t, ok)
	assert.Equal(t, []string{"5"}, dims)
}

func TestMinus_KeepsSurvivingPayload(t *testing.T) {
	t.Parallel()
	m := Const.Or(Pointer(2)).Minus(Const)
	assert.True(t, m.Equal(Pointer(2)))

	m = Const.Or(Reference).Minus(Reference)
	assert.True(t, m.Equal(Const))
}

// =============================================================================
// Validation and parsing
// =============================================================================

func TestValidate_MixedIndirection(t *testing.T) {
	t.Parallel()
	require.NoError(t, Pointer(3).Or(Const).Validate())
	require.NoError(t, Reference.Or(Array("2")).Validate())

	err := Pointer(1).Or(Reference).Validate()
	require.ErrorIs(t, err, ErrMixedIndirection)

	err = Reference.Or(RValueReference).Validate()
	require.ErrorIs(t, err, ErrMixedIndirection)
}

func TestParseFlag(t *testing.T) {
	t.Parallel()
	cases := map[string]Flag{
		"const":      FlagConst,
		"volatile":   FlagVolatile,
		"constinit":  FlagConstinit,
		"mutable":    FlagMutable,
		"__restrict": FlagRestrict,
	}
	for kw, want := range cases {
		got, ok := ParseFlag(kw)
		require.True(t, ok, kw)
		assert.Equal(t, want, got, kw)
	}
	_, ok := ParseFlag("register")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "static const array[3][]", Static.Or(Const).Or(Array("3", "")).String())
	assert.Equal(t, "reference", Reference.String())
}

// =============================================================================
// Function modifiers
// =============================================================================

func TestFunctionModification_Algebra(t *testing.T) {
	t.Parallel()
	a := NewFunctionModification(FnVirtual, FnConst)
	b := NewFunctionModification(FnConst, FnNoexcept)

	assert.True(t, a.And(b).Equal(NewFunctionModification(FnConst)))
	assert.True(t, a.Or(b).Equal(b.Or(a)))
	assert.True(t, a.Xor(b).Equal(NewFunctionModification(FnVirtual, FnNoexcept)))
	assert.True(t, a.Not().Not().Equal(a))
	assert.Equal(t, "virtual const", a.String())
}

func TestFunctionFlagForToken(t *testing.T) {
	t.Parallel()
	f, ok := FunctionFlagForToken("override")
	require.True(t, ok)
	assert.Equal(t, FnOverride, f)

	f, ok = FunctionFlagForToken("consteval")
	require.True(t, ok)
	assert.Equal(t, FnConstexpr, f)

	_, ok = FunctionFlagForToken("int")
	assert.False(t, ok)
}
