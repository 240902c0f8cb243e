// Package typemod models the qualifiers and indirections attached to a single
// use of a C++ type, and the small flag algebra used to combine and compare
// them.
//
// A Modification is an immutable value: a fixed set of boolean qualifiers plus
// two payloads that only exist while their owning flag is set. The pointer
// payload is the depth of a same-kind pointer chain (int** has order 2). The
// array payload lists one size expression per dimension, outermost first,
// with "" for an unspecified dimension.
package typemod

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrMixedIndirection is reported when a value would carry more than one of
// {pointer chain, reference, rvalue reference}.
var ErrMixedIndirection = errors.New("typemod: more than one indirection kind on one type")

// Flag is one qualifier bit.
type Flag uint16

const (
	FlagReference Flag = 1 << iota
	FlagPointer
	FlagConst
	FlagVolatile
	FlagStatic
	FlagArray
	FlagRValueReference
	FlagRestrict
	FlagConstexpr
	FlagConstinit
	FlagMutable
	FlagInline
	FlagTemplate

	allFlags = FlagTemplate<<1 - 1

	indirectionFlags = FlagPointer | FlagReference | FlagRValueReference
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagStatic, "static"},
	{FlagInline, "inline"},
	{FlagConstexpr, "constexpr"},
	{FlagConstinit, "constinit"},
	{FlagMutable, "mutable"},
	{FlagTemplate, "template"},
	{FlagConst, "const"},
	{FlagVolatile, "volatile"},
	{FlagRestrict, "restrict"},
	{FlagPointer, "pointer"},
	{FlagArray, "array"},
	{FlagReference, "reference"},
	{FlagRValueReference, "rvalue-reference"},
}

// String returns the space separated names of the set bits.
func (f Flag) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseFlag maps a qualifier keyword as written in source to its flag.
func ParseFlag(keyword string) (Flag, bool) {
	switch keyword {
	case "__restrict", "__restrict__":
		return FlagRestrict, true
	}
	for _, fn := range flagNames {
		if fn.name == keyword {
			return fn.flag, true
		}
	}
	return 0, false
}

// Modification is the set of qualifiers applied to one type use.
// The zero value is the empty modification.
type Modification struct {
	flags        Flag
	pointerOrder uint32   // 0 when absent
	arrayOrder   []string // nil when absent
}

// Bare-flag constants. Pointer and Array carry payloads and are built with
// the Pointer and Array constructors instead.
var (
	None            = Modification{}
	Reference       = Modification{flags: FlagReference}
	RValueReference = Modification{flags: FlagRValueReference}
	Const           = Modification{flags: FlagConst}
	Volatile        = Modification{flags: FlagVolatile}
	Static          = Modification{flags: FlagStatic}
	Restrict        = Modification{flags: FlagRestrict}
	Constexpr       = Modification{flags: FlagConstexpr}
	Constinit       = Modification{flags: FlagConstinit}
	Mutable         = Modification{flags: FlagMutable}
	Inline          = Modification{flags: FlagInline}
	Template        = Modification{flags: FlagTemplate}
)

// Pointer returns a pointer chain of the given depth. A depth of 0 is
// treated as 1.
func Pointer(order uint32) Modification {
	return Modification{flags: FlagPointer, pointerOrder: max(order, 1)}
}

// Array returns an array modification with one entry per dimension.
func Array(dims ...string) Modification {
	order := make([]string, len(dims))
	copy(order, dims)
	return Modification{flags: FlagArray, arrayOrder: order}
}

// FromFlags returns a modification with the given bits set and no payloads.
// A pointer or array flag set this way is underspecified.
func FromFlags(f Flag) Modification {
	return Modification{flags: f & allFlags}
}

// Flags returns the raw flag set.
func (m Modification) Flags() Flag { return m.flags }

// Has reports whether every bit of f is set.
func (m Modification) Has(f Flag) bool { return f != 0 && m.flags&f == f }

func (m Modification) IsEmpty() bool           { return m.flags == 0 }
func (m Modification) IsPointer() bool         { return m.Has(FlagPointer) }
func (m Modification) IsReference() bool       { return m.Has(FlagReference) }
func (m Modification) IsRValueReference() bool { return m.Has(FlagRValueReference) }
func (m Modification) IsConst() bool           { return m.Has(FlagConst) }
func (m Modification) IsVolatile() bool        { return m.Has(FlagVolatile) }
func (m Modification) IsStatic() bool          { return m.Has(FlagStatic) }
func (m Modification) IsArray() bool           { return m.Has(FlagArray) }

// PointerOrder returns the pointer chain depth. ok is false when the value is
// not a pointer or the depth is unknown.
func (m Modification) PointerOrder() (order uint32, ok bool) {
	if m.pointerOrder == 0 {
		return 0, false
	}
	return m.pointerOrder, true
}

// ArrayOrder returns a copy of the dimension list. ok is false when the value
// is not an array or the dimensions are unknown.
func (m Modification) ArrayOrder() (dims []string, ok bool) {
	if m.arrayOrder == nil {
		return nil, false
	}
	return slices.Clone(m.arrayOrder), true
}

// Indirections counts how many of {pointer, reference, rvalue reference} are set.
func (m Modification) Indirections() int {
	n := 0
	for _, f := range []Flag{FlagPointer, FlagReference, FlagRValueReference} {
		if m.flags&f != 0 {
			n++
		}
	}
	return n
}

// HasIndirection reports whether any indirection flag is set.
func (m Modification) HasIndirection() bool { return m.flags&indirectionFlags != 0 }

// Validate reports ErrMixedIndirection when more than one indirection kind is set.
func (m Modification) Validate() error {
	if m.Indirections() > 1 {
		return fmt.Errorf("%w: %s", ErrMixedIndirection, m.flags&indirectionFlags)
	}
	return nil
}

// With returns m with the bits of f added. Payloads already present are kept.
func (m Modification) With(f Flag) Modification {
	return m.Or(FromFlags(f))
}

// And keeps the flags common to both sides. A payload survives only when both
// sides carry it and the payloads are equal; otherwise the flag is kept
// underspecified.
func (m Modification) And(o Modification) Modification {
	r := Modification{flags: m.flags & o.flags}
	if r.flags&FlagPointer != 0 && m.pointerOrder != 0 && m.pointerOrder == o.pointerOrder {
		r.pointerOrder = m.pointerOrder
	}
	if r.flags&FlagArray != 0 && m.arrayOrder != nil && o.arrayOrder != nil && slices.Equal(m.arrayOrder, o.arrayOrder) {
		r.arrayOrder = slices.Clone(m.arrayOrder)
	}
	return r
}

// Or unions the flags and keeps the more specific payload of each kind.
func (m Modification) Or(o Modification) Modification {
	r := Modification{flags: m.flags | o.flags}
	if r.flags&FlagPointer != 0 {
		r.pointerOrder = deeperPointer(m.pointerOrder, o.pointerOrder)
	}
	if r.flags&FlagArray != 0 {
		r.arrayOrder = slices.Clone(moreSpecificArray(m.arrayOrder, o.arrayOrder))
	}
	return r
}

// Xor keeps the flags set on exactly one side, with that side's payload.
func (m Modification) Xor(o Modification) Modification {
	r := Modification{flags: m.flags ^ o.flags}
	if r.flags&FlagPointer != 0 {
		r.pointerOrder = deeperPointer(m.pointerOrder, o.pointerOrder)
	}
	if r.flags&FlagArray != 0 {
		r.arrayOrder = slices.Clone(moreSpecificArray(m.arrayOrder, o.arrayOrder))
	}
	return r
}

// Not flips every flag. Payloads are dropped.
func (m Modification) Not() Modification {
	return Modification{flags: ^m.flags & allFlags}
}

// Minus clears the bits set in o. Payloads of the flags that survive are kept.
func (m Modification) Minus(o Modification) Modification {
	r := Modification{flags: m.flags &^ o.flags}
	if r.flags&FlagPointer != 0 {
		r.pointerOrder = m.pointerOrder
	}
	if r.flags&FlagArray != 0 {
		r.arrayOrder = slices.Clone(m.arrayOrder)
	}
	return r
}

// Equal reports whether both values carry the same flags and payloads. A
// pointer of order 1 equals a bare pointer flag and an empty dimension list
// equals a bare array flag.
func (m Modification) Equal(o Modification) bool {
	if m.flags != o.flags {
		return false
	}
	if m.flags&FlagPointer != 0 && max(m.pointerOrder, 1) != max(o.pointerOrder, 1) {
		return false
	}
	if m.flags&FlagArray != 0 && !slices.Equal(m.arrayOrder, o.arrayOrder) {
		// nil and empty compare equal through slices.Equal.
		return false
	}
	return true
}

// String renders the modification for diagnostics, e.g. "const pointer(2)".
func (m Modification) String() string {
	if m.flags == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if m.flags&fn.flag == 0 {
			continue
		}
		switch fn.flag {
		case FlagPointer:
			if m.pointerOrder > 1 {
				parts = append(parts, fmt.Sprintf("pointer(%d)", m.pointerOrder))
				continue
			}
		case FlagArray:
			if len(m.arrayOrder) > 0 {
				parts = append(parts, "array["+strings.Join(m.arrayOrder, "][")+"]")
				continue
			}
		}
		parts = append(parts, fn.name)
	}
	return strings.Join(parts, " ")
}

func deeperPointer(a, b uint32) uint32 {
	if b > a {
		return b
	}
	return a
}

// moreSpecificArray prefers the longer dimension list, then the one with more
// specified sizes. Remaining ties are broken on the dimension text so that
// the choice does not depend on operand order; identical lists keep a.
func moreSpecificArray(a, b []string) []string {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case len(b) != len(a):
		if len(b) > len(a) {
			return b
		}
		return a
	}
	if sa, sb := specifiedDims(a), specifiedDims(b); sa != sb {
		if sb > sa {
			return b
		}
		return a
	}
	if slices.Compare(b, a) > 0 {
		return b
	}
	return a
}

func specifiedDims(dims []string) int {
	n := 0
	for _, d := range dims {
		if d != "" {
			n++
		}
	}
	return n
}
