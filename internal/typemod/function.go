package typemod

import "strings"

// FunctionFlag is one function-level specifier bit.
type FunctionFlag uint16

const (
	FnVirtual FunctionFlag = 1 << iota
	FnPureVirtual
	FnOverride
	FnFinal
	FnConst
	FnStatic
	FnInline
	FnConstexpr
	FnNoexcept
	FnExplicit
	FnDeleted
	FnDefaulted

	allFunctionFlags = FnDefaulted<<1 - 1
)

var functionFlagNames = []struct {
	flag FunctionFlag
	name string
}{
	{FnStatic, "static"},
	{FnInline, "inline"},
	{FnConstexpr, "constexpr"},
	{FnExplicit, "explicit"},
	{FnVirtual, "virtual"},
	{FnConst, "const"},
	{FnNoexcept, "noexcept"},
	{FnOverride, "override"},
	{FnFinal, "final"},
	{FnPureVirtual, "pure"},
	{FnDeleted, "delete"},
	{FnDefaulted, "default"},
}

// FunctionModification is the set of specifiers on a function declaration.
// It has the same algebra as Modification but no payloads.
type FunctionModification struct {
	flags FunctionFlag
}

// NewFunctionModification returns a value with the given bits set.
func NewFunctionModification(flags ...FunctionFlag) FunctionModification {
	var f FunctionFlag
	for _, fl := range flags {
		f |= fl
	}
	return FunctionModification{flags: f & allFunctionFlags}
}

func (m FunctionModification) Flags() FunctionFlag { return m.flags }

func (m FunctionModification) Has(f FunctionFlag) bool { return f != 0 && m.flags&f == f }

func (m FunctionModification) With(f FunctionFlag) FunctionModification {
	return FunctionModification{flags: (m.flags | f) & allFunctionFlags}
}

func (m FunctionModification) And(o FunctionModification) FunctionModification {
	return FunctionModification{flags: m.flags & o.flags}
}

func (m FunctionModification) Or(o FunctionModification) FunctionModification {
	return FunctionModification{flags: m.flags | o.flags}
}

func (m FunctionModification) Xor(o FunctionModification) FunctionModification {
	return FunctionModification{flags: m.flags ^ o.flags}
}

func (m FunctionModification) Not() FunctionModification {
	return FunctionModification{flags: ^m.flags & allFunctionFlags}
}

func (m FunctionModification) Equal(o FunctionModification) bool { return m.flags == o.flags }

func (m FunctionModification) String() string {
	if m.flags == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range functionFlagNames {
		if m.flags&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, " ")
}

// FunctionFlagForToken maps a specifier token to its flag. The trailing
// "= 0", "= delete" and "= default" forms are matched on their last token.
func FunctionFlagForToken(tok string) (FunctionFlag, bool) {
	switch tok {
	case "virtual":
		return FnVirtual, true
	case "override":
		return FnOverride, true
	case "final":
		return FnFinal, true
	case "static":
		return FnStatic, true
	case "inline":
		return FnInline, true
	case "constexpr", "consteval":
		return FnConstexpr, true
	case "noexcept":
		return FnNoexcept, true
	case "explicit":
		return FnExplicit, true
	case "delete":
		return FnDeleted, true
	case "default":
		return FnDefaulted, true
	}
	return 0, false
}
