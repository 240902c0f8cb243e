package sema

// Kind is the closed set of declared program elements.
type Kind int

const (
	KindNamespace Kind = iota + 1
	KindClass
	KindStruct
	KindFunction
	KindMethod
	KindConstructor
	KindDestructor
	KindField
	KindEnum
	KindEnumValue
	KindUnion
	KindTypedef
	KindTypeAlias
	KindGlobalVariable
	KindExternBlock
	KindTemplateParameter
)

var kindNames = map[Kind]string{
	KindNamespace:         "namespace",
	KindClass:             "class",
	KindStruct:            "struct",
	KindFunction:          "function",
	KindMethod:            "method",
	KindConstructor:       "constructor",
	KindDestructor:        "destructor",
	KindField:             "field",
	KindEnum:              "enum",
	KindEnumValue:         "enum_value",
	KindUnion:             "union",
	KindTypedef:           "typedef",
	KindTypeAlias:         "type_alias",
	KindGlobalVariable:    "global_variable",
	KindExternBlock:       "extern_block",
	KindTemplateParameter: "template_parameter",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// IsRecord reports whether k is a class, struct or union.
func (k Kind) IsRecord() bool {
	return k == KindClass || k == KindStruct || k == KindUnion
}

// IsFunction reports whether k is callable.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunction, KindMethod, KindConstructor, KindDestructor:
		return true
	}
	return false
}

// IsType reports whether k names a type that find-type lookups return.
func (k Kind) IsType() bool {
	return k.IsRecord() || k == KindEnum || k == KindTypedef || k == KindTypeAlias
}

// IsAlias reports whether k is a typedef or using-alias.
func (k Kind) IsAlias() bool {
	return k == KindTypedef || k == KindTypeAlias
}

// introducesScope reports whether entities of kind k own a child Lexicon.
func (k Kind) introducesScope() bool {
	return k == KindNamespace || k.IsRecord() || k == KindEnum
}

// mergeable reports whether redeclarations of kind k are reconciled on
// registration.
func (k Kind) mergeable() bool {
	return k.IsRecord() || k.IsFunction() || k == KindEnum || k.IsAlias() || k == KindGlobalVariable
}

// family groups kinds that may redeclare one another ("class C;" then
// "struct C {}").
func (k Kind) family() Kind {
	switch {
	case k.IsRecord():
		return KindClass
	case k.IsAlias():
		return KindTypedef
	}
	return k
}
