package extract

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppmodel/internal/rawnode/rawtest"
	"github.com/jward/cppmodel/internal/sema"
	"github.com/jward/cppmodel/internal/typemod"
)

func extract(t *testing.T, tu *rawtest.Node) (*sema.Model, *Extractor) {
	t.Helper()
	m := sema.NewModel()
	x := New(m, nil)
	require.NoError(t, x.File(tu))
	return m, x
}

func lookup(t *testing.T, m *sema.Model, name string, path ...string) []*sema.Entity {
	t.Helper()
	found, err := m.Root().FindContent(name, path)
	require.NoError(t, err)
	return found
}

func one(t *testing.T, m *sema.Model, name string, path ...string) *sema.Entity {
	t.Helper()
	found := lookup(t, m, name, path...)
	require.Len(t, found, 1, "lookup %v::%s", path, name)
	return found[0]
}

// =============================================================================
// Scopes and records
// =============================================================================

func TestFile_DeclarationThenDefinition(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Namespace("a", rawtest.ClassDecl("C")),
		rawtest.Namespace("a", rawtest.Class("C", rawtest.Field("x", rawtest.Builtin("int")))),
	))

	c := one(t, m, "C", "a")
	assert.False(t, c.IsDeclaration)
	assert.Equal(t, sema.KindClass, c.Kind)
	assert.Equal(t, "a::C", c.QualifiedName())
	require.Len(t, c.Fields(), 1)
	assert.Equal(t, "x", c.Fields()[0].Name)

	x := one(t, m, "x", "a", "C")
	assert.Equal(t, []string{"a", "C"}, x.NamespacesChain())
}

func TestFile_OutOfLineMethodReplacesDeclaration(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Namespace("a", rawtest.Class("C",
			rawtest.MethodDecl("f", rawtest.Builtin("void"), rawtest.Param("n", rawtest.Builtin("int"))),
		)),
		rawtest.Func("f", rawtest.Builtin("void"), rawtest.Param("n", rawtest.Builtin("int"))).Qualified("a", "C"),
	))

	f := one(t, m, "f", "a", "C")
	assert.Equal(t, sema.KindMethod, f.Kind)
	assert.False(t, f.IsDeclaration)
	assert.Equal(t, "C", f.Parent().Name)

	overloads, err := f.Overloads()
	require.NoError(t, err)
	assert.Equal(t, []*sema.Entity{f}, overloads)
}

func TestFile_QualifiedNamespaceFunction(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Namespace("n", rawtest.FuncDecl("g", rawtest.Builtin("int"))),
		rawtest.Func("g", rawtest.Builtin("int")).Qualified("n"),
	))
	g := one(t, m, "g", "n")
	assert.Equal(t, sema.KindFunction, g.Kind)
	assert.False(t, g.IsDeclaration)
}

func TestFile_UnknownQualifierIsSkipped(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	m := sema.NewModel()
	x := New(m, slog.New(slog.NewTextHandler(&logs, nil)))

	err := x.File(rawtest.TU(
		rawtest.Func("h", rawtest.Builtin("void")).Qualified("nowhere"),
		rawtest.Func("k", rawtest.Builtin("void")),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, x.Skipped())
	assert.Contains(t, logs.String(), "skipping declaration")
	assert.Contains(t, logs.String(), "node=h")
	assert.Empty(t, lookup(t, m, "h"))
	assert.Len(t, lookup(t, m, "k"), 1)
}

func TestFile_DuplicateDefinitionIsReturned(t *testing.T) {
	t.Parallel()
	x := New(sema.NewModel(), nil)
	err := x.File(rawtest.TU(rawtest.Class("D"), rawtest.Class("D")))
	require.Error(t, err)
	assert.True(t, sema.IsAmbiguity(err))
	assert.ErrorIs(t, err, sema.ErrDuplicateDefinition)
}

func TestFile_MixedIndirectionIsReturned(t *testing.T) {
	t.Parallel()
	x := New(sema.NewModel(), nil)
	// char* const* p;
	err := x.File(rawtest.TU(
		rawtest.Variable("p", rawtest.Ptr(rawtest.Ptr(rawtest.Builtin("char")).Const())),
	))
	require.Error(t, err)
	assert.True(t, sema.IsAmbiguity(err))
	assert.ErrorIs(t, err, typemod.ErrMixedIndirection)
}

func TestFile_UsingDirective(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Namespace("x", rawtest.Struct("S")),
		rawtest.Namespace("y",
			rawtest.UsingNamespace("x"),
			rawtest.Variable("v", rawtest.Named("S")),
		),
	))

	v := one(t, m, "v", "y")
	assert.Equal(t, sema.KindGlobalVariable, v.Kind)
	target, err := v.Type.Details()
	require.NoError(t, err)
	require.IsType(t, sema.EntityTarget{}, target)
	assert.Equal(t, "x::S", target.(sema.EntityTarget).Entity.QualifiedName())

	// The directive does not leak out of y.
	got, err := m.Root().FindType("S")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFile_ExternBlockIsTransparent(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.ExternC(rawtest.FuncDecl("puts", rawtest.Builtin("int"),
			rawtest.Param("s", rawtest.Ptr(rawtest.Builtin("char").Const())))),
	))

	puts := one(t, m, "puts")
	assert.Equal(t, sema.KindExternBlock, puts.Parent().Kind)
	assert.Equal(t, `"C"`, puts.Parent().Value)
	require.Len(t, puts.Arguments, 1)
	assert.Equal(t, "const char*", puts.Arguments[0].Type.Spelling())
}

func TestFile_Enum(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Enum("Color", rawtest.Enumerator("Red", ""), rawtest.Enumerator("Green", "4")),
	))
	color := one(t, m, "Color")
	values := color.EnumValues()
	require.Len(t, values, 2)
	assert.Equal(t, "Green", values[1].Name)
	assert.Equal(t, "4", values[1].Value)
	assert.Len(t, lookup(t, m, "Red", "Color"), 1)
}

func TestFile_VariableSpecifiers(t *testing.T) {
	t.Parallel()
	m, x := extract(t, rawtest.TU(
		rawtest.Variable("n", rawtest.Builtin("int")).WithTokens("static", "constexpr"),
	))
	n := one(t, m, "n")
	assert.True(t, n.Type.Modification().IsStatic())
	assert.True(t, n.Type.Modification().Has(typemod.FlagConstexpr))

	require.Len(t, x.TypeUses(), 1)
	assert.Equal(t, "type", x.TypeUses()[0].Role)
	assert.Same(t, n, x.TypeUses()[0].Entity)
}

// =============================================================================
// Functions
// =============================================================================

func TestFunctionModification(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		toks []string
		want []typemod.FunctionFlag
	}{
		"pure virtual const": {
			toks: []string{"virtual", ")", "const", "=", "0"},
			want: []typemod.FunctionFlag{typemod.FnVirtual, typemod.FnPureVirtual, typemod.FnConst},
		},
		"leading const is not a method qualifier": {
			toks: []string{"const", ")"},
		},
		"override final noexcept": {
			toks: []string{")", "override", "final", "noexcept"},
			want: []typemod.FunctionFlag{typemod.FnOverride, typemod.FnFinal, typemod.FnNoexcept},
		},
		"deleted": {
			toks: []string{")", "=", "delete"},
			want: []typemod.FunctionFlag{typemod.FnDeleted},
		},
		"static inline": {
			toks: []string{"static", "inline", ")"},
			want: []typemod.FunctionFlag{typemod.FnStatic, typemod.FnInline},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := functionModification(tt.toks)
			assert.True(t, got.Equal(typemod.NewFunctionModification(tt.want...)), "got %s", got)
		})
	}
}

func TestFile_OverloadFamily(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Func("f", rawtest.Builtin("void"), rawtest.Param("x", rawtest.Builtin("int"))),
		rawtest.Func("f", rawtest.Builtin("void"), rawtest.Param("x", rawtest.Builtin("float"))),
		rawtest.Namespace("inner",
			rawtest.Func("f", rawtest.Builtin("void"), rawtest.Param("x", rawtest.Builtin("char"))),
		),
	))
	fs := lookup(t, m, "f")
	require.Len(t, fs, 2)
	overloads, err := fs[0].Overloads()
	require.NoError(t, err)
	assert.Len(t, overloads, 2)
}

// =============================================================================
// Templates
// =============================================================================

func TestFile_FunctionTemplateSpecialisation(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Func("f", rawtest.Builtin("void"),
			rawtest.Param("x", rawtest.Ref(rawtest.Generic("T").Const())),
		).AsTemplate(rawtest.TypeParam("T")),
		rawtest.Func("f", rawtest.Builtin("void"),
			rawtest.Param("x", rawtest.Ref(rawtest.Builtin("int").Const())),
		).AsTemplate().Specialise(rawtest.TypeArg(rawtest.Builtin("int"))),
		rawtest.Func("f", rawtest.Builtin("void"), rawtest.Param("x", rawtest.Builtin("float"))),
	))

	fs := lookup(t, m, "f")
	require.Len(t, fs, 3)
	primary, spec, plain := fs[0], fs[1], fs[2]

	assert.True(t, primary.IsTemplate())
	require.Len(t, primary.TemplateParameters(), 1)
	assert.Equal(t, "T", primary.TemplateParameters()[0].Name)
	assert.True(t, spec.IsSpecialisation())
	assert.Equal(t, "<int>", spec.Template.SpecialisationSuffix())

	specs, err := primary.Specialisations()
	require.NoError(t, err)
	assert.Equal(t, []*sema.Entity{spec}, specs)

	overloads, err := plain.Overloads()
	require.NoError(t, err)
	assert.ElementsMatch(t, []*sema.Entity{primary, plain}, overloads)
}

func TestFile_ClassTemplateSpecialisation(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Struct("V", rawtest.Field("value", rawtest.Generic("T"))).AsTemplate(rawtest.TypeParam("T")),
		rawtest.Struct("V", rawtest.Field("value", rawtest.Builtin("int"))).
			AsTemplate().Specialise(rawtest.TypeArg(rawtest.Builtin("int"))),
	))

	vs := lookup(t, m, "V")
	require.Len(t, vs, 2)
	primary, spec := vs[0], vs[1]
	assert.Equal(t, "V<int>", spec.Scope().Namespace())

	specs, err := primary.Specialisations()
	require.NoError(t, err)
	assert.Equal(t, []*sema.Entity{spec}, specs)

	field := primary.Fields()[0]
	target, err := field.Type.Details()
	require.NoError(t, err)
	assert.Equal(t, sema.GenericParameter{Name: "T"}, target)
}

func TestFile_TemplateParametersAreNotTypes(t *testing.T) {
	t.Parallel()
	m, _ := extract(t, rawtest.TU(
		rawtest.Struct("Box", rawtest.Field("item", rawtest.Generic("T"))).AsTemplate(rawtest.TypeParam("T")),
	))

	box := one(t, m, "Box")
	params := box.TemplateParameters()
	require.Len(t, params, 1)
	assert.Equal(t, sema.KindTemplateParameter, params[0].Kind)
	assert.False(t, sema.KindTemplateParameter.IsType())

	got, err := box.Scope().FindType("T")
	require.NoError(t, err)
	assert.Nil(t, got)

	target, err := box.Fields()[0].Type.Details()
	require.NoError(t, err)
	assert.Equal(t, sema.GenericParameter{Name: "T"}, target)
}

func TestTypeParameter(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		toks []string
		want sema.TemplateParameter
	}{
		"typename": {
			toks: []string{"typename", "T"},
			want: sema.TemplateParameter{Name: "T", Specifier: sema.SpecTypename},
		},
		"variadic class": {
			toks: []string{"class", "...", "T"},
			want: sema.TemplateParameter{Name: "T", Specifier: sema.SpecClass, Variadic: true},
		},
		"concept": {
			toks: []string{"std::integral", "T"},
			want: sema.TemplateParameter{Name: "T", Specifier: sema.SpecConcept, Concept: "std::integral"},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			n := rawtest.TypeParam("T").WithTokens(tt.toks...)
			assert.Equal(t, tt.want, typeParameter(n))
		})
	}
}
