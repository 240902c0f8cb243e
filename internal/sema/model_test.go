package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppmodel/internal/rawnode/rawtest"
)

// register allocates and registers an entity, failing the test on error.
func register(t *testing.T, m *Model, scope *Lexicon, kind Kind, name string, decl bool, parent *Entity) (*Entity, *Lexicon) {
	t.Helper()
	e := m.NewEntity(kind, name, parent)
	e.IsDeclaration = decl
	inner, err := m.Register(e, scope)
	require.NoError(t, err)
	return e, inner
}

func basic(scope *Lexicon, name string) *TypeExpression {
	return NewTypeExpression(scope, name)
}

func function(t *testing.T, m *Model, scope *Lexicon, name string, decl bool, args ...*TypeExpression) *Entity {
	t.Helper()
	e := m.NewEntity(KindFunction, name, nil)
	e.IsDeclaration = decl
	for i, a := range args {
		e.Arguments = append(e.Arguments, Argument{Name: string(rune('a' + i)), Type: a})
	}
	_, err := m.Register(e, scope)
	require.NoError(t, err)
	return e
}

func names(es []*Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name
	}
	return out
}

// =============================================================================
// Registration
// =============================================================================

func TestRegister_NamespaceReopensSameScope(t *testing.T) {
	t.Parallel()
	m := NewModel()
	_, first := register(t, m, m.Root(), KindNamespace, "a", false, nil)
	_, second := register(t, m, m.Root(), KindNamespace, "a", false, nil)

	assert.Same(t, first, second)
	assert.Len(t, m.Root().Children(), 1)
	assert.Equal(t, []string{"a"}, first.NamespacesChain())
}

func TestRegister_ReturnsParentForLeafKinds(t *testing.T) {
	t.Parallel()
	m := NewModel()
	_, cls := register(t, m, m.Root(), KindClass, "C", false, nil)
	_, got := register(t, m, cls, KindField, "x", false, nil)
	assert.Same(t, cls, got)
}

func TestRegister_DeclarationsAreIdempotent(t *testing.T) {
	t.Parallel()
	m := NewModel()
	first, _ := register(t, m, m.Root(), KindClass, "C", true, nil)
	second, _ := register(t, m, m.Root(), KindClass, "C", true, nil)

	found, err := m.Root().FindContent("C", nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Same(t, first, found[0])
	assert.Same(t, first, second.Canonical())
}

func TestRegister_DefinitionReplacesDeclarationInPlace(t *testing.T) {
	t.Parallel()
	m := NewModel()
	register(t, m, m.Root(), KindFunction, "before", false, nil)
	decl, _ := register(t, m, m.Root(), KindStruct, "C", true, nil)
	register(t, m, m.Root(), KindFunction, "after", false, nil)
	def, _ := register(t, m, m.Root(), KindClass, "C", false, nil)

	assert.Equal(t, []string{"before", "C", "after"}, names(m.Root().Sources()))
	assert.Same(t, def, m.Root().Sources()[1])
	assert.Same(t, def, decl.Canonical())
	assert.False(t, decl.IsCanonical())

	// A later declaration never displaces the definition.
	late, _ := register(t, m, m.Root(), KindClass, "C", true, nil)
	assert.Same(t, def, late.Canonical())
	assert.Same(t, def, m.Root().Sources()[1])
}

func TestRegister_DuplicateDefinitionIsAmbiguity(t *testing.T) {
	t.Parallel()
	m := NewModel()
	register(t, m, m.Root(), KindClass, "C", false, nil)

	dup := m.NewEntity(KindClass, "C", nil)
	_, err := m.Register(dup, m.Root())
	require.Error(t, err)
	assert.True(t, IsAmbiguity(err))
	assert.ErrorIs(t, err, ErrDuplicateDefinition)
	assert.False(t, dup.IsRegistered())
}

func TestRegister_TwiceIsStructural(t *testing.T) {
	t.Parallel()
	m := NewModel()
	e, _ := register(t, m, m.Root(), KindNamespace, "a", false, nil)
	_, err := m.Register(e, m.Root())
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.True(t, IsStructural(err))
}

func TestRegister_FunctionOverloadsAreNotMerged(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	function(t, m, root, "f", true, basic(root, "int"))
	function(t, m, root, "f", false, basic(root, "float"))
	function(t, m, root, "f", false, basic(root, "int"))

	found, err := root.FindContent("f", nil)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.False(t, found[0].IsDeclaration)
	assert.Equal(t, "(int)", found[0].signature())
}

func TestRegister_EnumForwardDeclaration(t *testing.T) {
	t.Parallel()
	m := NewModel()
	register(t, m, m.Root(), KindEnum, "E", true, nil)
	def, scope := register(t, m, m.Root(), KindEnum, "E", false, nil)
	red, _ := register(t, m, scope, KindEnumValue, "Red", false, def)

	assert.Equal(t, []*Entity{red}, def.EnumValues())
	got, err := m.Root().FindType("E")
	require.NoError(t, err)
	assert.Same(t, def, got)
}

func TestRegister_EquivalentTypedefRedeclaration(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	a := m.NewEntity(KindTypedef, "I", nil)
	a.Type = basic(root, "int")
	_, err := m.Register(a, root)
	require.NoError(t, err)

	b := m.NewEntity(KindTypedef, "I", nil)
	b.Type = basic(root, "int")
	_, err = m.Register(b, root)
	require.NoError(t, err)
	assert.Same(t, a, b.Canonical())

	c := m.NewEntity(KindTypeAlias, "I", nil)
	c.Type = basic(root, "long")
	_, err = m.Register(c, root)
	assert.ErrorIs(t, err, ErrDuplicateDefinition)
}

func TestDeclarationThenDefinitionInNamespace(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()

	nsA, a := register(t, m, root, KindNamespace, "a", false, nil)
	register(t, m, a, KindClass, "C", true, nsA)

	nsA2, a2 := register(t, m, root, KindNamespace, "a", false, nil)
	def, cScope := register(t, m, a2, KindClass, "C", false, nsA2)
	register(t, m, cScope, KindField, "x", false, def)

	got, err := root.FindType("a::C")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Same(t, def, got)
	assert.False(t, got.IsDeclaration)
	assert.Equal(t, []string{"x"}, names(got.Fields()))
	assert.Equal(t, "a::C", got.QualifiedName())

	scoped := root.FindNode("a")
	require.NotNil(t, scoped)
	viaNode, err := scoped.FindType("C")
	require.NoError(t, err)
	assert.Same(t, def, viaNode)
	assert.Equal(t, []string{"x"}, names(viaNode.Fields()))
}

// =============================================================================
// Lookup
// =============================================================================

func TestFindContent_ClimbsToFirstMatchingScope(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	outer := function(t, m, root, "g", false)
	_, ns := register(t, m, root, KindNamespace, "a", false, nil)
	_, inner := register(t, m, ns, KindNamespace, "b", false, nil)

	found, err := inner.FindContent("g", nil)
	require.NoError(t, err)
	assert.Equal(t, []*Entity{outer}, found)

	shadow := function(t, m, ns, "g", false)
	found, err = inner.FindContent("g", nil)
	require.NoError(t, err)
	assert.Equal(t, []*Entity{shadow}, found)

	found, err = inner.FindContent("missing", nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindContent_QualifiedRecursesFromNamedScope(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	g := function(t, m, root, "g", false)
	register(t, m, root, KindNamespace, "a", false, nil)
	_, b := register(t, m, root, KindNamespace, "b", false, nil)

	// nothing named g in a: the search continues outward from a
	found, err := root.FindContent("g", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []*Entity{g}, found)

	// b is found from a by climbing to the global namespace
	found, err = root.FindContent("g", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []*Entity{g}, found)

	inB := function(t, m, b, "g", false, basic(b, "int"))
	found, err = root.FindContent("g", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []*Entity{inB}, found)

	_, err = root.FindContent("g", []string{"nope"})
	require.Error(t, err)
	assert.True(t, IsStructural(err))
	assert.ErrorIs(t, err, ErrUnknownNamespace)
}

func TestResolve_IsStrictlyNested(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	_, a := register(t, m, root, KindNamespace, "a", false, nil)
	_, ab := register(t, m, a, KindNamespace, "b", false, nil)
	register(t, m, root, KindNamespace, "c", false, nil)

	got, err := root.Resolve([]string{"a", "b"})
	require.NoError(t, err)
	assert.Same(t, ab, got)

	_, err = root.Resolve([]string{"a", "c"})
	assert.ErrorIs(t, err, ErrUnknownNamespace)
}

func TestFindContent_LeadingGlobalQualifier(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	global := function(t, m, root, "g", false)
	_, ns := register(t, m, root, KindNamespace, "a", false, nil)
	function(t, m, ns, "g", false)

	found, err := ns.FindContent("g", []string{""})
	require.NoError(t, err)
	assert.Equal(t, []*Entity{global}, found)
}

func TestUsingDirective_ScopedToDeclaringScope(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	_, x := register(t, m, root, KindNamespace, "x", false, nil)
	target, _ := register(t, m, x, KindClass, "T", false, nil)
	_, q := register(t, m, root, KindNamespace, "q", false, nil)
	_, p := register(t, m, root, KindNamespace, "p", false, nil)

	require.NoError(t, m.AddUsingDirective(p, []string{"x"}))

	got, err := p.FindType("T")
	require.NoError(t, err)
	assert.Same(t, target, got)

	got, err = q.FindType("T")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = root.FindType("T")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUsingDirective_UnknownTarget(t *testing.T) {
	t.Parallel()
	m := NewModel()
	err := m.AddUsingDirective(m.Root(), []string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownNamespace)
}

func TestAllowedNamespaces_TransitiveAndCycleSafe(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	_, a := register(t, m, root, KindNamespace, "a", false, nil)
	_, b := register(t, m, root, KindNamespace, "b", false, nil)
	_, c := register(t, m, root, KindNamespace, "c", false, nil)
	require.NoError(t, m.AddUsingDirective(a, []string{"b"}))
	require.NoError(t, m.AddUsingDirective(b, []string{"c"}))
	require.NoError(t, m.AddUsingDirective(c, []string{"a"}))

	allowed := a.AllowedNamespaces()
	assert.Equal(t, []*Lexicon{a, b, c}, allowed)

	// The global namespace is unnamed and never lists itself.
	assert.Empty(t, root.AllowedNamespaces())
}

func TestFindNode_ThroughUsingDirective(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	_, x := register(t, m, root, KindNamespace, "x", false, nil)
	_, inner := register(t, m, x, KindNamespace, "inner", false, nil)
	_, p := register(t, m, root, KindNamespace, "p", false, nil)
	require.NoError(t, m.AddUsingDirective(p, []string{"x"}))

	assert.Same(t, inner, p.FindNode("inner"))
	assert.Nil(t, root.FindNode("inner"))
	assert.Same(t, x, inner.FindNode("x"))
}

func TestAnonymousNamespace_MembersVisibleInParent(t *testing.T) {
	t.Parallel()
	m := NewModel()
	_, anon := register(t, m, m.Root(), KindNamespace, "", false, nil)
	hidden, _ := register(t, m, anon, KindStruct, "Hidden", false, nil)

	got, err := m.Root().FindType("Hidden")
	require.NoError(t, err)
	assert.Same(t, hidden, got)
}

func TestFindType_SkipsNonTypesWhileClimbing(t *testing.T) {
	t.Parallel()
	m := NewModel()
	root := m.Root()
	cls, _ := register(t, m, root, KindClass, "C", false, nil)
	_, ns := register(t, m, root, KindNamespace, "a", false, nil)
	register(t, m, ns, KindGlobalVariable, "C", false, nil)

	got, err := ns.FindType("C")
	require.NoError(t, err)
	assert.Same(t, cls, got)

	content, err := ns.FindContent("C", nil)
	require.NoError(t, err)
	require.Len(t, content, 1)
	assert.Equal(t, KindGlobalVariable, content[0].Kind)
}

// =============================================================================
// Raw node mapping
// =============================================================================

func TestFindTypeForNode(t *testing.T) {
	t.Parallel()
	cNode := rawtest.Class("C")
	nsNode := rawtest.Namespace("a", cNode)
	rawtest.TU(nsNode)

	m := NewModel()
	ns := m.NewEntity(KindNamespace, "a", nil)
	ns.Node = nsNode
	scope, err := m.Register(ns, m.Root())
	require.NoError(t, err)
	c := m.NewEntity(KindClass, "C", ns)
	c.Node = cNode
	_, err = m.Register(c, scope)
	require.NoError(t, err)

	got, err := m.FindTypeForNode(cNode)
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Same(t, c, m.EntityForNode(cNode))
}

func TestFindTypeForNode_EnclosingTemplateRejected(t *testing.T) {
	t.Parallel()
	inner := rawtest.Struct("Inner")
	outer := rawtest.Class("Outer", inner).AsTemplate(rawtest.TypeParam("T"))
	rawtest.TU(outer)

	m := NewModel()
	_, err := m.FindTypeForNode(inner)
	require.Error(t, err)
	assert.True(t, IsStructural(err))
	assert.ErrorIs(t, err, ErrTemplateEnclosingNamespace)
}

func TestFindTypeForNode_UnknownScope(t *testing.T) {
	t.Parallel()
	cNode := rawtest.Class("C")
	rawtest.TU(rawtest.Namespace("missing", cNode))

	_, err := NewModel().FindTypeForNode(cNode)
	assert.ErrorIs(t, err, ErrUnknownNamespace)
}

func TestFindTypeForNode_LinkageSpecIsTransparent(t *testing.T) {
	t.Parallel()
	sNode := rawtest.Struct("S")
	rawtest.TU(rawtest.ExternC(sNode))

	m := NewModel()
	s := m.NewEntity(KindStruct, "S", nil)
	s.Node = sNode
	_, err := m.Register(s, m.Root())
	require.NoError(t, err)

	got, err := m.FindTypeForNode(sNode)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestEntityForNode_FollowsMerges(t *testing.T) {
	t.Parallel()
	declNode := rawtest.ClassDecl("C")
	defNode := rawtest.Class("C")
	rawtest.TU(declNode, defNode)

	m := NewModel()
	decl := m.NewEntity(KindClass, "C", nil)
	decl.Node, decl.IsDeclaration = declNode, true
	_, err := m.Register(decl, m.Root())
	require.NoError(t, err)
	def := m.NewEntity(KindClass, "C", nil)
	def.Node = defNode
	_, err = m.Register(def, m.Root())
	require.NoError(t, err)

	assert.Same(t, def, m.EntityForNode(declNode))
	assert.Same(t, def, m.EntityForNode(defNode))
	assert.Equal(t, []*Entity{def}, m.Entities())
}

func TestBasicTypes_Configurable(t *testing.T) {
	t.Parallel()
	m := NewModel(WithBasicTypes("int", "my_int_t"))
	assert.True(t, m.IsBasicType("my_int_t"))
	assert.False(t, m.IsBasicType("double"))
	assert.True(t, NewModel().IsBasicType("unsigned   long"))
}
