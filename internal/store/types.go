package store

import "time"

type File struct {
	ID          int64
	Path        string
	Hash        string
	HasErrors   bool
	LastIndexed time.Time
}

// Scope is one lexicon node. Path is the "::"-joined chain from the root;
// the root scope has an empty path.
type Scope struct {
	ID            int64
	ParentScopeID *int64
	Namespace     string
	Path          string
	Named         bool
}

type UsingDirective struct {
	ID            int64
	ScopeID       int64
	TargetScopeID int64
}

type Entity struct {
	ID               int64
	FileID           *int64
	ScopeID          *int64
	InnerScopeID     *int64
	ParentEntityID   *int64
	Name             string
	Kind             string
	QualifiedName    string
	IsDeclaration    bool
	IsTemplate       bool
	IsSpecialisation bool
	Modifiers        []string
	// TypeExpr is the declared type, or the return type of a function.
	TypeExpr string
	Value    string
	Line     int
	Col      int
}

// TypeUse is one written type and what it resolved to. TargetKind is
// "basic", "generic", "entity", "external" or "unresolved"; TargetEntityID
// is set only for "entity". An unresolved use carries the error text in
// TargetName.
type TypeUse struct {
	ID             int64
	EntityID       int64
	Role           string
	Ordinal        int
	Spelling       string
	Modification   string
	TargetKind     string
	TargetEntityID *int64
	TargetName     string
}

// Overload links an entity to one member of its overload family.
type Overload struct {
	ID             int64
	EntityID       int64
	MemberEntityID int64
}

type Specialisation struct {
	ID                     int64
	PrimaryEntityID        int64
	SpecialisationEntityID int64
	Suffix                 string
}
