package store

// DataStore is the write interface used while exporting a model. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering committed in one
// transaction) implement it.
type DataStore interface {
	InsertFile(f *File) (int64, error)
	InsertScope(scope *Scope) (int64, error)
	InsertUsingDirective(u *UsingDirective) (int64, error)
	InsertEntity(e *Entity) (int64, error)
	InsertTypeUse(tu *TypeUse) (int64, error)
	InsertOverload(o *Overload) (int64, error)
	InsertSpecialisation(sp *Specialisation) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
