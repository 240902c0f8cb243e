package store

import "sync"

// BatchedStore buffers snapshot inserts in memory using fake (negative) IDs.
// It implements DataStore so the exporter can write rows and link them to
// each other before anything touches SQLite; CommitBatch then writes the
// whole snapshot in one transaction.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	Files           []File
	Scopes          []Scope
	UsingDirectives []UsingDirective
	Entities        []Entity
	TypeUses        []TypeUse
	Overloads       []Overload
	Specialisations []Specialisation

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{nextFakeID: -1}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertFile(f *File) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f.ID = b.allocFakeID()
	b.Files = append(b.Files, *f)
	return f.ID, nil
}

func (b *BatchedStore) InsertScope(scope *Scope) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	scope.ID = b.allocFakeID()
	b.Scopes = append(b.Scopes, *scope)
	return scope.ID, nil
}

func (b *BatchedStore) InsertUsingDirective(u *UsingDirective) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u.ID = b.allocFakeID()
	b.UsingDirectives = append(b.UsingDirectives, *u)
	return u.ID, nil
}

func (b *BatchedStore) InsertEntity(e *Entity) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e.ID = b.allocFakeID()
	b.Entities = append(b.Entities, *e)
	return e.ID, nil
}

func (b *BatchedStore) InsertTypeUse(tu *TypeUse) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tu.ID = b.allocFakeID()
	b.TypeUses = append(b.TypeUses, *tu)
	return tu.ID, nil
}

func (b *BatchedStore) InsertOverload(o *Overload) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o.ID = b.allocFakeID()
	b.Overloads = append(b.Overloads, *o)
	return o.ID, nil
}

func (b *BatchedStore) InsertSpecialisation(sp *Specialisation) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sp.ID = b.allocFakeID()
	b.Specialisations = append(b.Specialisations, *sp)
	return sp.ID, nil
}
