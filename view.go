package ecsx

// Shared[T] is a read-only RAII-style handle on a component SparseSet,
// obtained via BorrowShared. Release must be called exactly once, normally
// via defer, to give the storage back to the registry.
type Shared[T any] struct {
	set     *SparseSet[T]
	release func()
}

// BorrowShared attempts a shared borrow of T's storage on behalf of token.
// Unlike Exclusive, a shared borrow never creates storage that does not
// already exist: a type nobody ever inserted a component of has no reader
// view either, per spec's MissingStorageError.
func BorrowShared[T any](r *StorageRegistry, token ThreadToken) (Shared[T], error) {
	entry, ok := peekEntryFor[T](r)
	if !ok {
		return Shared[T]{}, MissingStorageError{StorageID: storageIDFor[T]()}
	}
	release, failure, ok := entry.cell.TryShared(token)
	if !ok {
		return Shared[T]{}, BorrowError{StorageID: storageIDFor[T](), Failure: failure}
	}
	return Shared[T]{set: entry.storage.(*SparseSet[T]), release: release}, nil
}

func (v Shared[T]) Get(entity EntityID) *T                { return v.set.Get(entity) }
func (v Shared[T]) Contains(entity EntityID) bool         { return v.set.Contains(entity) }
func (v Shared[T]) Len() int                              { return v.set.Len() }
func (v Shared[T]) AsSlice() []T                          { return v.set.AsSlice() }
func (v Shared[T]) Entities() []EntityID                  { return v.set.Entities() }
func (v Shared[T]) All() func(func(EntityID, *T) bool)    { return v.set.All() }
func (v Shared[T]) Release()                              { v.release() }
func (Shared[T]) descriptor() BorrowDescriptor {
	return BorrowDescriptor{ID: storageIDFor[T](), Write: false}
}

// Exclusive[T] is a read-write RAII-style handle, obtained via
// BorrowExclusive. Unlike Shared, an exclusive borrow creates T's storage on
// demand: spec §6 requires AddComponent to work on a type that has never
// been seen before.
type Exclusive[T any] struct {
	set     *SparseSet[T]
	clock   *Clock
	release func()
}

// BorrowExclusive attempts an exclusive borrow of T's storage on behalf of
// token, creating the storage if this is its first use.
func BorrowExclusive[T any](r *StorageRegistry, token ThreadToken) (Exclusive[T], error) {
	entry := entryFor[T](r)
	release, failure, ok := entry.cell.TryExclusive(token)
	if !ok {
		return Exclusive[T]{}, BorrowError{StorageID: storageIDFor[T](), Failure: failure}
	}
	return Exclusive[T]{set: entry.storage.(*SparseSet[T]), clock: r.Clock(), release: release}, nil
}

func (v Exclusive[T]) Get(entity EntityID) *T        { return v.set.Get(entity) }
func (v Exclusive[T]) GetMut(entity EntityID) *T     { return v.set.GetMut(entity, v.clock) }
func (v Exclusive[T]) Contains(entity EntityID) bool { return v.set.Contains(entity) }
func (v Exclusive[T]) Len() int                      { return v.set.Len() }
func (v Exclusive[T]) Insert(entity EntityID, value T) {
	v.set.Insert(entity, value, v.clock)
}
func (v Exclusive[T]) Remove(entity EntityID) (T, bool) { return v.set.Remove(entity, v.clock) }
func (v Exclusive[T]) Delete(entity EntityID) bool      { return v.set.Delete(entity, v.clock) }
func (v Exclusive[T]) Track(flags TrackingFlags)        { v.set.Track(flags) }
func (v Exclusive[T]) AsSlice() []T                           { return v.set.AsSlice() }
func (v Exclusive[T]) Entities() []EntityID                   { return v.set.Entities() }
func (v Exclusive[T]) All() func(func(EntityID, *T) bool)     { return v.set.All() }
func (v Exclusive[T]) SortUnstableBy(less func(a, b T) bool)  { v.set.SortUnstableBy(less) }
func (v Exclusive[T]) Release()                               { v.release() }
func (Exclusive[T]) descriptor() BorrowDescriptor {
	return BorrowDescriptor{ID: storageIDFor[T](), Write: true}
}

// UniqueShared[T] is a read-only handle on a unique component slot.
type UniqueShared[T any] struct {
	slot    *uniqueSlot[T]
	release func()
}

// BorrowUniqueShared borrows unique component T for reading. Returns
// MissingUniqueError if T's unique slot has never been created (by
// BorrowUniqueExclusive or AddUnique); a created slot that holds no value
// is borrowed successfully and its Get reports false.
func BorrowUniqueShared[T any](r *StorageRegistry, token ThreadToken) (UniqueShared[T], error) {
	entry, ok := uniqueEntryFor[T](r, false)
	if !ok {
		var zero T
		return UniqueShared[T]{}, MissingUniqueError{Type: typeOf(zero)}
	}
	release, failure, ok := entry.cell.TryShared(token)
	if !ok {
		return UniqueShared[T]{}, BorrowError{StorageID: storageIDFor[T](), Failure: failure}
	}
	return UniqueShared[T]{slot: entry.storage.(*uniqueSlot[T]), release: release}, nil
}

func (v UniqueShared[T]) Get() (*T, bool) { return v.slot.Get() }
func (v UniqueShared[T]) Release()        { v.release() }
func (UniqueShared[T]) descriptor() BorrowDescriptor {
	return BorrowDescriptor{ID: storageIDFor[T](), Write: false}
}

// UniqueExclusive[T] is a read-write handle on a unique component slot,
// creating the slot on first use.
type UniqueExclusive[T any] struct {
	slot    *uniqueSlot[T]
	release func()
}

// BorrowUniqueExclusive borrows unique component T for writing.
func BorrowUniqueExclusive[T any](r *StorageRegistry, token ThreadToken) (UniqueExclusive[T], error) {
	entry, _ := uniqueEntryFor[T](r, true)
	release, failure, ok := entry.cell.TryExclusive(token)
	if !ok {
		return UniqueExclusive[T]{}, BorrowError{StorageID: storageIDFor[T](), Failure: failure}
	}
	return UniqueExclusive[T]{slot: entry.storage.(*uniqueSlot[T]), release: release}, nil
}

func (v UniqueExclusive[T]) Get() (*T, bool)      { return v.slot.Get() }
func (v UniqueExclusive[T]) Set(value T)          { v.slot.Set(value) }
func (v UniqueExclusive[T]) Remove() (T, bool)    { return v.slot.Remove() }
func (v UniqueExclusive[T]) Release()             { v.release() }
func (UniqueExclusive[T]) descriptor() BorrowDescriptor {
	return BorrowDescriptor{ID: storageIDFor[T](), Write: true}
}

// AllStoragesShared grants read access to the registry as a whole: callers
// may look up any existing storage but may not register a new component
// type or perform structural operations (DeleteEntity, Strip, Clear).
type AllStoragesShared struct {
	registry *StorageRegistry
	release  func()
}

// BorrowAllStoragesShared borrows the whole registry for reading.
func BorrowAllStoragesShared(r *StorageRegistry, token ThreadToken) (AllStoragesShared, error) {
	release, failure, ok := r.allStoragesCell.TryShared(token)
	if !ok {
		return AllStoragesShared{}, BorrowError{Failure: failure}
	}
	return AllStoragesShared{registry: r, release: release}, nil
}

func (v AllStoragesShared) Registry() *StorageRegistry { return v.registry }
func (v AllStoragesShared) Release()                   { v.release() }
func (AllStoragesShared) descriptor() BorrowDescriptor { return BorrowDescriptor{TouchesAll: true} }

// AllStoragesExclusive grants read-write access to the registry as a whole
// and excludes every other AllStoragesShared/AllStoragesExclusive borrow.
// The registry's structural operations (DeleteEntity, Strip, Clear,
// ClearAllRemovedAndDeleted[OlderThan]) take this same cell themselves, so
// they return a BorrowError while an AllStoragesExclusive is held, including
// when called through its Registry().
type AllStoragesExclusive struct {
	registry *StorageRegistry
	release  func()
}

// BorrowAllStoragesExclusive borrows the whole registry for writing.
func BorrowAllStoragesExclusive(r *StorageRegistry, token ThreadToken) (AllStoragesExclusive, error) {
	release, failure, ok := r.allStoragesCell.TryExclusive(token)
	if !ok {
		return AllStoragesExclusive{}, BorrowError{Failure: failure}
	}
	return AllStoragesExclusive{registry: r, release: release}, nil
}

func (v AllStoragesExclusive) Registry() *StorageRegistry { return v.registry }
func (v AllStoragesExclusive) Release()                   { v.release() }
func (AllStoragesExclusive) descriptor() BorrowDescriptor {
	return BorrowDescriptor{TouchesAll: true, Write: true}
}
