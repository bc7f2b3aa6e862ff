package ecsx

import (
	"context"

	"github.com/TheBitDrifter/bark"
)

// World owns one entity allocator, one StorageRegistry, and the named
// Workloads registered against it. Each World has its own ThreadToken, so
// thread-affine storages in two different Worlds are never confused with
// each other even if both happen to run on the same goroutine.
type World struct {
	allocator  *entityAllocator
	registry   *StorageRegistry
	workloads  *workloadRegistry
	ownerToken ThreadToken
}

// NewWorld constructs an empty World. Prefer Factory.NewWorld in
// application code; NewWorld is exported for callers that want to embed
// World construction in their own factory.
func NewWorld() *World {
	token := NewThreadToken()
	return &World{
		allocator:  newEntityAllocator(),
		registry:   NewStorageRegistry(token),
		workloads:  newWorkloadRegistry(),
		ownerToken: token,
	}
}

// Registry exposes the World's StorageRegistry, for callers assembling
// System borrow functions directly (BorrowShared[T], BorrowExclusive[T],
// ...) rather than going through the per-type World helpers below.
func (w *World) Registry() *StorageRegistry { return w.registry }

// OwnerToken returns the ThreadToken this World's creator is confined to.
func (w *World) OwnerToken() ThreadToken { return w.ownerToken }

// Generate allocates a new entity with no components.
func (w *World) Generate() EntityID { return w.allocator.Generate() }

// AddEntity is Generate under spec naming; components are attached
// afterward with AddComponent, since Go has no way to accept a
// heterogeneous list of typed components in one variadic call without
// reflection.
func (w *World) AddEntity() EntityID { return w.Generate() }

// Spawn forces id alive in this World, growing the allocator to
// accommodate an index never seen before. It reports whether the id could
// be forced alive: false means id names a generation the allocator has
// already moved past. A caller moving an entity between Worlds can use it
// to keep the same id in the destination; MoveWorldEntity does not call it.
func (w *World) Spawn(id EntityID) bool { return w.allocator.Spawn(id) }

// BulkGenerate allocates n new entities with no components.
func (w *World) BulkGenerate(n int) []EntityID { return w.allocator.BulkGenerate(n) }

// BulkAddEntity is BulkGenerate under spec naming.
func (w *World) BulkAddEntity(n int) []EntityID { return w.BulkGenerate(n) }

// IsAlive reports whether entity's generation still matches its slot.
func (w *World) IsAlive(entity EntityID) bool { return w.allocator.IsAlive(entity) }

// DeleteEntity frees entity's slot and strips every component it held.
// Unlike most of this package's operations, an already-dead entity is not
// an error here: it is reported through the bool return, matching spec's
// asymmetry between this op and ones that require a live entity (see
// EntityNotAliveError and SPEC_FULL.md §7). Stripping every storage is a
// whole-registry structural mutation; a conflict there (some other borrow
// of the whole registry still outstanding on this token's lane) means the
// caller is re-entering World from inside a borrow it's still holding,
// which is a programming error rather than a recoverable runtime
// condition, so it panics the same way EntityNotAliveError does.
func (w *World) DeleteEntity(entity EntityID) bool {
	if !w.allocator.Delete(entity) {
		return false
	}
	if err := w.registry.DeleteEntity(entity, w.ownerToken); err != nil {
		panic(bark.AddTrace(err))
	}
	return true
}

// Strip removes every component entity holds without freeing its slot.
func (w *World) Strip(entity EntityID) {
	if err := w.registry.Strip(entity, w.ownerToken); err != nil {
		panic(bark.AddTrace(err))
	}
}

// Clear empties every storage in the World without affecting entity
// liveness (existing EntityIDs remain allocated, just componentless).
func (w *World) Clear() {
	if err := w.registry.Clear(w.ownerToken); err != nil {
		panic(bark.AddTrace(err))
	}
}

// GetTrackingTimestamp returns the World's current tracking clock tick, for
// callers that want to remember "now" and later ask a SparseSet what
// changed since then.
func (w *World) GetTrackingTimestamp() Timestamp {
	return w.registry.Clock().Current()
}

// ClearAllRemovedOrDeleted drops every storage's removal/deletion logs.
func (w *World) ClearAllRemovedOrDeleted() {
	if err := w.registry.ClearAllRemovedAndDeleted(w.ownerToken); err != nil {
		panic(bark.AddTrace(err))
	}
}

// ClearAllRemovedOrDeletedOlderThan drops removal/deletion log entries
// older than cutoff across every storage.
func (w *World) ClearAllRemovedOrDeletedOlderThan(cutoff Timestamp) {
	if err := w.registry.ClearAllRemovedAndDeletedOlderThan(cutoff, w.ownerToken); err != nil {
		panic(bark.AddTrace(err))
	}
}

// RegisterWorkload compiles systems into a named Workload. The first
// Workload ever registered in a World becomes its default.
func (w *World) RegisterWorkload(name string, systems ...System) {
	w.workloads.register(name, systems)
}

// SetDefaultWorkload marks name as the Workload RunDefault executes.
func (w *World) SetDefaultWorkload(name string) error {
	return w.workloads.setDefault(name)
}

// RenameWorkload renames a registered Workload, preserving its compiled
// batches and default-workload status if it held any.
func (w *World) RenameWorkload(oldName, newName string) error {
	return w.workloads.rename(oldName, newName)
}

// ContainsWorkload reports whether name has been registered.
func (w *World) ContainsWorkload(name string) bool {
	return w.workloads.contains(name)
}

// RunWorkload executes the named Workload's compiled batches in order,
// parallelizing within each batch.
func (w *World) RunWorkload(ctx context.Context, name string) error {
	return w.workloads.run(ctx, w.registry, w.ownerToken, name)
}

// RunDefault executes the World's default Workload.
func (w *World) RunDefault(ctx context.Context) error {
	return w.workloads.runDefault(ctx, w.registry, w.ownerToken)
}

// Run plans and executes an ad-hoc group of systems without registering
// them as a named Workload, for one-off or test invocations.
func (w *World) Run(ctx context.Context, systems ...System) error {
	return runBatches(ctx, w.registry, w.ownerToken, planBatches(systems))
}

// AddComponent inserts or overwrites entity's T component. Panics if entity
// is not alive: an attempt to attach a component to a dead entity signals a
// logic bug in the caller, not a recoverable condition, so it is reported
// the same way a borrow-counter exhaustion is (see SPEC_FULL.md §7).
func AddComponent[T any](w *World, entity EntityID, value T) error {
	if !w.IsAlive(entity) {
		panic(bark.AddTrace(EntityNotAliveError{Entity: entity}))
	}
	view, err := BorrowExclusive[T](w.registry, w.ownerToken)
	if err != nil {
		return err
	}
	defer view.Release()
	view.Insert(entity, value)
	return nil
}

// GetComponent returns a copy of entity's T component, if any.
func GetComponent[T any](w *World, entity EntityID) (T, bool, error) {
	var zero T
	view, err := BorrowShared[T](w.registry, w.ownerToken)
	if err != nil {
		if _, ok := err.(MissingStorageError); ok {
			return zero, false, nil
		}
		return zero, false, err
	}
	defer view.Release()
	if p := view.Get(entity); p != nil {
		return *p, true, nil
	}
	return zero, false, nil
}

// RemoveComponent takes entity's T component out and returns it.
func RemoveComponent[T any](w *World, entity EntityID) (T, bool, error) {
	var zero T
	view, err := BorrowExclusive[T](w.registry, w.ownerToken)
	if err != nil {
		return zero, false, err
	}
	defer view.Release()
	value, ok := view.Remove(entity)
	return value, ok, nil
}

// DeleteComponent discards entity's T component without returning it.
func DeleteComponent[T any](w *World, entity EntityID) error {
	view, err := BorrowExclusive[T](w.registry, w.ownerToken)
	if err != nil {
		return err
	}
	defer view.Release()
	view.Delete(entity)
	return nil
}

// Retain keeps only the component types named by keep on entity, stripping
// every other storage's entry for it. Useful for resetting an entity to a
// known component set without deleting and respawning it.
func (w *World) Retain(entity EntityID, keep ...StorageID) {
	keepSet := make(map[StorageID]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	w.registry.mu.RLock()
	toStrip := make([]Storage, 0)
	for id, e := range w.registry.storages {
		if !keepSet[id] {
			toStrip = append(toStrip, e.storage)
		}
	}
	w.registry.mu.RUnlock()
	for _, s := range toStrip {
		s.DeleteEntity(entity)
	}
}

// AddUnique sets the World's unique (singleton) T component.
func AddUnique[T any](w *World, value T) error {
	view, err := BorrowUniqueExclusive[T](w.registry, w.ownerToken)
	if err != nil {
		return err
	}
	defer view.Release()
	view.Set(value)
	return nil
}

// GetUnique returns a copy of the World's unique T component, if set.
func GetUnique[T any](w *World) (T, bool, error) {
	var zero T
	view, err := BorrowUniqueShared[T](w.registry, w.ownerToken)
	if err != nil {
		if _, ok := err.(MissingUniqueError); ok {
			return zero, false, nil
		}
		return zero, false, err
	}
	defer view.Release()
	if p, ok := view.Get(); ok {
		return *p, true, nil
	}
	return zero, false, nil
}

// RemoveUnique takes the World's unique T component out and returns it.
func RemoveUnique[T any](w *World) (T, bool, error) {
	view, err := BorrowUniqueExclusive[T](w.registry, w.ownerToken)
	if err != nil {
		return *new(T), false, err
	}
	defer view.Release()
	return view.Remove()
}

// RunWithData sets the World's unique T component to data for the duration
// of running the named Workload, removing it again afterward regardless of
// the run's outcome. Systems in that Workload read it via
// UniqueShared[T]/UniqueExclusive[T], the idiomatic Go stand-in for the
// original's direct data-parameter pass-through.
func RunWithData[T any](ctx context.Context, w *World, name string, data T) error {
	if err := AddUnique(w, data); err != nil {
		return err
	}
	defer RemoveUnique[T](w)
	return w.RunWorkload(ctx, name)
}

// MoveWorldEntity moves every registered-movable component entity `from`
// holds in src onto entity `to` in dst. It neither allocates `to` in dst nor
// deletes `from` from src's allocator.
func MoveWorldEntity(src, dst *World, from, to EntityID) error {
	return MoveEntity(src.registry, dst.registry, from, to)
}
