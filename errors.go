package ecsx

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for BorrowCell exhaustion. These are never expected in
// normal operation; they indicate a borrow counter has been driven into a
// corner by a pathological number of concurrent failed attempts and the
// cell can no longer trust its own state word.
var (
	errTooManySharedBorrows = errors.New("ecsx: too many shared borrows of a single storage")
	errTooManyFailedBorrows = errors.New("ecsx: too many failed borrow attempts on a single storage")
)

// BorrowError reports why a Borrow* call could not obtain a view.
type BorrowError struct {
	StorageID StorageID
	Failure   BorrowFailure
}

func (e BorrowError) Error() string {
	return fmt.Sprintf("ecsx: borrow of %s failed: %s", e.StorageID, e.Failure)
}

// MissingStorageError is returned when an operation names a component type
// that has no storage registered in the target registry and the operation
// is not allowed to create one implicitly (e.g. a Shared, read-only view).
type MissingStorageError struct {
	StorageID StorageID
}

func (e MissingStorageError) Error() string {
	return fmt.Sprintf("ecsx: no storage registered for %s", e.StorageID)
}

// MissingUniqueError is returned by BorrowUniqueShared when no unique slot
// for the requested type has been created yet (by BorrowUniqueExclusive or
// AddUnique).
type MissingUniqueError struct {
	Type reflect.Type
}

func (e MissingUniqueError) Error() string {
	return fmt.Sprintf("ecsx: no unique component of type %s", e.Type)
}

// TrackingNotEnabledError is returned when a caller asks for inserted,
// modified, removed, or deleted slices from a SparseSet that was never
// opted into that kind of tracking.
type TrackingNotEnabledError struct {
	StorageID StorageID
	Kind      string
}

func (e TrackingNotEnabledError) Error() string {
	return fmt.Sprintf("ecsx: %s tracking not enabled for %s", e.Kind, e.StorageID)
}

// UnknownWorkloadError is returned by RunWorkload/RunDefault/RenameWorkload/
// SetDefaultWorkload when the named workload was never registered.
type UnknownWorkloadError struct {
	Name string
}

func (e UnknownWorkloadError) Error() string {
	return fmt.Sprintf("ecsx: no workload registered with name %q", e.Name)
}

// IdenticalEntitiesError is returned by operations that combine two entity
// ids (e.g. MoveEntity) when both refer to the same entity.
type IdenticalEntitiesError struct {
	Entity EntityID
}

func (e IdenticalEntitiesError) Error() string {
	return fmt.Sprintf("ecsx: source and destination entity are identical: %s", e.Entity)
}

// EntityNotAliveError is the panic value (wrapped with bark.AddTrace) that
// AddComponent raises when the id's generation no longer matches the slot.
// DeleteEntity does not use this error: deleting an already-dead entity is
// reported by its bool return instead, per the asymmetry recorded in
// SPEC_FULL.md §7.
type EntityNotAliveError struct {
	Entity EntityID
}

func (e EntityNotAliveError) Error() string {
	return fmt.Sprintf("ecsx: entity is not alive: %s", e.Entity)
}

// NonTransferableComponentError is returned by RegisterMovable when the
// component type fails the move registry's thread-affinity check (see
// move.go). MoveEntity itself only moves registered types and skips the rest.
type NonTransferableComponentError struct {
	Type reflect.Type
}

func (e NonTransferableComponentError) Error() string {
	return fmt.Sprintf("ecsx: component type %s is not registered as transferable", e.Type)
}
