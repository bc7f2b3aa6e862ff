/*
Package ecsx provides an Entity-Component-System (ECS) runtime core.

ecsx stores each component type in its own sparse set rather than grouping
entities into archetypes: adding or removing a component never moves any
other component the entity owns. Component access goes through a
StorageRegistry guarded by per-storage borrow cells, so a Workload's
Systems can run concurrently whenever their declared borrow sets don't
overlap.

Core Concepts:

  - EntityID: a generational identifier; a stale id reads as dead once its
    slot is recycled.
  - SparseSet[T]: O(1) insert/remove/lookup storage for one component type,
    with optional insertion/modification/removal/deletion tracking.
  - StorageRegistry: the type-keyed owner of every SparseSet and unique
    component slot in a World.
  - Shared[T] / Exclusive[T]: RAII-style read and read-write borrows of a
    component's storage.
  - System / Workload: a unit of work plus its borrow set, and a named,
    pre-compiled group of such units the scheduler batches by disjointness.

Basic Usage:

	w := ecsx.Factory.NewWorld()

	type Position struct{ X, Y float64 }
	type Velocity struct{ X, Y float64 }

	e := w.Generate()
	ecsx.AddComponent(w, e, Position{})
	ecsx.AddComponent(w, e, Velocity{X: 1, Y: 0})

	move := ecsx.System2(
		"move",
		func(r *ecsx.StorageRegistry, t ecsx.ThreadToken) (ecsx.Exclusive[Position], error) {
			return ecsx.BorrowExclusive[Position](r, t)
		},
		func(r *ecsx.StorageRegistry, t ecsx.ThreadToken) (ecsx.Shared[Velocity], error) {
			return ecsx.BorrowShared[Velocity](r, t)
		},
		func(pos ecsx.Exclusive[Position], vel ecsx.Shared[Velocity]) {
			for id, v := range vel.All() {
				if p := pos.GetMut(id); p != nil {
					p.X += v.X
					p.Y += v.Y
				}
			}
		},
	)

	w.RegisterWorkload("tick", move)
	_ = w.RunDefault(context.Background())

ecsx has no process-wide global World: every World owns its own entity
allocator, registry, and tracking clock, so multiple independent
simulations can run in the same process without sharing state.
*/
package ecsx
