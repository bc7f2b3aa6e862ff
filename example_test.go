package ecsx_test

import (
	"context"
	"fmt"

	"github.com/driftforge/ecsx"
)

// Position is a simple component for 2D coordinates.
type Position struct {
	X, Y float64
}

// Velocity is a simple component for 2D movement.
type Velocity struct {
	X, Y float64
}

// Name identifies an entity for display purposes.
type Name struct {
	Value string
}

// Example_basic shows spawning entities, attaching components, and running a
// single movement System over every entity that has both Position and
// Velocity.
func Example_basic() {
	w := ecsx.Factory.NewWorld()

	for i := 0; i < 4; i++ {
		e := w.Generate()
		ecsx.AddComponent(w, e, Position{})
		ecsx.AddComponent(w, e, Velocity{X: 1, Y: 1})
	}

	player := w.Generate()
	ecsx.AddComponent(w, player, Position{X: 10, Y: 20})
	ecsx.AddComponent(w, player, Velocity{X: 1, Y: 2})
	ecsx.AddComponent(w, player, Name{Value: "Player"})

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

	if err := w.Run(context.Background(), move); err != nil {
		fmt.Println("run failed:", err)
		return
	}

	pos, _, _ := ecsx.GetComponent[Position](w, player)
	name, _, _ := ecsx.GetComponent[Name](w, player)
	fmt.Printf("Updated %s to position (%.1f, %.1f)\n", name.Value, pos.X, pos.Y)

	// Output:
	// Updated Player to position (11.0, 22.0)
}

// Example_workload shows registering a named Workload of several systems and
// running it by name instead of ad hoc.
func Example_workload() {
	w := ecsx.Factory.NewWorld()

	e := w.Generate()
	ecsx.AddComponent(w, e, Health{Current: 8, Max: 10})

	regen := ecsx.System1(
		"regen",
		func(r *ecsx.StorageRegistry, t ecsx.ThreadToken) (ecsx.Exclusive[Health], error) {
			return ecsx.BorrowExclusive[Health](r, t)
		},
		func(hp ecsx.Exclusive[Health]) {
			for id, h := range hp.All() {
				if h.Current < h.Max {
					h.Current++
				}
				_ = id
			}
		},
	)

	w.RegisterWorkload("tick", regen)

	for i := 0; i < 2; i++ {
		if err := w.RunDefault(context.Background()); err != nil {
			fmt.Println("run failed:", err)
			return
		}
	}

	hp, _, _ := ecsx.GetComponent[Health](w, e)
	fmt.Printf("Health regenerated to %d/%d\n", hp.Current, hp.Max)

	// Output:
	// Health regenerated to 10/10
}

// Health is used by Example_workload.
type Health struct {
	Current, Max int
}
