/*
Package cadence is the timing and scheduling core of a small game engine.

It drives an archetype based entity world through a tick loop. Each tick runs
three phases: ticking systems, fixed-step systems that catch up on the time
banked since their last run, and frame systems that run exactly once.

Core Concepts:

  - Entity: A generational handle to a game object. Stale handles never alias a reused slot.
  - Component: A data container that defines entity attributes.
  - World: Archetype storage. Structural changes made while it is locked are queued as Commands.
  - Res: Typed singleton resources shared by systems.
  - Scope: A per-tick arena, reset when the tick ends.
  - Clock: Monotonic session time, fed by a TimeSource.
  - Scheduler: Runs systems per phase and tracks fixed-step accumulators.

Basic Usage:

	world := cadence.Factory.NewWorld(table.Factory.NewSchema())
	res := cadence.Factory.NewRes()

	position := cadence.FactoryNewComponent[Position]()
	velocity := cadence.FactoryNewComponent[Velocity]()
	world.SpawnBatch(100, position, velocity)

	scheduler := cadence.NewScheduler(cadence.SchedulerConfig{})
	scheduler.AddFixedSystem(cadence.NewSystem("move", func(cx *cadence.Context) error {
		cursor := cx.World.Query(cx.World.NewQuery().And(position, velocity))
		for cursor.Next() {
			pos := position.GetFromCursor(cursor)
			vel := velocity.GetFromCursor(cursor)
			pos.X += vel.X
			pos.Y += vel.Y
		}
		return nil
	}), 10*time.Millisecond)

	clock := cadence.NewClock()
	for {
		if err := scheduler.Run(ctx, world, res, clock.Advance()); err != nil {
			return err
		}
	}

Game bundles these pieces with an event funnel and teardown hooks.
*/
package cadence
