package cadence

import (
	"fmt"
)

type operationType int

const (
	opSpawn operationType = iota
	opDespawn
	opInsert
	opRemove
)

type operation struct {
	typ      operationType
	entities []Entity
	comps    []Component
}

// Commands records structural changes for a World and replays them at its next flush
// Entities spawned through Commands get their handle immediately but stay dead until the flush.
type Commands struct {
	w              *World
	ops            []operation
	pendingDespawn map[Entity]struct{}
}

func newCommands(w *World) *Commands {
	return &Commands{
		w:              w,
		pendingDespawn: make(map[Entity]struct{}),
	}
}

// Len reports the number of queued operations
func (c *Commands) Len() int {
	return len(c.ops)
}

// Spawn reserves a handle and queues its creation with the given components
func (c *Commands) Spawn(components ...Component) Entity {
	return c.SpawnBatch(1, components...)[0]
}

func (c *Commands) SpawnBatch(n int, components ...Component) []Entity {
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = c.w.reserve()
	}
	comps := make([]Component, len(components))
	copy(comps, components)
	c.ops = append(c.ops, operation{
		typ:      opSpawn,
		entities: entities,
		comps:    comps,
	})
	return entities
}

func (c *Commands) Despawn(entities ...Entity) {
	// Filter out already queued entities
	var newEntities []Entity
	for _, e := range entities {
		if _, exists := c.pendingDespawn[e]; exists {
			continue
		}
		c.pendingDespawn[e] = struct{}{}
		newEntities = append(newEntities, e)
	}
	if len(newEntities) > 0 {
		c.ops = append(c.ops, operation{
			typ:      opDespawn,
			entities: newEntities,
		})
	}
}

// Insert queues attaching comp to e. A valued comp overwrites the value if e already has it.
func (c *Commands) Insert(e Entity, comp Component) {
	c.enqueueComponentOp(opInsert, e, comp)
}

func (c *Commands) Remove(e Entity, comp Component) {
	c.enqueueComponentOp(opRemove, e, comp)
}

func (c *Commands) enqueueComponentOp(typ operationType, e Entity, comp Component) {
	// If entity is pending despawn, ignore component operations
	if _, doomed := c.pendingDespawn[e]; doomed {
		return
	}
	c.ops = append(c.ops, operation{
		typ:      typ,
		entities: []Entity{e},
		comps:    []Component{comp},
	})
}

func (c *Commands) apply() error {
	defer c.reset()
	w := c.w
	for _, op := range c.ops {
		switch op.typ {
		case opSpawn:
			entities := make([]Entity, 0, len(op.entities))
			for _, e := range op.entities {
				if w.reserved(e) {
					entities = append(entities, e)
				}
			}
			if len(entities) == 0 {
				continue
			}
			if len(op.comps) == 0 {
				return fmt.Errorf("failed to process queued spawn: %w", EmptyComponentSetError{})
			}
			if err := w.spawnInto(entities, op.comps); err != nil {
				return fmt.Errorf("failed to process queued spawn: %w", err)
			}

		case opDespawn:
			if err := w.despawn(op.entities); err != nil {
				return fmt.Errorf("failed to process queued despawn: %w", err)
			}

		case opInsert:
			e, comp := op.entities[0], op.comps[0]
			if !w.Alive(e) {
				continue
			}
			if w.Has(e, comp) {
				if v, ok := comp.(valued); ok {
					rec, _ := w.live(e)
					v.assign(rec.entry)
				}
				continue
			}
			if err := w.insert(e, comp); err != nil {
				return fmt.Errorf("failed to add queued component: %w", err)
			}

		case opRemove:
			e, comp := op.entities[0], op.comps[0]
			if !w.Has(e, comp) {
				continue
			}
			if err := w.remove(e, comp); err != nil {
				return fmt.Errorf("failed to remove queued component: %w", err)
			}
		}
	}
	return nil
}

// reset clears the queue and returns handles reserved by unapplied spawns
func (c *Commands) reset() {
	for _, op := range c.ops {
		if op.typ != opSpawn {
			continue
		}
		for _, e := range op.entities {
			if c.w.reserved(e) {
				c.w.release(e)
			}
		}
	}
	clear(c.ops)
	c.ops = c.ops[:0]
	clear(c.pendingDespawn)
}
