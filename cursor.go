package cadence

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

// Cursor walks the entities of every archetype matched by a query
// The world counts as locked from the first Next until the cursor is exhausted or Reset.
type Cursor struct {
	// The query to filter entities
	query QueryNode

	// The world to iterate over
	world *World

	// Current iteration state
	currentArchetype archetype
	storageIndex     int
	entityIndex      int
	remaining        int

	// Initialization state
	initialized     bool
	matchedStorages []archetype
}

func newCursor(query QueryNode, world *World) *Cursor {
	return &Cursor{
		query: query,
		world: world,
	}
}

func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.initialize()
	}
	for c.storageIndex < len(c.matchedStorages) {
		c.currentArchetype = c.matchedStorages[c.storageIndex]
		c.remaining = c.currentArchetype.table.Length()

		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.storageIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

// Entity returns the handle of the entity under the cursor
func (c *Cursor) Entity() Entity {
	return handleComponent.GetFromCursor(c).entity
}

// Entities yields every matched entity with its table, releasing the cursor on early exit
func (c *Cursor) Entities() iter.Seq2[Entity, table.Table] {
	return func(yield func(Entity, table.Table) bool) {
		for c.Next() {
			if !yield(c.Entity(), c.currentArchetype.table) {
				c.Reset()
				return
			}
		}
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.matchedStorages = c.match()
	if len(c.matchedStorages) > 0 {
		c.storageIndex = 0
		c.currentArchetype = c.matchedStorages[0]
		c.remaining = c.currentArchetype.table.Length()
	}
	c.initialized = true
	c.world.cursors++
}

func (c *Cursor) match() []archetype {
	matched := make([]archetype, 0)
	for _, arch := range c.world.archetypes.asSlice {
		if c.query.Evaluate(arch, c.world) {
			matched = append(matched, arch)
		}
	}
	return matched
}

// Reset rewinds the cursor and releases its hold on the world
// Call it when abandoning a Next loop early.
func (c *Cursor) Reset() {
	wasInitialized := c.initialized
	c.storageIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matchedStorages = nil
	c.initialized = false
	if !wasInitialized {
		return
	}
	c.world.cursors--
	if c.world.Locked() || c.world.commands.Len() == 0 {
		return
	}
	if err := c.world.commands.apply(); err != nil {
		panic(err)
	}
}

func (c *Cursor) CurrentEntity() (int, table.Table) {
	return c.entityIndex, c.currentArchetype.table
}

func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

// TotalMatched counts matched entities without starting an iteration
func (c *Cursor) TotalMatched() int {
	total := 0
	for _, arch := range c.match() {
		total += arch.table.Length()
	}
	return total
}
