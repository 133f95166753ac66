package cadence

import (
	"github.com/TheBitDrifter/table"
)

// AccessibleComponent extends a base Component with table-based accessibility
// It provides methods to retrieve components using different access patterns
type AccessibleComponent[T any] struct {
	Component
	table.Accessor[T] // concrete.
}

// valued is a component carrying the value it should be initialised with
type valued interface {
	Component
	base() Component
	assign(entry table.Entry)
}

type componentValue[T any] struct {
	AccessibleComponent[T]
	value T
}

func (v componentValue[T]) base() Component {
	return v.AccessibleComponent
}

func (v componentValue[T]) assign(entry table.Entry) {
	*v.Get(entry.Index(), entry.Table()) = v.value
}

// baseOf strips the value carried by a valued component
func baseOf(c Component) Component {
	if v, ok := c.(valued); ok {
		return v.base()
	}
	return c
}

// With returns the component paired with an initial value for Spawn, Insert and Commands
func (c AccessibleComponent[T]) With(value T) Component {
	return componentValue[T]{
		AccessibleComponent: c,
		value:               value,
	}
}

// GetFromCursor retrieves a component value for the entity at the cursor position
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(
		cursor.entityIndex-1,
		cursor.currentArchetype.table,
	)
}

// GetFromCursorSafe safely retrieves a component value, checking if the component exists
// Returns a boolean indicating success and the component pointer if found
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	ok := c.Accessor.Check(cursor.currentArchetype.table)
	if ok {
		return true, c.GetFromCursor(cursor)
	}
	return false, nil
}

// CheckCursor determines if the component exists in the archetype at the cursor position
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Accessor.Check(cursor.currentArchetype.table)
}

// GetFromEntity retrieves a component value for a live entity
// Returns nil when the entity is dead or lacks the component
func (c AccessibleComponent[T]) GetFromEntity(w *World, e Entity) *T {
	rec, ok := w.live(e)
	if !ok {
		return nil
	}
	tbl := rec.entry.Table()
	if !c.Accessor.Check(tbl) {
		return nil
	}
	return c.Get(rec.entry.Index(), tbl)
}

// handle is the hidden column every archetype carries so cursors can name their entity
type handle struct {
	entity Entity
}

var handleComponent = FactoryNewComponent[handle]()
