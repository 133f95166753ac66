package cadence

import "github.com/TheBitDrifter/table"

type factory struct{}

var Factory factory

// NewWorld creates an empty world whose components are registered in schema
func (f factory) NewWorld(schema table.Schema) *World {
	return newWorld(schema)
}

func (f factory) NewQuery() Query {
	return newQuery()
}

func (f factory) NewCursor(query QueryNode, world *World) *Cursor {
	return newCursor(query, world)
}

func (f factory) NewRes() *Res {
	return newRes()
}

func (f factory) NewScope() *Scope {
	return newScope()
}

func FactoryNewComponent[T any]() AccessibleComponent[T] {
	iden := table.FactoryNewElementType[T]()
	return AccessibleComponent[T]{
		Component: iden,
		Accessor:  table.FactoryNewAccessor[T](iden),
	}
}

// FactoryNewCache creates a keyed cache holding at most cap items. A cap of zero or less is unbounded.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
