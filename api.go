package cadence

import (
	"time"

	"github.com/TheBitDrifter/table"
)

// Component represents a data attribute/state that can be attached to entities
// Components can be used to create queries for entities
type Component interface {
	table.ElementType
}

// RowIndexer resolves the schema row (mask bit) of a component
type RowIndexer interface {
	RowIndexFor(Component) uint32
}

type Archetype interface {
	ID() uint32
	Table() table.Table
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

type QueryNode interface {
	Evaluate(archetype Archetype, rows RowIndexer) bool
}

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Len() int
}

// System is one unit of per-tick logic driven by a Scheduler
type System interface {
	// Name identifies the system in errors, logs and spans
	Name() string
	Run(cx *Context) error
}

// AccessDeclarer is implemented by systems that publish their data footprint
type AccessDeclarer interface {
	Access() AccessSet
}

// Funnel filters one event. Returning false swallows the event and stops the chain.
type Funnel[E any] interface {
	Filter(w *World, res *Res, event E) (E, bool)
}

// TimeSource supplies wall-clock readings to a Clock
type TimeSource interface {
	Now() time.Time
}
