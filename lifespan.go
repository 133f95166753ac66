package cadence

import (
	"time"
)

// LifeSpan despawns its entity once the remaining time runs out
type LifeSpan struct {
	Left time.Duration
}

func NewLifeSpan(span time.Duration) LifeSpan {
	return LifeSpan{Left: span}
}

// Truncate shortens the remaining time to at most span
func (l *LifeSpan) Truncate(span time.Duration) {
	l.Left = min(l.Left, span)
}

var LifeSpanComponent = FactoryNewComponent[LifeSpan]()

// LifeSpanSystem counts down every LifeSpan by the tick delta and queues despawns for expired entities
type LifeSpanSystem struct{}

func (LifeSpanSystem) Name() string {
	return "LifeSpan"
}

func (LifeSpanSystem) Access() AccessSet {
	return AccessSet{Components: []Access{WritesComponent[LifeSpan]()}}
}

func (LifeSpanSystem) Run(cx *Context) error {
	expired := NewVec[Entity](cx.Scope, 16)
	cursor := cx.World.Query(cx.World.NewQuery().And(LifeSpanComponent))
	for cursor.Next() {
		ls := LifeSpanComponent.GetFromCursor(cursor)
		if ls.Left > cx.Clock.Delta {
			ls.Left -= cx.Clock.Delta
			continue
		}
		expired.Push(cursor.Entity())
	}
	for e := range expired.Drain() {
		cx.Commands.Despawn(e)
	}
	return nil
}
