package cadence

// FunnelFunc adapts a function to a Funnel
type FunnelFunc[E any] func(w *World, res *Res, event E) (E, bool)

func (f FunnelFunc[E]) Filter(w *World, res *Res, event E) (E, bool) {
	return f(w, res, event)
}

// Chain applies its funnels in order. The first funnel to swallow the event stops the chain.
type Chain[E any] []Funnel[E]

func (c Chain[E]) Filter(w *World, res *Res, event E) (E, bool) {
	for _, f := range c {
		var ok bool
		if event, ok = f.Filter(w, res, event); !ok {
			return event, false
		}
	}
	return event, true
}
