package cadence

import (
	"iter"
	"reflect"
)

const scopeChunkItems = 64

// Scope is a per-tick arena. Allocations stay valid until the next Reset, which the Scheduler
// performs once every system of the tick has finished.
type Scope struct {
	epoch     uint64
	allocated int
	pools     map[reflect.Type]scopePool
}

type scopePool interface {
	reset()
}

// pool hands out items from fixed chunks that are never reallocated, so returned pointers stay put
type pool[T any] struct {
	chunks [][]T
	cur    int
	used   int
}

func newScope() *Scope {
	return &Scope{
		pools: make(map[reflect.Type]scopePool),
	}
}

// Epoch counts the resets performed so far
func (s *Scope) Epoch() uint64 {
	return s.epoch
}

// Allocated reports the items handed out since the last reset
func (s *Scope) Allocated() int {
	return s.allocated
}

// Reset invalidates every allocation. Chunks are zeroed and kept for the next tick.
func (s *Scope) Reset() {
	for _, p := range s.pools {
		p.reset()
	}
	s.allocated = 0
	s.epoch++
}

func poolFor[T any](s *Scope) *pool[T] {
	t := reflect.TypeFor[T]()
	if p, ok := s.pools[t]; ok {
		return p.(*pool[T])
	}
	p := &pool[T]{}
	s.pools[t] = p
	return p
}

func (p *pool[T]) take(n int) []T {
	for p.cur < len(p.chunks) {
		chunk := p.chunks[p.cur]
		if len(chunk)-p.used >= n {
			items := chunk[p.used : p.used+n : p.used+n]
			p.used += n
			return items
		}
		p.cur++
		p.used = 0
	}
	p.chunks = append(p.chunks, make([]T, max(scopeChunkItems, n)))
	p.cur = len(p.chunks) - 1
	p.used = n
	return p.chunks[p.cur][:n:n]
}

func (p *pool[T]) reset() {
	for i := 0; i < len(p.chunks) && i <= p.cur; i++ {
		clear(p.chunks[i])
	}
	p.cur = 0
	p.used = 0
}

// Alloc returns a zeroed T owned by the scope
func Alloc[T any](s *Scope) *T {
	s.allocated++
	return &poolFor[T](s).take(1)[0]
}

// AllocSlice returns n contiguous zeroed items owned by the scope
func AllocSlice[T any](s *Scope, n int) []T {
	if n <= 0 {
		return nil
	}
	s.allocated += n
	return poolFor[T](s).take(n)
}

// Vec is a growable list whose storage lives in a Scope
type Vec[T any] struct {
	scope *Scope
	epoch uint64
	items []T
}

// NewVec creates an empty vector with room for capacity items
func NewVec[T any](s *Scope, capacity int) *Vec[T] {
	return &Vec[T]{
		scope: s,
		epoch: s.epoch,
		items: AllocSlice[T](s, max(capacity, 1))[:0],
	}
}

func (v *Vec[T]) check() {
	if v.epoch != v.scope.epoch {
		panic(StaleScopeError{Epoch: v.epoch, Current: v.scope.epoch})
	}
}

func (v *Vec[T]) Push(item T) {
	v.check()
	if len(v.items) == cap(v.items) {
		grown := AllocSlice[T](v.scope, max(2*cap(v.items), 1))[:len(v.items)]
		copy(grown, v.items)
		clear(v.items)
		v.items = grown
	}
	v.items = append(v.items, item)
}

func (v *Vec[T]) Len() int {
	v.check()
	return len(v.items)
}

func (v *Vec[T]) At(i int) T {
	v.check()
	return v.items[i]
}

// Slice exposes the items in place; it shares the lifetime of the scope
func (v *Vec[T]) Slice() []T {
	v.check()
	return v.items
}

func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		v.check()
		for i, item := range v.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Drain moves every item out of the vector, leaving it empty. Items left behind by an early break are dropped.
func (v *Vec[T]) Drain() iter.Seq[T] {
	return func(yield func(T) bool) {
		v.check()
		items := v.items
		v.items = items[len(items):len(items)]
		var zero T
		for i := range items {
			item := items[i]
			items[i] = zero
			if !yield(item) {
				clear(items[i+1:])
				return
			}
		}
	}
}
