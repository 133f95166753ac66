package cadence

import (
	"reflect"
)

// Res holds at most one value per type and shares it between systems
// Values are boxed once so pointers returned by GetMut, With and Expect stay valid until the type is
// removed or replaced. Res performs no locking; the Scheduler runs systems one at a time.
type Res struct {
	items map[reflect.Type]any
}

func newRes() *Res {
	return &Res{
		items: make(map[reflect.Type]any),
	}
}

// Len reports the number of stored resources
func (r *Res) Len() int {
	return len(r.items)
}

// Insert stores value and returns the value it replaced, if any
func Insert[T any](r *Res, value T) (T, bool) {
	t := reflect.TypeFor[T]()
	prev, ok := r.items[t]
	box := new(T)
	*box = value
	r.items[t] = box
	if !ok {
		var zero T
		return zero, false
	}
	return *prev.(*T), true
}

// Get returns a copy of the stored T
func Get[T any](r *Res) (T, bool) {
	if p := GetMut[T](r); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// GetMut returns the stored T in place, or nil when absent
func GetMut[T any](r *Res) *T {
	box, ok := r.items[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return box.(*T)
}

// Has reports whether a T is stored
func Has[T any](r *Res) bool {
	_, ok := r.items[reflect.TypeFor[T]()]
	return ok
}

// Expect returns the stored T and panics with MissingResourceError when it is absent
func Expect[T any](r *Res) *T {
	p := GetMut[T](r)
	if p == nil {
		panic(MissingResourceError{Type: reflect.TypeFor[T]()})
	}
	return p
}

// With returns the stored T, inserting the result of factory first if none is stored.
// factory is not called when a T already exists.
func With[T any](r *Res, factory func() T) *T {
	if p := GetMut[T](r); p != nil {
		return p
	}
	box := new(T)
	*box = factory()
	r.items[reflect.TypeFor[T]()] = box
	return box
}

// TryWith is With for fallible factories. Nothing is stored when factory fails.
func TryWith[T any](r *Res, factory func() (T, error)) (*T, error) {
	if p := GetMut[T](r); p != nil {
		return p, nil
	}
	v, err := factory()
	if err != nil {
		return nil, err
	}
	box := new(T)
	*box = v
	r.items[reflect.TypeFor[T]()] = box
	return box, nil
}

// Remove takes the stored T out of the map
func Remove[T any](r *Res) (T, bool) {
	t := reflect.TypeFor[T]()
	box, ok := r.items[t]
	if !ok {
		var zero T
		return zero, false
	}
	delete(r.items, t)
	return *box.(*T), true
}
