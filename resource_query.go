package cadence

import (
	"reflect"
)

type AccessMode uint8

const (
	AccessRead AccessMode = iota
	AccessWrite
)

func (m AccessMode) String() string {
	if m == AccessWrite {
		return "write"
	}
	return "read"
}

// Access describes how a query or system touches one type
type Access struct {
	Type     reflect.Type
	Mode     AccessMode
	Optional bool
}

// Conflicts reports whether a and o touch the same type with at least one write
func (a Access) Conflicts(o Access) bool {
	return a.Type == o.Type && (a.Mode == AccessWrite || o.Mode == AccessWrite)
}

// Fetch is one slot of a resource query
type Fetch[T any] struct {
	access Access
	fetch  func(r *Res) T
}

func (f Fetch[T]) Access() Access {
	return f.access
}

func fetchOf[T any](mode AccessMode, optional bool) Fetch[*T] {
	a := Access{Type: reflect.TypeFor[T](), Mode: mode, Optional: optional}
	return Fetch[*T]{
		access: a,
		fetch: func(r *Res) *T {
			p := GetMut[T](r)
			if p == nil && !optional {
				panic(MissingResourceError{Type: a.Type})
			}
			return p
		},
	}
}

// Read requests shared access to a required T. The pointer must not be written through.
func Read[T any]() Fetch[*T] {
	return fetchOf[T](AccessRead, false)
}

// Write requests exclusive access to a required T
func Write[T any]() Fetch[*T] {
	return fetchOf[T](AccessWrite, false)
}

// ReadOpt is Read yielding nil when T is absent
func ReadOpt[T any]() Fetch[*T] {
	return fetchOf[T](AccessRead, true)
}

// WriteOpt is Write yielding nil when T is absent
func WriteOpt[T any]() Fetch[*T] {
	return fetchOf[T](AccessWrite, true)
}

// ValidateAccess returns an AccessConflictError when a write aliases any other access of the same type
func ValidateAccess(accesses ...Access) error {
	for i := range accesses {
		for j := i + 1; j < len(accesses); j++ {
			if accesses[i].Conflicts(accesses[j]) {
				return AccessConflictError{
					Type:  accesses[i].Type,
					First: accesses[i],
					Other: accesses[j],
				}
			}
		}
	}
	return nil
}

func mustValidate(accesses ...Access) {
	if err := ValidateAccess(accesses...); err != nil {
		panic(err)
	}
}

// Query1 through Query6 fetch several resources at once. The access set is validated before any
// resource is looked up: a conflicting request panics with AccessConflictError and a missing
// required resource panics with MissingResourceError.

func Query1[A any](r *Res, a Fetch[A]) A {
	return a.fetch(r)
}

func Query2[A, B any](r *Res, a Fetch[A], b Fetch[B]) (A, B) {
	mustValidate(a.access, b.access)
	return a.fetch(r), b.fetch(r)
}

func Query3[A, B, C any](r *Res, a Fetch[A], b Fetch[B], c Fetch[C]) (A, B, C) {
	mustValidate(a.access, b.access, c.access)
	return a.fetch(r), b.fetch(r), c.fetch(r)
}

func Query4[A, B, C, D any](r *Res, a Fetch[A], b Fetch[B], c Fetch[C], d Fetch[D]) (A, B, C, D) {
	mustValidate(a.access, b.access, c.access, d.access)
	return a.fetch(r), b.fetch(r), c.fetch(r), d.fetch(r)
}

func Query5[A, B, C, D, E any](r *Res, a Fetch[A], b Fetch[B], c Fetch[C], d Fetch[D], e Fetch[E]) (A, B, C, D, E) {
	mustValidate(a.access, b.access, c.access, d.access, e.access)
	return a.fetch(r), b.fetch(r), c.fetch(r), d.fetch(r), e.fetch(r)
}

func Query6[A, B, C, D, E, F any](r *Res, a Fetch[A], b Fetch[B], c Fetch[C], d Fetch[D], e Fetch[E], f Fetch[F]) (A, B, C, D, E, F) {
	mustValidate(a.access, b.access, c.access, d.access, e.access, f.access)
	return a.fetch(r), b.fetch(r), c.fetch(r), d.fetch(r), e.fetch(r), f.fetch(r)
}
