package cadence

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// Context is everything a system may touch during one run
type Context struct {
	Ctx       context.Context
	World     *World
	Res       *Res
	Scope     *Scope
	Clock     ClockIndex
	Commands  *Commands
	Scheduler *Scheduler
}

// SystemFunc adapts a plain function to a System
type SystemFunc func(cx *Context) error

type funcSystem struct {
	name string
	fn   SystemFunc
}

func (s funcSystem) Name() string {
	return s.name
}

func (s funcSystem) Run(cx *Context) error {
	return s.fn(cx)
}

// NewSystem names fn. An empty name falls back to the function's symbol name.
func NewSystem(name string, fn SystemFunc) System {
	if name == "" {
		name = FuncName(fn)
	}
	return funcSystem{name: name, fn: fn}
}

// FuncName returns the short symbol name of a function value, e.g. "cadence.lifeSpanRun"
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "<unknown>"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// AccessSet is the data footprint a system declares
type AccessSet struct {
	Resources  []Access
	Components []Access
}

// ReadsResource and the functions below build Access values for an AccessSet
func ReadsResource[T any]() Access {
	return Read[T]().Access()
}

func WritesResource[T any]() Access {
	return Write[T]().Access()
}

func ReadsComponent[T any]() Access {
	return Access{Type: reflect.TypeFor[T](), Mode: AccessRead}
}

func WritesComponent[T any]() Access {
	return Access{Type: reflect.TypeFor[T](), Mode: AccessWrite}
}

// Conflicts reports whether running s and o at the same time could alias a write
func (s AccessSet) Conflicts(o AccessSet) bool {
	return accessesConflict(s.Resources, o.Resources) || accessesConflict(s.Components, o.Components)
}

func accessesConflict(a, b []Access) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Conflicts(y) {
				return true
			}
		}
	}
	return false
}

type declaredSystem struct {
	System
	access AccessSet
}

func (d declaredSystem) Access() AccessSet {
	return d.access
}

// Declare attaches an access footprint to a system that does not publish one
func Declare(sys System, set AccessSet) System {
	return declaredSystem{System: sys, access: set}
}

func accessOf(sys System) (AccessSet, bool) {
	if d, ok := sys.(AccessDeclarer); ok {
		return d.Access(), true
	}
	return AccessSet{}, false
}
