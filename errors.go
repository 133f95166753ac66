package cadence

import (
	"fmt"
	"reflect"
	"time"

	"github.com/TheBitDrifter/bark"
)

type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is currently locked"
}

type EmptyComponentSetError struct{}

func (e EmptyComponentSetError) Error() string {
	return "entities require at least one component"
}

type DeadEntityError struct {
	Entity Entity
}

func (e DeadEntityError) Error() string {
	return fmt.Sprintf("entity %v is not alive", e.Entity)
}

type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %T", e.Component)
}

type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %T", e.Component)
}

// SystemError reports a failed system run with the phase it ran in
type SystemError struct {
	System string
	Phase  Phase
	Err    error
	// Trace is the call stack captured when the scheduler received Err
	Trace bark.Trace
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system %s (%s) execution failed: %v", e.System, e.Phase, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// The errors below are raised with panic: they mark programming errors, not runtime conditions.

// AccessConflictError reports a resource query that would alias a written resource
type AccessConflictError struct {
	Type  reflect.Type
	First Access
	Other Access
}

func (e AccessConflictError) Error() string {
	return fmt.Sprintf("conflicting access to resource %v: %v and %v", e.Type, e.First.Mode, e.Other.Mode)
}

type MissingResourceError struct {
	Type reflect.Type
}

func (e MissingResourceError) Error() string {
	return fmt.Sprintf("required resource not found: %v", e.Type)
}

type NonMonotonicClockError struct {
	Previous TimeStamp
	Current  TimeStamp
}

func (e NonMonotonicClockError) Error() string {
	return fmt.Sprintf("clock went backwards: %v after %v", e.Current, e.Previous)
}

type FutureStartError struct {
	Start time.Time
	Now   time.Time
}

func (e FutureStartError) Error() string {
	return fmt.Sprintf("clock start %v lies in the future of %v", e.Start, e.Now)
}

type ClockOverflowError struct{}

func (e ClockOverflowError) Error() string {
	return "clock elapsed time overflows the timestamp range"
}

type StaleScopeError struct {
	Epoch, Current uint64
}

func (e StaleScopeError) Error() string {
	return fmt.Sprintf("scoped allocation from epoch %d used in epoch %d", e.Epoch, e.Current)
}

type DuplicateSystemError struct {
	Name string
}

func (e DuplicateSystemError) Error() string {
	return fmt.Sprintf("system %q is already registered", e.Name)
}
