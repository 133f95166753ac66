package cadence

import (
	"fmt"
	"iter"
)

// CommandQueue is a per-entity FIFO of commands, e.g. orders issued to a unit
type CommandQueue[T any] struct {
	commands []T
}

func NewCommandQueue[T any](capacity int) CommandQueue[T] {
	return CommandQueue[T]{commands: make([]T, 0, capacity)}
}

func (q *CommandQueue[T]) Add(command T) {
	q.commands = append(q.commands, command)
}

func (q *CommandQueue[T]) Enqueue(commands ...T) {
	q.commands = append(q.commands, commands...)
}

func (q *CommandQueue[T]) Len() int {
	return len(q.commands)
}

func (q *CommandQueue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, c := range q.commands {
			if !yield(c) {
				return
			}
		}
	}
}

// Drain yields and removes queued commands in order. Commands added while draining are kept for the next drain.
func (q *CommandQueue[T]) Drain() iter.Seq[T] {
	return func(yield func(T) bool) {
		n := len(q.commands)
		i := 0
		defer func() {
			rest := copy(q.commands, q.commands[i:])
			clear(q.commands[rest:])
			q.commands = q.commands[:rest]
		}()
		for i < n {
			c := q.commands[i]
			i++
			if !yield(c) {
				return
			}
		}
	}
}

// CommandHandler executes one command on behalf of entity e
type CommandHandler[T any] func(cx *Context, e Entity, command T) error

type commandSystem[T any] struct {
	name      string
	component AccessibleComponent[CommandQueue[T]]
	handle    CommandHandler[T]
}

// NewCommandSystem drains the queue of every entity carrying component into handle
func NewCommandSystem[T any](name string, component AccessibleComponent[CommandQueue[T]], handle CommandHandler[T]) System {
	return &commandSystem[T]{
		name:      name,
		component: component,
		handle:    handle,
	}
}

func (s *commandSystem[T]) Name() string {
	return s.name
}

func (s *commandSystem[T]) Access() AccessSet {
	return AccessSet{Components: []Access{WritesComponent[CommandQueue[T]]()}}
}

func (s *commandSystem[T]) Run(cx *Context) error {
	cursor := cx.World.Query(cx.World.NewQuery().And(s.component))
	for cursor.Next() {
		e := cursor.Entity()
		queue := s.component.GetFromCursor(cursor)
		for cmd := range queue.Drain() {
			if err := s.handle(cx, e, cmd); err != nil {
				cursor.Reset()
				return fmt.Errorf("command for %v: %w", e, err)
			}
		}
	}
	return nil
}
