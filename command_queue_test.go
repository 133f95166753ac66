package cadence

import (
	"errors"
	"testing"
	"time"
)

type moveOrder struct{ DX float64 }

var ordersComp = FactoryNewComponent[CommandQueue[moveOrder]]()

func TestCommandQueue(t *testing.T) {
	q := NewCommandQueue[int](2)
	q.Add(1)
	q.Enqueue(2, 3, 4)
	if q.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", q.Len())
	}

	var seen []int
	for c := range q.All() {
		seen = append(seen, c)
	}
	if len(seen) != 4 || q.Len() != 4 {
		t.Errorf("All() consumed the queue: %v, len %d", seen, q.Len())
	}

	// Early break keeps the rest queued
	for c := range q.Drain() {
		if c != 1 {
			t.Errorf("Drain started at %d", c)
		}
		break
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d after partial drain, want 3", q.Len())
	}

	var drained []int
	for c := range q.Drain() {
		drained = append(drained, c)
		if c == 2 {
			q.Add(5)
		}
	}
	if len(drained) != 3 || drained[0] != 2 || drained[2] != 4 {
		t.Errorf("Drain yielded %v, want [2 3 4]", drained)
	}
	if q.Len() != 1 {
		t.Errorf("Command added while draining was lost, len %d", q.Len())
	}
}

func TestCommandSystem(t *testing.T) {
	f := newTickFixture(SchedulerConfig{})

	queue := NewCommandQueue[moveOrder](4)
	queue.Enqueue(moveOrder{DX: 1}, moveOrder{DX: 2})
	unit, err := f.world.Spawn(posComp, ordersComp.With(queue))
	if err != nil {
		t.Fatal(err)
	}
	idle, err := f.world.Spawn(posComp, ordersComp)
	if err != nil {
		t.Fatal(err)
	}

	var handled []Entity
	f.sched.AddSystem(NewCommandSystem("orders", ordersComp, func(cx *Context, e Entity, cmd moveOrder) error {
		posComp.GetFromEntity(cx.World, e).X += cmd.DX
		handled = append(handled, e)
		return nil
	}))

	if err := f.tick(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if got := posComp.GetFromEntity(f.world, unit).X; got != 3 {
		t.Errorf("Unit moved to %v, want 3", got)
	}
	if len(handled) != 2 || handled[0] != unit {
		t.Errorf("Handled %v", handled)
	}
	if ordersComp.GetFromEntity(f.world, unit).Len() != 0 {
		t.Error("Queue not drained")
	}
	if posComp.GetFromEntity(f.world, idle).X != 0 {
		t.Error("Idle unit moved")
	}
}

func TestCommandSystemError(t *testing.T) {
	f := newTickFixture(SchedulerConfig{})
	queue := NewCommandQueue[moveOrder](2)
	queue.Enqueue(moveOrder{DX: 1}, moveOrder{DX: 2})
	if _, err := f.world.Spawn(ordersComp.With(queue)); err != nil {
		t.Fatal(err)
	}

	blocked := errors.New("path blocked")
	f.sched.AddSystem(NewCommandSystem("orders", ordersComp, func(cx *Context, e Entity, cmd moveOrder) error {
		return blocked
	}))

	err := f.tick(time.Millisecond)
	if !errors.Is(err, blocked) {
		t.Fatalf("Run error = %v, want %v", err, blocked)
	}
	if f.world.Locked() {
		t.Error("Failed command system left the world locked")
	}
}
