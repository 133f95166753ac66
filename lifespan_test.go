package cadence

import (
	"testing"
	"time"
)

func TestLifeSpanTruncate(t *testing.T) {
	ls := NewLifeSpan(5 * time.Second)
	ls.Truncate(10 * time.Second)
	if ls.Left != 5*time.Second {
		t.Errorf("Truncate grew the span to %v", ls.Left)
	}
	ls.Truncate(time.Second)
	if ls.Left != time.Second {
		t.Errorf("Truncate left %v, want 1s", ls.Left)
	}
}

func TestLifeSpanSystem(t *testing.T) {
	f := newTickFixture(SchedulerConfig{MainStep: 10 * time.Millisecond})
	f.sched.AddTickingSystem(LifeSpanSystem{})

	short, err := f.world.Spawn(LifeSpanComponent.With(NewLifeSpan(15 * time.Millisecond)))
	if err != nil {
		t.Fatal(err)
	}
	long, err := f.world.Spawn(posComp, LifeSpanComponent.With(NewLifeSpan(time.Second)))
	if err != nil {
		t.Fatal(err)
	}
	immortal, err := f.world.Spawn(posComp)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.tick(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if !f.world.Alive(short) {
		t.Fatal("Entity despawned before its span ran out")
	}
	if left := LifeSpanComponent.GetFromEntity(f.world, short).Left; left != 5*time.Millisecond {
		t.Errorf("Left = %v, want 5ms", left)
	}

	if err := f.tick(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if f.world.Alive(short) {
		t.Error("Expired entity still alive")
	}
	if !f.world.Alive(long) || !f.world.Alive(immortal) {
		t.Error("Unexpired entities were despawned")
	}
	if left := LifeSpanComponent.GetFromEntity(f.world, long).Left; left != 980*time.Millisecond {
		t.Errorf("Long span left = %v, want 980ms", left)
	}
}
