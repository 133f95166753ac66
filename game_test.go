package cadence

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"
)

func newTestGame(t *testing.T) (*Game[string], *ManualTimeSource) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TeardownTimeout = time.Second
	g := NewGame[string](cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	source := NewManualTimeSource(time.Unix(0, 0))
	g.Clock = NewClockWithSource(source)
	return g, source
}

func TestGameStep(t *testing.T) {
	g, source := newTestGame(t)
	doomed, err := g.World.Spawn(LifeSpanComponent.With(NewLifeSpan(30 * time.Millisecond)))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		source.Advance(20 * time.Millisecond)
		if err := g.Step(context.Background()); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}
	if g.World.Alive(doomed) {
		t.Error("Built-in lifespan system did not despawn the entity")
	}
	meter := Expect[FpsMeter](g.Res)
	if fps := meter.FPS(); math.Abs(fps-50) > 0.001 {
		t.Errorf("FPS = %v, want 50", fps)
	}
}

func TestGameRunStopsOnExit(t *testing.T) {
	g, source := newTestGame(t)
	g.Funnel = FunnelFunc[string](func(w *World, res *Res, ev string) (string, bool) {
		if ev == "quit" {
			Insert(res, Exit{})
			return ev, false
		}
		return ev, true
	})

	var tornDown []string
	g.OnTeardown(func(ctx context.Context) error {
		tornDown = append(tornDown, "first")
		return nil
	})
	g.OnTeardown(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Teardown context has no deadline")
		}
		tornDown = append(tornDown, "second")
		return nil
	})

	steps := 0
	g.Scheduler.AddSystem(NewSystem("driver", func(cx *Context) error {
		steps++
		source.Advance(time.Millisecond)
		return nil
	}))

	events := make(chan string, 4)
	events <- "jump"
	events <- "quit"
	if err := g.Run(context.Background(), events); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if steps != 0 {
		t.Errorf("Game stepped %d times after the exit event", steps)
	}
	queued := GetMut[CommandQueue[string]](g.Res)
	if queued == nil || queued.Len() != 1 {
		t.Fatal("Unswallowed event was not queued")
	}
	for ev := range queued.All() {
		if ev != "jump" {
			t.Errorf("Queued event %q, want jump", ev)
		}
	}
	if strings.Join(tornDown, ",") != "second,first" {
		t.Errorf("Teardown order = %v", tornDown)
	}
}

func TestGameRunPropagatesSystemError(t *testing.T) {
	g, _ := newTestGame(t)
	broken := errors.New("device lost")
	g.Scheduler.AddSystem(NewSystem("render", func(cx *Context) error { return broken }))
	teardownErr := errors.New("flush failed")
	g.OnTeardown(func(ctx context.Context) error { return teardownErr })

	err := g.Run(context.Background(), nil)
	var sysErr *SystemError
	if !errors.As(err, &sysErr) || sysErr.System != "render" {
		t.Fatalf("Run() = %v, want a render SystemError", err)
	}
	if !errors.Is(err, broken) || !errors.Is(err, teardownErr) {
		t.Errorf("Run() = %v, want both the system and teardown errors", err)
	}
}

func TestGameRunStopsOnCancel(t *testing.T) {
	g, _ := newTestGame(t)
	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	g.Scheduler.AddSystem(NewSystem("canceller", func(cx *Context) error {
		steps++
		if steps == 3 {
			cancel()
		}
		return nil
	}))

	if err := g.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if steps != 3 {
		t.Errorf("Stepped %d times, want 3", steps)
	}
}

func TestGameRunPacesHeadlessLoop(t *testing.T) {
	g, _ := newTestGame(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	const frames = 5
	var stamps []time.Time
	g.Scheduler.AddSystem(NewSystem("pacer", func(cx *Context) error {
		stamps = append(stamps, time.Now())
		if len(stamps) == frames {
			cancel()
		}
		return nil
	}))

	if err := g.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < eventPoll {
			t.Errorf("Frames %d and %d were %v apart, want at least %v", i-1, i, gap, eventPoll)
		}
	}
}

func TestFpsMeterWindow(t *testing.T) {
	m := NewFpsMeter(time.Second)
	if m.FPS() != 0 {
		t.Errorf("Empty meter FPS = %v", m.FPS())
	}
	m.AddFrameTime(0)
	if m.FPS() != 0 {
		t.Errorf("Zero-length window FPS = %v", m.FPS())
	}

	m = NewFpsMeter(time.Second)
	for i := 0; i < 200; i++ {
		m.AddFrameTime(10 * time.Millisecond)
	}
	if len(m.frames) != 100 {
		t.Errorf("Window holds %d frames, want 100", len(m.frames))
	}
	if fps := m.FPS(); math.Abs(fps-100) > 0.001 {
		t.Errorf("FPS = %v, want 100", fps)
	}
}

func TestFpsSystemLogs(t *testing.T) {
	var logs bytes.Buffer
	f := newTickFixture(SchedulerConfig{})
	meter := NewFpsMeter(time.Second)
	meter.AddFrameTime(20 * time.Millisecond)
	Insert(f.res, meter)
	f.sched.AddFixedSystem(NewFpsSystem(slog.New(slog.NewTextHandler(&logs, nil))), time.Second)

	if err := f.tick(time.Second); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "fps=50") {
		t.Errorf("Missing fps log line, got %q", logs.String())
	}
}
