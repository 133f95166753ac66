package cadence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// Exit stops Game.Run once it is present in Res
type Exit struct{}

// TeardownFunc releases a subsystem when the game stops. ctx expires after Config.TeardownTimeout.
type TeardownFunc func(ctx context.Context) error

// eventPoll is how long Run waits for the first event of a frame
const eventPoll = time.Millisecond

// Game owns one session: its world, resources, scheduler and clock.
// Events of type E pass through Funnel; those that survive are queued in the CommandQueue[E] resource.
type Game[E any] struct {
	World     *World
	Res       *Res
	Scheduler *Scheduler
	Clock     *Clock
	Funnel    Funnel[E]
	Logger    *slog.Logger
	Config    Config

	teardown []TeardownFunc
}

// NewGame wires a session with the lifespan and FPS systems installed
func NewGame[E any](cfg Config, logger *slog.Logger) *Game[E] {
	if logger == nil {
		logger = bark.For("game")
	}
	g := &Game[E]{
		World:     Factory.NewWorld(table.Factory.NewSchema()),
		Res:       Factory.NewRes(),
		Scheduler: NewScheduler(cfg.SchedulerConfig(logger)),
		Clock:     NewClock(),
		Logger:    logger,
		Config:    cfg,
	}
	Insert(g.Res, NewFpsMeter(time.Second))
	g.Scheduler.AddTickingSystem(LifeSpanSystem{})
	g.Scheduler.AddFixedSystem(NewFpsSystem(logger), time.Second)
	return g
}

// OnTeardown registers fn to run when Run returns. Hooks run in reverse registration order.
func (g *Game[E]) OnTeardown(fn TeardownFunc) {
	g.teardown = append(g.teardown, fn)
}

// Step advances the clock and runs one tick
func (g *Game[E]) Step(ctx context.Context) error {
	clock := g.Clock.Advance()
	if meter := GetMut[FpsMeter](g.Res); meter != nil {
		meter.AddFrameTime(clock.Delta)
	}
	return g.Scheduler.Run(ctx, g.World, g.Res, clock)
}

// Dispatch filters one event and queues it for systems unless a funnel swallowed it
func (g *Game[E]) Dispatch(event E) {
	if g.Funnel != nil {
		var ok bool
		if event, ok = g.Funnel.Filter(g.World, g.Res, event); !ok {
			return
		}
	}
	With(g.Res, func() CommandQueue[E] { return NewCommandQueue[E](16) }).Add(event)
}

// Run drives the session until Exit is inserted or ctx is done. A nil events channel is allowed.
// Frames are at least eventPoll apart when no event arrives.
// Teardown hooks always run before Run returns.
func (g *Game[E]) Run(ctx context.Context, events <-chan E) (err error) {
	defer func() {
		err = errors.Join(err, g.runTeardown())
	}()

	poll := time.NewTimer(eventPoll)
	defer poll.Stop()

	for {
		events = g.drain(ctx, events, poll)
		if Has[Exit](g.Res) {
			g.Logger.Info("exit requested")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.Step(ctx); err != nil {
			return fmt.Errorf("game step failed: %w", err)
		}
	}
}

// drain dispatches pending events, waiting up to eventPoll for the first one.
// Without an event source it still waits eventPoll, so a headless loop never steps faster than that.
// It returns nil once the channel is closed.
func (g *Game[E]) drain(ctx context.Context, events <-chan E, poll *time.Timer) <-chan E {
	poll.Reset(eventPoll)
	if events == nil {
		select {
		case <-poll.C:
		case <-ctx.Done():
		}
		return nil
	}
	select {
	case ev, ok := <-events:
		if !ok {
			return nil
		}
		g.Dispatch(ev)
	case <-poll.C:
		return events
	case <-ctx.Done():
		return events
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			g.Dispatch(ev)
		default:
			return events
		}
	}
}

func (g *Game[E]) runTeardown() error {
	if len(g.teardown) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), g.Config.TeardownTimeout)
	defer cancel()

	var errs []error
	for i := len(g.teardown) - 1; i >= 0; i-- {
		if err := g.teardown[i](ctx); err != nil {
			g.Logger.Error("teardown failed", "error", err)
			errs = append(errs, err)
		}
	}
	g.teardown = nil
	return errors.Join(errs...)
}

// FpsMeter averages frame rate over a sliding time window
type FpsMeter struct {
	frames []time.Duration
	total  time.Duration
	window time.Duration
}

func NewFpsMeter(window time.Duration) FpsMeter {
	return FpsMeter{window: window}
}

func (m *FpsMeter) AddFrameTime(span time.Duration) {
	m.frames = append(m.frames, span)
	m.total += span
	drop := 0
	for m.total > m.window && drop < len(m.frames) {
		m.total -= m.frames[drop]
		drop++
	}
	if drop > 0 {
		m.frames = append(m.frames[:0], m.frames[drop:]...)
	}
}

func (m *FpsMeter) FPS() float64 {
	if len(m.frames) == 0 || m.total <= 0 {
		return 0
	}
	return float64(len(m.frames)) / m.total.Seconds()
}

// NewFpsSystem logs the frame rate held in the FpsMeter resource
func NewFpsSystem(logger *slog.Logger) System {
	sys := NewSystem("Fps", func(cx *Context) error {
		meter := Query1(cx.Res, ReadOpt[FpsMeter]())
		if meter == nil {
			return nil
		}
		logger.Info("frame rate", "fps", meter.FPS())
		return nil
	})
	return Declare(sys, AccessSet{Resources: []Access{ReadsResource[FpsMeter]()}})
}
