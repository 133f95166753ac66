package cadence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheBitDrifter/bark"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMainStep is the step of ticking systems when none is configured
	DefaultMainStep = 20 * time.Millisecond
	// DefaultMaxCatchUp bounds the fixed-step iterations a registration may run in one tick
	DefaultMaxCatchUp = 8

	tracerName = "github.com/TheBitDrifter/cadence"
)

// Phase names the part of a tick a system runs in
type Phase uint8

const (
	PhaseTicking Phase = iota
	PhaseFixed
	PhaseFrame
)

func (p Phase) String() string {
	switch p {
	case PhaseTicking:
		return "ticking"
	case PhaseFixed:
		return "fixed"
	case PhaseFrame:
		return "frame"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

type SchedulerConfig struct {
	// MainStep is the step shared by ticking systems. Zero means DefaultMainStep.
	MainStep time.Duration
	// MaxCatchUp caps fixed-step iterations per registration per tick.
	// Zero means DefaultMaxCatchUp, a negative value disables the cap.
	MaxCatchUp int
	// Logger defaults to the bark "scheduler" logger
	Logger *slog.Logger
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

type fixedSystem struct {
	sys  System
	step time.Duration
	acc  time.Duration
}

type registration struct {
	phase Phase
	sys   System
	step  time.Duration
}

// Scheduler runs systems once per host frame.
// Each Run executes ticking systems, then fixed-step systems, then frame systems, each group
// in registration order, then flushes queued world commands and resets the scope.
type Scheduler struct {
	mainStep   time.Duration
	maxCatchUp int
	logger     *slog.Logger
	tracer     trace.Tracer

	ticking []System
	tickAcc time.Duration
	fixed   []*fixedSystem
	frame   []System

	names   Cache[System]
	running bool
	pending []registration
	scope   *Scope
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.MainStep <= 0 {
		cfg.MainStep = DefaultMainStep
	}
	if cfg.MaxCatchUp == 0 {
		cfg.MaxCatchUp = DefaultMaxCatchUp
	}
	if cfg.Logger == nil {
		cfg.Logger = bark.For("scheduler")
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	return &Scheduler{
		mainStep:   cfg.MainStep,
		maxCatchUp: cfg.MaxCatchUp,
		logger:     cfg.Logger,
		tracer:     cfg.TracerProvider.Tracer(tracerName),
		names:      FactoryNewCache[System](0),
		scope:      newScope(),
	}
}

// MainStep returns the step of ticking systems
func (s *Scheduler) MainStep() time.Duration {
	return s.mainStep
}

// Scope returns the per-tick arena lent to systems
func (s *Scheduler) Scope() *Scope {
	return s.scope
}

// AddSystem registers a system that runs once per Run with the real frame delta
func (s *Scheduler) AddSystem(sys System) {
	s.register(registration{phase: PhaseFrame, sys: sys})
}

// AddFixedSystem registers a system that runs once per elapsed step
func (s *Scheduler) AddFixedSystem(sys System, step time.Duration) {
	if step <= 0 {
		panic(fmt.Sprintf("fixed system %q: step must be positive, got %v", sys.Name(), step))
	}
	s.register(registration{phase: PhaseFixed, sys: sys, step: step})
}

// AddTickingSystem registers a system stepped at the main step.
// Ticking systems share one accumulator and run as a group before any fixed system.
func (s *Scheduler) AddTickingSystem(sys System) {
	s.register(registration{phase: PhaseTicking, sys: sys, step: s.mainStep})
}

func (s *Scheduler) register(r registration) {
	name := r.sys.Name()
	if _, exists := s.names.GetIndex(name); exists {
		panic(DuplicateSystemError{Name: name})
	}
	if _, err := s.names.Register(name, r.sys); err != nil {
		panic(err)
	}
	if s.running {
		s.pending = append(s.pending, r)
		return
	}
	s.install(r)
}

func (s *Scheduler) install(r registration) {
	switch r.phase {
	case PhaseTicking:
		s.ticking = append(s.ticking, r.sys)
	case PhaseFixed:
		s.fixed = append(s.fixed, &fixedSystem{sys: r.sys, step: r.step})
	case PhaseFrame:
		s.frame = append(s.frame, r.sys)
	}
}

func (s *Scheduler) installPending() {
	for _, r := range s.pending {
		s.install(r)
	}
	clear(s.pending)
	s.pending = s.pending[:0]
}

// Lookup finds a registered system by name, including ones whose registration is still deferred
func (s *Scheduler) Lookup(name string) (System, bool) {
	idx, ok := s.names.GetIndex(name)
	if !ok {
		return nil, false
	}
	return *s.names.GetItem(idx), true
}

// Accumulated returns the time a stepped system has banked towards its next run
func (s *Scheduler) Accumulated(name string) (time.Duration, bool) {
	for _, sys := range s.ticking {
		if sys.Name() == name {
			return s.tickAcc, true
		}
	}
	for _, f := range s.fixed {
		if f.sys.Name() == name {
			return f.acc, true
		}
	}
	return 0, false
}

// Systems lists installed systems in execution order
func (s *Scheduler) Systems() []System {
	out := make([]System, 0, len(s.ticking)+len(s.fixed)+len(s.frame))
	out = append(out, s.ticking...)
	for _, f := range s.fixed {
		out = append(out, f.sys)
	}
	return append(out, s.frame...)
}

// Batches groups consecutive frame systems whose declared accesses do not conflict.
// A system without a declaration gets a batch of its own.
func (s *Scheduler) Batches() [][]System {
	var batches [][]System
	var current []System
	var sets []AccessSet
	for _, sys := range s.frame {
		set, declared := accessOf(sys)
		fits := declared && len(current) > 0
		for _, other := range sets {
			if !fits {
				break
			}
			fits = !set.Conflicts(other)
		}
		if !fits && len(current) > 0 {
			batches = append(batches, current)
			current, sets = nil, nil
		}
		current = append(current, sys)
		if !declared {
			batches = append(batches, current)
			current, sets = nil, nil
			continue
		}
		sets = append(sets, set)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// Run executes one tick against w and res. clock is the reading produced by Clock.Advance.
// The world is locked while systems run, so structural changes must go through Commands;
// they are applied in queue order once every system has succeeded.
// If a system fails, the remaining systems are skipped, the tick's commands are discarded and
// a *SystemError is returned.
func (s *Scheduler) Run(ctx context.Context, w *World, res *Res, clock ClockIndex) error {
	ctx, span := s.tracer.Start(ctx, "cadence.tick")
	defer span.End()

	w.AddLock(TickLock)
	s.running = true
	committed := false
	defer func() {
		if !committed {
			w.Discard()
			_ = w.RemoveLock(TickLock)
		}
		s.running = false
		s.installPending()
		s.scope.Reset()
	}()

	cx := &Context{
		Ctx:       ctx,
		World:     w,
		Res:       res,
		Scope:     s.scope,
		Commands:  w.Commands(),
		Scheduler: s,
	}
	if err := s.runPhases(cx, clock); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	committed = true
	if err := w.RemoveLock(TickLock); err != nil {
		err = fmt.Errorf("failed to flush commands: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Scheduler) runPhases(cx *Context, clock ClockIndex) error {
	// Bank the whole frame up front so a failing system never starves the ones after it
	if len(s.ticking) > 0 {
		s.bank(&s.tickAcc, s.mainStep, clock.Delta, "ticking")
	}
	for _, f := range s.fixed {
		s.bank(&f.acc, f.step, clock.Delta, f.sys.Name())
	}

	if len(s.ticking) > 0 {
		base := stepBase(clock, s.tickAcc)
		for i := 1; s.tickAcc >= s.mainStep; i++ {
			step := ClockIndex{Delta: s.mainStep, Now: base.Add(time.Duration(i) * s.mainStep)}
			for _, sys := range s.ticking {
				if err := s.runSystem(cx, sys, PhaseTicking, step); err != nil {
					return err
				}
			}
			s.tickAcc -= s.mainStep
		}
	}

	for _, f := range s.fixed {
		base := stepBase(clock, f.acc)
		for i := 1; f.acc >= f.step; i++ {
			step := ClockIndex{Delta: f.step, Now: base.Add(time.Duration(i) * f.step)}
			if err := s.runSystem(cx, f.sys, PhaseFixed, step); err != nil {
				return err
			}
			f.acc -= f.step
		}
	}

	for _, sys := range s.frame {
		if err := s.runSystem(cx, sys, PhaseFrame, clock); err != nil {
			return err
		}
	}
	return nil
}

// bank adds delta to acc and drops whole steps beyond maxCatchUp, keeping the fraction.
// A step leaves acc only once it has run successfully.
func (s *Scheduler) bank(acc *time.Duration, step, delta time.Duration, name string) {
	*acc += delta
	n := int(*acc / step)
	if s.maxCatchUp > 0 && n > s.maxCatchUp {
		dropped := n - s.maxCatchUp
		*acc -= time.Duration(dropped) * step
		s.logger.Debug("dropping fixed-step backlog",
			"system", name,
			"steps", s.maxCatchUp,
			"dropped", dropped,
		)
	}
}

// stepBase is the instant the first banked step starts from, never before Origin.
// A banked remainder can outlive a Clock restart.
func stepBase(clock ClockIndex, acc time.Duration) TimeStamp {
	if clock.Now.Duration() <= acc {
		return Origin
	}
	return clock.Now.Add(-acc)
}

func (s *Scheduler) runSystem(cx *Context, sys System, phase Phase, clock ClockIndex) error {
	name := sys.Name()
	ctx, span := s.tracer.Start(cx.Ctx, "cadence.system", trace.WithAttributes(
		attribute.String("cadence.system", name),
		attribute.String("cadence.phase", phase.String()),
	))
	defer span.End()

	run := *cx
	run.Ctx = ctx
	run.Clock = clock
	if err := sys.Run(&run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		traced, _ := bark.GetTrace(bark.AddTrace(err))
		return &SystemError{System: name, Phase: phase, Err: err, Trace: traced}
	}
	return nil
}
