// Command bunnymark stresses the scheduler by spawning a bunny every fixed step
// and letting every bunny fall each frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/profile"

	"github.com/TheBitDrifter/cadence"
	"github.com/TheBitDrifter/cadence/input"
)

type options struct {
	config   string
	profile  string
	logFile  string
	headless bool
	start    int
	spawn    time.Duration
	ttl      time.Duration
	duration time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "path to a Cadence.toml (searched for when empty)")
	flag.StringVar(&opts.profile, "profile", "", "write a cpu or mem profile to the working directory")
	flag.StringVar(&opts.logFile, "log", "", "log file (stderr when headless, discarded otherwise)")
	flag.BoolVar(&opts.headless, "headless", false, "run without a terminal screen")
	flag.IntVar(&opts.start, "start", 100_000, "bunnies spawned before the first tick")
	flag.DurationVar(&opts.spawn, "spawn", time.Millisecond, "fixed step of the spawn system")
	flag.DurationVar(&opts.ttl, "ttl", 0, "lifespan of spawned bunnies, 0 lives forever")
	flag.DurationVar(&opts.duration, "duration", 0, "stop after this long, 0 runs until exit")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "bunnymark:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", opts.profile)
	}

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(opts.config, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	game := cadence.NewGame[tcell.Event](cfg, logger)
	if _, err := game.World.SpawnBatch(opts.start, bunnyComponents(opts.ttl)...); err != nil {
		return fmt.Errorf("spawning initial bunnies: %w", err)
	}
	scatter(game.World)
	cadence.Insert(game.Res, BunnyCount{Count: opts.start})

	game.Scheduler.AddSystem(cadence.Declare(
		cadence.NewSystem("fall", fallSystem),
		cadence.AccessSet{Components: []cadence.Access{cadence.WritesComponent[Position]()}},
	))
	game.Scheduler.AddFixedSystem(newSpawnSystem(opts.ttl), opts.spawn)
	game.Scheduler.AddFixedSystem(newCountSystem(func(count, alive int) {
		logger.Info("bunnies", "spawned", count, "alive", alive)
	}), time.Second)

	var events chan tcell.Event
	if !opts.headless {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("creating screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("initializing screen: %w", err)
		}
		game.OnTeardown(func(context.Context) error {
			screen.Fini()
			return nil
		})
		width, height := screen.Size()
		cadence.Insert(game.Res, input.Viewport{Width: width, Height: height})

		events = make(chan tcell.Event, 64)
		go input.PollEvents(ctx, screen, events)
		game.Funnel = input.DefaultFunnel()
		game.Scheduler.AddSystem(newRenderSystem(screen))
	}

	err = game.Run(ctx, events)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return err
}

func newLogger(opts options) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closer = func() { _ = f.Close() }
	case !opts.headless:
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, nil)), closer, nil
}

func loadConfig(path string, logger *slog.Logger) (cadence.Config, error) {
	if path != "" {
		return cadence.LoadConfig(path)
	}
	return cadence.LoadDefaultConfig(logger), nil
}
