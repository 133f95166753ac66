// Package input feeds terminal events from tcell into a cadence game
package input

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/TheBitDrifter/cadence"
)

// Viewport is the terminal size in cells, kept current by ResizeFunnel
type Viewport struct {
	Width, Height int
}

// KeyPress is one key event reduced to what gameplay systems read
type KeyPress struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// KeyQueue is the resource KeyQueueFunnel fills
type KeyQueue = cadence.CommandQueue[KeyPress]

// ExitFunnel swallows Esc and Ctrl-C and inserts cadence.Exit
var ExitFunnel = cadence.FunnelFunc[tcell.Event](func(w *cadence.World, res *cadence.Res, ev tcell.Event) (tcell.Event, bool) {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return ev, true
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		cadence.Insert(res, cadence.Exit{})
		return ev, false
	}
	return ev, true
})

// ResizeFunnel records the terminal size in the Viewport resource and lets the event through
var ResizeFunnel = cadence.FunnelFunc[tcell.Event](func(w *cadence.World, res *cadence.Res, ev tcell.Event) (tcell.Event, bool) {
	if resize, ok := ev.(*tcell.EventResize); ok {
		width, height := resize.Size()
		cadence.Insert(res, Viewport{Width: width, Height: height})
	}
	return ev, true
})

// KeyQueueFunnel moves key events into the KeyQueue resource
var KeyQueueFunnel = cadence.FunnelFunc[tcell.Event](func(w *cadence.World, res *cadence.Res, ev tcell.Event) (tcell.Event, bool) {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return ev, true
	}
	queue := cadence.With(res, func() KeyQueue { return cadence.NewCommandQueue[KeyPress](32) })
	queue.Add(KeyPress{Key: key.Key(), Rune: key.Rune(), Mod: key.Modifiers()})
	return ev, false
})

// DefaultFunnel chains exit handling, viewport tracking and key queueing
func DefaultFunnel() cadence.Chain[tcell.Event] {
	return cadence.Chain[tcell.Event]{ExitFunnel, ResizeFunnel, KeyQueueFunnel}
}

// PollEvents forwards screen events to events until ctx is done or the screen is finalized
func PollEvents(ctx context.Context, screen tcell.Screen, events chan<- tcell.Event) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
