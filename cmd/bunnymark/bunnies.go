package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/TheBitDrifter/cadence"
	"github.com/TheBitDrifter/cadence/input"
)

type Bunny struct{}

// Position is in unit space, both axes within [-0.75, 0.75]
type Position struct {
	X, Y float64
}

type BunnyCount struct {
	Count int
}

const extent = 0.75

var (
	bunnyComp    = cadence.FactoryNewComponent[Bunny]()
	positionComp = cadence.FactoryNewComponent[Position]()
)

func randomPosition() Position {
	return Position{
		X: rand.Float64()*2*extent - extent,
		Y: rand.Float64()*2*extent - extent,
	}
}

func bunnyComponents(ttl time.Duration) []cadence.Component {
	comps := []cadence.Component{
		bunnyComp,
		positionComp.With(randomPosition()),
	}
	if ttl > 0 {
		comps = append(comps, cadence.LifeSpanComponent.With(cadence.NewLifeSpan(ttl)))
	}
	return comps
}

// scatter gives every bunny its own random position, batch spawns share one value
func scatter(w *cadence.World) {
	cursor := w.Query(w.NewQuery().And(bunnyComp, positionComp))
	for cursor.Next() {
		*positionComp.GetFromCursor(cursor) = randomPosition()
	}
}

// fallSystem moves every bunny down one unit per second, wrapping at the bottom
func fallSystem(cx *cadence.Context) error {
	dy := cx.Clock.Delta.Seconds()
	query := cx.World.NewQuery()
	cursor := cx.World.Query(query.And(bunnyComp, positionComp))
	for cursor.Next() {
		pos := positionComp.GetFromCursor(cursor)
		pos.Y -= dy
		if pos.Y <= -extent {
			pos.Y += 2 * extent
		}
	}
	return nil
}

func newSpawnSystem(ttl time.Duration) cadence.System {
	return cadence.NewSystem("spawn", func(cx *cadence.Context) error {
		cadence.With(cx.Res, func() BunnyCount { return BunnyCount{} }).Count++
		cx.Commands.Spawn(bunnyComponents(ttl)...)
		return nil
	})
}

func newCountSystem(report func(count, alive int)) cadence.System {
	sys := cadence.NewSystem("count", func(cx *cadence.Context) error {
		count := cadence.Query1(cx.Res, cadence.ReadOpt[BunnyCount]())
		if count != nil {
			report(count.Count, cx.World.Len())
		}
		return nil
	})
	return cadence.Declare(sys, cadence.AccessSet{
		Resources: []cadence.Access{cadence.ReadsResource[BunnyCount]()},
	})
}

// newRenderSystem draws bunnies into the terminal, scaled to the Viewport resource
func newRenderSystem(screen tcell.Screen) cadence.System {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	status := tcell.StyleDefault.Reverse(true)
	return cadence.NewSystem("render", func(cx *cadence.Context) error {
		vp, meter, count := cadence.Query3(cx.Res,
			cadence.ReadOpt[input.Viewport](),
			cadence.ReadOpt[cadence.FpsMeter](),
			cadence.ReadOpt[BunnyCount](),
		)
		width, height := screen.Size()
		if vp != nil {
			width, height = vp.Width, vp.Height
		}
		if width <= 0 || height <= 1 {
			return nil
		}

		screen.Clear()
		cursor := cx.World.Query(cx.World.NewQuery().And(bunnyComp, positionComp))
		for cursor.Next() {
			pos := positionComp.GetFromCursor(cursor)
			x := int((pos.X + extent) / (2 * extent) * float64(width-1))
			y := int((extent - pos.Y) / (2 * extent) * float64(height-2))
			screen.SetContent(x, y+1, '*', nil, style)
		}

		line := fmt.Sprintf(" bunnies: %d  alive: %d  fps: %.1f  (esc to quit) ", countOf(count), cx.World.Len(), fpsOf(meter))
		for i, r := range line {
			if i >= width {
				break
			}
			screen.SetContent(i, 0, r, nil, status)
		}
		screen.Show()
		return nil
	})
}

func countOf(c *BunnyCount) int {
	if c == nil {
		return 0
	}
	return c.Count
}

func fpsOf(m *cadence.FpsMeter) float64 {
	if m == nil {
		return 0
	}
	return m.FPS()
}
