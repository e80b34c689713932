package host

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Held arrow keys repeat after repeatDelay ticks, every repeatInterval.
const (
	repeatDelay    = 24
	repeatInterval = 3
)

func repeating(ticks int) bool {
	if ticks == 1 {
		return true
	}
	return ticks >= repeatDelay && (ticks-repeatDelay)%repeatInterval == 0
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.quit = true
		return
	}

	step := g.cfg.Window.WheelStep
	if _, dy := ebiten.Wheel(); dy != 0 {
		g.vp.ScrollBy(-dy * step)
	}
	if repeating(inpututil.KeyPressDuration(ebiten.KeyArrowDown)) {
		g.vp.ScrollBy(step)
	}
	if repeating(inpututil.KeyPressDuration(ebiten.KeyArrowUp)) {
		g.vp.ScrollBy(-step)
	}

	page := g.vp.Height() * 0.9
	tween := g.cfg.Window.PageTween
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		g.vp.Glide(g.vp.Destination()+page, tween)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		g.vp.Glide(g.vp.Destination()-page, tween)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		g.vp.Glide(0, tween*2)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		g.vp.Glide(g.vp.ScrollExtent(), tween*2)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}
}

func (g *Game) togglePause() {
	p := g.journey.Player
	if p.Paused() {
		p.Resume()
		g.log.Info("[*] resumed")
	} else {
		p.Pause()
		g.log.Info("[*] paused")
	}
}
