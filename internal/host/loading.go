package host

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const loadingFade = 0.6 // seconds

// loadingScreen shows preload progress and fades out once the player is
// drawing.
type loadingScreen struct {
	percent       int
	loaded, total int
	alpha         float64
	fade          *gween.Tween
}

func newLoadingScreen() *loadingScreen {
	return &loadingScreen{alpha: 1}
}

func (l *loadingScreen) progress(percent, loaded, total int) {
	// Reports can arrive out of order.
	if percent > l.percent {
		l.percent = percent
	}
	l.loaded, l.total = max(l.loaded, loaded), total
}

func (l *loadingScreen) ready() {
	if l.fade == nil {
		l.fade = gween.New(float32(l.alpha), 0, loadingFade, ease.OutQuad)
	}
}

func (l *loadingScreen) update(dt float64) {
	if l.fade == nil {
		return
	}
	a, done := l.fade.Update(float32(dt))
	l.alpha = float64(a)
	if done {
		l.alpha = 0
	}
}

func (l *loadingScreen) visible() bool { return l.alpha > 0 }

func (l *loadingScreen) draw(screen *ebiten.Image) {
	if !l.visible() {
		return
	}
	b := screen.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	barW, barH := w*0.4, float32(6)
	x, y := (w-barW)/2, h*0.5

	a := uint8(l.alpha * 255)
	vector.DrawFilledRect(screen, 0, 0, w, h, color.NRGBA{A: uint8(l.alpha * 200)}, false)
	vector.DrawFilledRect(screen, x, y, barW, barH, color.NRGBA{R: 40, G: 60, B: 45, A: a}, false)
	fill := barW * float32(l.percent) / 100
	vector.DrawFilledRect(screen, x, y, fill, barH, color.NRGBA{R: 255, G: 200, B: 150, A: a}, true)

	if l.alpha > 0.5 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Entering the forest... %d%% (%d/%d)", l.percent, l.loaded, l.total), int(x), int(y)+12)
	}
}
