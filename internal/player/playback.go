package player

import (
	"math"

	"github.com/ivlev/forestscroll/internal/easing"
	"github.com/ivlev/forestscroll/internal/viewport"
)

// TargetFrame maps scroll progress to a frame position in [0, total-1].
func TargetFrame(progress float64, total int) float64 {
	if total <= 1 {
		return 0
	}
	return easing.InOutCubic(viewport.Clamp01(progress)) * float64(total-1)
}

// updateScroll samples the viewport once per frame: it sets the target,
// picks the spring constant from the scroll delta and preloads ahead of a
// new target index.
func (p *Player) updateScroll() {
	if p.destroyed {
		return
	}
	y := p.vp.ScrollY()
	delta := math.Abs(y - p.lastScrollY)
	p.lastScrollY = y

	if delta > p.cfg.VelocityThreshold {
		p.smoothing = p.cfg.FastSmoothing
	} else {
		p.smoothing = p.cfg.Smoothing
	}

	p.state.Target = TargetFrame(viewport.Progress(p.vp), p.total)

	if idx := int(p.state.Target); idx != p.lastTargetIndex {
		p.lastTargetIndex = idx
		p.preloadAhead(idx)
	}
}

// step advances the spring by one frame. Once the velocity is negligible
// and the position is within half a frame, it snaps to the nearest whole
// frame and rests there until the rounded target moves.
func (p *Player) step() {
	s := &p.state
	rounded := math.Round(s.Target)
	if s.Velocity == 0 && s.Current == rounded {
		return
	}

	s.Velocity += (s.Target - s.Current) * p.smoothing
	s.Velocity *= p.cfg.Damping
	s.Current += s.Velocity

	last := float64(p.total - 1)
	if s.Current < 0 {
		s.Current = 0
	} else if s.Current > last {
		s.Current = last
	}

	if math.Abs(s.Velocity) < p.cfg.SnapThreshold && math.Abs(s.Target-s.Current) < 0.5 {
		s.Current = rounded
		s.Velocity = 0
	}
}
