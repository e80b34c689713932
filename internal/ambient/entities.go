package ambient

import (
	"math"
	"math/rand/v2"
)

type ParticleKind int

const (
	Speck ParticleKind = iota
	Leaf
)

// leafShare is the fraction of particles drawn as leaves.
const leafShare = 0.3

// Particle drifts across the overlay. Depth in [0,1] scales its speed,
// size and opacity: closer particles are faster and more opaque.
type Particle struct {
	Kind     ParticleKind
	X, Y     float64
	VX, VY   float64
	Size     float64
	Opacity  float64
	Rotation float64
	Spin     float64
	Depth    float64
}

// Sparkle is a golden twinkling point. Phase drives the twinkle.
type Sparkle struct {
	X, Y    float64
	VX, VY  float64
	Size    float64
	Phase   float64
	Twinkle float64
	Depth   float64
}

func newParticle(rng *rand.Rand, w, h, speed float64) Particle {
	depth := rng.Float64()
	scale := 0.5 + depth
	p := Particle{
		X:        rng.Float64() * w,
		Y:        rng.Float64() * h,
		Depth:    depth,
		Rotation: rng.Float64() * 2 * math.Pi,
		Spin:     (rng.Float64() - 0.5) * 0.04,
		Opacity:  (0.2 + rng.Float64()*0.5) * (0.4 + 0.6*depth),
	}
	if rng.Float64() < leafShare {
		p.Kind = Leaf
		p.Size = (3 + rng.Float64()*5) * scale
		p.VX = (rng.Float64() - 0.5) * speed * scale
		p.VY = (0.2 + rng.Float64()*0.5) * speed * scale
	} else {
		p.Kind = Speck
		p.Size = (1 + rng.Float64()*2) * scale
		p.VX = (rng.Float64() - 0.5) * 0.6 * speed * scale
		p.VY = -(0.05 + rng.Float64()*0.3) * speed * scale
	}
	return p
}

func newSparkle(rng *rand.Rand, w, h, speed float64) Sparkle {
	depth := rng.Float64()
	return Sparkle{
		X:       rng.Float64() * w,
		Y:       rng.Float64() * h,
		VX:      (rng.Float64() - 0.5) * 0.3 * speed,
		VY:      -(0.1 + rng.Float64()*0.3) * speed,
		Size:    (1 + rng.Float64()*2) * (0.6 + 0.4*depth),
		Phase:   rng.Float64() * 2 * math.Pi,
		Twinkle: 0.02 + rng.Float64()*0.04,
		Depth:   depth,
	}
}

// wrap moves a point that left the w×h area by more than margin onto the
// opposite edge, back inside the visible area. Vertical exits also get a
// fresh horizontal position.
func wrap(rng *rand.Rand, x, y, w, h, margin float64) (float64, float64) {
	switch {
	case y > h+margin:
		y = 0
		x = rng.Float64() * w
	case y < -margin:
		y = h
		x = rng.Float64() * w
	}
	switch {
	case x > w+margin:
		x = 0
	case x < -margin:
		x = w
	}
	return x, y
}

func (o *Overlay) updateParticles(dt, w, h float64) {
	m := o.multiplier * dt
	for i := range o.particles {
		p := &o.particles[i]
		p.X += p.VX * m
		p.Y += p.VY * m
		p.Rotation += p.Spin * dt
		p.X, p.Y = wrap(o.rng, p.X, p.Y, w, h, o.cfg.WrapMargin)
	}
}

func (o *Overlay) updateSparkles(dt, w, h float64) {
	m := o.multiplier * dt
	for i := range o.sparkles {
		s := &o.sparkles[i]
		s.Phase += s.Twinkle * dt * o.multiplier
		s.X += s.VX * m
		s.Y += s.VY * m
		s.X, s.Y = wrap(o.rng, s.X, s.Y, w, h, o.cfg.WrapMargin)
	}
}
