// Package journey wires the frame player and the ambient overlay to one
// viewport and keeps the overlay in step with the player's progress.
package journey

import (
	"context"
	"time"

	"github.com/ivlev/forestscroll/internal/ambient"
	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/player"
	"github.com/ivlev/forestscroll/internal/stage"
	"github.com/ivlev/forestscroll/internal/viewport"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Player  []player.Option
	Ambient []ambient.Option
	// DisableAmbient leaves the overlay out, e.g. for frame-only exports.
	DisableAmbient bool
	Log            logrus.FieldLogger
}

// Journey owns a player and an optional overlay. Apart from Start, its
// methods run on the loop goroutine.
type Journey struct {
	Player  *player.Player
	Overlay *ambient.Overlay

	loop      *loop.Loop
	log       logrus.FieldLogger
	frame     loop.Handle
	destroyed bool
}

// New builds both components. The overlay is created right away and starts
// drawing; the player waits for Start.
func New(st stage.Stage, vp viewport.Viewport, lp *loop.Loop, cfg config.App, opts Options) (*Journey, error) {
	log := opts.Log
	if log == nil {
		log = logger.Log
	}

	p, err := player.New(st, vp, lp, cfg.Player, append([]player.Option{player.WithLogger(log)}, opts.Player...)...)
	if err != nil {
		return nil, err
	}

	j := &Journey{Player: p, loop: lp, log: log}
	if !opts.DisableAmbient {
		o, err := ambient.New(st, vp, lp, cfg.Ambient, append([]ambient.Option{ambient.WithLogger(log)}, opts.Ambient...)...)
		if err != nil {
			p.Destroy()
			return nil, err
		}
		j.Overlay = o
	}

	j.frame = lp.RequestFrame(j.sync)
	return j, nil
}

// Prepare runs the player's viewport-dependent setup on the loop goroutine.
func (j *Journey) Prepare() {
	j.Player.Prepare()
}

// Start initializes the player and blocks until its preload has settled.
func (j *Journey) Start(ctx context.Context) error {
	started := time.Now()
	if err := j.Player.Init(ctx); err != nil {
		return err
	}
	j.log.WithField("took", time.Since(started).Round(time.Millisecond)).Info("[*] journey preloaded")
	return nil
}

func (j *Journey) sync(time.Time) {
	j.frame = 0
	if j.destroyed {
		return
	}
	if j.Overlay != nil {
		j.Overlay.UpdateProgress(j.Player.Progress())
	}
	j.frame = j.loop.RequestFrame(j.sync)
}

func (j *Journey) Destroy() {
	if j.destroyed {
		return
	}
	j.destroyed = true
	if j.frame != 0 {
		j.loop.CancelFrame(j.frame)
		j.frame = 0
	}
	if j.Overlay != nil {
		j.Overlay.Destroy()
	}
	j.Player.Destroy()
}
