package player

import (
	"context"
	"errors"
	"math"

	"github.com/ivlev/forestscroll/internal/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// priorityFrames are loaded before anything else so the first paint is
// never blank.
func priorityFrames(total int) []int {
	if total <= 0 {
		return nil
	}
	seen := make(map[int]bool, 3)
	var out []int
	for _, i := range []int{0, total / 2, total - 1} {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}

// preload loads the priority frames, paints frame 0 once they are in, then loads
// all remaining frames. Every load settles on its own; a failure never
// stops the batch. Frames claimed by the loop after the first paint count
// too: preload returns only once nothing is in flight.
func (p *Player) preload(ctx context.Context) error {
	priority := priorityFrames(p.total)
	if err := p.loadBatch(ctx, priority); err != nil {
		return err
	}
	p.loop.Post(func() {
		p.live = true
		if !p.destroyed && !p.started {
			p.render()
		}
	})

	isPriority := make(map[int]bool, len(priority))
	for _, i := range priority {
		isPriority[i] = true
	}
	rest := make([]int, 0, p.total)
	for i := 0; i < p.total; i++ {
		if !isPriority[i] {
			rest = append(rest, i)
		}
	}
	if err := p.loadBatch(ctx, rest); err != nil {
		return err
	}
	p.store.wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	loaded := p.store.loadedCount()
	p.log.WithFields(logrus.Fields{
		"loaded": loaded,
		"total":  p.total,
	}).Info("[*] frame preload settled")
	p.loop.Post(func() {
		if !p.destroyed && p.onLoad != nil {
			p.onLoad()
		}
	})
	return nil
}

func (p *Player) loadBatch(ctx context.Context, indices []int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, i := range indices {
		if !p.store.claim(i) {
			continue
		}
		g.Go(func() error {
			p.load(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// preloadAhead requests the next PreloadCount frames after idx without
// waiting for them.
func (p *Player) preloadAhead(idx int) {
	if p.store == nil {
		return
	}
	for i := idx + 1; i <= idx+p.cfg.PreloadCount && i < p.total; i++ {
		p.requestLoad(i)
	}
}

// requestLoad is a no-op until the preload has handed over to the loop.
func (p *Player) requestLoad(i int) {
	if !p.live || !p.store.claim(i) {
		return
	}
	go p.load(p.ctx, i)
}

// load decodes frame i into the store and reports progress on the loop.
// It runs on its own goroutine.
func (p *Player) load(ctx context.Context, i int) {
	img, err := p.src.Load(ctx, i)
	loaded, settled, ok := p.store.settle(i, img, err)
	if !ok {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		p.log.WithFields(logrus.Fields{
			"frame": i,
			"path":  p.framePath(i),
		}).WithError(err).Warn("[!] frame failed to load")
	}

	total := p.total
	percent := int(math.Round(float64(settled) / float64(total) * 100))
	p.loop.Post(func() {
		if !p.destroyed && p.onProgress != nil {
			p.onProgress(percent, loaded, total)
		}
	})
}

func (p *Player) framePath(i int) string {
	if f, ok := p.src.(*source.Files); ok {
		return source.FramePath(p.cfg.ImagePath, p.cfg.ImagePrefix, i, f.Format())
	}
	return source.FramePath(p.cfg.ImagePath, p.cfg.ImagePrefix, i, p.cfg.ImageFormat)
}
