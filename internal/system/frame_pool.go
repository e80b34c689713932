package system

import (
	"image"
	"sync/atomic"
)

// FramePool recycles the composite buffers of one export. Every buffer has
// the stage's output rectangle; at most keep idle buffers are retained.
type FramePool struct {
	rect      image.Rectangle
	free      chan *image.RGBA
	allocated atomic.Int64
	reused    atomic.Int64
}

func NewFramePool(rect image.Rectangle, keep int) *FramePool {
	return &FramePool{rect: rect, free: make(chan *image.RGBA, max(keep, 1))}
}

// Get returns an idle buffer or a new one. Its contents are whatever the
// previous user left, so the caller must overwrite every pixel.
func (p *FramePool) Get() *image.RGBA {
	select {
	case img := <-p.free:
		p.reused.Add(1)
		return img
	default:
		p.allocated.Add(1)
		return image.NewRGBA(p.rect)
	}
}

// Put hands img back. Buffers of another size, and buffers beyond the
// idle limit, are left to the garbage collector.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil || img.Rect != p.rect {
		return
	}
	select {
	case p.free <- img:
	default:
	}
}

// Allocated is the number of buffers created so far.
func (p *FramePool) Allocated() int { return int(p.allocated.Load()) }

// Reused is the number of Get calls served from idle buffers.
func (p *FramePool) Reused() int { return int(p.reused.Load()) }
