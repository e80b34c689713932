package player

import (
	"image"
	"sync"
)

// Status is the load state of one frame.
type Status int

const (
	Unloaded Status = iota
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unloaded"
}

type frameSlot struct {
	status Status
	img    image.Image
}

// frameStore is the only state shared with decoder goroutines.
type frameStore struct {
	mu      sync.Mutex
	idle    *sync.Cond
	slots   []frameSlot
	loaded  int
	settled int
	pending int // claimed, not yet settled
	closed  bool
}

func newFrameStore(n int) *frameStore {
	s := &frameStore{slots: make([]frameSlot, n)}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// claim marks an unloaded frame as loading. It returns false when the
// frame was already requested, has failed, or the store is closed.
func (s *frameStore) claim(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || i < 0 || i >= len(s.slots) || s.slots[i].status != Unloaded {
		return false
	}
	s.slots[i].status = Loading
	s.pending++
	return true
}

// settle records the outcome of a claimed load. Results arriving after
// close are dropped and reported with ok == false.
func (s *frameStore) settle(i int, img image.Image, err error) (loaded, settled int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending > 0 {
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
	}
	if s.closed || i < 0 || i >= len(s.slots) || s.slots[i].status != Loading {
		return s.loaded, s.settled, false
	}
	if err != nil || img == nil {
		s.slots[i].status = Failed
	} else {
		s.slots[i] = frameSlot{status: Loaded, img: img}
		s.loaded++
	}
	s.settled++
	return s.loaded, s.settled, true
}

func (s *frameStore) get(i int) (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) || s.slots[i].status != Loaded {
		return nil, false
	}
	return s.slots[i].img, true
}

func (s *frameStore) status(i int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return Unloaded
	}
	return s.slots[i].status
}

// wait blocks until no claimed load is outstanding, whoever claimed it,
// or the store is closed.
func (s *frameStore) wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending > 0 && !s.closed {
		s.idle.Wait()
	}
}

func (s *frameStore) loadedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// close releases every decoded image. The store stays closed.
func (s *frameStore) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.slots = nil
	s.idle.Broadcast()
}
