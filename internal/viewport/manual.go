package viewport

// Manual is a Viewport driven by explicit calls. The export command and the
// tests use it; the ebiten host embeds one and feeds it from input.
type Manual struct {
	width, height float64
	pixelRatio    float64
	scrollY       float64
	docHeight     float64

	nextID int
	scroll map[int]func()
	resize map[int]func()
	order  []int
}

// NewManual creates a viewport of w×h logical pixels over a document
// docHeight pixels tall.
func NewManual(w, h, pixelRatio, docHeight float64) *Manual {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	return &Manual{
		width:      w,
		height:     h,
		pixelRatio: pixelRatio,
		docHeight:  docHeight,
		scroll:     make(map[int]func()),
		resize:     make(map[int]func()),
	}
}

func (m *Manual) Width() float64      { return m.width }
func (m *Manual) Height() float64     { return m.height }
func (m *Manual) PixelRatio() float64 { return m.pixelRatio }
func (m *Manual) ScrollY() float64    { return m.scrollY }
func (m *Manual) DocHeight() float64  { return m.docHeight }

func (m *Manual) ScrollExtent() float64 {
	if extent := m.docHeight - m.height; extent > 0 {
		return extent
	}
	return 0
}

// ScrollTo moves the scroll offset, clamped to the extent, and notifies
// scroll listeners when it changed.
func (m *Manual) ScrollTo(y float64) {
	if y < 0 {
		y = 0
	}
	if extent := m.ScrollExtent(); y > extent {
		y = extent
	}
	if y == m.scrollY {
		return
	}
	m.scrollY = y
	m.notify(m.scroll)
}

func (m *Manual) ScrollBy(dy float64) {
	m.ScrollTo(m.scrollY + dy)
}

// ScrollToProgress scrolls to p of the extent.
func (m *Manual) ScrollToProgress(p float64) {
	m.ScrollTo(Clamp01(p) * m.ScrollExtent())
}

// Resize changes the layout size. The document keeps its height in
// viewport units, so the scroll position is rescaled to keep progress.
func (m *Manual) Resize(w, h, pixelRatio float64) {
	if w == m.width && h == m.height && pixelRatio == m.pixelRatio {
		return
	}
	progress := Progress(m)
	if m.height > 0 {
		m.docHeight *= h / m.height
	}
	m.width, m.height = w, h
	if pixelRatio > 0 {
		m.pixelRatio = pixelRatio
	}
	m.scrollY = progress * m.ScrollExtent()
	m.notify(m.resize)
}

func (m *Manual) OnScroll(fn func()) func() {
	return m.subscribe(m.scroll, fn)
}

func (m *Manual) OnResize(fn func()) func() {
	return m.subscribe(m.resize, fn)
}

// Listeners reports how many scroll and resize listeners are attached.
func (m *Manual) Listeners() (scroll, resize int) {
	return len(m.scroll), len(m.resize)
}

func (m *Manual) subscribe(set map[int]func(), fn func()) func() {
	m.nextID++
	id := m.nextID
	set[id] = fn
	m.order = append(m.order, id)
	return func() { delete(set, id) }
}

func (m *Manual) notify(set map[int]func()) {
	for _, id := range m.order {
		if fn, ok := set[id]; ok {
			fn()
		}
	}
}
