package components

// History is a bounded ring of recent positions.
type History struct {
	buf   []Position
	start int
	n     int
}

// NewHistory creates a history holding up to size positions.
func NewHistory(size int) History {
	if size < 1 {
		size = 1
	}
	return History{buf: make([]Position, size)}
}

// Cap returns the window size.
func (h *History) Cap() int { return len(h.buf) }

// Len returns the number of stored positions.
func (h *History) Len() int { return h.n }

// Full reports whether the window is full.
func (h *History) Full() bool { return h.n == len(h.buf) }

// Push appends p, dropping the oldest position when full.
func (h *History) Push(p Position) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = p
		h.n++
		return
	}
	h.buf[h.start] = p
	h.start = (h.start + 1) % len(h.buf)
}

// Oldest returns the oldest stored position.
func (h *History) Oldest() Position { return h.buf[h.start] }

// Newest returns the newest stored position.
func (h *History) Newest() Position { return h.buf[(h.start+h.n-1)%len(h.buf)] }

// Displacement returns the distance between the oldest and newest positions.
func (h *History) Displacement() float64 {
	if h.n == 0 {
		return 0
	}
	return h.Oldest().Dist(h.Newest())
}
