package physics

import "log/slog"

// TempArena is a fixed-size scratch allocator for data that lives only for the
// duration of one step. Reset rewinds it; nothing allocated from it may be
// retained past the step that allocated it.
type TempArena struct {
	buf      []float64
	used     int
	overflow int // allocations served from the heap since the last Reset
	warned   bool
}

// NewTempArena creates an arena of the given size in bytes.
func NewTempArena(bytes int) *TempArena {
	n := bytes / 8
	if n < 1 {
		n = 1
	}
	return &TempArena{buf: make([]float64, n)}
}

// Alloc returns a zeroed slice of n floats. When the arena is exhausted the
// slice comes from the heap and the overflow is counted.
func (a *TempArena) Alloc(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if a.used+n > len(a.buf) {
		a.overflow++
		if !a.warned {
			slog.Warn("temp arena exhausted, falling back to heap",
				"capacity_floats", len(a.buf),
				"requested", n,
			)
			a.warned = true
		}
		return make([]float64, n)
	}
	s := a.buf[a.used : a.used+n : a.used+n]
	clear(s)
	a.used += n
	return s
}

// Reset rewinds the arena for the next step.
func (a *TempArena) Reset() {
	a.used = 0
	a.overflow = 0
}

// Used returns the number of floats handed out since the last Reset.
func (a *TempArena) Used() int {
	return a.used
}

// Capacity returns the arena size in floats.
func (a *TempArena) Capacity() int {
	return len(a.buf)
}

// Overflow returns the number of heap fallbacks since the last Reset.
func (a *TempArena) Overflow() int {
	return a.overflow
}
