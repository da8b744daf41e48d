package panel

import (
	"sync"
)

// ArtifactWidthKey is the layout entry the panel owns.
const ArtifactWidthKey = "artifact-width"

// Length is either a fixed number of cells or a percentage of the available
// width. Percent wins when both are set.
type Length struct {
	Cells   int
	Percent int
}

// Resolve converts l to cells for a total width.
func (l Length) Resolve(total int) int {
	if total <= 0 {
		return 0
	}
	n := l.Cells
	if l.Percent > 0 {
		n = total * l.Percent / 100
	}
	return min(max(n, 0), total)
}

// IsZero reports whether l takes no room at all.
func (l Length) IsZero() bool {
	return l.Cells == 0 && l.Percent == 0
}

// Layout is shared layout state. The main area reads the panel width from it
// so it can shrink while the panel is open. The zero value is ready to use.
type Layout struct {
	mu      sync.RWMutex
	entries map[string]Length
}

func NewLayout() *Layout {
	return &Layout{entries: map[string]Length{}}
}

func (l *Layout) Set(key string, v Length) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries == nil {
		l.entries = map[string]Length{}
	}
	l.entries[key] = v
}

func (l *Layout) Get(key string) (Length, bool) {
	if l == nil {
		return Length{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.entries[key]
	return v, ok
}

func (l *Layout) Clear(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}
