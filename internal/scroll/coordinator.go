// Package scroll keeps the artifact tab strip's horizontal viewport in step
// with the active tab. Offsets move towards their target on a spring so the
// strip glides instead of jumping.
package scroll

import (
	"context"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"pkt.systems/pslog"
)

const (
	DefaultFPS = 60

	angularFrequency = 12.0
	damping          = 1.0
	settleThreshold  = 0.5
)

// Item is one cell of the strip in render order.
type Item struct {
	ID    string
	Width int
}

// ScrollToEndMsg asks the coordinator to scroll to the last cell. It is sent
// as a command so it lands after the update that inserted the cell.
type ScrollToEndMsg struct{}

// ScrollIntoViewMsg asks the coordinator to reveal the cell with ID.
type ScrollIntoViewMsg struct {
	ID string
}

// FrameMsg advances a running animation by one frame.
type FrameMsg struct {
	tag int
}

// ScrollToEnd returns the deferred scroll-to-end command.
func ScrollToEnd() tea.Cmd {
	return func() tea.Msg { return ScrollToEndMsg{} }
}

// ScrollIntoView returns a command revealing the cell with id.
func ScrollIntoView(id string) tea.Cmd {
	return func() tea.Msg { return ScrollIntoViewMsg{ID: id} }
}

// Coordinator tracks the strip geometry and the animated offset.
type Coordinator struct {
	items    []Item
	viewport int

	offset   float64
	velocity float64
	target   float64

	fps       int
	spring    harmonica.Spring
	animating bool
	tag       int
	log       pslog.Logger
}

func New(fps int, logger pslog.Logger) *Coordinator {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Coordinator{
		fps:    fps,
		spring: harmonica.NewSpring(harmonica.FPS(fps), angularFrequency, damping),
		log:    logger,
	}
}

// SetLayout replaces the strip geometry. Offsets beyond the new maximum are
// pulled back.
func (c *Coordinator) SetLayout(items []Item, viewport int) {
	c.items = append(c.items[:0], items...)
	c.viewport = max(0, viewport)
	limit := float64(c.MaxOffset())
	c.target = clamp(c.target, 0, limit)
	c.offset = clamp(c.offset, 0, limit)
}

func (c *Coordinator) Viewport() int { return c.viewport }

// ContentWidth is the summed width of every cell.
func (c *Coordinator) ContentWidth() int {
	total := 0
	for _, it := range c.items {
		total += it.Width
	}
	return total
}

func (c *Coordinator) MaxOffset() int {
	return max(0, c.ContentWidth()-c.viewport)
}

// Offset is the current rendered offset in cells.
func (c *Coordinator) Offset() int {
	return int(math.Round(c.offset))
}

func (c *Coordinator) Target() int {
	return int(math.Round(c.target))
}

func (c *Coordinator) Animating() bool { return c.animating }

// bounds returns the start and end column of the cell with id.
func (c *Coordinator) bounds(id string) (int, int, bool) {
	pos := 0
	for _, it := range c.items {
		if it.ID == id {
			return pos, pos + it.Width, true
		}
		pos += it.Width
	}
	return 0, 0, false
}

// ItemAt returns the cell under column x of the viewport and the column
// within that cell.
func (c *Coordinator) ItemAt(x int) (string, int, bool) {
	if x < 0 || x >= c.viewport {
		return "", 0, false
	}
	col := c.Offset() + x
	pos := 0
	for _, it := range c.items {
		if col < pos+it.Width {
			return it.ID, col - pos, true
		}
		pos += it.Width
	}
	return "", 0, false
}

// RevealTarget sets the target so the whole cell is visible, moving as little
// as possible. It reports whether the target changed.
func (c *Coordinator) RevealTarget(id string) bool {
	start, end, ok := c.bounds(id)
	if !ok || c.viewport == 0 {
		return false
	}
	target := c.target
	switch {
	case float64(start) < target:
		target = float64(start)
	case float64(end) > target+float64(c.viewport):
		target = float64(end - c.viewport)
		if end-start > c.viewport {
			target = float64(start)
		}
	default:
		return false
	}
	return c.setTarget(target)
}

// EndTarget sets the target to the maximum offset.
func (c *Coordinator) EndTarget() bool {
	return c.setTarget(float64(c.MaxOffset()))
}

func (c *Coordinator) setTarget(v float64) bool {
	v = clamp(v, 0, float64(c.MaxOffset()))
	if v == c.target && v == c.offset {
		return false
	}
	c.target = v
	return true
}

// Step advances the spring one frame and reports whether it is still moving.
func (c *Coordinator) Step() bool {
	c.offset, c.velocity = c.spring.Update(c.offset, c.velocity, c.target)
	if math.Abs(c.offset-c.target) < settleThreshold && math.Abs(c.velocity) < settleThreshold {
		c.offset = c.target
		c.velocity = 0
		c.animating = false
	}
	return c.animating
}

// Settle jumps straight to the target.
func (c *Coordinator) Settle() {
	c.offset = c.target
	c.velocity = 0
	c.animating = false
}

// Update handles scroll messages and returns the next frame tick while the
// offset is moving.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ScrollToEndMsg:
		if c.EndTarget() {
			c.log.Trace("tab strip scroll to end", "target", c.Target())
			return c.start()
		}
	case ScrollIntoViewMsg:
		if c.RevealTarget(msg.ID) {
			c.log.Trace("tab strip scroll into view", "tab", msg.ID, "target", c.Target())
			return c.start()
		}
	case FrameMsg:
		if msg.tag != c.tag || !c.animating {
			return nil
		}
		if c.Step() {
			return c.tick()
		}
	}
	return nil
}

func (c *Coordinator) start() tea.Cmd {
	if c.animating {
		return nil
	}
	c.animating = true
	c.tag++
	return c.tick()
}

func (c *Coordinator) tick() tea.Cmd {
	tag := c.tag
	return tea.Tick(time.Second/time.Duration(c.fps), func(time.Time) tea.Msg {
		return FrameMsg{tag: tag}
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
