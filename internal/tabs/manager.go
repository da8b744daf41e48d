package tabs

import (
	"context"
	"slices"
	"time"

	"pkt.systems/pslog"

	"github.com/jask/riskdesk/internal/artifact"
)

// ScrollRequest asks the tab strip to move. ToEnd wins over ID.
type ScrollRequest struct {
	ToEnd bool
	ID    string
}

// Manager owns the tab state and turns reducer effects into callbacks. It is
// not safe for concurrent use; the UI drives it from its update loop.
type Manager struct {
	state    State
	now      func() time.Time
	log      pslog.Logger
	onChange func(*Tab)

	pending []*Tab
	scroll  []ScrollRequest
}

type Option func(*Manager)

// WithClock replaces time.Now, mostly for the debounce in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.state.Debounce = d }
}

func WithPolicy(p PublishPolicy) Option {
	return func(m *Manager) { m.state.Policy = p }
}

func WithLogger(l pslog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithOnTabChange sets the callback fired whenever the visible content
// changes. A nil tab means there is nothing to show.
func WithOnTabChange(fn func(*Tab)) Option {
	return func(m *Manager) { m.onChange = fn }
}

// WithTabs starts the manager from existing tabs, e.g. ones captured earlier
// with State. New tab ids continue after the highest id in ts.
func WithTabs(ts []Tab, activeID string) Option {
	return func(m *Manager) {
		m.state.Tabs = slices.Clone(ts)
		m.state.ActiveID = ""
		if m.state.Index(activeID) >= 0 {
			m.state.ActiveID = activeID
		}
		next := 1
		for _, t := range ts {
			if n, ok := tabNumber(t.ID); ok && n >= next {
				next = n + 1
			}
		}
		m.state.NextID = next
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		state: State{NextID: 1, Debounce: DefaultDebounce, Policy: PolicyRouteBlank},
		now:   time.Now,
		log:   pslog.Ctx(context.Background()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetOnTabChange replaces the change callback.
func (m *Manager) SetOnTabChange(fn func(*Tab)) {
	m.onChange = fn
}

// State returns a snapshot of the current state.
func (m *Manager) State() State {
	s := m.state
	s.Tabs = slices.Clone(s.Tabs)
	return s
}

func (m *Manager) Tabs() []Tab {
	return slices.Clone(m.state.Tabs)
}

func (m *Manager) ActiveID() string {
	return m.state.ActiveID
}

func (m *Manager) ActiveTab() (Tab, bool) {
	return m.state.Active()
}

func (m *Manager) CanGoBack() (bool, bool) {
	return m.state.CanGoBack()
}

func (m *Manager) CanGoForward() (bool, bool) {
	return m.state.CanGoForward()
}

func (m *Manager) Len() int {
	return len(m.state.Tabs)
}

// Publish handles an artifact published by the workspace. It reports whether
// the publication was accepted.
func (m *Manager) Publish(a artifact.Artifact) bool {
	eff := m.dispatch(ArtifactPublished{Artifact: a, At: m.now()})
	if eff.Dropped {
		m.log.Trace("artifact publication debounced", "artifact", a.ID)
	}
	return eff.Changed
}

// NewBlankTab opens and activates a blank tab.
func (m *Manager) NewBlankTab() Tab {
	m.dispatch(BlankTabCreated{})
	t, _ := m.state.Active()
	return t
}

// UpdateActiveContent navigates the active tab to a unless it is locked.
func (m *Manager) UpdateActiveContent(a artifact.Artifact) bool {
	return m.dispatch(ActiveContentUpdated{Artifact: a}).Changed
}

// Navigate steps the active tab's history. The notification is deferred until
// Flush.
func (m *Manager) Navigate(dir Direction) bool {
	return m.dispatch(HistoryNavigated{Direction: dir}).Changed
}

func (m *Manager) Back() bool    { return m.Navigate(Back) }
func (m *Manager) Forward() bool { return m.Navigate(Forward) }

func (m *Manager) Remove(id string) bool {
	return m.dispatch(TabRemoved{ID: id}).Changed
}

// RemoveActive closes the active tab, if any.
func (m *Manager) RemoveActive() bool {
	return m.Remove(m.state.ActiveID)
}

func (m *Manager) Move(from, to int) bool {
	return m.dispatch(TabMoved{From: from, To: to}).Changed
}

// MoveActive shifts the active tab by delta positions.
func (m *Manager) MoveActive(delta int) bool {
	from := m.state.Index(m.state.ActiveID)
	if from < 0 {
		return false
	}
	return m.Move(from, from+delta)
}

func (m *Manager) Select(id string) bool {
	return m.dispatch(TabSelected{ID: id}).Changed
}

func (m *Manager) Next() bool {
	return m.dispatch(NextTab{}).Changed
}

func (m *Manager) Previous() bool {
	return m.dispatch(PreviousTab{}).Changed
}

func (m *Manager) Duplicate(id string) bool {
	return m.dispatch(TabDuplicated{ID: id}).Changed
}

// HasPending reports whether deferred notifications wait for Flush.
func (m *Manager) HasPending() bool {
	return len(m.pending) > 0
}

// Flush delivers deferred notifications in the order they were queued.
func (m *Manager) Flush() {
	pending := m.pending
	m.pending = nil
	for _, t := range pending {
		m.notify(t)
	}
}

// DrainScroll returns and clears the queued scroll requests.
func (m *Manager) DrainScroll() []ScrollRequest {
	out := m.scroll
	m.scroll = nil
	return out
}

func (m *Manager) dispatch(a Action) Effects {
	next, eff := Reduce(m.state, a)
	m.state = next
	if !eff.Changed {
		return eff
	}
	m.log.Debug("tab action", "action", actionName(a), "active", m.state.ActiveID, "tabs", len(m.state.Tabs))
	switch {
	case eff.ScrollToEnd:
		m.scroll = append(m.scroll, ScrollRequest{ToEnd: true})
	case eff.ScrollIntoID != "":
		m.scroll = append(m.scroll, ScrollRequest{ID: eff.ScrollIntoID})
	}
	if eff.Notify {
		if eff.Deferred {
			m.pending = append(m.pending, eff.Tab)
		} else {
			m.notify(eff.Tab)
		}
	}
	return eff
}

func (m *Manager) notify(t *Tab) {
	if m.onChange == nil {
		return
	}
	if t != nil {
		cp := *t
		t = &cp
	}
	m.onChange(t)
}

func actionName(a Action) string {
	switch a.(type) {
	case ArtifactPublished:
		return "artifact_published"
	case BlankTabCreated:
		return "blank_tab_created"
	case ActiveContentUpdated:
		return "active_content_updated"
	case HistoryNavigated:
		return "history_navigated"
	case TabRemoved:
		return "tab_removed"
	case TabMoved:
		return "tab_moved"
	case TabSelected:
		return "tab_selected"
	case NextTab:
		return "next_tab"
	case PreviousTab:
		return "previous_tab"
	case TabDuplicated:
		return "tab_duplicated"
	default:
		return "unknown"
	}
}
