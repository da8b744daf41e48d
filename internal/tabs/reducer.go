package tabs

import (
	"slices"
	"time"

	"github.com/jask/riskdesk/internal/artifact"
)

// DefaultDebounce is the window in which a second publication of the same
// artifact id is dropped.
const DefaultDebounce = 100 * time.Millisecond

// PublishPolicy decides where a published artifact goes.
type PublishPolicy string

const (
	// PolicyRouteBlank converts the active tab when it is blank and opens a
	// new tab otherwise.
	PolicyRouteBlank PublishPolicy = "route-blank"
	// PolicyAlwaysNew opens a new tab for every publication.
	PolicyAlwaysNew PublishPolicy = "always-new"
)

// ParsePolicy maps a config value to a policy, defaulting to route-blank.
func ParsePolicy(v string) PublishPolicy {
	if PublishPolicy(v) == PolicyAlwaysNew {
		return PolicyAlwaysNew
	}
	return PolicyRouteBlank
}

// Publication remembers the last accepted publication for the debounce.
type Publication struct {
	ID string
	At time.Time
}

// State is the whole tab collection. The zero value is an empty panel.
type State struct {
	Tabs     []Tab
	ActiveID string
	// NextID is the number the next created tab gets; zero means one.
	NextID        int
	LastPublished *Publication
	Debounce      time.Duration
	Policy        PublishPolicy
}

// Index returns the position of the tab with id, or -1.
func (s State) Index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.Tabs, func(t Tab) bool { return t.ID == id })
}

// Active returns the active tab.
func (s State) Active() (Tab, bool) {
	idx := s.Index(s.ActiveID)
	if idx < 0 {
		return Tab{}, false
	}
	return s.Tabs[idx], true
}

// CanGoBack reports whether the active tab can step back. ok is false when
// there is no active tab.
func (s State) CanGoBack() (can, ok bool) {
	t, ok := s.Active()
	if !ok {
		return false, false
	}
	return t.CanGoBack(), true
}

// CanGoForward reports whether the active tab can step forward. ok is false
// when there is no active tab.
func (s State) CanGoForward() (can, ok bool) {
	t, ok := s.Active()
	if !ok {
		return false, false
	}
	return t.CanGoForward(), true
}

func (s *State) allocID() string {
	if s.NextID < 1 {
		s.NextID = 1
	}
	id := tabID(s.NextID)
	s.NextID++
	return id
}

func (s State) debounce() time.Duration {
	if s.Debounce <= 0 {
		return DefaultDebounce
	}
	return s.Debounce
}

// Action is a discrete tab event.
type Action interface {
	isAction()
}

type (
	ArtifactPublished struct {
		Artifact artifact.Artifact
		At       time.Time
	}
	BlankTabCreated      struct{}
	ActiveContentUpdated struct {
		Artifact artifact.Artifact
	}
	HistoryNavigated struct {
		Direction Direction
	}
	TabRemoved struct {
		ID string
	}
	TabMoved struct {
		From, To int
	}
	TabSelected struct {
		ID string
	}
	NextTab       struct{}
	PreviousTab   struct{}
	TabDuplicated struct {
		ID string
	}
)

func (ArtifactPublished) isAction()    {}
func (BlankTabCreated) isAction()      {}
func (ActiveContentUpdated) isAction() {}
func (HistoryNavigated) isAction()     {}
func (TabRemoved) isAction()           {}
func (TabMoved) isAction()             {}
func (TabSelected) isAction()          {}
func (NextTab) isAction()              {}
func (PreviousTab) isAction()          {}
func (TabDuplicated) isAction()        {}

// Effects describe what the host must do after a transition.
type Effects struct {
	// Notify asks for OnTabChange with Tab; a nil Tab means no content.
	Notify bool
	Tab    *Tab
	// Deferred notifications run after the current update pass.
	Deferred     bool
	ScrollToEnd  bool
	ScrollIntoID string
	// Changed is false when the action was a no-op.
	Changed bool
	// Dropped is set when a publication was swallowed by the debounce.
	Dropped bool
}

func notifyTab(t Tab) Effects {
	return Effects{Notify: true, Tab: &t, Changed: true}
}

// Reduce applies a to s. It never panics; invalid ids and indices leave the
// state unchanged.
func Reduce(s State, a Action) (State, Effects) {
	switch a := a.(type) {
	case ArtifactPublished:
		return reducePublished(s, a)
	case BlankTabCreated:
		return reduceBlank(s)
	case ActiveContentUpdated:
		return reduceUpdateActive(s, a.Artifact)
	case HistoryNavigated:
		return reduceNavigate(s, a.Direction)
	case TabRemoved:
		return reduceRemove(s, a.ID)
	case TabMoved:
		return reduceMove(s, a.From, a.To)
	case TabSelected:
		return reduceSelect(s, a.ID)
	case NextTab:
		return reduceCycle(s, 1)
	case PreviousTab:
		return reduceCycle(s, -1)
	case TabDuplicated:
		return reduceDuplicate(s, a.ID)
	default:
		return s, Effects{}
	}
}

func reducePublished(s State, a ArtifactPublished) (State, Effects) {
	if last := s.LastPublished; last != nil && last.ID == a.Artifact.ID && a.At.Sub(last.At) < s.debounce() {
		return s, Effects{Dropped: true}
	}
	s.LastPublished = &Publication{ID: a.Artifact.ID, At: a.At}

	if s.Policy != PolicyAlwaysNew {
		if idx := s.Index(s.ActiveID); idx >= 0 && s.Tabs[idx].Blank {
			s.Tabs = slices.Clone(s.Tabs)
			s.Tabs[idx] = UpdateContent(s.Tabs[idx], a.Artifact)
			eff := notifyTab(s.Tabs[idx])
			eff.ScrollIntoID = s.Tabs[idx].ID
			return s, eff
		}
	}

	tab := NewBoundTab(s.allocID(), a.Artifact)
	s.Tabs = append(slices.Clone(s.Tabs), tab)
	s.ActiveID = tab.ID
	eff := notifyTab(tab)
	eff.ScrollToEnd = true
	return s, eff
}

func reduceBlank(s State) (State, Effects) {
	tab := NewBlankTab(s.allocID())
	s.Tabs = append(slices.Clone(s.Tabs), tab)
	s.ActiveID = tab.ID
	eff := notifyTab(tab)
	eff.ScrollToEnd = true
	return s, eff
}

func reduceUpdateActive(s State, a artifact.Artifact) (State, Effects) {
	idx := s.Index(s.ActiveID)
	if idx < 0 || s.Tabs[idx].Locked {
		return s, Effects{}
	}
	s.Tabs = slices.Clone(s.Tabs)
	s.Tabs[idx] = UpdateContent(s.Tabs[idx], a)
	return s, notifyTab(s.Tabs[idx])
}

func reduceNavigate(s State, dir Direction) (State, Effects) {
	idx := s.Index(s.ActiveID)
	if idx < 0 {
		return s, Effects{}
	}
	next, ok := s.Tabs[idx].Step(dir)
	if !ok {
		return s, Effects{}
	}
	s.Tabs = slices.Clone(s.Tabs)
	s.Tabs[idx] = next
	eff := notifyTab(next)
	eff.Deferred = true
	return s, eff
}

func reduceRemove(s State, id string) (State, Effects) {
	idx := s.Index(id)
	if idx < 0 {
		return s, Effects{}
	}
	remaining := slices.Delete(slices.Clone(s.Tabs), idx, idx+1)
	if len(remaining) == 0 {
		s.Tabs = nil
		s.ActiveID = ""
		return s, Effects{Notify: true, Changed: true}
	}
	s.Tabs = remaining
	if s.ActiveID != id {
		return s, Effects{Changed: true}
	}
	next := idx
	if next >= len(remaining) {
		next = idx - 1
	}
	s.ActiveID = remaining[next].ID
	eff := notifyTab(remaining[next])
	eff.ScrollIntoID = remaining[next].ID
	return s, eff
}

func reduceMove(s State, from, to int) (State, Effects) {
	n := len(s.Tabs)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return s, Effects{}
	}
	tabs := slices.Clone(s.Tabs)
	moved := tabs[from]
	tabs = slices.Delete(tabs, from, from+1)
	tabs = slices.Insert(tabs, to, moved)
	s.Tabs = tabs
	return s, Effects{Changed: true, ScrollIntoID: moved.ID}
}

func reduceSelect(s State, id string) (State, Effects) {
	idx := s.Index(id)
	if idx < 0 || s.ActiveID == id {
		return s, Effects{}
	}
	s.ActiveID = id
	eff := notifyTab(s.Tabs[idx])
	eff.ScrollIntoID = id
	return s, eff
}

func reduceCycle(s State, delta int) (State, Effects) {
	n := len(s.Tabs)
	if n <= 1 {
		return s, Effects{}
	}
	cur := s.Index(s.ActiveID)
	next := 0
	if cur >= 0 {
		next = (cur + delta + n) % n
	}
	return reduceSelect(s, s.Tabs[next].ID)
}

func reduceDuplicate(s State, id string) (State, Effects) {
	idx := s.Index(id)
	if idx < 0 {
		return s, Effects{}
	}
	dup := s.Tabs[idx].Duplicate(s.allocID())
	s.Tabs = slices.Insert(slices.Clone(s.Tabs), idx+1, dup)
	s.ActiveID = dup.ID
	eff := notifyTab(dup)
	eff.ScrollIntoID = dup.ID
	return s, eff
}
