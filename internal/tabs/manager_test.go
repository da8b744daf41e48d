package tabs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/riskdesk/internal/artifact"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type changeLog struct{ calls []*Tab }

func (l *changeLog) record(t *Tab) { l.calls = append(l.calls, t) }

func (l *changeLog) last(t *testing.T) *Tab {
	t.Helper()
	require.NotEmpty(t, l.calls, "expected a tab change notification")
	return l.calls[len(l.calls)-1]
}

func newTestManager(opts ...Option) (*Manager, *fakeClock, *changeLog) {
	clock := &fakeClock{t: epoch}
	changes := &changeLog{}
	base := []Option{WithClock(clock.now), WithOnTabChange(changes.record)}
	return NewManager(append(base, opts...)...), clock, changes
}

func TestManagerDebouncesWithClock(t *testing.T) {
	m, clock, changes := newTestManager()

	require.True(t, m.Publish(art("x")))
	clock.advance(40 * time.Millisecond)
	require.False(t, m.Publish(art("x")))
	require.Equal(t, 1, m.Len())

	clock.advance(110 * time.Millisecond)
	require.True(t, m.Publish(art("x")))
	require.Equal(t, 2, m.Len())
	require.Len(t, changes.calls, 2)
}

func TestManagerCustomDebounceWindow(t *testing.T) {
	m, clock, _ := newTestManager(WithDebounce(time.Second))
	require.True(t, m.Publish(art("x")))
	clock.advance(500 * time.Millisecond)
	require.False(t, m.Publish(art("x")))
}

func TestManagerHistoryNotificationIsDeferred(t *testing.T) {
	m, _, changes := newTestManager()
	m.NewBlankTab()
	require.True(t, m.UpdateActiveContent(art("a")))
	// Converted tabs are locked, so seed an unlocked history directly.
	tab, ok := m.ActiveTab()
	require.True(t, ok)
	m.state.Tabs[0] = Tab{ID: tab.ID, History: []artifact.Artifact{art("a"), art("b")}, HistoryIndex: 1}

	before := len(changes.calls)
	require.True(t, m.Back())
	require.Len(t, changes.calls, before, "navigation must not notify synchronously")
	require.True(t, m.HasPending())

	m.Flush()
	require.False(t, m.HasPending())
	got := changes.last(t)
	require.NotNil(t, got)
	require.Equal(t, "a", got.Artifact.ID)

	require.False(t, m.Back(), "back at index 0 is a no-op")
	require.False(t, m.HasPending())
}

func TestManagerRemoveLastNotifiesNil(t *testing.T) {
	m, _, changes := newTestManager()
	m.NewBlankTab()
	require.True(t, m.RemoveActive())
	require.Nil(t, changes.last(t))
	require.Equal(t, "", m.ActiveID())
	_, ok := m.CanGoForward()
	require.False(t, ok)
}

func TestManagerScrollRequests(t *testing.T) {
	m, _, _ := newTestManager()
	m.Publish(art("a"))
	m.NewBlankTab()
	require.Equal(t, []ScrollRequest{{ToEnd: true}, {ToEnd: true}}, m.DrainScroll())
	require.Empty(t, m.DrainScroll())

	require.True(t, m.Previous())
	require.Equal(t, []ScrollRequest{{ID: "tab-1"}}, m.DrainScroll())

	require.True(t, m.MoveActive(1))
	require.Equal(t, []ScrollRequest{{ID: "tab-1"}}, m.DrainScroll())
	require.Equal(t, "tab-1", m.Tabs()[1].ID)
	require.False(t, m.MoveActive(1), "moving past the end is ignored")
}

func TestManagerPublishRoutesIntoBlankTab(t *testing.T) {
	m, _, changes := newTestManager()
	blank := m.NewBlankTab()
	require.True(t, blank.Blank)
	require.True(t, m.Publish(art("r")))
	require.Equal(t, 1, m.Len())

	got := changes.last(t)
	require.Equal(t, blank.ID, got.ID)
	require.True(t, got.Locked)
}

func TestManagerAlwaysNewPolicy(t *testing.T) {
	m, _, _ := newTestManager(WithPolicy(ParsePolicy("always-new")))
	m.NewBlankTab()
	require.True(t, m.Publish(art("r")))
	require.Equal(t, 2, m.Len())
	require.Equal(t, "tab-2", m.ActiveID())
}

func TestManagerCallbackGetsCopies(t *testing.T) {
	m, _, changes := newTestManager()
	m.Publish(art("a"))
	got := changes.last(t)
	got.Title = "mutated"
	tab, _ := m.ActiveTab()
	require.Equal(t, "Artifact a", tab.Title)
}

func TestManagerDuplicateAndSelect(t *testing.T) {
	m, _, changes := newTestManager()
	m.Publish(art("a"))
	require.True(t, m.Duplicate("tab-1"))
	require.Equal(t, "tab-2", m.ActiveID())
	require.False(t, m.Select("tab-2"), "selecting the active tab is a no-op")
	require.True(t, m.Select("tab-1"))
	require.Equal(t, "tab-1", changes.last(t).ID)
	require.True(t, m.Next())
	require.Equal(t, "tab-2", m.ActiveID())
}

func TestParsePolicy(t *testing.T) {
	require.Equal(t, PolicyAlwaysNew, ParsePolicy("always-new"))
	require.Equal(t, PolicyRouteBlank, ParsePolicy("route-blank"))
	require.Equal(t, PolicyRouteBlank, ParsePolicy(""))
}

func TestManagerStartsFromGivenTabs(t *testing.T) {
	seeded := []Tab{NewBoundTab("tab-1", art("a")), NewBoundTab("tab-3", art("b"))}
	m, _, _ := newTestManager(WithTabs(seeded, "tab-3"))
	require.Equal(t, 2, m.Len())
	require.Equal(t, "tab-3", m.ActiveID())

	blank := m.NewBlankTab()
	require.Equal(t, "tab-4", blank.ID)

	seeded[0].Title = "changed"
	require.Equal(t, "a", m.Tabs()[0].Artifact.ID)
	require.NotEqual(t, "changed", m.Tabs()[0].Title)

	none, _, _ := newTestManager(WithTabs(seeded, "tab-9"))
	require.Empty(t, none.ActiveID())
}
