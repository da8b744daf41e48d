package tabs

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jask/riskdesk/internal/artifact"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func art(id string) artifact.Artifact {
	return artifact.Artifact{ID: id, Title: "Artifact " + id, Kind: artifact.KindNote}
}

// stateOpts ignore the render callback, which go-cmp cannot compare.
var stateOpts = cmp.Options{
	cmpopts.IgnoreFields(artifact.Artifact{}, "Render"),
	cmpopts.EquateEmpty(),
}

func mustReduce(t *testing.T, s State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		s, _ = Reduce(s, a)
	}
	return s
}

func threeTabs(t *testing.T) State {
	t.Helper()
	return mustReduce(t, State{},
		ArtifactPublished{Artifact: art("a"), At: epoch},
		ArtifactPublished{Artifact: art("b"), At: epoch.Add(time.Second)},
		ArtifactPublished{Artifact: art("c"), At: epoch.Add(2 * time.Second)},
	)
}

func TestTabIDsIncreaseAndAreNeverReused(t *testing.T) {
	s := State{}
	var created []string
	create := func(a Action) {
		t.Helper()
		var eff Effects
		s, eff = Reduce(s, a)
		if eff.Tab == nil {
			t.Fatalf("%T did not report a tab", a)
		}
		created = append(created, eff.Tab.ID)
	}
	create(BlankTabCreated{})
	s = mustReduce(t, s, TabRemoved{ID: s.ActiveID})
	create(ArtifactPublished{Artifact: art("x"), At: epoch})
	create(BlankTabCreated{})
	create(TabDuplicated{ID: "tab-2"})
	s = mustReduce(t, s, TabRemoved{ID: "tab-4"}, TabRemoved{ID: "tab-3"})
	create(BlankTabCreated{})

	want := []string{"tab-1", "tab-2", "tab-3", "tab-4", "tab-5"}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Fatalf("created tab ids mismatch (-want +got):\n%s", diff)
	}
	if s.NextID != 6 {
		t.Fatalf("next id = %d, want 6", s.NextID)
	}
}

func TestUpdateContentTruncatesForwardHistory(t *testing.T) {
	a, b, c, d := art("a"), art("b"), art("c"), art("d")
	tab := Tab{ID: "tab-1", History: []artifact.Artifact{a, b, c}, HistoryIndex: 2, Artifact: &c}

	var ok bool
	tab, ok = tab.Step(Back)
	if !ok {
		t.Fatalf("expected first back step")
	}
	tab, ok = tab.Step(Back)
	if !ok || tab.HistoryIndex != 0 {
		t.Fatalf("expected cursor at 0, got %d", tab.HistoryIndex)
	}

	tab = UpdateContent(tab, d)
	if diff := cmp.Diff([]artifact.Artifact{a, d}, tab.History, stateOpts); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	if tab.HistoryIndex != 1 || tab.Artifact.ID != "d" || tab.Title != d.Title {
		t.Fatalf("unexpected tab after update: %+v", tab)
	}
	if tab.URL != "/artifact/d" {
		t.Fatalf("url = %q", tab.URL)
	}
}

func TestLockedTabIgnoresContentUpdates(t *testing.T) {
	tab := NewBoundTab("tab-1", art("a"))
	before := tab
	for _, id := range []string{"b", "c", "d"} {
		tab = UpdateContent(tab, art(id))
	}
	if diff := cmp.Diff(before, tab, stateOpts); diff != "" {
		t.Fatalf("locked tab changed (-want +got):\n%s", diff)
	}
}

func TestBlankConversionLocksPermanently(t *testing.T) {
	tab := NewBlankTab("tab-1")
	if !tab.Blank || tab.Locked || tab.HistoryIndex != -1 || len(tab.History) != 0 {
		t.Fatalf("unexpected blank tab: %+v", tab)
	}
	tab = UpdateContent(tab, art("first"))
	if tab.Blank || !tab.Locked || tab.HistoryIndex != 0 || len(tab.History) != 1 {
		t.Fatalf("unexpected converted tab: %+v", tab)
	}
	converted := tab
	tab = UpdateContent(tab, art("second"))
	if diff := cmp.Diff(converted, tab, stateOpts); diff != "" {
		t.Fatalf("second update should be a no-op (-want +got):\n%s", diff)
	}
}

func TestRemoveActiveSelectsNearestNeighbour(t *testing.T) {
	s := threeTabs(t)
	ids := []string{s.Tabs[0].ID, s.Tabs[1].ID, s.Tabs[2].ID}

	middle := mustReduce(t, s, TabSelected{ID: ids[1]})
	got, eff := Reduce(middle, TabRemoved{ID: ids[1]})
	if got.ActiveID != ids[2] {
		t.Fatalf("removing middle tab selected %s, want %s", got.ActiveID, ids[2])
	}
	if !eff.Notify || eff.Tab == nil || eff.Tab.ID != ids[2] {
		t.Fatalf("expected notify with %s, got %+v", ids[2], eff)
	}

	last := mustReduce(t, s, TabSelected{ID: ids[2]})
	got, _ = Reduce(last, TabRemoved{ID: ids[2]})
	if got.ActiveID != ids[1] {
		t.Fatalf("removing last tab selected %s, want %s", got.ActiveID, ids[1])
	}
}

func TestRemoveInactiveKeepsActive(t *testing.T) {
	s := threeTabs(t)
	active := s.ActiveID
	got, eff := Reduce(s, TabRemoved{ID: s.Tabs[0].ID})
	if got.ActiveID != active {
		t.Fatalf("active changed to %s", got.ActiveID)
	}
	if eff.Notify {
		t.Fatalf("removing an inactive tab should not notify")
	}
	if len(got.Tabs) != 2 {
		t.Fatalf("expected two tabs, got %d", len(got.Tabs))
	}
}

func TestRemoveOnlyTabClearsActive(t *testing.T) {
	s := mustReduce(t, State{}, BlankTabCreated{})
	got, eff := Reduce(s, TabRemoved{ID: s.ActiveID})
	if len(got.Tabs) != 0 || got.ActiveID != "" {
		t.Fatalf("expected empty state, got %+v", got)
	}
	if !eff.Notify || eff.Tab != nil {
		t.Fatalf("expected notify with nil tab, got %+v", eff)
	}
	if _, ok := got.CanGoBack(); ok {
		t.Fatalf("can go back should be undefined without an active tab")
	}
}

func TestHistoryBoundariesAreNoOps(t *testing.T) {
	s := mustReduce(t, State{},
		BlankTabCreated{},
		ActiveContentUpdated{Artifact: art("a")},
	)
	tab, _ := s.Active()
	// Converted tabs are locked; build an unlocked two-entry tab directly.
	tab = Tab{ID: tab.ID, History: []artifact.Artifact{art("a"), art("b")}, HistoryIndex: 1}
	tab.Artifact = &tab.History[1]
	s.Tabs = []Tab{tab}

	if back, ok := s.CanGoBack(); !ok || !back {
		t.Fatalf("expected can go back at index 1")
	}
	if fwd, ok := s.CanGoForward(); !ok || fwd {
		t.Fatalf("expected no forward at the last index")
	}
	got, eff := Reduce(s, HistoryNavigated{Direction: Forward})
	if eff.Changed {
		t.Fatalf("forward at boundary changed state")
	}
	if diff := cmp.Diff(s, got, stateOpts); diff != "" {
		t.Fatalf("state changed at boundary (-want +got):\n%s", diff)
	}

	got, eff = Reduce(s, HistoryNavigated{Direction: Back})
	if !eff.Notify || !eff.Deferred {
		t.Fatalf("history navigation should defer its notification: %+v", eff)
	}
	active, _ := got.Active()
	if active.HistoryIndex != 0 || active.Artifact.ID != "a" || active.Title != "Artifact a" {
		t.Fatalf("unexpected tab after back: %+v", active)
	}
	if back, _ := got.CanGoBack(); back {
		t.Fatalf("expected no back at index 0")
	}
	again, eff := Reduce(got, HistoryNavigated{Direction: Back})
	if eff.Changed {
		t.Fatalf("back at boundary changed state")
	}
	if diff := cmp.Diff(got, again, stateOpts); diff != "" {
		t.Fatalf("state changed at boundary (-want +got):\n%s", diff)
	}
}

func TestNavigateEmptyHistory(t *testing.T) {
	s := mustReduce(t, State{}, BlankTabCreated{})
	got, eff := Reduce(s, HistoryNavigated{Direction: Back})
	if eff.Changed {
		t.Fatalf("blank tab has nothing to navigate")
	}
	if diff := cmp.Diff(s, got, stateOpts); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
}

func TestPublishDebounce(t *testing.T) {
	s := State{}
	s, eff := Reduce(s, ArtifactPublished{Artifact: art("x"), At: epoch})
	if !eff.Changed {
		t.Fatalf("first publication rejected")
	}
	s, eff = Reduce(s, ArtifactPublished{Artifact: art("x"), At: epoch.Add(50 * time.Millisecond)})
	if !eff.Dropped || len(s.Tabs) != 1 {
		t.Fatalf("duplicate within window should be dropped, tabs=%d", len(s.Tabs))
	}
	s, eff = Reduce(s, ArtifactPublished{Artifact: art("x"), At: epoch.Add(150 * time.Millisecond)})
	if !eff.Changed || len(s.Tabs) != 2 {
		t.Fatalf("publication after window should open a tab, tabs=%d", len(s.Tabs))
	}
}

func TestPublishDifferentIDsInsideWindow(t *testing.T) {
	s := mustReduce(t, State{},
		ArtifactPublished{Artifact: art("x"), At: epoch},
		ArtifactPublished{Artifact: art("y"), At: epoch.Add(10 * time.Millisecond)},
	)
	if len(s.Tabs) != 2 {
		t.Fatalf("distinct artifacts should both open, got %d tabs", len(s.Tabs))
	}
}

func TestPublishPolicies(t *testing.T) {
	blank := mustReduce(t, State{}, BlankTabCreated{})

	routed, eff := Reduce(blank, ArtifactPublished{Artifact: art("r"), At: epoch})
	if len(routed.Tabs) != 1 || routed.Tabs[0].Blank || !routed.Tabs[0].Locked {
		t.Fatalf("route-blank should convert the active blank tab: %+v", routed.Tabs)
	}
	if eff.ScrollToEnd || eff.ScrollIntoID != routed.Tabs[0].ID {
		t.Fatalf("converted tab should be scrolled into view: %+v", eff)
	}

	blank.Policy = PolicyAlwaysNew
	appended, eff := Reduce(blank, ArtifactPublished{Artifact: art("r"), At: epoch})
	if len(appended.Tabs) != 2 || !appended.Tabs[0].Blank {
		t.Fatalf("always-new should leave the blank tab alone: %+v", appended.Tabs)
	}
	if appended.ActiveID != appended.Tabs[1].ID || !eff.ScrollToEnd {
		t.Fatalf("new tab should be active and scrolled to: %+v", eff)
	}
}

func TestPublishNeverTouchesLockedTabs(t *testing.T) {
	s := mustReduce(t, State{}, ArtifactPublished{Artifact: art("a"), At: epoch})
	first := s.Tabs[0]
	s = mustReduce(t, s, ArtifactPublished{Artifact: art("b"), At: epoch.Add(time.Second)})
	if diff := cmp.Diff(first, s.Tabs[0], stateOpts); diff != "" {
		t.Fatalf("locked tab changed (-want +got):\n%s", diff)
	}
}

func TestMoveTab(t *testing.T) {
	s := threeTabs(t)
	active := s.ActiveID
	ids := func(s State) []string {
		out := make([]string, len(s.Tabs))
		for i, tab := range s.Tabs {
			out[i] = tab.ID
		}
		return out
	}

	got, eff := Reduce(s, TabMoved{From: 0, To: 2})
	if diff := cmp.Diff([]string{"tab-2", "tab-3", "tab-1"}, ids(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got.ActiveID != active || eff.Notify {
		t.Fatalf("move must not change the active tab or notify")
	}

	for _, bad := range []TabMoved{{From: -1, To: 0}, {From: 0, To: 3}, {From: 1, To: 1}} {
		same, eff := Reduce(s, bad)
		if eff.Changed {
			t.Fatalf("move %+v should be a no-op", bad)
		}
		if diff := cmp.Diff(s, same, stateOpts); diff != "" {
			t.Fatalf("move %+v changed state:\n%s", bad, diff)
		}
	}
}

func TestNextPreviousWrap(t *testing.T) {
	s := threeTabs(t)
	s = mustReduce(t, s, NextTab{})
	if s.ActiveID != "tab-1" {
		t.Fatalf("next from last should wrap to first, got %s", s.ActiveID)
	}
	s = mustReduce(t, s, PreviousTab{})
	if s.ActiveID != "tab-3" {
		t.Fatalf("previous from first should wrap to last, got %s", s.ActiveID)
	}

	single := mustReduce(t, State{}, BlankTabCreated{})
	got, eff := Reduce(single, NextTab{})
	if eff.Changed || got.ActiveID != single.ActiveID {
		t.Fatalf("cycling one tab should be a no-op")
	}
	if _, eff := Reduce(State{}, PreviousTab{}); eff.Changed {
		t.Fatalf("cycling no tabs should be a no-op")
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	s := threeTabs(t)
	for _, a := range []Action{TabRemoved{ID: "tab-99"}, TabSelected{ID: "nope"}, TabDuplicated{ID: ""}} {
		got, eff := Reduce(s, a)
		if eff.Changed {
			t.Fatalf("%T with unknown id changed state", a)
		}
		if diff := cmp.Diff(s, got, stateOpts); diff != "" {
			t.Fatalf("%T changed state:\n%s", a, diff)
		}
	}
	if _, eff := Reduce(State{}, ActiveContentUpdated{Artifact: art("a")}); eff.Changed {
		t.Fatalf("updating without an active tab should be a no-op")
	}
}

func TestDuplicateInsertsAfterSource(t *testing.T) {
	s := threeTabs(t)
	got, eff := Reduce(s, TabDuplicated{ID: "tab-1"})
	if len(got.Tabs) != 4 || got.Tabs[1].ID != "tab-4" {
		t.Fatalf("duplicate should sit right after its source: %+v", got.Tabs)
	}
	if got.ActiveID != "tab-4" || !eff.Notify {
		t.Fatalf("duplicate should become active")
	}
	if got.Tabs[1].Artifact.ID != "a" || !got.Tabs[1].Locked {
		t.Fatalf("duplicate content mismatch: %+v", got.Tabs[1])
	}
}

func TestBlankThenUpdateThenPublish(t *testing.T) {
	s, eff := Reduce(State{}, BlankTabCreated{})
	if len(s.Tabs) != 1 || !s.Tabs[0].Blank || s.Tabs[0].HistoryIndex != -1 {
		t.Fatalf("unexpected state after blank tab: %+v", s.Tabs)
	}
	if !eff.ScrollToEnd || eff.Tab == nil || !eff.Tab.Blank {
		t.Fatalf("blank creation should notify and scroll to end: %+v", eff)
	}

	r1 := artifact.Artifact{ID: "r1", Title: "Report 1"}
	s = mustReduce(t, s, ActiveContentUpdated{Artifact: r1})
	want := Tab{
		ID:           "tab-1",
		Title:        "Report 1",
		Artifact:     &r1,
		URL:          "/artifact/r1",
		History:      []artifact.Artifact{r1},
		HistoryIndex: 0,
		Locked:       true,
	}
	if diff := cmp.Diff(want, s.Tabs[0], stateOpts); diff != "" {
		t.Fatalf("converted tab mismatch (-want +got):\n%s", diff)
	}

	r2 := artifact.Artifact{ID: "r2", Title: "Report 2"}
	s = mustReduce(t, s, ArtifactPublished{Artifact: r2, At: epoch})
	if len(s.Tabs) != 2 || s.ActiveID != "tab-2" {
		t.Fatalf("publication should open a second active tab: %+v", s)
	}
	if diff := cmp.Diff(want, s.Tabs[0], stateOpts); diff != "" {
		t.Fatalf("first tab changed (-want +got):\n%s", diff)
	}
}
