// Package tabs implements the artifact panel's browser-like tabs.
//
// A tab is created either bound (it shows an artifact from the start and is
// locked to it) or blank. A blank tab turns into a bound, locked tab the first
// time it receives an artifact. Every tab keeps its own history stack with a
// cursor; navigating to new content from the middle of the stack drops the
// entries after the cursor.
//
// State changes go through Reduce, a pure function over State and an Action.
// Manager wraps the reducer with a clock, a publish policy and the
// notification plumbing used by the UI.
package tabs

import (
	"slices"
	"strconv"
	"strings"

	"github.com/jask/riskdesk/internal/artifact"
)

// BlankTitle is the title of a tab that has no content yet.
const BlankTitle = "New Tab"

const idPrefix = "tab-"

// Tab is one viewer slot in the artifact panel.
type Tab struct {
	ID           string
	Title        string
	Artifact     *artifact.Artifact
	URL          string
	History      []artifact.Artifact
	HistoryIndex int
	Blank        bool
	Locked       bool
}

// Direction selects a history step.
type Direction int

const (
	Back Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "back"
}

func tabID(n int) string {
	return idPrefix + strconv.Itoa(n)
}

func tabNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil
}

// NewBoundTab returns a locked tab showing a, with a one-entry history.
func NewBoundTab(id string, a artifact.Artifact) Tab {
	return Tab{
		ID:           id,
		Title:        a.Title,
		Artifact:     &a,
		URL:          artifact.URL(&a),
		History:      []artifact.Artifact{a},
		HistoryIndex: 0,
		Locked:       true,
	}
}

// NewBlankTab returns an unlocked tab with no content and empty history.
func NewBlankTab(id string) Tab {
	return Tab{
		ID:           id,
		Title:        BlankTitle,
		URL:          artifact.URL(nil),
		HistoryIndex: -1,
		Blank:        true,
	}
}

// UpdateContent navigates t to a. Locked tabs are returned unchanged. A blank
// tab is converted into a locked tab with a as its only history entry.
// Otherwise entries after the cursor are dropped and a is appended.
func UpdateContent(t Tab, a artifact.Artifact) Tab {
	if t.Locked {
		return t
	}
	if t.Blank {
		return NewBoundTab(t.ID, a)
	}
	history := make([]artifact.Artifact, 0, t.HistoryIndex+2)
	if t.HistoryIndex >= 0 {
		history = append(history, t.History[:min(t.HistoryIndex+1, len(t.History))]...)
	}
	history = append(history, a)
	t.History = history
	t.HistoryIndex = len(history) - 1
	t.Artifact = &a
	t.Title = a.Title
	t.URL = artifact.URL(&a)
	return t
}

// Step moves the history cursor one entry in dir. ok is false when the cursor
// is already at that end or the history is empty.
func (t Tab) Step(dir Direction) (Tab, bool) {
	if len(t.History) == 0 {
		return t, false
	}
	next := t.HistoryIndex
	if dir == Back {
		next = max(0, t.HistoryIndex-1)
	} else {
		next = min(len(t.History)-1, t.HistoryIndex+1)
	}
	if next == t.HistoryIndex {
		return t, false
	}
	t.History = slices.Clone(t.History)
	t.HistoryIndex = next
	entry := t.History[next]
	t.Artifact = &entry
	t.Title = entry.Title
	t.URL = artifact.URL(&entry)
	return t, true
}

func (t Tab) CanGoBack() bool {
	return t.HistoryIndex > 0
}

func (t Tab) CanGoForward() bool {
	return t.HistoryIndex < len(t.History)-1
}

// Duplicate copies t under a new id. Content tabs are locked to their copy.
func (t Tab) Duplicate(id string) Tab {
	if t.Blank {
		return NewBlankTab(id)
	}
	out := t
	out.ID = id
	out.History = slices.Clone(t.History)
	if out.HistoryIndex >= 0 && out.HistoryIndex < len(out.History) {
		entry := out.History[out.HistoryIndex]
		out.Artifact = &entry
	}
	out.Locked = true
	return out
}
