// Package workspace holds the shared workspace state: the artifact most
// recently published by a page, the active page and the navigation
// breadcrumb. Consumers hold a *Store and subscribe to its events.
package workspace

import (
	"context"
	"sync"

	"pkt.systems/pslog"

	"github.com/jask/riskdesk/internal/artifact"
)

// EventKind identifies what changed in the store.
type EventKind string

const (
	EventArtifactPublished EventKind = "artifact-published"
	EventArtifactCleared   EventKind = "artifact-cleared"
	EventPageChanged       EventKind = "page-changed"
	EventNavigationChanged EventKind = "navigation-changed"
)

// Navigation is the sidebar breadcrumb, e.g. Strategy / Rules.
type Navigation struct {
	Group string
	Item  string
}

func (n Navigation) String() string {
	if n.Group == "" {
		return n.Item
	}
	if n.Item == "" {
		return n.Group
	}
	return n.Group + " / " + n.Item
}

// Event is delivered to every subscriber.
type Event struct {
	Kind       EventKind
	Artifact   *artifact.Artifact
	Page       string
	Navigation Navigation
}

type subscriber struct {
	id int
	fn func(Event)
}

// Store is the producer side of the artifact panel.
type Store struct {
	mu       sync.Mutex
	artifact *artifact.Artifact
	page     string
	nav      Navigation
	subs     []subscriber
	nextSub  int
	log      pslog.Logger
}

func New(logger pslog.Logger) *Store {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Store{log: logger}
}

// Subscribe registers fn for all future events and returns its cancel func.
func (s *Store) Subscribe(fn func(Event)) func() {
	if s == nil || fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish sets the current artifact; nil clears it. Every non-nil call is an
// event even when the same artifact is published again.
func (s *Store) Publish(a *artifact.Artifact) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if a != nil {
		cp := *a
		a = &cp
	}
	s.artifact = a
	s.mu.Unlock()
	if a == nil {
		s.log.Debug("workspace artifact cleared")
		s.emit(Event{Kind: EventArtifactCleared})
		return
	}
	s.log.Debug("workspace artifact published", "artifact", a.ID, "kind", string(a.Kind))
	s.emit(Event{Kind: EventArtifactPublished, Artifact: a})
}

// Current returns the last published artifact, if any.
func (s *Store) Current() *artifact.Artifact {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// SetActivePage records the page shown in the main area. Setting the same
// page again is not a change.
func (s *Store) SetActivePage(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.page == id {
		s.mu.Unlock()
		return
	}
	s.page = id
	s.mu.Unlock()
	s.log.Debug("workspace page changed", "page", id)
	s.emit(Event{Kind: EventPageChanged, Page: id})
}

func (s *Store) ActivePage() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Store) SetNavigation(nav Navigation) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.nav == nav {
		s.mu.Unlock()
		return
	}
	s.nav = nav
	s.mu.Unlock()
	s.emit(Event{Kind: EventNavigationChanged, Navigation: nav})
}

func (s *Store) Navigation() Navigation {
	if s == nil {
		return Navigation{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav
}

// emit runs subscribers outside the lock so they may call back into the store.
func (s *Store) emit(ev Event) {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}
