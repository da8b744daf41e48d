// Package panel coordinates the artifact panel: whether it is collapsed, the
// width it claims from the shared layout and which content it shows.
package panel

import (
	"context"

	"pkt.systems/pslog"

	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/tabs"
	"github.com/jask/riskdesk/internal/workspace"
)

const (
	EmptyPlaceholder = "No artifacts to display"
	BlankPlaceholder = tabs.BlankTitle

	DefaultCollapsedWidth  = 3
	DefaultExpandedPercent = 50
)

// Display says what the panel body shows.
type Display int

const (
	DisplayEmpty Display = iota
	DisplayBlank
	DisplayContent
)

func (d Display) String() string {
	switch d {
	case DisplayBlank:
		return "blank"
	case DisplayContent:
		return "content"
	default:
		return "empty"
	}
}

type Options struct {
	CollapsedWidth  int
	ExpandedPercent int
	Logger          pslog.Logger
}

// Panel holds the collapse flag and the content selected by the tabs.
type Panel struct {
	collapsed   bool
	narrow      Length
	wide        Length
	layout      *Layout
	unsubscribe func()

	display Display
	current *artifact.Artifact

	log pslog.Logger
}

// New returns a collapsed panel and publishes its width to layout.
func New(layout *Layout, opts Options) *Panel {
	if opts.CollapsedWidth <= 0 {
		opts.CollapsedWidth = DefaultCollapsedWidth
	}
	if opts.ExpandedPercent <= 0 || opts.ExpandedPercent > 100 {
		opts.ExpandedPercent = DefaultExpandedPercent
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	p := &Panel{
		collapsed: true,
		narrow:    Length{Cells: opts.CollapsedWidth},
		wide:      Length{Percent: opts.ExpandedPercent},
		layout:    layout,
		log:       opts.Logger,
	}
	p.publishWidth()
	return p
}

// Attach follows store events: a published artifact opens the panel and a
// page change closes it.
func (p *Panel) Attach(store *workspace.Store) {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.unsubscribe = store.Subscribe(func(ev workspace.Event) {
		switch ev.Kind {
		case workspace.EventArtifactPublished:
			p.OnArtifactPublished(ev.Artifact)
		case workspace.EventPageChanged:
			p.OnPageChanged()
		}
	})
}

func (p *Panel) Collapsed() bool { return p.collapsed }

// OnArtifactPublished expands the panel for any non-nil artifact.
func (p *Panel) OnArtifactPublished(a *artifact.Artifact) {
	if a == nil {
		return
	}
	p.setCollapsed(false)
}

// OnPageChanged collapses the panel so the new page gets the full width.
func (p *Panel) OnPageChanged() {
	p.setCollapsed(true)
}

// Expand opens the panel without a publication, e.g. for a new blank tab.
func (p *Panel) Expand() {
	p.setCollapsed(false)
}

func (p *Panel) Toggle() {
	p.setCollapsed(!p.collapsed)
}

func (p *Panel) setCollapsed(v bool) {
	if p.collapsed != v {
		p.log.Debug("artifact panel collapse changed", "collapsed", v)
	}
	p.collapsed = v
	p.publishWidth()
}

// Length is the panel's current claim on the layout.
func (p *Panel) Length() Length {
	if p.collapsed {
		return p.narrow
	}
	return p.wide
}

// Width resolves the panel width for a terminal of total cells.
func (p *Panel) Width(total int) int {
	return p.Length().Resolve(total)
}

func (p *Panel) publishWidth() {
	p.layout.Set(ArtifactWidthKey, p.Length())
}

// Close detaches from the store and removes the panel's layout entry.
func (p *Panel) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	p.layout.Clear(ArtifactWidthKey)
}

// OnTabChange follows the active tab. A nil tab means there is none.
func (p *Panel) OnTabChange(t *tabs.Tab) {
	switch {
	case t == nil:
		p.display, p.current = DisplayEmpty, nil
	case t.Blank:
		p.display, p.current = DisplayBlank, nil
	case t.Artifact != nil:
		a := *t.Artifact
		p.display, p.current = DisplayContent, &a
	default:
		p.display, p.current = DisplayEmpty, nil
	}
}

func (p *Panel) Display() Display { return p.display }

// Current is the artifact to render, nil for both placeholders.
func (p *Panel) Current() *artifact.Artifact { return p.current }

// Placeholder is the text shown when there is no content.
func (p *Panel) Placeholder() string {
	if p.display == DisplayBlank {
		return BlankPlaceholder
	}
	return EmptyPlaceholder
}
