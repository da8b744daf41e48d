// Package artifact defines the values shown in the artifact panel.
//
// An Artifact is produced by a page (a transaction row, a rule, a simulation
// result) and handed to the workspace store. The tab subsystem only stores and
// replaces artifacts; it never changes one after receiving it.
package artifact

import "strings"

// Kind tags the record an artifact was built from.
type Kind string

const (
	KindTransaction   Kind = "transaction"
	KindPayout        Kind = "payout"
	KindFlag          Kind = "flag"
	KindCommunication Kind = "communication"
	KindChannel       Kind = "channel"
	KindTimeline      Kind = "timeline"
	KindMerchant      Kind = "merchant"
	KindRisk          Kind = "risk"
	KindCase          Kind = "case"
	KindLinkage       Kind = "linkage"
	KindFootprint     Kind = "footprint"
	KindRule          Kind = "rule"
	KindModel         Kind = "model"
	KindAlert         Kind = "alert"
	KindFeature       Kind = "feature"
	KindSimulation    Kind = "simulation"
	KindNote          Kind = "note"
)

// Field is one labelled value in an artifact's detail grid.
type Field struct {
	Label string
	Value string
}

// RenderFunc turns an artifact into terminal output for the given width.
type RenderFunc func(a Artifact, width int) string

// Artifact is something the analyst chose to inspect.
type Artifact struct {
	ID      string
	Title   string
	Kind    Kind
	Summary string
	Fields  []Field
	Body    string
	// Render, when set, replaces the generic renderer for this artifact.
	Render RenderFunc
}

const blankURL = "/blank"

// URL is the address a tab shows for the artifact.
func URL(a *Artifact) string {
	if a == nil {
		return blankURL
	}
	return "/artifact/" + a.ID
}

// Field returns the value of the first field with the given label.
func (a Artifact) Field(label string) (string, bool) {
	for _, f := range a.Fields {
		if strings.EqualFold(f.Label, label) {
			return f.Value, true
		}
	}
	return "", false
}

// SearchText is the text used when matching the artifact against a query.
func (a Artifact) SearchText() string {
	parts := make([]string, 0, len(a.Fields)+3)
	parts = append(parts, a.ID, a.Title, a.Summary)
	for _, f := range a.Fields {
		parts = append(parts, f.Value)
	}
	return strings.Join(parts, " ")
}
