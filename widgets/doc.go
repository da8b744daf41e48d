// Package widgets contains dumb render primitives.
//
// Allowed here:
// - stateless drawing/composition helpers (pane chrome, stacks, popup overlay, tab strip cells)
//
// Not allowed here:
// - key handling, workspace state, scroll animation or tab policy
package widgets
