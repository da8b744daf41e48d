// Package screens contains the overlays drawn on top of a page.
//
// Allowed here:
// - screen implementations that satisfy core.Screen (command palette, record picker)
// - modal-specific presentation and interaction wiring
//
// Not allowed here:
// - app-wide routing tables and key registry ownership
// - low-level widget/layout primitives
// - record queries; callers hand screens ready-made items
package screens
