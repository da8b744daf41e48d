// Package core contains app-wide contracts and state orchestration.
//
// Allowed here:
// - model routing, message contracts, command and key registries
// - shared state machines used across screens (for example picker ranking)
// - page and pane policy (page definitions, pane host focus/jump behavior)
// - the artifact panel host that ties the tab manager, panel and tab strip
//   scrolling into the event loop
//
// Not allowed here:
// - concrete screen/modal rendering implementations
// - low-level widget rendering primitives
// - fixture queries and artifact construction for specific records
package core
