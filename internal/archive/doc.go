// Package archive keeps every harvested Moltbook post in a local SQLite
// database so later filter runs can work offline and across many scrapes.
//
// Rows are keyed by post id. Re-archiving a post refreshes its counters and
// last-seen time while first-seen and the originating feed are preserved.
package archive
