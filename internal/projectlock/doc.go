// Package projectlock serializes mutating commands on one project directory.
//
// Lifecycle operations read and rewrite the coverage ledger and episode
// folders without any finer-grained locking, so the CLI holds this advisory
// file lock for the duration of every mutating command. Read-only commands
// such as status do not take it.
package projectlock
