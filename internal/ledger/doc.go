// Package ledger persists the coverage ledger: the durable record of which
// post has already been used by which episode.
//
// A Ledger is an explicit value loaded once per command and passed to every
// operation that reads or changes coverage. Each mutation rewrites the whole
// backing file atomically. There is no locking; a single writer per project
// directory is assumed.
package ledger
