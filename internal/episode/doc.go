// Package episode tracks the production lifecycle of podcast episodes.
//
// An episode lives in episodes/<NNN>/ under the project root. Its stage
// (draft, recorded, transcribed, published) is never stored: DeriveStage
// computes it from an Artifacts snapshot taken from the files on disk.
// Coverage of the posts an episode uses is recorded in the ledger only when
// the episode is confirmed, and Manager refuses operations that would let the
// ledger drift from the episode tree without an explicit override.
//
// The ledger is always passed in by the caller; Manager holds no shared
// ledger state between calls.
package episode
