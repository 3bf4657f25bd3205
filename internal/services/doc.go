// Package services defines shared utilities consumed by the episode lifecycle
// operations and the external integrations around them.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures as
//     not-found, precondition, conflict, validation, or external failures so
//     the CLI can report them consistently.
//   - Context helpers that stamp episode numbers, operation names, and
//     correlation identifiers for logging.
//
// Use these helpers when wiring new lifecycle logic so operational behaviour
// (error messages, exit codes, observability) stays uniform across commands.
package services
