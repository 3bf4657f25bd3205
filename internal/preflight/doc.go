// Package preflight provides readiness checks for the paths, tools, and
// services moltcast depends on.
//
// The CLI "moltcast doctor" command runs RunAll and prints every result.
// Lifecycle commands call the individual checks they need (for example
// CheckHFToken before transcribing) so failures surface before any work
// starts.
//
// Checks tied to an optional feature are skipped when it is disabled.
package preflight
