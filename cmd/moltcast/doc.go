// Package main hosts the moltcast CLI entrypoint and command graph.
//
// The Cobra command tree covers the whole production loop: scraping and
// archiving Moltbook posts, theme filtering with overlap warnings, the daily
// markdown report, and the episode lifecycle (new, confirm, delete,
// transcribe, publish, status). It centralizes configuration resolution,
// logger construction, and the project lock so subcommands only wire flags
// to the internal packages.
//
// Mutating commands hold the advisory project lock for their whole run.
// Errors map to process exit codes through services.ExitCode.
package main
