// Package moltbook is the item source for moltcast: a small HTTP client for
// the Moltbook public API plus the post and comment types every other
// package consumes.
//
// The client spaces requests by a minimum interval, retries 429/5xx and
// timeout failures with doubling backoff, and classifies final failures with
// the services error markers so callers can report them uniformly.
package moltbook
