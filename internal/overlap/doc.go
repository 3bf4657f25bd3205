// Package overlap measures how much of a candidate post selection was already
// used by earlier episodes.
//
// The historical index is rebuilt on demand from the filter run artifacts
// stored under each episode's raw/ directory and is never persisted. Detect
// only reports a percentage; Classify maps it onto the advisory tiers and the
// caller decides whether to warn or refuse.
package overlap
