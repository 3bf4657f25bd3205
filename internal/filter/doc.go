// Package filter ranks harvested posts against a theme and annotates them
// with their coverage history.
//
// Posts with no keyword hits are dropped; the rest are ordered by relevance
// score (ties keep input order) and capped at the requested limit. The
// resulting Artifact is the JSON document written under an episode's raw/
// directory, which later feeds overlap.BuildIndex.
package filter
