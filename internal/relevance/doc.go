// Package relevance scores forum posts against named keyword themes.
//
// Themes are compiled into the binary from themes.yaml and cannot be edited
// at runtime. Scoring is a pure function of a post and a keyword set: every
// non-overlapping, case-insensitive occurrence of every keyword in the title
// and content counts as one hit, and the score weights hits far above
// popularity (hits*10 + upvotes*0.5).
package relevance
