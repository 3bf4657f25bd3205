// Package report renders harvested posts as the markdown briefing that is
// dropped into an episode's notebooklm folder and printed by `moltcast report`.
package report
