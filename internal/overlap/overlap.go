package overlap

import (
	"math"
)

// Index maps a post id to the ascending, de-duplicated episode numbers whose
// filter runs included it.
type Index map[string][]int

// Overlap names a candidate that appears in earlier episodes.
type Overlap struct {
	ID       string `json:"id"`
	Episodes []int  `json:"episodes"`
}

// Result reports the share of candidates already present in the index.
type Result struct {
	OverlapPercent   int       `json:"overlapPercent"`
	OverlappingPosts []Overlap `json:"overlappingPosts"`
}

// Detect compares candidates against the index. An empty candidate list is
// 0% with no overlapping posts. Percent uses half-away-from-zero rounding.
func Detect(candidates []string, index Index) Result {
	result := Result{OverlappingPosts: []Overlap{}}
	if len(candidates) == 0 {
		return result
	}
	for _, id := range candidates {
		episodes, ok := index[id]
		if !ok {
			continue
		}
		result.OverlappingPosts = append(result.OverlappingPosts, Overlap{
			ID:       id,
			Episodes: append([]int(nil), episodes...),
		})
	}
	ratio := float64(len(result.OverlappingPosts)) / float64(len(candidates))
	result.OverlapPercent = int(math.Round(ratio * 100))
	return result
}

// Level is an advisory overlap tier.
type Level int

const (
	Acceptable Level = iota
	Warn
	Reject
)

func (l Level) String() string {
	switch l {
	case Acceptable:
		return "acceptable"
	case Warn:
		return "warn"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Thresholds holds the percent boundaries of the warn and reject tiers.
type Thresholds struct {
	WarnPercent   int
	RejectPercent int
}

// DefaultThresholds returns the conventional 20% / 40% boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{WarnPercent: 20, RejectPercent: 40}
}

// Classify maps percent onto the default tiers: <20 acceptable, 20..39 warn, >=40 reject.
func Classify(percent int) Level {
	return DefaultThresholds().Classify(percent)
}

// Classify maps percent onto the configured tiers.
func (t Thresholds) Classify(percent int) Level {
	switch {
	case percent >= t.RejectPercent:
		return Reject
	case percent >= t.WarnPercent:
		return Warn
	default:
		return Acceptable
	}
}
