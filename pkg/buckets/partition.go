package buckets

import (
	"fmt"

	"github.com/MrHaila/kantama/pkg/core"
)

// fixedStepSeconds is the width of each fixed bucket (15 minutes).
const fixedStepSeconds = 900

// fixedBucketCount is the number of fixed buckets including the open tail.
const fixedBucketCount = 6

// decileCount is the number of equal-frequency buckets.
const decileCount = 10

// Partition is one half-open duration interval [Min, Max) in seconds.
// Max is core.OpenBound for the unbounded tail.
type Partition struct {
	Min int
	Max int
}

// Open reports whether the partition's upper bound is unbounded.
func (p Partition) Open() bool { return p.Max == core.OpenBound }

// fixedPalette and decilePalette run from fast (green) to slow (red).
var (
	fixedPalette = []string{
		"#1a9850", "#91cf60", "#d9ef8b", "#fee08b", "#fc8d59", "#d73027",
	}
	decilePalette = []string{
		"#006837", "#1a9850", "#66bd63", "#a6d96a", "#d9ef8b",
		"#fee08b", "#fdae61", "#f46d43", "#d73027", "#a50026",
	}
)

// FixedPartitions returns the quarter-hour scale: five 900-second steps
// and an open tail. The scale is independent of the observed sample.
func FixedPartitions() []Partition {
	partitions := make([]Partition, 0, fixedBucketCount)
	for i := 0; i < fixedBucketCount-1; i++ {
		partitions = append(partitions, Partition{
			Min: i * fixedStepSeconds,
			Max: (i + 1) * fixedStepSeconds,
		})
	}
	partitions = append(partitions, Partition{
		Min: (fixedBucketCount - 1) * fixedStepSeconds,
		Max: core.OpenBound,
	})
	return partitions
}

// DecilePartitions splits an ascending duration sample into ten
// equal-frequency groups. When the sample size is not divisible by ten,
// the remainder is spread one element per group over the first groups.
// Bucket bounds come from group membership: each partition ends where
// the next group's first sample begins, the first partition starts at
// zero and the last is open, so the set stays total regardless of the
// sample's range.
func DecilePartitions(sorted []int) ([]Partition, error) {
	n := len(sorted)
	if n < decileCount {
		return nil, core.ErrTooFewSamples
	}

	base := n / decileCount
	remainder := n % decileCount

	partitions := make([]Partition, 0, decileCount)
	offset := 0
	for i := 0; i < decileCount; i++ {
		size := base
		if i < remainder {
			size++
		}

		p := Partition{Min: 0, Max: core.OpenBound}
		if i > 0 {
			p.Min = sorted[offset]
		}
		if i < decileCount-1 {
			p.Max = sorted[offset+size]
		}
		partitions = append(partitions, p)
		offset += size
	}
	return partitions, nil
}

// palette returns the color scale for a bucket kind.
func palette(kind core.BucketKind) []string {
	if kind == core.BucketDecile {
		return decilePalette
	}
	return fixedPalette
}

// label renders a human-readable range for map legends.
func label(p Partition) string {
	if p.Open() {
		return fmt.Sprintf("over %d min", p.Min/60)
	}
	if p.Min == 0 {
		return fmt.Sprintf("under %d min", p.Max/60)
	}
	return fmt.Sprintf("%d-%d min", p.Min/60, p.Max/60)
}
