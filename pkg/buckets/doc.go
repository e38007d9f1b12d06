// Package buckets derives colored travel-time partitions from the
// realized route durations of a period. Two schemes exist: a fixed
// six-step quarter-hour scale and an equal-frequency decile split of the
// observed sample. Both produce a total, gap-free partition of
// [0, infinity) seconds.
package buckets
