// Package reach derives the per-zone accessibility read-model: for every
// origin zone, how much of its group is reachable within fixed travel
// time horizons, folded into a single 0..1 composite score and a dense
// rank. Scores are recomputed wholesale per period.
package reach
