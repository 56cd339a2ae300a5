// Package selector implements the textual slice-selection language for
// addressing rectangular subsets of multi-dimensional results. Per-dimension
// pattern strings resolve into explicit, deduplicated, ascending index
// arrays, with index and physical-value resolution modes, timeline
// collapsing of leading scan dimensions, a target-dimensionality
// post-condition and deterministic hash-based caching.
package selector
