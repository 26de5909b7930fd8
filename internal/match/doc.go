// Package match decides whether a search result from one catalog is the same song as a
// track from another, and orchestrates the searches needed to find it.
//
// # Scoring
//
// [Score] compares a [Candidate] against a [models.ReferenceTrack]. The title ratio and one
// best-of-N ratio per candidate artist are averaged, so a candidate that gets only one
// artist of a collaboration right scores lower than one that gets all of them.
// [Ratio] is the 2*M/T similarity where M is the longest common subsequence.
//
// # Ranking
//
// [Rank] scores a candidate set and stable-sorts it by confidence. [TopGroup] extracts the
// run of candidates tied with the best score, and [Select] picks the first of those that is
// available in the preferred [models.Format], falling back to the first of the group.
//
// # Ladder
//
// A [Ladder] tries each [Strategy] in order (expanded query, title only, short title) until
// one yields a top confidence at or above its threshold. Search errors degrade a single
// attempt to an empty result set.
//
// # Batch
//
// [Batch] runs one ladder per reference track on a bounded worker pool and returns a
// [Report] in input order.
package match
