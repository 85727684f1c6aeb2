// Package lookup runs the fee lookup state machine for one query.
//
// A lookup resolves its input (a park name, or a trail listing URL that is
// resolved to the managing park), then runs search passes of widening scope:
//
//	strict    government and agency scoped queries, high score threshold
//	lenient   .org/.com, unscoped and broad queries, low score threshold
//	inferred  a second strict pass with a region inferred from search snippets
//	homepage  an official page without fee evidence, when requested
//
// Each pass searches its query variants in order, ranks the results and
// classifies candidates one at a time. The first classified page ends the
// lookup. When every pass is exhausted the verdict is not-verified.
//
// Search and fetch failures never abort a lookup; they only remove candidates.
package lookup
