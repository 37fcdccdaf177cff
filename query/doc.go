// Package query answers natural-language questions from a built index.
//
// An Engine embeds the question, retrieves the nearest documents by cosine
// similarity, re-ranks them inside the retrieved set and asks a chat model
// to answer from the numbered evidence:
//   - Documents containing every significant word of the question get a
//     verbatim boost
//   - Documents whose status or discrepancy matches the detected intent
//     (overdue, mismatch, over-limit, ...) get an intent boost
//
// The model replies with JSON carrying a summary, a confidence and the
// evidence numbers it cited. Replies that are not JSON become the summary.
//
// Querying an index that has never been built fails with
// core.IndexNotBuiltError. Embedding and generation failures are returned
// as core.ProviderError and are never retried.
package query
