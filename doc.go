// Package petstore keeps pet and user documents in a flat key-value store
// that has no query-by-field capability of its own, and answers field
// queries through derived index sets it maintains itself.
//
// Three kinds of keys exist per collection:
//
//   - Primary slot:   "collection:id" -> serialized document
//   - Membership set: "collection"    -> set of all ids in the collection
//   - Field index:    "collection:field:value" -> set of ids holding value
//
// A mutation touches all three as one pipelined batch (see the kv package).
// Batches are best-effort: there is no cross-key transaction, a failure
// partway leaves a partially indexed document, and two concurrent mutations
// of the same id can interleave at the key level. Queries tolerate the
// resulting drift by skipping index entries whose document is gone.
package petstore
