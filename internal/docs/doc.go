// Package docs owns the in-memory document ledger.
//
// The ledger is strictly single-writer: only the pipeline control loop may
// call its mutating methods, so the type carries no locks. Rows move through
// Ready, Review, and Processed; rows sharing a case-folded display name form
// a collision group that is forced into Review until an operator resolves
// the clash. The sentinel display name "!" marks documents whose identity
// could not be established and is exempt from grouping.
package docs
