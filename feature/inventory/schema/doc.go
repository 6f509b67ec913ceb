// Package schema owns the derived per-source field schema and its
// precomputed statistics.
//
// Both stores follow full-replace-on-sync semantics: the previous rows for
// the source are purged and the new set is inserted inside one transaction,
// so concurrent readers never observe the empty gap as final state. The
// rebuilds never fail on an individual malformed entry; bad rows are retried
// once with sanitized values and then skipped with a warning.
package schema
