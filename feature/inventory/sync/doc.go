// Package sync drives full synchronization passes against remote inventory
// APIs.
//
// A pass is strictly sequential: fetch info (required), update source
// metadata, fetch the aggregated payload (best effort), rebuild the field
// schema and aggregate stores, then — for item imports — fetch and
// reconcile the item records in payload order. Severity-typed fetch results
// from the client package decide whether a failing step aborts the pass or
// only logs. Raw payloads are archived to object storage when a client is
// configured.
package sync
