// Package reconcile matches incoming item payloads against a source's
// derived field schema and upserts the resulting records.
//
// Each item is keyed by (source, stringified external id). Keyed custom
// fields match definitions by exact name; positional slot fields
// ({text,numeric,boolean}Field{1..3}Value) greedily claim the first
// unclaimed definition of their type family in schema order, which makes
// the result order-dependent on both the schema's persisted sequence and
// the payload's item order. An item's field values are always fully
// replaced, never diffed.
package reconcile
