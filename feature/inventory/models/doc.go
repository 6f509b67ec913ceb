// Package models defines the persisted entities of the inventory connector:
// sources, field definitions, field aggregates, items, field values and tags.
//
// The schema mirrors the remote API's notion of a dynamically-typed custom
// field set against a fixed storage model: each FieldValue populates exactly
// one typed slot (text, numeric, boolean) chosen by its FieldType, and the
// definition/aggregate sets for a source are fully replaced on every sync.
package models
