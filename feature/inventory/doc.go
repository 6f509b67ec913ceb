// Package inventory exposes the source-level operations: creating and
// importing sources, running synchronization passes, probing connections
// and archiving. The heavy lifting lives in the subpackages; this package
// wires them behind a service and its HTTP handler.
package inventory
