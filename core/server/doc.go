// Package server holds configuration for the HTTP surface of the
// inventory connector. The Fiber application itself is assembled in the
// start command; this package only owns the settings it needs.
package server
