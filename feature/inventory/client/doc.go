// Package client talks to remote inventory APIs.
//
// It fetches the three payloads a sync consumes (info, aggregated, items)
// over HTTP GET with the source's token as a `token` query parameter. Every
// fetch returns a Result carrying a Severity so the orchestrator branches on
// hard versus best-effort failures explicitly rather than inspecting error
// strings. TLS verification can be disabled per source for self-signed
// local endpoints, and no call is ever retried automatically.
package client
