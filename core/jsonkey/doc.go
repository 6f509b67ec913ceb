// Package jsonkey resolves logical key names against decoded JSON objects
// whose producers disagree on casing conventions.
//
// Remote inventory APIs expose the same payloads with camelCase keys,
// PascalCase keys (typical for .NET serializers), or occasionally arbitrary
// casing. Resolve tries the key as given, then with the first rune
// upper-cased, then falls back to a case-insensitive scan, so callers can
// always ask for the canonical camelCase name.
//
// # Usage
//
//	if v, ok := jsonkey.Resolve(obj, "customFields"); ok { ... }
//	name := jsonkey.String(obj, "name", "Unnamed Field")
package jsonkey
