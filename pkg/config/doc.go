// Package config holds the configuration payload persisted by the host: a
// mapping of form names to JSON Schema form definitions. Payload values are
// immutable; With and Without always return a new mapping so the host never
// observes a partially written payload. The creation rules for form names and
// schema text live here too so the editor, the HTTP host and the CLI apply
// the same messages.
package config
