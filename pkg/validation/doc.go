// Package validation compiles form schemas and checks field values against
// them. JSONSchema wraps github.com/santhosh-tekuri/jsonschema/v5; custom
// checks referenced by a form's "validate" member are looked up by name in a
// Hooks registry and run after schema validation.
package validation
