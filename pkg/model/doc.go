// Package model turns a form's JSON Schema and UI hints into the typed field
// tree renderers consume. The schema is decoded into kin-openapi's
// openapi3.Schema, which covers the keywords a form needs (types, required,
// enum, defaults, bounds, nested properties and items). Property order
// follows "ui:order" when present and the document's own key order
// otherwise.
package model
