// Package field binds one stored form definition to one host field value.
//
// A Controller is mounted against the configuration payload, keeps the
// operator's in-progress edit separate from the committed value, and writes
// to the field only when a submission is valid and actually changes
// something. Errors reported by the rendering layer roll the field back to
// the last committed value.
//
// Controllers are not safe for concurrent use; callers serialise events the
// same way a UI event loop would.
package field
