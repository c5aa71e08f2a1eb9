// Package feedback holds the meeting feedback data model and the HTML widget
// renderer shared by both transports.
//
// A feedback Item is classified by Category (UI, UX, Copy, Tech) and Priority
// (critical, improvement, nice_to_have). Render groups items into one bucket
// per priority, preserving input order inside each bucket, and produces a
// self-contained HTML document with inline styles so it can be embedded by
// agent UIs without external assets.
//
// # Leniency
//
// The package is deliberately permissive about values it cannot classify:
//
//   - an item whose Priority is not one of the three known values is left out
//     of every bucket and of every count;
//   - an item whose Category is unknown is rendered with the generic pin
//     glyph and its category text as given.
//
// When an Item is decoded from JSON, an absent "priority" key defaults to
// nice_to_have and an absent "category" key defaults to UI. A key that is
// present is kept as text and subject to the rules above: null becomes the
// empty string and numbers, booleans and nested values keep their JSON form.
// A null priority is therefore dropped, not defaulted.
//
// # Strict decoding
//
// DecodeRequest is the strict counterpart used by the REST endpoint: every
// field is required, must be a string, and the two enumerations are closed.
// It reports every violation at once as a *ValidationError whose entries carry
// the JSON path of the offending value.
//
// # Escaping
//
// All user supplied text (item, original_quote, category) is escaped by
// html/template before it reaches the document.
package feedback
