// Package core defines the normalized event model shared by every stage of the
// triage pipeline.
//
// # Event lifecycle
//
// A parser in package ingest creates one Event per raw record, filling Raw with
// the source-native fields and Normalized with values from the closed Field
// vocabulary. The detect package attaches detection tags exactly once, after
// which the event is treated as read-only by the aggregate and report packages.
//
// # Normalized vocabulary
//
// Normalized fields are keyed by the Field enum rather than free-form strings,
// so every rule reads a statically known field no matter which parser built the
// event. Fields a source does not provide are simply absent and read as "".
package core
