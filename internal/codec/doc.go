// Package codec converts snapshots to and from their wire form.
//
// The wire form is the JSON document exchanged with every backend and with
// the bundled seed asset. Timestamps travel as ISO-8601 strings and revive to
// UTC time.Time values on decode.
//
// Before decoding, every payload is checked against the embedded CUE schema
// (snapshot.cue). A payload that fails the check is reported as ErrShape and
// treated by callers as an unavailable source, never as partial data.
package codec
