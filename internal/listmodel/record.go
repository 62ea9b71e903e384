// Package listmodel projects flat record snapshots through composable filters.
//
// A List owns one snapshot of records and one filter state. Every change to
// either recomputes the visible subset synchronously, so callers only ever
// read a consistent view. Lists are not safe for concurrent use; the UI loop
// is their only writer.
package listmodel

// Record is a flat row of named string fields. Field order comes from the
// owning Schema; absent fields read as the empty string.
type Record map[string]string

// Get returns the value of field, or "" when the record does not carry it.
func (r Record) Get(field string) string {
	return r[field]
}
