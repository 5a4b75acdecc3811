package model

import "encoding/json"

// Event represents one recorded market event: a flat mapping of column name
// to raw string value, exactly as read from the source. Events are immutable
// after creation and carry their 0-based position in the source sequence.
type Event struct {
	Pos    int
	Fields map[string]string
}

// Field returns the named field value and whether it was present.
func (e Event) Field(name string) (string, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// Symbol returns the value of the given symbol column, or "" when absent.
func (e Event) Symbol(field string) string {
	return e.Fields[field]
}

// JSON returns the wire payload: every field encoded as a flat text-keyed
// object. Field order is not significant on the wire.
func (e Event) JSON() []byte {
	b, _ := json.Marshal(e.Fields)
	return b
}
