package ir

// Event is one reconstructed trace event.
//
// Clock is the scalar sequence number (recorded order or assigned);
// VectorTimestamp is the thread's vector clock just after this event.
type Event struct {
	ID              string      `json:"id"`
	Kind            Kind        `json:"kind"`
	Thread          ThreadRef   `json:"thread"`
	Clock           int64       `json:"clock"`
	VectorTimestamp VectorClock `json:"vector_timestamp"`
	Dependency      string      `json:"dependency,omitempty"`
	Dependencies    []string    `json:"dependencies,omitempty"`
	Fields          Fields      `json:"fields"`
	Index           int         `json:"index"`
}

// Parents returns the primary dependency followed by the additional ones.
func (e Event) Parents() []string {
	out := make([]string, 0, 1+len(e.Dependencies))
	if e.Dependency != "" {
		out = append(out, e.Dependency)
	}
	return append(out, e.Dependencies...)
}

// Edge is a resolved dependency: From happened before To.
// Primary marks the edge of the record's "dependency" field; edges from
// "dependencies" entries are not primary.
type Edge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Primary bool   `json:"primary"`
}
