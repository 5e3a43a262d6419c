package types

// Event represents a typed fact emitted after a ledger mutation commits. Type
// names the kind of fact, Subject identifies the record it concerns (vault,
// asset, series or pair id in hex) and Attributes carries the changed fields.
type Event struct {
	Type       string            `json:"type"`
	Subject    string            `json:"subject"`
	Attributes map[string]string `json:"attributes"`
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	clone := &Event{Type: e.Type, Subject: e.Subject, Attributes: make(map[string]string, len(e.Attributes))}
	for k, v := range e.Attributes {
		clone.Attributes[k] = v
	}
	return clone
}
