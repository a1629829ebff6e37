package mailbox

// Event types produced by the core.
const (
	TypeWelcome      = "welcome"
	TypeNewSurvey    = "new-survey"
	TypeClosedSurvey = "closed-survey"
	TypePing         = "ping"
)

// Event is one outbound notification: a type tag plus a serialized payload.
type Event struct {
	Type string
	Data string
}

// Frame renders the event in the wire format consumed by event-stream
// clients: `event: <type>\ndata: <payload>\n\n`.
func (e Event) Frame() []byte {
	b := make([]byte, 0, len(e.Type)+len(e.Data)+18)
	b = append(b, "event: "...)
	b = append(b, e.Type...)
	b = append(b, "\ndata: "...)
	b = append(b, e.Data...)
	b = append(b, '\n', '\n')
	return b
}
