package castmon

// Journaler describes an event logger. Implementations must be safe for
// concurrent use, since the protocol engine reports connections from its own
// goroutines.
type Journaler interface {
	Write(Event) error
}

type discardJournaler struct{}

// DiscardJournaler is a journaler that drops every event.
var DiscardJournaler Journaler = discardJournaler{}

func (discardJournaler) Write(Event) error { return nil }
