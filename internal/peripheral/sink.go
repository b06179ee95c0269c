package peripheral

import "github.com/vitaminmoo/mt7697-tool/internal/config"

// EventInputUpdated is raised with the decoded reading each time the board
// delivers an input sample. The payload is an int for Pin and a float64 for
// Ultrasonic.
const EventInputUpdated = "InputUpdated"

// Sink receives rejected operations and events from a client. Methods are
// called without the client lock held and may call back into the client.
type Sink interface {
	ReportError(op string, code Code, msg string)
	EmitEvent(name string, payload any)
}

// LogSink logs errors as warnings and events at debug level.
type LogSink struct {
	Source string
}

func (s LogSink) ReportError(op string, code Code, msg string) {
	config.Warnf("%s: %s failed: %s (%d)", s.Source, op, msg, int(code))
}

func (s LogSink) EmitEvent(name string, payload any) {
	config.Debugf("%s: %s %v", s.Source, name, payload)
}

// FuncSink adapts plain functions to a Sink. Nil fields are ignored.
type FuncSink struct {
	OnError func(op string, code Code, msg string)
	OnEvent func(name string, payload any)
}

func (s FuncSink) ReportError(op string, code Code, msg string) {
	if s.OnError != nil {
		s.OnError(op, code, msg)
	}
}

func (s FuncSink) EmitEvent(name string, payload any) {
	if s.OnEvent != nil {
		s.OnEvent(name, payload)
	}
}
