package peripheral

import "fmt"

// Code is a stable error identifier reported to the Sink. The numeric values
// match the error numbers the board's companion app has always used.
// Code implements error so it can be matched with errors.Is.
type Code int

const (
	ErrInvalidPin       Code = 9101
	ErrInvalidMode      Code = 9102
	ErrInvalidState     Code = 9104
	ErrInvalidDuration  Code = 9105
	ErrInvalidUnit      Code = 9106
	ErrInvalidFrequency Code = 9107
)

func (c Code) String() string {
	switch c {
	case ErrInvalidPin:
		return "invalid pin"
	case ErrInvalidMode:
		return "invalid mode"
	case ErrInvalidState:
		return "invalid state"
	case ErrInvalidDuration:
		return "invalid duration"
	case ErrInvalidUnit:
		return "invalid unit"
	case ErrInvalidFrequency:
		return "invalid frequency"
	default:
		return fmt.Sprintf("error %d", int(c))
	}
}

func (c Code) Error() string { return c.String() }

// Error is a rejected client operation. Prior configuration is left
// unchanged whenever one is returned.
type Error struct {
	Op   string
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Msg, int(e.Code))
}

func (e *Error) Unwrap() error { return e.Code }
