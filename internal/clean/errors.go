package clean

import "fmt"

// MalformedDateError reports an admission/discharge pair that cannot yield a stay length.
type MalformedDateError struct {
	Row    int64
	Field  string
	Value  string
	Reason string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("row %d: malformed %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
}

// MissingFieldError reports a required dataset column left blank.
type MissingFieldError struct {
	Row   int64
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("row %d: missing required field %s", e.Row, e.Field)
}
