package fetch

// Error is a failed fetch or extraction. StatusCode is set when the server answered
// with something other than 200.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := "fetch " + e.URL + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
