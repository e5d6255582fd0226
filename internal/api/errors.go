package api

import "fmt"

// ErrorKind classifies a failed content API call.
type ErrorKind int

const (
	// KindNetwork covers transport failures: the request never completed or
	// the body could not be read or parsed.
	KindNetwork ErrorKind = iota
	// KindServer covers responses that arrived but carried success:false,
	// an error status, or an unexpected shape.
	KindServer
	// KindValidation covers inputs rejected locally before any network call.
	KindValidation
)

// Error is the uniform failure value returned by every Client operation. The
// Message is always safe to display verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrQueryTooShort is returned by Search for queries under two characters.
// No request is issued for it.
var ErrQueryTooShort = &Error{Kind: KindValidation, Message: "Enter at least 2 characters to search."}

func networkErr(op string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("Could not reach the content server (%s).", op),
		Err:     err,
	}
}

func serverErr(message string, err error) *Error {
	if message == "" {
		message = "The content server rejected the request."
	}
	return &Error{Kind: KindServer, Message: message, Err: err}
}

func validationErr(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// IsValidation reports whether err is a locally rejected input.
func IsValidation(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Kind == KindValidation
}
