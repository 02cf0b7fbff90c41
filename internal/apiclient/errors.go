package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthExpired = errors.New("apiclient: access token rejected")
	ErrAuthInvalid = errors.New("apiclient: session is no longer valid")
	ErrNetwork     = errors.New("apiclient: network failure")
	ErrValidation  = errors.New("apiclient: validation failed")
	ErrRejected    = errors.New("apiclient: request rejected")
	ErrServer      = errors.New("apiclient: server error")
	ErrDecode      = errors.New("apiclient: malformed response")
)

type ErrorCode string

const (
	ErrCodeAuthExpired ErrorCode = "auth_expired"
	ErrCodeAuthInvalid ErrorCode = "auth_invalid"
	ErrCodeNetwork     ErrorCode = "network"
	ErrCodeValidation  ErrorCode = "validation"
	ErrCodeRejected    ErrorCode = "rejected"
	ErrCodeServer      ErrorCode = "server"
	ErrCodeDecode      ErrorCode = "decode"
)

// Error is the failure of one API call. Payload holds the server's message
// field (or the whole body when the server did not use the envelope), which
// may be a string or a field -> messages object.
type Error struct {
	Code    ErrorCode
	Status  int
	Path    string
	Payload json.RawMessage
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	msg := Message(e, "")
	switch {
	case msg != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s %d: %s", e.Code, e.Path, e.Status, msg)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s %d", e.Code, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Path)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuthExpired:
		return e.Code == ErrCodeAuthExpired
	case ErrAuthInvalid:
		return e.Code == ErrCodeAuthInvalid
	case ErrNetwork:
		return e.Code == ErrCodeNetwork
	case ErrValidation:
		return e.Code == ErrCodeValidation
	case ErrRejected:
		return e.Code == ErrCodeRejected
	case ErrServer:
		return e.Code == ErrCodeServer
	case ErrDecode:
		return e.Code == ErrCodeDecode
	default:
		return false
	}
}

// invalidated reclassifies an auth failure as session-fatal, keeping the
// original status and payload and recording what ended the session.
func (e *Error) invalidated(cause error) *Error {
	out := *e
	out.Code = ErrCodeAuthInvalid
	if cause != nil {
		out.Err = cause
	}
	return &out
}

func codeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return ErrCodeAuthExpired
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case status >= 500:
		return ErrCodeServer
	default:
		return ErrCodeRejected
	}
}
