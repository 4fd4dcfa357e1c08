package keytopic

import (
	"errors"
	"fmt"
)

// ErrorCode identifies why a topic could not be turned back into a key.
type ErrorCode int

const (
	CodeInvalidNamespace ErrorCode = iota + 1
	CodeInvalidPayload
)

// String returns the stable machine-readable form of the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidNamespace:
		return "ERR_TOPIC_IS_NOT_FROM_RECORD_NAMESPACE"
	case CodeInvalidPayload:
		return "ERR_TOPIC_PAYLOAD_IS_NOT_BASE64URL"
	default:
		return fmt.Sprintf("ERR_UNKNOWN_%d", int(c))
	}
}

var (
	ErrInvalidNamespace = errors.New("topic received is not from a record")
	ErrInvalidPayload   = errors.New("topic payload is not valid base64url")
)

// TopicError is returned by TopicToKey.
type TopicError struct {
	Code  ErrorCode
	Topic string
	Err   error
}

func (e *TopicError) Error() string {
	msg := e.sentinel().Error()
	if e.Err != nil {
		return fmt.Sprintf("%s: %q: %v", msg, e.Topic, e.Err)
	}
	return fmt.Sprintf("%s: %q", msg, e.Topic)
}

// Unwrap returns the decoder error, if any.
func (e *TopicError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that belongs to the error's code.
func (e *TopicError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *TopicError) sentinel() error {
	if e.Code == CodeInvalidPayload {
		return ErrInvalidPayload
	}
	return ErrInvalidNamespace
}

// CodeOf extracts the ErrorCode from err. ok is false when err did not come
// from this package.
func CodeOf(err error) (code ErrorCode, ok bool) {
	var te *TopicError
	if errors.As(err, &te) {
		return te.Code, true
	}
	return 0, false
}
