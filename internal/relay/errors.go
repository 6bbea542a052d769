package relay

import (
	"errors"
	"fmt"
)

// Kind classifies a command failure.
type Kind string

const (
	KindPath           Kind = "PathError"
	KindIO             Kind = "IOError"
	KindParse          Kind = "ParseError"
	KindSubprocess     Kind = "SubprocessError"
	KindEncoding       Kind = "EncodingError"
	KindArgument       Kind = "ArgumentError"
	KindUnknownCommand Kind = "UnknownCommand"
)

// Error is the failure result of a command. Its message is what the
// front-end displays.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a tagged error from a format string.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of a relay error, or "" for anything else.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

func PathError(message string) error {
	return &Error{Kind: KindPath, Message: message}
}

func IOError(err error) error {
	return Wrap(KindIO, err)
}

func ParseError(err error) error {
	return Wrap(KindParse, err)
}

func EncodingError(err error) error {
	return Wrap(KindEncoding, err)
}
