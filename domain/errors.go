// domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindRemoteAuth  Kind = "remote_auth"
	KindRemoteNotes Kind = "remote_notes"
	KindStorage     Kind = "storage"
	KindParse       Kind = "parse"
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
)

var ErrNotFound = errors.New("not found")

// Error is the kinded error returned across package boundaries. Status is the
// HTTP status for remote kinds and zero otherwise.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, msg, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind to err. Errors that already carry a kind are returned
// as they are so the original classification survives.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// Remote builds a remote error carrying the HTTP status.
func Remote(kind Kind, op string, status int, message string) *Error {
	return &Error{Kind: kind, Op: op, Status: status, Message: message}
}

// IsKind checks whether the first kinded error in the chain matches kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var target *Error
	if errors.As(err, &target) {
		return target.Status
	}
	return 0
}

