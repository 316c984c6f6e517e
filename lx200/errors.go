package lx200

import (
	"errors"
	"fmt"
)

// Sentinel errors for the LX200 link layer.
var (
	// ErrInvalidCommand reports a command that violates the framing or argument
	// contract. It is detected before any I/O.
	ErrInvalidCommand = errors.New("lx200: invalid command")

	// ErrLinkUnavailable reports a channel read/write/reset failure. The current
	// exchange is aborted; callers may start a fresh one.
	ErrLinkUnavailable = errors.New("lx200: link unavailable")

	// ErrTimeout reports an exchange that exceeded its deadline. It wraps
	// ErrLinkUnavailable, so retry logic keyed on ErrLinkUnavailable covers it.
	ErrTimeout = fmt.Errorf("%w: exchange deadline exceeded", ErrLinkUnavailable)

	// ErrDecode reports a reply that does not match the attribute's grammar.
	ErrDecode = errors.New("lx200: reply decode failed")
)

// DecodeError describes a reply payload that could not be decoded.
type DecodeError struct {
	Mnemonic string
	Payload  []byte
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("lx200: decode %s reply %q: %v", e.Mnemonic, e.Payload, e.Err)
}

// Unwrap exposes both ErrDecode and the grammar failure.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

func invalidCommand(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCommand, fmt.Sprintf(format, args...))
}

func linkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrLinkUnavailable, op, err)
}
