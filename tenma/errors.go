package tenma

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNotFound     = errors.New("device not found/plugged")
	ErrValidation   = errors.New("invalid parameter")
	ErrUnsupported  = errors.New("not supported by this model")
	ErrMismatch     = errors.New("read back mismatch")
	ErrTransport    = errors.New("transport failure")
	ErrProtocol     = errors.New("unexpected reply")
	ErrInconclusive = errors.New("model detection inconclusive")
)

// A ValidationError is raised before any I/O when an argument falls outside the profile limits.
type ValidationError struct {
	Channel int
	Value   int
	Limit   int
	Unit    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type UnsupportedError struct {
	Model     string
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Model, e.Operation, ErrUnsupported)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// A MismatchError is raised after I/O: the unit may already hold the mismatched value.
type MismatchError struct {
	Channel   int
	Requested int
	ReadBack  int
	Unit      string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("CH%d: set %d%s, but read %d%s", e.Channel, e.Requested, e.Unit, e.ReadBack, e.Unit)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

type ProtocolError struct {
	Command string
	Reply   []byte
	Err     error
}

func (e *ProtocolError) Error() string {
	s := fmt.Sprintf("%s: %s %q", strings.TrimSpace(e.Command), ErrProtocol, e.Reply)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ProtocolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProtocol}
	}
	return []error{ErrProtocol, e.Err}
}

// A DetectionError reports that the identity matched no known profile.
// It is a warning: the driver keeps working with the fallback profile.
type DetectionError struct {
	Identity string
	Fallback string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("could not detect power supply model from %s, assuming %s", strconv.Quote(e.Identity), e.Fallback)
}

func (e *DetectionError) Is(target error) bool {
	return target == ErrInconclusive
}
