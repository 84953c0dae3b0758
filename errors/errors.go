package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code is a stable, machine-readable error kind the transport layer translates into a response code.
type Code string

const (
	CodeUnknown                Code = "UNKNOWN"
	CodeSessionNotFound        Code = "SESSION_NOT_FOUND"
	CodeParticipantNotFound    Code = "PARTICIPANT_NOT_FOUND"
	CodeDuplicateParticipant   Code = "DUPLICATE_PARTICIPANT"
	CodeInvalidOperation       Code = "INVALID_OPERATION"
	CodeInvalidArgument        Code = "INVALID_ARGUMENT"
	CodePersistenceUnavailable Code = "PERSISTENCE_UNAVAILABLE"
	CodeBusUnavailable         Code = "BUS_UNAVAILABLE"
	CodeNotInitialized         Code = "NOT_INITIALIZED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeSessionNotFound, CodeParticipantNotFound:
		return codes.NotFound
	case CodeDuplicateParticipant:
		return codes.AlreadyExists
	case CodeInvalidOperation:
		return codes.FailedPrecondition
	case CodeInvalidArgument:
		return codes.InvalidArgument
	case CodePersistenceUnavailable, CodeBusUnavailable, CodeNotInitialized:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}

// Error is the domain error type. Two errors are equal for errors.Is when they share a code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var (
	ErrSessionNotFound        = New(CodeSessionNotFound, "session not found")
	ErrParticipantNotFound    = New(CodeParticipantNotFound, "participant not found")
	ErrDuplicateParticipant   = New(CodeDuplicateParticipant, "duplicate participant")
	ErrInvalidOperation       = New(CodeInvalidOperation, "invalid operation")
	ErrInvalidArgument        = New(CodeInvalidArgument, "invalid argument")
	ErrPersistenceUnavailable = New(CodePersistenceUnavailable, "persistence unavailable")
	ErrBusUnavailable         = New(CodeBusUnavailable, "bus unavailable")
	ErrNotInitialized         = New(CodeNotInitialized, "node is not initialized")

	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrSubscriptionClosed = fmt.Errorf("bus subscription closed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
)

// CodeOf extracts the domain code carried by err, CodeUnknown otherwise.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// MapToGRPCError converts any error into a gRPC status error.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := CodeOf(err)
	return status.Error(code.GRPCCode(), fmt.Sprintf("%s: %s", code, err.Error()))
}
