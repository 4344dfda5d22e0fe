// Package apperr defines the error kinds the bot reports back to its operator.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the operator can react to it.
type Kind string

const (
	// KindAuthorization means the sender is not the configured operator. Terminal per message.
	KindAuthorization Kind = "authorization"
	// KindQuota means a daily cap was reached. Clears at day rollover.
	KindQuota Kind = "quota"
	// KindPrecondition means the operator must do something first. Nothing was mutated.
	KindPrecondition Kind = "precondition"
	// KindUpload means an uploaded file was rejected.
	KindUpload Kind = "upload"
	// KindTransient means an external call failed. State is unchanged and retry is safe.
	KindTransient Kind = "transient"
)

// Precondition sentinels, matched with errors.Is.
var (
	ErrNoWritingProfile     = errors.New("no writing rules set")
	ErrNoStoryBible         = errors.New("no story bible set")
	ErrNoActiveDraft        = errors.New("no unapproved chapter draft")
	ErrNoActiveContinuation = errors.New("no truncated draft to continue")
	ErrEmptyFeedback        = errors.New("feedback is empty")
)

// ServiceUnavailable is the operator-facing text for transient failures.
const ServiceUnavailable = "AI service temporarily unavailable. Please try again in a moment."

// Error carries a Kind and a one-line operator message alongside the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Precondition reports a user-correctable missing prerequisite.
func Precondition(message string, cause error) *Error {
	return New(KindPrecondition, message, cause)
}

// Quota reports a reached daily cap.
func Quota(message string) *Error {
	return New(KindQuota, message, nil)
}

// Upload reports a rejected file.
func Upload(message string) *Error {
	return New(KindUpload, message, nil)
}

// Transient wraps a failed external call.
func Transient(cause error) *Error {
	return New(KindTransient, ServiceUnavailable, cause)
}

// Unauthorized reports an unknown sender.
func Unauthorized() *Error {
	return New(KindAuthorization, "This bot is private. Access denied.", nil)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage renders err as the one-line message shown to the operator.
// Errors without a kind are treated as transient so internals never leak into chat.
func UserMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "❌ " + ServiceUnavailable
	}

	switch appErr.Kind {
	case KindAuthorization:
		return "🚫 " + appErr.Message
	case KindQuota:
		return "⛔ " + appErr.Message
	default:
		return "❌ " + appErr.Message
	}
}
