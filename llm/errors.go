package llm

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call to the provider
type Kind int

// Failure kinds, each with its own user-facing message
const (
	KindNetwork Kind = iota
	KindBadRequest
	KindRateLimited
	KindUnavailable
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "network"
	}
}

// APIError is returned by Generate when the provider cannot be reached or
// answers with a non-success status
type APIError struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm %s: status %d", e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
	}
	return "llm " + e.Kind.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the user should be offered a retry
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	}
	return false
}

func kindForStatus(status int) Kind {
	switch status {
	case 400:
		return KindBadRequest
	case 429:
		return KindRateLimited
	case 503:
		return KindUnavailable
	}
	return KindNetwork
}

var userMessages = map[Kind]string{
	KindBadRequest:  "I couldn't understand that request. Please rephrase your health question and try again.",
	KindRateLimited: "I'm receiving too many requests right now. Please wait a moment before asking another question.",
	KindUnavailable: "The medical assistant is temporarily unavailable. Please try again in a few minutes.",
	KindTimeout:     "The response is taking longer than expected. Please try your question again.",
	KindNetwork:     "I'm having trouble connecting to my medical database. Please try again with your health question.",
}

// UserMessage maps an error from Generate to the text shown in the chat
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return userMessages[apiErr.Kind]
	}
	return userMessages[KindNetwork]
}

// Retryable reports whether err should be surfaced with a retry option
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
