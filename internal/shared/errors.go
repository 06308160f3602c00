package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrStateMismatch       = fmt.Errorf("authorization state mismatch")
	ErrTokenExchangeFailed = fmt.Errorf("token exchange failed")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Pipeline errors
	ErrUpstreamFetch       = fmt.Errorf("upstream fetch failed")
	ErrTrackNotFound       = fmt.Errorf("track not found")
	ErrGeneratorFailed     = fmt.Errorf("text generation request failed")
	ErrMalformedAIResponse = fmt.Errorf("malformed generative response")
	ErrAggregationFailed   = fmt.Errorf("aggregation failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// UpstreamError records a failed request to the music provider along with the status it answered with.
//
// StatusCode is zero when the request never produced a response (transport failure, undecodable body).
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d", ErrUpstreamFetch, e.Op, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrUpstreamFetch, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrUpstreamFetch, e.Op)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports every UpstreamError as [ErrUpstreamFetch].
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFetch
}

// HTTPStatus maps a pipeline error to the most specific status code available, defaulting to 500.
//
// An upstream failure without a response status (refused connection, undecodable body) is a 500.
func HTTPStatus(err error) int {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &upstream) && upstream.StatusCode >= 400 && upstream.StatusCode < 600:
		return upstream.StatusCode
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStateMismatch), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrGeneratorFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short machine-readable name for the error class of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, ErrTokenExchangeFailed):
		return "token_exchange_failed"
	case errors.Is(err, ErrUpstreamFetch):
		return "upstream_fetch_failed"
	case errors.Is(err, ErrMalformedAIResponse):
		return "malformed_ai_response"
	case errors.Is(err, ErrGeneratorFailed):
		return "generator_failed"
	case errors.Is(err, ErrAggregationFailed):
		return "aggregation_failed"
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	default:
		return "internal"
	}
}
