package constant

import "net/http"

// CustomError carries the HTTP status it should be reported with.
type CustomError struct {
	StatusCode int
	Message    string
}

func NewCError(statusCode int, message string) CustomError {
	return CustomError{StatusCode: statusCode, Message: message}
}

func (err CustomError) Error() string {
	return err.Message
}

var (
	ErrMissingParams = NewCError(http.StatusBadRequest,
		"missing required parameters")
	ErrUnauthorized = NewCError(http.StatusUnauthorized,
		"unauthorized")
	ErrAlertsUnavailable = NewCError(http.StatusServiceUnavailable,
		"alert sweep is not configured")
	ErrTimeout = NewCError(http.StatusGatewayTimeout,
		"request timed out")
	ErrSearchUnavailable = NewCError(http.StatusServiceUnavailable,
		"search is not configured")
	ErrUpstreamRateLimited = NewCError(http.StatusTooManyRequests,
		"upstream rate limit reached, please try again later")
	ErrUpstream = NewCError(http.StatusBadGateway,
		"upstream search failed")
)
