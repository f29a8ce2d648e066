package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"pricewatch/internal/aggregate"
	"pricewatch/internal/api/constant"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorRes struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// Error renders the first error attached to the context as JSON.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) {
				abort(c, constant.ErrTimeout.StatusCode, ErrorRes{Error: constant.ErrTimeout.Message})
			}
			return
		}

		err := c.Errors[0].Err

		// - Binding errors from query/body validation
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			details := make([]FieldError, 0, len(ve))
			for _, fe := range ve {
				details = append(details, FieldError{Field: fe.Field(), Message: fe.Error()})
			}
			abort(c, http.StatusBadRequest, ErrorRes{Error: constant.ErrMissingParams.Message, Details: details})
			return
		}

		// - Domain errors
		var valErr *aggregate.ValidationError
		if errors.As(err, &valErr) {
			abort(c, http.StatusBadRequest, ErrorRes{Error: valErr.Error()})
			return
		}
		var rlErr *aggregate.RateLimitError
		if errors.As(err, &rlErr) {
			if secs := int(rlErr.RetryAfter.Seconds()); secs > 0 {
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			abort(c, http.StatusTooManyRequests, ErrorRes{Error: "rate limit exceeded, please try again later"})
			return
		}
		if errors.Is(err, aggregate.ErrRateLimited) {
			abort(c, http.StatusTooManyRequests, ErrorRes{Error: "rate limit exceeded, please try again later"})
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			abort(c, constant.ErrTimeout.StatusCode, ErrorRes{Error: constant.ErrTimeout.Message})
			return
		}

		// - Custom error from `constant`
		var ce constant.CustomError
		if errors.As(err, &ce) {
			abort(c, ce.StatusCode, ErrorRes{Error: ce.Error()})
			return
		}

		// - Unknown error, likely internal server error
		abort(c, http.StatusInternalServerError, ErrorRes{Error: "internal server error"})
	}
}

func abort(c *gin.Context, status int, body ErrorRes) {
	c.AbortWithStatusJSON(status, body)
}
