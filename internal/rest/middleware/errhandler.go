package middleware

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/logger"
)

// ErrorResponse is the body of every failed API call. Gateway failures
// carry the gateway's own type, code and param.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    string         `json:"type,omitempty"`
	Code    string         `json:"code,omitempty"`
	Param   string         `json:"param,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler middleware renders the last error a handler recorded
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.WithContext(c.Request.Context()).Errorw("request failed",
				"error", err,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", status,
			)
		}

		c.JSON(status, NewErrorResponse(err))
	}
}

// NewErrorResponse builds the response body for err
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error: ierr.DisplayMessage(err, "An unexpected error occurred"),
	}

	details := ierr.ReportableDetails(err)
	if ierr.IsGateway(err) {
		resp.Type, _ = details["type"].(string)
		resp.Code, _ = details["code"].(string)
		resp.Param, _ = details["param"].(string)
		delete(details, "type")
		delete(details, "code")
		delete(details, "param")
	}
	if len(details) > 0 {
		resp.Details = details
	}
	return resp
}
