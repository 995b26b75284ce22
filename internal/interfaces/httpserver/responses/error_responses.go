package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"keygate-server/internal/domain/accesskey"
	"keygate-server/internal/utils/platformerrors"
)

// ErrorResponse represents an error response at the management boundary.
type ErrorResponse struct {
	Code      string `json:"code,omitempty"` // UUID from PlatformError
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError maps domain and platform errors to HTTP responses.
func HandleError(reqCtx *gin.Context, err error, message string) {
	status := domainErrorStatus(err)
	if status != 0 {
		reqCtx.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		reqCtx.AbortWithStatusJSON(
			platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType()),
			ErrorResponse{
				Code:      platformErr.GetUUID(),
				Error:     message,
				RequestID: platformErr.GetRequestID(),
			},
		)
		return
	}

	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: message})
}

// domainErrorStatus maps engine sentinel errors to status codes; 0
// means the error is not a domain error.
func domainErrorStatus(err error) int {
	switch {
	case errors.Is(err, accesskey.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, accesskey.ErrKeyExpired), errors.Is(err, accesskey.ErrDeviceBound):
		return http.StatusForbidden
	case errors.Is(err, accesskey.ErrInvalidDuration), errors.Is(err, accesskey.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, accesskey.ErrGenerationExhausted):
		return http.StatusInternalServerError
	default:
		return 0
	}
}
