package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "keygate-server/internal/domain/accesskey"
	"keygate-server/internal/infrastructure/metrics"
	"keygate-server/internal/interfaces/httpserver/requests"
	"keygate-server/internal/interfaces/httpserver/responses"
)

// ValidationHandler exposes the validation protocol boundary consumed
// by the web front end. Failure payloads always carry
// {valid:false, error} with a status category the front end can branch
// on.
type ValidationHandler struct {
	service *domain.Service
	log     zerolog.Logger
}

func NewValidationHandler(service *domain.Service, log zerolog.Logger) *ValidationHandler {
	return &ValidationHandler{
		service: service,
		log:     log.With().Str("component", "validation-handler").Logger(),
	}
}

// Validate handles POST /v1/validate.
func (h *ValidationHandler) Validate(c *gin.Context) {
	var req requests.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordValidation("bad_request")
		c.JSON(http.StatusBadRequest, responses.ValidateErrorResponse{Valid: false, Error: "key and fingerprint are required"})
		return
	}

	result, err := h.service.Validate(c.Request.Context(), req.Key, req.Fingerprint)
	if err != nil {
		status, outcome := validationFailure(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("key", req.Key).Msg("validation failed")
		}
		metrics.RecordValidation(outcome)
		c.JSON(status, responses.ValidateErrorResponse{Valid: false, Error: err.Error()})
		return
	}

	metrics.RecordValidation("valid")
	c.JSON(http.StatusOK, responses.BuildValidateResponse(result))
}

func validationFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrKeyNotFound):
		return http.StatusNotFound, "invalid_key"
	case errors.Is(err, domain.ErrKeyExpired):
		return http.StatusForbidden, "expired"
	case errors.Is(err, domain.ErrDeviceBound):
		return http.StatusForbidden, "device_bound"
	default:
		return http.StatusInternalServerError, "error"
	}
}
