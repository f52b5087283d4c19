package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation), domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrConfig):
		return http.StatusPreconditionFailed
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrAIService):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrExtraction), domain.IsKind(err, domain.ErrPDFRecovery):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
