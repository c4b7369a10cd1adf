package api

import (
	"errors"
	"net/http"

	"github.com/pomorank/pomorank/internal/adapters/detail"
	"github.com/pomorank/pomorank/internal/adapters/ranking"
	"github.com/pomorank/pomorank/internal/adapters/repository"
	service "github.com/pomorank/pomorank/internal/app"
	"github.com/pomorank/pomorank/internal/domain/period"
	"github.com/pomorank/pomorank/internal/reset"
)

// ErrBadRequest tags request parsing failures detected in the handler
// layer, before the service is called.
var ErrBadRequest = errors.New("bad request")

// statusFor translates the error taxonomy into an HTTP status:
// 400 for validation failures, 503 when a store is unreachable,
// 500 otherwise.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, period.ErrInvalidPeriod),
		errors.Is(err, reset.ErrManualPeriod):
		return http.StatusBadRequest
	case errors.Is(err, ranking.ErrUnavailable),
		errors.Is(err, detail.ErrUnavailable),
		errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusServiceUnavailable:
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
