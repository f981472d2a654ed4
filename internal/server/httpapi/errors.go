package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Err    string `json:"err"`
	Result any    `json:"result,omitempty"`
}

// statusFor maps err to an HTTP status. A partial failure is checked first
// because it wraps the per-child errors, which may match other sentinels.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorPartialFailure):
		return http.StatusInternalServerError
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorInvalidParentType),
		errors.Is(err, common.ErrorInvalidOperation),
		errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"err": ...}. partial is attached as "result"
// when err is a partial failure.
func writeError(c echo.Context, err error, partial any) error {
	body := errorBody{Err: err.Error()}
	if errors.Is(err, common.ErrorPartialFailure) {
		body.Result = partial
	}
	return c.JSON(statusFor(err), body)
}
