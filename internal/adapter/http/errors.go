package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	domainLoan "ngnasoro-engine/internal/domain/loan"
	"ngnasoro-engine/internal/usecase/accrual"
	"ngnasoro-engine/pkg/loanmath"
)

// errorStatus maps usecase errors onto HTTP codes and the message shown.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domainLoan.ErrNotFound):
		return http.StatusNotFound, "loan not found"
	case errors.Is(err, domainLoan.ErrInvalidLoanState):
		return http.StatusConflict, err.Error()
	case errors.Is(err, loanmath.ErrInvalidArgument):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, accrual.ErrOverdueScan):
		return http.StatusServiceUnavailable, "overdue scan failed, retry later"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c echo.Context, err error) error {
	code, msg := errorStatus(err)
	if code == http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		c.Logger().Error(err)
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
