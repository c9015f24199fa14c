package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ngnasoro-engine/internal/usecase/accrual"
	"ngnasoro-engine/pkg/loanmath"
)

type AccrualRunner interface {
	Run(ctx context.Context, asOf time.Time) (*accrual.Result, error)
}

type AccrualHandler struct {
	runner AccrualRunner
	loc    *time.Location
	now    func() time.Time
}

func NewAccrualHandler(r AccrualRunner, loc *time.Location) *AccrualHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AccrualHandler{runner: r, loc: loc, now: time.Now}
}

type runAccrualReq struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// RunAccrual runs the daily accrual for as_of, today when omitted. Future
// dates are refused since a run cannot be undone.
func (h *AccrualHandler) RunAccrual(c echo.Context) error {
	var req runAccrualReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	today := loanmath.DateIn(h.now(), h.loc)
	asOf := today
	if req.AsOf != "" {
		asOf, _ = time.Parse(time.DateOnly, req.AsOf)
		if asOf.After(today) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "validation failed",
				Details: []FieldError{{Field: "as_of", Message: "must not be in the future"}},
			})
		}
	}

	res, err := h.runner.Run(c.Request().Context(), asOf)
	if err != nil {
		if res == nil {
			return respondError(c, err)
		}
		c.Logger().Error(err)
		return c.JSON(http.StatusServiceUnavailable, res)
	}
	return c.JSON(http.StatusOK, res)
}
