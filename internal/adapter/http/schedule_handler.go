package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ngnasoro-engine/internal/usecase/schedule"
)

type ScheduleHandler struct{ uc *schedule.Usecase }

func NewScheduleHandler(uc *schedule.Usecase) *ScheduleHandler { return &ScheduleHandler{uc: uc} }

// GenerateSchedule builds the table of a disbursed loan that has none yet.
func (h *ScheduleHandler) GenerateSchedule(c echo.Context) error {
	dto, err := h.uc.Generate(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ScheduleHandler) ListSchedule(c echo.Context) error {
	dto, err := h.uc.List(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ScheduleHandler) ScheduleSummary(c echo.Context) error {
	dto, err := h.uc.Summary(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
