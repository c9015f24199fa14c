package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health   *Handler
	Loans    *LoanHandler
	Schedule *ScheduleHandler
	Accrual  *AccrualHandler
}

// Register mounts every route. mutating wraps handlers that change state.
func Register(e *echo.Echo, h Handlers, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	loans := e.Group("/loans")
	loans.POST("", h.Loans.CreateLoan, mutating...)
	loans.GET("/:loan_id", h.Loans.GetLoan)
	loans.POST("/:loan_id/approve", h.Loans.ApproveLoan, mutating...)
	loans.POST("/:loan_id/disburse", h.Loans.DisburseLoan, mutating...)
	loans.POST("/:loan_id/schedule", h.Schedule.GenerateSchedule, mutating...)
	loans.GET("/:loan_id/schedule", h.Schedule.ListSchedule)
	loans.GET("/:loan_id/schedule/summary", h.Schedule.ScheduleSummary)

	e.POST("/accrual/runs", h.Accrual.RunAccrual, mutating...)
}
