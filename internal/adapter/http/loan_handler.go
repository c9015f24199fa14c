package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"ngnasoro-engine/internal/usecase/loan"
)

type LoanHandler struct {
	uc  *loan.Usecase
	now func() time.Time
}

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc, now: time.Now} }

type createLoanReq struct {
	ClientID           string          `json:"client_id"            validate:"required,hex32"`
	ClientEmail        string          `json:"client_email"         validate:"omitempty,email"`
	SFDID              string          `json:"sfd_id"               validate:"omitempty,hex32"`
	Principal          decimal.Decimal `json:"principal"            validate:"required,gt=0,intlike"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate" validate:"gte=0,lte=100,dec2"`
	DurationMonths     int             `json:"duration_months"      validate:"required,gte=1,lte=360"`
}

type disburseLoanReq struct {
	// Accept canonical date `YYYY-MM-DD`; empty means now
	DisbursementDate string `json:"disbursement_date" validate:"omitempty,datetime=2006-01-02"`
}

type disburseErrorResponse struct {
	Error string       `json:"error"`
	Loan  loan.LoanDTO `json:"loan"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ApproveLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	dto, err := h.uc.Approve(c.Request().Context(), loanID, h.now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) DisburseLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req disburseLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	at := h.now().UTC()
	if req.DisbursementDate != "" {
		at, _ = time.Parse(time.DateOnly, req.DisbursementDate)
	}

	out, err := h.uc.Disburse(c.Request().Context(), loanID, at)
	if err != nil {
		if out == nil {
			return respondError(c, err)
		}
		// disbursed, but the schedule must be retried
		code, msg := errorStatus(err)
		c.Logger().Error(err)
		return c.JSON(code, disburseErrorResponse{Error: "schedule generation failed: " + msg, Loan: out.Loan})
	}
	return c.JSON(http.StatusOK, out)
}
