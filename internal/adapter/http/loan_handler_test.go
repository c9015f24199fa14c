package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	domain "ngnasoro-engine/internal/domain/loan"
	"ngnasoro-engine/internal/domain/uow"
	"ngnasoro-engine/internal/testutil/loanmock"
	"ngnasoro-engine/internal/testutil/uowmock"
	uc "ngnasoro-engine/internal/usecase/loan"
	scheduleuc "ngnasoro-engine/internal/usecase/schedule"
)

const LID = "llllllllllllllllllllllllllllllll"

type generatorFn func(ctx context.Context, loanID string) (*scheduleuc.ScheduleDTO, error)

func (f generatorFn) Generate(ctx context.Context, loanID string) (*scheduleuc.ScheduleDTO, error) {
	return f(ctx, loanID)
}

func newLoanHandler(repo *loanmock.Repo, g uc.ScheduleGenerator) *LoanHandler {
	usecase := uc.NewUsecase(repo, uowmock.Passthrough(uow.Repos{Loans: repo}), g, quietLogger())
	h := NewLoanHandler(usecase)
	h.now = func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }
	return h
}

func loanWithStatus(s domain.Status) *loanmock.Repo {
	return &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			if loanID != LID {
				return nil, gorm.ErrRecordNotFound
			}
			return &domain.Loan{ID: 1, LoanID: loanID, Status: s}, nil
		},
	}
}

func post(e *echo.Echo, path, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var req *stdhttp.Request
	if body == "" {
		req = httptest.NewRequest(stdhttp.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(stdhttp.MethodPost, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		c.SetParamNames("loan_id")
		c.SetParamValues(params...)
	}
	return c, rec
}

// -------- create / get --------

func TestCreateLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	repo := &loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			l.CreatedAt = time.Now().UTC()
			return nil
		},
	}
	h := newLoanHandler(repo, nil)

	reqBody := map[string]any{
		"client_id":            strings.Repeat("b", 32),
		"client_email":         "awa@example.ml",
		"principal":            120000,
		"annual_interest_rate": "12",
		"duration_months":      12,
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loans", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}
	var got uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.ClientID != strings.Repeat("b", 32) || !got.Principal.Equal(decimal.NewFromInt(120000)) {
		t.Fatalf("unexpected dto: %+v", got)
	}
	if got.Status != string(domain.StatusPending) {
		t.Fatalf("status = %s, want pending", got.Status)
	}
}

func TestCreateLoan_BindError(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{}, nil)

	c, rec := post(e, "/loans", `{"client_id":`) // broken JSON
	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Error != "invalid body" {
		t.Fatalf("error = %q, want %q", er.Error, "invalid body")
	}
}

func TestCreateLoan_ValidationError(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			t.Fatal("Create must not be called")
			return nil
		},
	}, nil)

	// invalid: client_id not hex32, principal not intlike, rate too many decimals, duration too long
	c, rec := post(e, "/loans", `{"client_id":"NOT_HEX_32","principal":5000000.01,"annual_interest_rate":1.234,"duration_months":400,"client_email":"nope"}`)
	if err := h.CreateLoan(c); err != nil {
		t.Fatalf("CreateLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if er.Error != "validation failed" {
		t.Fatalf("error = %q, want %q", er.Error, "validation failed")
	}
	for _, want := range []struct{ field, msg string }{
		{"client_id", "32-char lowercase hex"},
		{"principal", "integer value"},
		{"annual_interest_rate", "at most 2 decimal places"},
		{"duration_months", "less than or equal to 360"},
		{"client_email", "valid email"},
	} {
		if !containsFieldMsg(er.Details, want.field, want.msg) {
			t.Fatalf("missing %s detail: %+v", want.field, er.Details)
		}
	}
}

func TestGetLoan_Success(t *testing.T) {
	e := echo.New()
	h := newLoanHandler(&loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return &domain.Loan{LoanID: loanID, ClientID: strings.Repeat("b", 32), Status: domain.StatusActive}, nil
		},
	}, nil)

	req := httptest.NewRequest(stdhttp.MethodGet, "/loans/"+LID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues(LID)

	if err := h.GetLoan(c); err != nil {
		t.Fatalf("GetLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var dto uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.LoanID != LID || dto.Status != "active" {
		t.Fatalf("dto = %+v", dto)
	}
}

func TestGetLoan_NotFound(t *testing.T) {
	e := echo.New()
	h := newLoanHandler(&loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}, nil)

	req := httptest.NewRequest(stdhttp.MethodGet, "/loans/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues("x")

	if err := h.GetLoan(c); err != nil {
		t.Fatalf("GetLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Error != "loan not found" {
		t.Fatalf("error = %q", er.Error)
	}
}

// -------- approve / disburse --------

func TestApproveLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(loanWithStatus(domain.StatusPending), nil)

	c, rec := post(e, "/loans/"+LID+"/approve", "", LID)
	if err := h.ApproveLoan(c); err != nil {
		t.Fatalf("ApproveLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var dto uc.LoanDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &dto)
	if dto.Status != "approved" {
		t.Fatalf("status = %s", dto.Status)
	}
}

func TestApproveLoan_MissingPathParam(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{}, nil)

	c, rec := post(e, "/loans//approve", "")
	if err := h.ApproveLoan(c); err != nil {
		t.Fatalf("ApproveLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestApproveLoan_InvalidTransition(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(loanWithStatus(domain.StatusRejected), nil)

	c, rec := post(e, "/loans/"+LID+"/approve", "", LID)
	if err := h.ApproveLoan(c); err != nil {
		t.Fatalf("ApproveLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestDisburseLoan_Success(t *testing.T) {
	e := newEchoWithValidator()
	var disbursedAt time.Time
	repo := loanWithStatus(domain.StatusApproved)
	repo.SaveFn = func(ctx context.Context, l *domain.Loan) error {
		disbursedAt = *l.DisbursedAt
		return nil
	}
	g := generatorFn(func(ctx context.Context, loanID string) (*scheduleuc.ScheduleDTO, error) {
		return &scheduleuc.ScheduleDTO{LoanID: loanID, MonthlyPayment: decimal.RequireFromString("10661.85")}, nil
	})
	h := newLoanHandler(repo, g)

	c, rec := post(e, "/loans/"+LID+"/disburse", `{"disbursement_date":"2024-01-15"}`, LID)
	if err := h.DisburseLoan(c); err != nil {
		t.Fatalf("DisburseLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var out uc.DisbursementDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if out.Loan.Status != "disbursed" || out.Schedule == nil || !out.Schedule.MonthlyPayment.Equal(decimal.RequireFromString("10661.85")) {
		t.Fatalf("out = %+v", out)
	}
	if !disbursedAt.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("disbursed_at = %s", disbursedAt)
	}
}

func TestDisburseLoan_DefaultsToNow(t *testing.T) {
	e := newEchoWithValidator()
	var disbursedAt time.Time
	repo := loanWithStatus(domain.StatusApproved)
	repo.SaveFn = func(ctx context.Context, l *domain.Loan) error {
		disbursedAt = *l.DisbursedAt
		return nil
	}
	g := generatorFn(func(ctx context.Context, loanID string) (*scheduleuc.ScheduleDTO, error) {
		return &scheduleuc.ScheduleDTO{LoanID: loanID}, nil
	})
	h := newLoanHandler(repo, g)

	c, rec := post(e, "/loans/"+LID+"/disburse", "", LID)
	if err := h.DisburseLoan(c); err != nil {
		t.Fatalf("DisburseLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !disbursedAt.Equal(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("disbursed_at = %s", disbursedAt)
	}
}

func TestDisburseLoan_BadDate(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(loanWithStatus(domain.StatusApproved), nil)

	c, rec := post(e, "/loans/"+LID+"/disburse", `{"disbursement_date":"15/01/2024"}`, LID)
	if err := h.DisburseLoan(c); err != nil {
		t.Fatalf("DisburseLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if !containsFieldMsg(er.Details, "disbursement_date", "2006-01-02") {
		t.Fatalf("details = %+v", er.Details)
	}
}

func TestDisburseLoan_ScheduleFailureReturnsLoan(t *testing.T) {
	e := newEchoWithValidator()
	g := generatorFn(func(ctx context.Context, loanID string) (*scheduleuc.ScheduleDTO, error) {
		return nil, errors.New("insert failed")
	})
	h := newLoanHandler(loanWithStatus(domain.StatusApproved), g)

	c, rec := post(e, "/loans/"+LID+"/disburse", "", LID)
	if err := h.DisburseLoan(c); err != nil {
		t.Fatalf("DisburseLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body disburseErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body.Loan.Status != "disbursed" || !strings.HasPrefix(body.Error, "schedule generation failed") {
		t.Fatalf("body = %+v", body)
	}
}

func TestDisburseLoan_NotApproved(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(loanWithStatus(domain.StatusPending), nil)

	c, rec := post(e, "/loans/"+LID+"/disburse", "", LID)
	if err := h.DisburseLoan(c); err != nil {
		t.Fatalf("DisburseLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
