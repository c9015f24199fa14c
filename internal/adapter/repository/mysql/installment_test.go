package mysql

import (
	"context"
	"testing"
	"time"

	domain "ngnasoro-engine/internal/domain/loan"
	"ngnasoro-engine/internal/domain/schedule"
	"ngnasoro-engine/pkg/id"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func seedLoan(t *testing.T, repo *LoanRepository, clientID string) *domain.Loan {
	t.Helper()
	l := makeLoan(id.NewID32(), clientID)
	l.ClientEmail = "client@example.ml"
	if err := repo.Create(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}

func makeInstallments(loanID uint64, first time.Time, n int) []*schedule.Installment {
	rows := make([]*schedule.Installment, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, &schedule.Installment{
			LoanID:             loanID,
			InstallmentNumber:  i,
			DueDate:            first.AddDate(0, i-1, 0),
			PrincipalAmount:    decimal.RequireFromString("9000.00"),
			InterestAmount:     decimal.RequireFromString("1000.00"),
			TotalAmount:        decimal.RequireFromString("10000.00"),
			RemainingPrincipal: decimal.NewFromInt(int64(9000 * (n - i))),
			Status:             schedule.StatusPending,
		})
	}
	return rows
}

func TestInstallments_CreateBatchAndList(t *testing.T) {
	db := openTestDB(t)
	loans := NewLoanRepository(db)
	repo := NewInstallmentRepository(db)
	ctx := context.Background()

	l := seedLoan(t, loans, id.NewID32())

	exists, err := repo.ExistsForLoan(ctx, l.ID)
	if err != nil || exists {
		t.Fatalf("ExistsForLoan before insert: exists=%v err=%v", exists, err)
	}

	if err := repo.CreateBatch(ctx, makeInstallments(l.ID, day(2024, 2, 15), 3)); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	exists, err = repo.ExistsForLoan(ctx, l.ID)
	if err != nil || !exists {
		t.Fatalf("ExistsForLoan after insert: exists=%v err=%v", exists, err)
	}

	got, err := repo.ListByLoan(ctx, l.ID)
	if err != nil {
		t.Fatalf("ListByLoan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 rows, got %d", len(got))
	}
	for i, row := range got {
		if row.InstallmentNumber != i+1 {
			t.Fatalf("row %d has number %d", i, row.InstallmentNumber)
		}
		if !row.TotalAmount.Equal(decimal.NewFromInt(10_000)) {
			t.Fatalf("row %d total=%s", i, row.TotalAmount)
		}
		if !row.LateFee.IsZero() || row.DaysOverdue != 0 {
			t.Fatalf("row %d accrual fields not defaulted: %+v", i, row)
		}
	}
	if !got[0].DueDate.Equal(day(2024, 2, 15)) {
		t.Fatalf("due date = %s", got[0].DueDate)
	}
}

func TestInstallments_CreateBatch_DuplicateNumberRejected(t *testing.T) {
	db := openTestDB(t)
	loans := NewLoanRepository(db)
	repo := NewInstallmentRepository(db)
	ctx := context.Background()

	l := seedLoan(t, loans, id.NewID32())
	if err := repo.CreateBatch(ctx, makeInstallments(l.ID, day(2024, 2, 15), 2)); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if err := repo.CreateBatch(ctx, makeInstallments(l.ID, day(2024, 2, 15), 2)); err == nil {
		t.Fatal("expected unique violation on (loan_id, installment_number)")
	}
}

func TestInstallments_ListOverdue(t *testing.T) {
	db := openTestDB(t)
	loans := NewLoanRepository(db)
	repo := NewInstallmentRepository(db)
	ctx := context.Background()

	client := "cccccccccccccccccccccccccccccccc"
	l := seedLoan(t, loans, client)
	rows := makeInstallments(l.ID, day(2024, 1, 1), 4) // due 01-01, 02-01, 03-01, 04-01
	rows[1].Status = schedule.StatusOverdue
	rows[2].Status = schedule.StatusPaid
	if err := repo.CreateBatch(ctx, rows); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	got, err := repo.ListOverdue(ctx, day(2024, 3, 15))
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	// #1 pending and #2 overdue match; #3 is paid; #4 is not yet due
	if len(got) != 2 {
		t.Fatalf("want 2 overdue rows, got %d: %+v", len(got), got)
	}
	if got[0].InstallmentNumber != 1 || got[1].InstallmentNumber != 2 {
		t.Fatalf("unexpected order: %d, %d", got[0].InstallmentNumber, got[1].InstallmentNumber)
	}
	if got[0].ClientID != client || got[0].LoanRef != l.LoanID || got[0].ClientEmail != "client@example.ml" {
		t.Fatalf("loan identity not joined: %+v", got[0])
	}
	if got[0].ID == 0 || !got[0].TotalAmount.Equal(decimal.NewFromInt(10_000)) {
		t.Fatalf("installment columns not scanned: %+v", got[0].Installment)
	}

	// due_date == asOf is not overdue yet
	got, err = repo.ListOverdue(ctx, day(2024, 1, 1))
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("installment due today must not be listed, got %d", len(got))
	}
}

func TestInstallments_UpdateAccrual(t *testing.T) {
	db := openTestDB(t)
	loans := NewLoanRepository(db)
	repo := NewInstallmentRepository(db)
	ctx := context.Background()

	l := seedLoan(t, loans, id.NewID32())
	rows := makeInstallments(l.ID, day(2024, 1, 1), 1)
	if err := repo.CreateBatch(ctx, rows); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	upd := schedule.Accrual{Status: schedule.StatusOverdue, DaysOverdue: 8, LateFee: decimal.RequireFromString("500.00")}
	if err := repo.UpdateAccrual(ctx, rows[0].ID, upd); err != nil {
		t.Fatalf("UpdateAccrual: %v", err)
	}
	// same values again: a re-run overwrites, never accumulates
	if err := repo.UpdateAccrual(ctx, rows[0].ID, upd); err != nil {
		t.Fatalf("UpdateAccrual rerun: %v", err)
	}

	got, err := repo.ListByLoan(ctx, l.ID)
	if err != nil {
		t.Fatalf("ListByLoan: %v", err)
	}
	if got[0].Status != schedule.StatusOverdue || got[0].DaysOverdue != 8 || !got[0].LateFee.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("accrual not persisted: %+v", got[0])
	}
	if !got[0].PrincipalAmount.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("other columns touched: %+v", got[0])
	}
}
