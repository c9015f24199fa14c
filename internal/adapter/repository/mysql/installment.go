package mysql

import (
	"context"
	"time"

	"ngnasoro-engine/internal/domain/schedule"

	"gorm.io/gorm"
)

const insertBatchSize = 100

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) ExistsForLoan(ctx context.Context, loanID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&schedule.Installment{}).
		Where("loan_id = ?", loanID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (r *InstallmentRepository) CreateBatch(ctx context.Context, rows []*schedule.Installment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]*schedule.Installment, error) {
	var out []*schedule.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("installment_number ASC").
		Find(&out).Error
	return out, err
}

func (r *InstallmentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*schedule.OverdueInstallment, error) {
	var out []*schedule.OverdueInstallment
	err := r.db.WithContext(ctx).
		Table("installments").
		Select("installments.*, loans.loan_id AS loan_ref, loans.client_id, loans.client_email").
		Joins("JOIN loans ON loans.id = installments.loan_id AND loans.deleted_at IS NULL").
		Where("installments.status IN ?", []string{string(schedule.StatusPending), string(schedule.StatusOverdue)}).
		Where("installments.due_date < ?", asOf).
		Order("installments.due_date ASC, installments.id ASC").
		Scan(&out).Error
	return out, err
}

func (r *InstallmentRepository) UpdateAccrual(ctx context.Context, id uint64, a schedule.Accrual) error {
	return r.db.WithContext(ctx).
		Model(&schedule.Installment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       string(a.Status),
			"days_overdue": a.DaysOverdue,
			"late_fee":     a.LateFee,
		}).Error
}
