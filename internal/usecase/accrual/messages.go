package accrual

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ngnasoro-engine/internal/domain/notification"
	"ngnasoro-engine/internal/domain/schedule"
)

// DedupeKey identifies one reminder: an installment crossing a threshold.
func DedupeKey(installmentID uint64, threshold int) string {
	return fmt.Sprintf("notif:%d:%d", installmentID, threshold)
}

func amount(d decimal.Decimal) string { return d.StringFixed(2) + " FCFA" }

func reminder(row *schedule.OverdueInstallment, a schedule.Accrual, baseURL string) *notification.Notification {
	due := row.DueDate.Format("02/01/2006")
	owed := row.AmountDue()

	var title, msg string
	switch a.DaysOverdue {
	case 1:
		title = "Échéance impayée"
		msg = fmt.Sprintf("Votre échéance n°%d de %s était due le %s. Merci de régulariser votre paiement.",
			row.InstallmentNumber, amount(owed), due)
	case 7:
		title = "Rappel : échéance en retard de 7 jours"
		msg = fmt.Sprintf("Votre échéance n°%d de %s due le %s est en retard de 7 jours. Des pénalités s'appliqueront à partir du 8e jour.",
			row.InstallmentNumber, amount(owed), due)
	default:
		title = fmt.Sprintf("Retard de paiement de %d jours", a.DaysOverdue)
		msg = fmt.Sprintf("Votre échéance n°%d due le %s est en retard de %d jours. Une pénalité de %s a été appliquée. Contactez votre SFD.",
			row.InstallmentNumber, due, a.DaysOverdue, amount(a.LateFee))
	}

	link := ""
	if baseURL != "" {
		link = strings.TrimRight(baseURL, "/") + "/loans/" + row.LoanRef + "/schedule"
	}
	return &notification.Notification{
		UserID:     row.ClientID,
		Email:      row.ClientEmail,
		Title:      title,
		Message:    msg,
		ActionLink: link,
		DedupeKey:  DedupeKey(row.ID, a.DaysOverdue),
	}
}

func severeDetails(row *schedule.OverdueInstallment, a schedule.Accrual, asOf time.Time) map[string]any {
	return map[string]any{
		"loan_id":            row.LoanRef,
		"client_id":          row.ClientID,
		"installment_id":     row.ID,
		"installment_number": row.InstallmentNumber,
		"due_date":           row.DueDate.Format(time.DateOnly),
		"days_overdue":       a.DaysOverdue,
		"amount_due":         row.AmountDue().StringFixed(2),
		"late_fee":           a.LateFee.StringFixed(2),
		"as_of":              asOf.Format(time.DateOnly),
	}
}
