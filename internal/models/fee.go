package models

import "time"

// Fee statuses, in derivation precedence order.
const (
	FeeStatusPaid    = "paid"
	FeeStatusPartial = "partial"
	FeeStatusOverdue = "overdue"
	FeeStatusPending = "pending"
)

// Payment methods accepted on the ledger.
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank-transfer"
	PaymentMethodMobileMoney  = "mobile-money"
	PaymentMethodGateway      = "gateway"
)

// Payment is a single ledger entry on a fee. Entries are append-only and
// have no identity outside their fee.
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FeeID         uint      `gorm:"index;not null" json:"fee_id"`
	Amount        float64   `gorm:"not null" json:"amount"`
	PaymentDate   time.Time `gorm:"not null" json:"payment_date"`
	PaymentMethod string    `gorm:"size:20;not null" json:"payment_method"`
	ReceivedBy    string    `gorm:"size:100" json:"received_by"`
	ReceiptNumber string    `gorm:"size:64;not null" json:"receipt_number"`
	Notes         string    `gorm:"size:255" json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// Fee is one billing period's charge for one student, unique per
// (student, term, academic year), with its embedded payment ledger.
// Version is the optimistic-concurrency stamp checked on every save.
type Fee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_fee_period" json:"student_id"`
	Student      Student   `json:"student,omitempty"`
	Term         string    `gorm:"size:20;not null;uniqueIndex:idx_fee_period" json:"term"`
	AcademicYear string    `gorm:"size:10;not null;uniqueIndex:idx_fee_period" json:"academic_year"`
	TotalAmount  float64   `gorm:"not null" json:"total_amount"`
	PaidAmount   float64   `gorm:"default:0" json:"paid_amount"`
	Balance      float64   `gorm:"default:0" json:"balance"`
	Status       string    `gorm:"size:10;default:pending" json:"status"`
	DueDate      time.Time `gorm:"not null" json:"due_date"`
	Version      uint      `gorm:"default:1" json:"version"`
	Payments     []Payment `gorm:"constraint:OnDelete:CASCADE" json:"payments"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Recalculate derives balance and status from the amount fields. It must run
// before every persist; precedence is paid > partial > overdue > pending and
// the paid threshold is non-strict, so overpayment still resolves to paid.
func (f *Fee) Recalculate(now time.Time) {
	f.Balance = f.TotalAmount - f.PaidAmount

	switch {
	case f.Balance <= 0:
		f.Status = FeeStatusPaid
	case f.PaidAmount > 0:
		f.Status = FeeStatusPartial
	case now.After(f.DueDate):
		f.Status = FeeStatusOverdue
	default:
		f.Status = FeeStatusPending
	}
}

// HasReceipt reports whether the ledger already carries an entry with the
// given receipt number. Used as the reconciliation idempotency guard.
func (f Fee) HasReceipt(receiptNumber string) bool {
	if receiptNumber == "" {
		return false
	}
	for _, payment := range f.Payments {
		if payment.ReceiptNumber == receiptNumber {
			return true
		}
	}
	return false
}

// LastPayment returns the most recent ledger entry, or nil when the ledger
// is empty.
func (f Fee) LastPayment() *Payment {
	if len(f.Payments) == 0 {
		return nil
	}
	return &f.Payments[len(f.Payments)-1]
}
