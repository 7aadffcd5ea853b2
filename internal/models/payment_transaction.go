package models

import "time"

// Gateway transaction statuses. The delivery states belong to the gateway's
// goods-fulfilment vocabulary and are unused by the fee-payment flow.
const (
	TransactionStatusPending          = "pending"
	TransactionStatusPaid             = "paid"
	TransactionStatusCancelled        = "cancelled"
	TransactionStatusFailed           = "failed"
	TransactionStatusAwaitingDelivery = "awaiting_delivery"
	TransactionStatusDelivered        = "delivered"
)

// PaymentTransaction tracks one attempt to pay a fee through the external
// gateway. Transactions are never deleted; they are the audit trail.
type PaymentTransaction struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	StudentID        uint       `gorm:"index:idx_txn_student_status;not null" json:"student_id"`
	FeeID            uint       `gorm:"index" json:"fee_id"`
	Reference        string     `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	Amount           float64    `gorm:"not null" json:"amount"`
	Term             string     `gorm:"size:20;not null" json:"term"`
	AcademicYear     string     `gorm:"size:10;not null" json:"academic_year"`
	RedirectURL      string     `gorm:"size:512" json:"redirect_url"`
	PollURL          string     `gorm:"size:512" json:"poll_url"`
	Status           string     `gorm:"size:20;default:pending;index:idx_txn_student_status" json:"status"`
	GatewayReference string     `gorm:"size:100" json:"gateway_reference"`
	PaymentMethod    string     `gorm:"size:30" json:"payment_method"`
	PaymentDate      *time.Time `json:"payment_date"`
	StudentEmail     string     `gorm:"size:255;not null" json:"student_email"`
	StudentName      string     `gorm:"size:200;not null" json:"student_name"`
	StudentCode      string     `gorm:"size:20;not null" json:"student_code"`
	Metadata         string     `gorm:"type:text" json:"metadata"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CanCancel reports whether the transaction may still be cancelled.
func (t PaymentTransaction) CanCancel() bool {
	return t.Status == TransactionStatusPending
}
