package dto

import (
	"time"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// InitiatePaymentRequest opens a gateway payment session for a student's fee.
type InitiatePaymentRequest struct {
	Student      string  `json:"student" validate:"required"`
	Term         string  `json:"term" validate:"required"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
}

// PaymentStudent identifies the payer in gateway responses.
type PaymentStudent struct {
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
}

// PaymentFeeDetails echoes the billing period of the session.
type PaymentFeeDetails struct {
	Term         string  `json:"term"`
	AcademicYear string  `json:"academic_year"`
	Amount       float64 `json:"amount"`
}

// InitiatePaymentResponse returns the session handles to the client.
type InitiatePaymentResponse struct {
	TransactionID uint              `json:"transaction_id"`
	Reference     string            `json:"reference"`
	RedirectURL   string            `json:"redirect_url"`
	PollURL       string            `json:"poll_url"`
	Instructions  string            `json:"instructions"`
	Amount        float64           `json:"amount"`
	Student       PaymentStudent    `json:"student"`
	FeeDetails    PaymentFeeDetails `json:"fee_details"`
}

// StatusCheckResponse reports the reconciled state of a transaction.
type StatusCheckResponse struct {
	Reference        string     `json:"reference"`
	Status           string     `json:"status"`
	Amount           float64    `json:"amount"`
	StudentCode      string     `json:"student_code"`
	StudentName      string     `json:"student_name"`
	GatewayReference string     `json:"gateway_reference"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentDate      *time.Time `json:"payment_date"`
	FeeUpdated       bool       `json:"fee_updated"`
}

// WebhookPayload is the provider's result callback. Field names follow the
// provider's form encoding.
type WebhookPayload struct {
	Reference        string  `json:"reference" form:"reference"`
	GatewayReference string  `json:"paynowreference" form:"paynowreference"`
	Status           string  `json:"status" form:"status"`
	Amount           float64 `json:"amount" form:"amount"`
	Method           string  `json:"method" form:"method"`
}

// WebhookResult acknowledges a webhook delivery.
type WebhookResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Known     bool   `json:"known"`
}

// TransactionResponse is the public shape of a gateway transaction.
type TransactionResponse struct {
	ID               uint       `json:"id"`
	Reference        string     `json:"reference"`
	Amount           float64    `json:"amount"`
	Term             string     `json:"term"`
	AcademicYear     string     `json:"academic_year"`
	Status           string     `json:"status"`
	RedirectURL      string     `json:"redirect_url"`
	GatewayReference string     `json:"gateway_reference"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentDate      *time.Time `json:"payment_date"`
	StudentCode      string     `json:"student_code"`
	StudentName      string     `json:"student_name"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewTransactionResponse maps a transaction model to its response shape.
func NewTransactionResponse(transaction models.PaymentTransaction) TransactionResponse {
	return TransactionResponse{
		ID:               transaction.ID,
		Reference:        transaction.Reference,
		Amount:           transaction.Amount,
		Term:             transaction.Term,
		AcademicYear:     transaction.AcademicYear,
		Status:           transaction.Status,
		RedirectURL:      transaction.RedirectURL,
		GatewayReference: transaction.GatewayReference,
		PaymentMethod:    transaction.PaymentMethod,
		PaymentDate:      transaction.PaymentDate,
		StudentCode:      transaction.StudentCode,
		StudentName:      transaction.StudentName,
		CreatedAt:        transaction.CreatedAt,
	}
}

// NewTransactionResponseSlice maps a slice of transactions.
func NewTransactionResponseSlice(transactions []models.PaymentTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(transactions))
	for _, transaction := range transactions {
		responses = append(responses, NewTransactionResponse(transaction))
	}
	return responses
}
