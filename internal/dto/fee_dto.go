package dto

import (
	"time"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// FeeCreateRequest creates a fee record directly (admin path).
type FeeCreateRequest struct {
	Student      string  `json:"student" validate:"required"`
	Term         string  `json:"term" validate:"required"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	TotalAmount  float64 `json:"total_amount" validate:"required,gt=0"`
	DueDate      string  `json:"due_date"`
}

// FeeUpdateRequest carries partial fee changes.
type FeeUpdateRequest struct {
	TotalAmount *float64 `json:"total_amount" validate:"omitempty,gt=0"`
	DueDate     *string  `json:"due_date"`
}

// ManualPaymentRequest records a cash/manual payment taken at the desk.
type ManualPaymentRequest struct {
	Student       string  `json:"student" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Term          string  `json:"term" validate:"required"`
	AcademicYear  string  `json:"academic_year" validate:"required"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cash bank-transfer mobile-money"`
	ReceivedBy    string  `json:"received_by" validate:"required"`
}

// PaymentReceipt is returned after a successful manual payment.
type PaymentReceipt struct {
	ReceiptNumber string  `json:"receipt_number"`
	NewBalance    float64 `json:"new_balance"`
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name"`
	Term          string  `json:"term"`
	AcademicYear  string  `json:"academic_year"`
}

// PaymentEntry is one ledger row on a fee.
type PaymentEntry struct {
	Amount        float64   `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `json:"payment_method"`
	ReceivedBy    string    `json:"received_by"`
	ReceiptNumber string    `json:"receipt_number"`
}

// FeeResponse is the full public shape of a fee record.
type FeeResponse struct {
	ID           uint           `json:"id"`
	StudentID    uint           `json:"student_id"`
	StudentCode  string         `json:"student_code,omitempty"`
	StudentName  string         `json:"student_name,omitempty"`
	Term         string         `json:"term"`
	AcademicYear string         `json:"academic_year"`
	TotalAmount  float64        `json:"total_amount"`
	PaidAmount   float64        `json:"paid_amount"`
	Balance      float64        `json:"balance"`
	Status       string         `json:"status"`
	DueDate      time.Time      `json:"due_date"`
	Payments     []PaymentEntry `json:"payments"`
}

// NewFeeResponse maps a fee model to its response shape.
func NewFeeResponse(fee models.Fee) FeeResponse {
	payments := make([]PaymentEntry, 0, len(fee.Payments))
	for _, payment := range fee.Payments {
		payments = append(payments, PaymentEntry{
			Amount:        payment.Amount,
			PaymentDate:   payment.PaymentDate,
			PaymentMethod: payment.PaymentMethod,
			ReceivedBy:    payment.ReceivedBy,
			ReceiptNumber: payment.ReceiptNumber,
		})
	}

	response := FeeResponse{
		ID:           fee.ID,
		StudentID:    fee.StudentID,
		Term:         fee.Term,
		AcademicYear: fee.AcademicYear,
		TotalAmount:  fee.TotalAmount,
		PaidAmount:   fee.PaidAmount,
		Balance:      fee.Balance,
		Status:       fee.Status,
		DueDate:      fee.DueDate,
		Payments:     payments,
	}

	if fee.Student.ID != 0 {
		response.StudentCode = fee.Student.StudentID
		response.StudentName = fee.Student.User.FullName()
	}

	return response
}

// NewFeeResponseSlice maps a slice of fees.
func NewFeeResponseSlice(fees []models.Fee) []FeeResponse {
	responses := make([]FeeResponse, 0, len(fees))
	for _, fee := range fees {
		responses = append(responses, NewFeeResponse(fee))
	}
	return responses
}

// FeeSummary is the condensed fee row used in statements and rollups.
type FeeSummary struct {
	Term         string    `json:"term"`
	AcademicYear string    `json:"academic_year"`
	TotalAmount  float64   `json:"total_amount"`
	PaidAmount   float64   `json:"paid_amount"`
	Balance      float64   `json:"balance"`
	Status       string    `json:"status"`
	DueDate      time.Time `json:"due_date"`
	Payments     int       `json:"payments"`
	LastPayment  *LastPayment `json:"last_payment"`
}

// LastPayment condenses the most recent ledger entry.
type LastPayment struct {
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	ReceiptNumber string    `json:"receipt_number"`
}

// NewFeeSummary maps a fee model to its condensed shape.
func NewFeeSummary(fee models.Fee) FeeSummary {
	summary := FeeSummary{
		Term:         fee.Term,
		AcademicYear: fee.AcademicYear,
		TotalAmount:  fee.TotalAmount,
		PaidAmount:   fee.PaidAmount,
		Balance:      fee.Balance,
		Status:       fee.Status,
		DueDate:      fee.DueDate,
		Payments:     len(fee.Payments),
	}

	if last := fee.LastPayment(); last != nil {
		summary.LastPayment = &LastPayment{
			Date:          last.PaymentDate,
			Amount:        last.Amount,
			ReceiptNumber: last.ReceiptNumber,
		}
	}

	return summary
}

// StatementSummary totals a student's fees.
type StatementSummary struct {
	TotalAmount    float64 `json:"total_amount"`
	TotalPaid      float64 `json:"total_paid"`
	TotalBalance   float64 `json:"total_balance"`
	PaidPercentage int     `json:"paid_percentage"`
}

// CurrentTermInfo describes the active price list entry for the student's
// class in the present term.
type CurrentTermInfo struct {
	Term         string    `json:"term"`
	AcademicYear string    `json:"academic_year"`
	AmountDue    float64   `json:"amount_due"`
	DueDate      time.Time `json:"due_date"`
}

// StatementStudent identifies the statement's subject.
type StatementStudent struct {
	Name         string `json:"name"`
	StudentID    string `json:"student_id"`
	CurrentClass string `json:"current_class"`
	Teacher      string `json:"teacher"`
}

// StatementResponse is a student's full fee statement.
type StatementResponse struct {
	Student         StatementStudent `json:"student"`
	Summary         StatementSummary `json:"summary"`
	CurrentTermInfo *CurrentTermInfo `json:"current_term_info"`
	FeeRecords      []FeeSummary     `json:"fee_records"`
}

// FeeReportRequest asks for a consolidated report over several students.
type FeeReportRequest struct {
	StudentIDs   []string `json:"student_ids" validate:"required,min=1"`
	Term         string   `json:"term" validate:"required"`
	AcademicYear string   `json:"academic_year" validate:"required"`
}

// FeeReportRow is one student's line in the consolidated report.
type FeeReportRow struct {
	Student      string     `json:"student"`
	StudentID    string     `json:"student_id"`
	CurrentClass string     `json:"current_class"`
	FeeAmount    float64    `json:"fee_amount"`
	PaidAmount   float64    `json:"paid_amount"`
	Balance      float64    `json:"balance"`
	Status       string     `json:"status"`
	Parents      []string   `json:"parents"`
	LastPayment  *time.Time `json:"last_payment"`
}

// FeeReportResponse is the consolidated report plus grand totals.
type FeeReportResponse struct {
	Term          string         `json:"term"`
	AcademicYear  string         `json:"academic_year"`
	GeneratedDate time.Time      `json:"generated_date"`
	TotalStudents int            `json:"total_students"`
	TotalAmount   float64        `json:"total_amount"`
	TotalPaid     float64        `json:"total_paid"`
	TotalBalance  float64        `json:"total_balance"`
	Students      []FeeReportRow `json:"students"`
}

// FeeStructureUpsertRequest creates or updates a price list entry.
type FeeStructureUpsertRequest struct {
	Grade        string  `json:"grade" validate:"required"`
	Term         string  `json:"term" validate:"required"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	IsActive     *bool   `json:"is_active"`
}

// FeeStructureResponse is the public shape of a price list entry.
type FeeStructureResponse struct {
	ID           uint    `json:"id"`
	Grade        string  `json:"grade"`
	Term         string  `json:"term"`
	AcademicYear string  `json:"academic_year"`
	Amount       float64 `json:"amount"`
	IsActive     bool    `json:"is_active"`
}

// NewFeeStructureResponse maps a price list entry to its response shape.
func NewFeeStructureResponse(structure models.FeeStructure) FeeStructureResponse {
	return FeeStructureResponse{
		ID:           structure.ID,
		Grade:        structure.Grade,
		Term:         structure.Term,
		AcademicYear: structure.AcademicYear,
		Amount:       structure.Amount,
		IsActive:     structure.IsActive,
	}
}

// NewFeeStructureResponseSlice maps a slice of price list entries.
func NewFeeStructureResponseSlice(structures []models.FeeStructure) []FeeStructureResponse {
	responses := make([]FeeStructureResponse, 0, len(structures))
	for _, structure := range structures {
		responses = append(responses, NewFeeStructureResponse(structure))
	}
	return responses
}
