package dto

import "time"

// SchoolOverview counts the core populations.
type SchoolOverview struct {
	TotalStudents       int64 `json:"total_students"`
	TotalTeachers       int64 `json:"total_teachers"`
	ActiveFeeStructures int   `json:"active_fee_structures"`
}

// FeeSummaryStats totals every fee record school-wide.
type FeeSummaryStats struct {
	TotalAmount         float64 `json:"total_amount"`
	TotalPaid           float64 `json:"total_paid"`
	TotalBalance        float64 `json:"total_balance"`
	CollectionRate      int     `json:"collection_rate"`
	OutstandingStudents int     `json:"outstanding_students"`
	FullyPaidStudents   int     `json:"fully_paid_students"`
}

// ClassStats rolls fees up by the students' current class. A student who
// changed class shifts their historical fees into the new bucket.
type ClassStats struct {
	ClassName      string  `json:"class_name"`
	StudentCount   int     `json:"student_count"`
	TotalAmount    float64 `json:"total_amount"`
	TotalPaid      float64 `json:"total_paid"`
	TotalBalance   float64 `json:"total_balance"`
	CollectionRate int     `json:"collection_rate"`
}

// RecentPayment is one row of the flattened, globally sorted ledger view.
type RecentPayment struct {
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	ReceiptNumber string    `json:"receipt_number"`
	Method        string    `json:"method"`
	StudentID     uint      `json:"student_id"`
	StudentName   string    `json:"student_name"`
}

// SchoolStatisticsResponse is the school-wide reporting rollup.
type SchoolStatisticsResponse struct {
	Overview       SchoolOverview         `json:"overview"`
	FeeSummary     FeeSummaryStats        `json:"fee_summary"`
	ClassStats     []ClassStats           `json:"class_stats"`
	RecentPayments []RecentPayment        `json:"recent_payments"`
	FeeStructures  []FeeStructureResponse `json:"fee_structures_summary"`
}
