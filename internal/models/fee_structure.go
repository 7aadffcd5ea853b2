package models

import "time"

// FeeStructure is the price list entry for a grade/term/year combination.
// Fees copy the amount at creation time and do not track later changes.
type FeeStructure struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Grade        string    `gorm:"size:10;not null;uniqueIndex:idx_structure_period" json:"grade"`
	Term         string    `gorm:"size:20;not null;uniqueIndex:idx_structure_period" json:"term"`
	AcademicYear string    `gorm:"size:10;not null;uniqueIndex:idx_structure_period" json:"academic_year"`
	Amount       float64   `gorm:"not null;default:0" json:"amount"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
