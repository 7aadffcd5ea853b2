package models

import "time"

// StaffProfile is the role record for admin and receptionist accounts.
type StaffProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `json:"user"`
	StaffID   string    `gorm:"size:20;uniqueIndex;not null" json:"staff_id"`
	Position  string    `gorm:"size:20;not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
