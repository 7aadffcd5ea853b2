package models

import "time"

// Parent links a user account to a guardian record.
type Parent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `json:"user"`
	ParentID  string    `gorm:"size:20;uniqueIndex;not null" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
