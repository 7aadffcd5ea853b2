package models

import "time"

// Student links a user account to an enrolment record. CurrentClass is the
// grade plus section, e.g. "2A".
type Student struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User         User       `json:"user"`
	StudentID    string     `gorm:"size:20;uniqueIndex;not null" json:"student_id"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	CurrentGrade string     `gorm:"size:10;not null" json:"current_grade"`
	CurrentClass string     `gorm:"size:10;not null" json:"current_class"`
	TeacherID    *uint      `json:"teacher_id"`
	Teacher      *Teacher   `json:"teacher,omitempty"`
	Parents      []Parent   `gorm:"many2many:student_parents" json:"parents,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
