package models

import "time"

// Teacher links a user account to a teaching record. AssignedGrade and
// AssignedClassName form the optional homeroom class; both empty means
// the teacher holds no class.
type Teacher struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User              User      `json:"user"`
	TeacherID         string    `gorm:"size:20;uniqueIndex;not null" json:"teacher_id"`
	AssignedGrade     string    `gorm:"size:10" json:"assigned_grade"`
	AssignedClassName string    `gorm:"size:10" json:"assigned_class_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasAssignedClass reports whether the teacher currently holds a class.
func (t Teacher) HasAssignedClass() bool {
	return t.AssignedGrade != "" && t.AssignedClassName != ""
}

// AssignedClass returns the combined class label, e.g. "2A".
func (t Teacher) AssignedClass() string {
	if !t.HasAssignedClass() {
		return ""
	}
	return t.AssignedGrade + t.AssignedClassName
}
