package models

import "time"

// Roles recognised by the platform.
const (
	RoleAdmin        = "admin"
	RoleTeacher      = "teacher"
	RoleReceptionist = "receptionist"
	RoleStudent      = "student"
	RoleParent       = "parent"
)

// ValidRole reports whether the supplied role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleReceptionist, RoleStudent, RoleParent:
		return true
	default:
		return false
	}
}

// User is a platform account. Each user owns at most one role-specific
// record (Student, Teacher, Parent or StaffProfile).
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:20;not null" json:"role"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Phone        string     `gorm:"size:30" json:"phone"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
