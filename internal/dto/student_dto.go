package dto

import (
	"time"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// StudentUpdateRequest carries partial student record changes.
type StudentUpdateRequest struct {
	DateOfBirth *string `json:"date_of_birth"`
	Phone       *string `json:"phone"`
}

// ChangeClassRequest moves a student to a new grade/section.
type ChangeClassRequest struct {
	Grade     string `json:"grade" validate:"required"`
	ClassName string `json:"class_name" validate:"required"`
}

// StudentResponse is the populated public shape of a student record.
type StudentResponse struct {
	ID           uint       `json:"id"`
	StudentID    string     `json:"student_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	CurrentGrade string     `json:"current_grade"`
	CurrentClass string     `json:"current_class"`
	Teacher      string     `json:"teacher"`
	Parents      []string   `json:"parents"`
}

// NewStudentResponse maps a populated student model to its response shape.
func NewStudentResponse(student models.Student) StudentResponse {
	teacherName := "Not assigned"
	if student.Teacher != nil {
		teacherName = student.Teacher.User.FullName()
	}

	parents := make([]string, 0, len(student.Parents))
	for _, parent := range student.Parents {
		parents = append(parents, parent.User.FullName())
	}

	return StudentResponse{
		ID:           student.ID,
		StudentID:    student.StudentID,
		Name:         student.User.FullName(),
		Email:        student.User.Email,
		Phone:        student.User.Phone,
		DateOfBirth:  student.DateOfBirth,
		CurrentGrade: student.CurrentGrade,
		CurrentClass: student.CurrentClass,
		Teacher:      teacherName,
		Parents:      parents,
	}
}

// NewStudentResponseSlice maps a slice of students.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
