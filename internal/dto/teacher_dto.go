package dto

import "github.com/codicoteam/school-management-backend/internal/models"

// AssignClassRequest assigns a teacher to a homeroom class.
type AssignClassRequest struct {
	Grade     string `json:"grade" validate:"required"`
	ClassName string `json:"class_name" validate:"required"`
}

// TeacherResponse is the public shape of a teacher record.
type TeacherResponse struct {
	ID            uint   `json:"id"`
	TeacherID     string `json:"teacher_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AssignedClass string `json:"assigned_class"`
}

// NewTeacherResponse maps a teacher model to its response shape.
func NewTeacherResponse(teacher models.Teacher) TeacherResponse {
	return TeacherResponse{
		ID:            teacher.ID,
		TeacherID:     teacher.TeacherID,
		Name:          teacher.User.FullName(),
		Email:         teacher.User.Email,
		Phone:         teacher.User.Phone,
		AssignedClass: teacher.AssignedClass(),
	}
}

// NewTeacherResponseSlice maps a slice of teachers.
func NewTeacherResponseSlice(teachers []models.Teacher) []TeacherResponse {
	responses := make([]TeacherResponse, 0, len(teachers))
	for _, teacher := range teachers {
		responses = append(responses, NewTeacherResponse(teacher))
	}
	return responses
}

// StudentFeeRollup sums one student's fees for the class overview.
type StudentFeeRollup struct {
	Student      string       `json:"student"`
	StudentID    string       `json:"student_id"`
	TotalAmount  float64      `json:"total_amount"`
	TotalPaid    float64      `json:"total_paid"`
	TotalBalance float64      `json:"total_balance"`
	Fees         []FeeSummary `json:"fees"`
}

// ClassFeeTotals sums the whole class.
type ClassFeeTotals struct {
	TotalAmount  float64 `json:"total_amount"`
	TotalPaid    float64 `json:"total_paid"`
	TotalBalance float64 `json:"total_balance"`
}

// ClassFeesResponse is the teacher's fee overview for their assigned class.
type ClassFeesResponse struct {
	Teacher       TeacherResponse    `json:"teacher"`
	Class         string             `json:"class"`
	Students      []StudentFeeRollup `json:"students"`
	TotalStudents int                `json:"total_students"`
	ClassTotals   ClassFeeTotals     `json:"class_totals"`
}
