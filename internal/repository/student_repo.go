package repository

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// StudentRefKind discriminates the two ways callers identify a student.
type StudentRefKind int

const (
	// StudentRefByID targets the internal numeric identifier.
	StudentRefByID StudentRefKind = iota
	// StudentRefByCode targets the human-readable student code, e.g. "STU20240001".
	StudentRefByCode
)

// StudentRef is a tagged lookup key resolved by FindByRef. It replaces the
// ad hoc "try one id shape, fall back to the other" sniffing with an
// explicit discriminator.
type StudentRef struct {
	Kind StudentRefKind
	ID   uint
	Code string
}

// ParseStudentRef classifies a raw identifier string: all-digit input is the
// internal id, anything else the external student code.
func ParseStudentRef(raw string) StudentRef {
	trimmed := strings.TrimSpace(raw)
	if id, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return StudentRef{Kind: StudentRefByID, ID: uint(id)}
	}
	return StudentRef{Kind: StudentRefByCode, Code: trimmed}
}

// StudentRepository provides access to student records.
type StudentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
	FindByRef(ctx context.Context, ref StudentRef) (models.Student, error)
	ListByClass(ctx context.Context, class string) ([]models.Student, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Student, error)
	SearchByName(ctx context.Context, name string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
	ReassignClassTeacher(ctx context.Context, grade, className string, teacherID uint) error
	Count(ctx context.Context) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a GORM-backed student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) populated(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Teacher").
		Preload("Teacher.User").
		Preload("Parents").
		Preload("Parents.User")
}

func (r *studentRepository) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.populated(ctx).Order("student_id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.populated(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	if err := r.populated(ctx).Where("user_id = ?", userID).First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) FindByRef(ctx context.Context, ref StudentRef) (models.Student, error) {
	var student models.Student
	query := r.populated(ctx)

	switch ref.Kind {
	case StudentRefByCode:
		query = query.Where("student_id = ?", ref.Code)
	default:
		query = query.Where("id = ?", ref.ID)
	}

	if err := query.First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) ListByClass(ctx context.Context, class string) ([]models.Student, error) {
	var students []models.Student
	if err := r.populated(ctx).Where("current_class = ?", class).Order("student_id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.populated(ctx).Where("teacher_id = ?", teacherID).Order("student_id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) SearchByName(ctx context.Context, name string) ([]models.Student, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"

	var students []models.Student
	err := r.populated(ctx).
		Joins("JOIN users ON users.id = students.user_id").
		Where("LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?", pattern, pattern).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Student{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReassignClassTeacher points every student of the given class at the
// supplied teacher.
func (r *studentRepository) ReassignClassTeacher(ctx context.Context, grade, className string, teacherID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("current_grade = ? AND current_class = ?", grade, grade+className).
		Update("teacher_id", teacherID).Error
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
