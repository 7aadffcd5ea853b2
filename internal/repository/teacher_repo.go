package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// TeacherRepository provides access to teacher records.
type TeacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	GetByID(ctx context.Context, id uint) (models.Teacher, error)
	GetByUserID(ctx context.Context, userID uint) (models.Teacher, error)
	FindByAssignedClass(ctx context.Context, grade, className string) (models.Teacher, error)
	ClearClassAssignment(ctx context.Context, grade, className string) error
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Count(ctx context.Context) (int64, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository constructs a GORM-backed teacher repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.WithContext(ctx).Preload("User").Order("teacher_id ASC").Find(&teachers).Error; err != nil {
		return nil, err
	}
	return teachers, nil
}

func (r *teacherRepository) GetByID(ctx context.Context, id uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).Preload("User").First(&teacher, id).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

func (r *teacherRepository) GetByUserID(ctx context.Context, userID uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&teacher).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

func (r *teacherRepository) FindByAssignedClass(ctx context.Context, grade, className string) (models.Teacher, error) {
	var teacher models.Teacher
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("assigned_grade = ? AND assigned_class_name = ?", grade, className).
		First(&teacher).Error
	if err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

// ClearClassAssignment unassigns every teacher currently holding the class,
// preserving the one-teacher-per-class rule at assignment time.
func (r *teacherRepository) ClearClassAssignment(ctx context.Context, grade, className string) error {
	return r.db.WithContext(ctx).
		Model(&models.Teacher{}).
		Where("assigned_grade = ? AND assigned_class_name = ?", grade, className).
		Updates(map[string]interface{}{"assigned_grade": "", "assigned_class_name": ""}).Error
}

func (r *teacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	return r.db.WithContext(ctx).Save(teacher).Error
}

func (r *teacherRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Teacher{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
