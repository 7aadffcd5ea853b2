package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// FeeStructureRepository provides access to the fee price list.
type FeeStructureRepository interface {
	FindActive(ctx context.Context, grade, term, academicYear string) (models.FeeStructure, error)
	FindByPeriod(ctx context.Context, grade, term, academicYear string) (models.FeeStructure, error)
	ListActive(ctx context.Context) ([]models.FeeStructure, error)
	ListByGradeYear(ctx context.Context, grade, academicYear string) ([]models.FeeStructure, error)
	Create(ctx context.Context, structure *models.FeeStructure) error
	Update(ctx context.Context, structure *models.FeeStructure) error
}

type feeStructureRepository struct {
	db *gorm.DB
}

// NewFeeStructureRepository constructs a GORM-backed fee structure repository.
func NewFeeStructureRepository(db *gorm.DB) FeeStructureRepository {
	return &feeStructureRepository{db: db}
}

func (r *feeStructureRepository) FindActive(ctx context.Context, grade, term, academicYear string) (models.FeeStructure, error) {
	var structure models.FeeStructure
	err := r.db.WithContext(ctx).
		Where("grade = ? AND term = ? AND academic_year = ? AND is_active = ?", grade, term, academicYear, true).
		First(&structure).Error
	if err != nil {
		return models.FeeStructure{}, err
	}
	return structure, nil
}

func (r *feeStructureRepository) FindByPeriod(ctx context.Context, grade, term, academicYear string) (models.FeeStructure, error) {
	var structure models.FeeStructure
	err := r.db.WithContext(ctx).
		Where("grade = ? AND term = ? AND academic_year = ?", grade, term, academicYear).
		First(&structure).Error
	if err != nil {
		return models.FeeStructure{}, err
	}
	return structure, nil
}

func (r *feeStructureRepository) ListActive(ctx context.Context) ([]models.FeeStructure, error) {
	var structures []models.FeeStructure
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("academic_year DESC, grade ASC, term ASC").
		Find(&structures).Error
	if err != nil {
		return nil, err
	}
	return structures, nil
}

func (r *feeStructureRepository) ListByGradeYear(ctx context.Context, grade, academicYear string) ([]models.FeeStructure, error) {
	var structures []models.FeeStructure
	err := r.db.WithContext(ctx).
		Where("grade = ? AND academic_year = ? AND is_active = ?", grade, academicYear, true).
		Order("term ASC").
		Find(&structures).Error
	if err != nil {
		return nil, err
	}
	return structures, nil
}

func (r *feeStructureRepository) Create(ctx context.Context, structure *models.FeeStructure) error {
	return r.db.WithContext(ctx).Create(structure).Error
}

func (r *feeStructureRepository) Update(ctx context.Context, structure *models.FeeStructure) error {
	return r.db.WithContext(ctx).Save(structure).Error
}
