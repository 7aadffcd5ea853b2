package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// ProfileRepository persists the non-student role records created at
// registration time.
type ProfileRepository interface {
	CreateParent(ctx context.Context, parent *models.Parent) error
	GetParentByUserID(ctx context.Context, userID uint) (models.Parent, error)
	CreateStaff(ctx context.Context, staff *models.StaffProfile) error
	GetStaffByUserID(ctx context.Context, userID uint) (models.StaffProfile, error)
	CountParents(ctx context.Context) (int64, error)
	CountStaff(ctx context.Context) (int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs a GORM-backed profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) CreateParent(ctx context.Context, parent *models.Parent) error {
	return r.db.WithContext(ctx).Create(parent).Error
}

func (r *profileRepository) GetParentByUserID(ctx context.Context, userID uint) (models.Parent, error) {
	var parent models.Parent
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&parent).Error; err != nil {
		return models.Parent{}, err
	}
	return parent, nil
}

func (r *profileRepository) CreateStaff(ctx context.Context, staff *models.StaffProfile) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *profileRepository) GetStaffByUserID(ctx context.Context, userID uint) (models.StaffProfile, error) {
	var staff models.StaffProfile
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&staff).Error; err != nil {
		return models.StaffProfile{}, err
	}
	return staff, nil
}

func (r *profileRepository) CountParents(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Parent{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *profileRepository) CountStaff(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StaffProfile{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
