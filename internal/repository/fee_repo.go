package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// ErrVersionConflict indicates a fee write lost the optimistic-concurrency
// race and should be retried by the caller.
var ErrVersionConflict = errors.New("fee was modified concurrently")

// FeeRepository provides access to fee records and their payment ledgers.
// Every write path recomputes balance and status before persisting, so a
// fetched fee is never stale.
type FeeRepository interface {
	List(ctx context.Context) ([]models.Fee, error)
	GetByID(ctx context.Context, id uint) (models.Fee, error)
	FindByPeriod(ctx context.Context, studentID uint, term, academicYear string) (models.Fee, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Fee, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
	Create(ctx context.Context, fee *models.Fee) error
	Save(ctx context.Context, fee *models.Fee) error
	ApplyPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error
	Delete(ctx context.Context, id uint) error
}

type feeRepository struct {
	db *gorm.DB
}

// NewFeeRepository constructs a GORM-backed fee repository.
func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepository{db: db}
}

func (r *feeRepository) List(ctx context.Context) ([]models.Fee, error) {
	var fees []models.Fee
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Preload("Student").
		Preload("Student.User").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}

func (r *feeRepository) GetByID(ctx context.Context, id uint) (models.Fee, error) {
	var fee models.Fee
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Preload("Student").
		Preload("Student.User").
		First(&fee, id).Error
	if err != nil {
		return models.Fee{}, err
	}
	return fee, nil
}

func (r *feeRepository) FindByPeriod(ctx context.Context, studentID uint, term, academicYear string) (models.Fee, error) {
	var fee models.Fee
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Where("student_id = ? AND term = ? AND academic_year = ?", studentID, term, academicYear).
		First(&fee).Error
	if err != nil {
		return models.Fee{}, err
	}
	return fee, nil
}

func (r *feeRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Fee, error) {
	var fees []models.Fee
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Where("student_id = ?", studentID).
		Order("academic_year DESC, term ASC").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}

func (r *feeRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Fee{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *feeRepository) Create(ctx context.Context, fee *models.Fee) error {
	// Stamp the version explicitly so the struct agrees with the row and a
	// payment applied straight after the create passes the guard.
	if fee.Version == 0 {
		fee.Version = 1
	}
	fee.Recalculate(time.Now())
	return r.db.WithContext(ctx).Create(fee).Error
}

// Save persists amount/due-date changes behind the version stamp. A stale
// version writes zero rows and surfaces ErrVersionConflict.
func (r *feeRepository) Save(ctx context.Context, fee *models.Fee) error {
	fee.Recalculate(time.Now())

	result := r.db.WithContext(ctx).
		Model(&models.Fee{}).
		Where("id = ? AND version = ?", fee.ID, fee.Version).
		Updates(map[string]interface{}{
			"total_amount": fee.TotalAmount,
			"paid_amount":  fee.PaidAmount,
			"balance":      fee.Balance,
			"status":       fee.Status,
			"due_date":     fee.DueDate,
			"version":      fee.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	fee.Version++
	return nil
}

// ApplyPayment appends a ledger entry and bumps the paid amount in one
// transaction, guarded by the version stamp so two concurrent payments
// cannot both pass the balance check and overdraw the fee.
func (r *feeRepository) ApplyPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error {
	payment.FeeID = fee.ID
	fee.PaidAmount += payment.Amount
	fee.Recalculate(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Fee{}).
			Where("id = ? AND version = ?", fee.ID, fee.Version).
			Updates(map[string]interface{}{
				"paid_amount": fee.PaidAmount,
				"balance":     fee.Balance,
				"status":      fee.Status,
				"version":     fee.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		// Roll back the in-memory mutation so the caller can reload and retry.
		fee.PaidAmount -= payment.Amount
		fee.Recalculate(time.Now())
		return err
	}

	fee.Version++
	fee.Payments = append(fee.Payments, *payment)
	return nil
}

func (r *feeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Select("Payments").Delete(&models.Fee{ID: id})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
