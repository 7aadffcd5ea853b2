package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// TransactionRepository provides access to gateway payment transactions.
// Transactions are never deleted; they form the audit trail.
type TransactionRepository interface {
	GetByReference(ctx context.Context, reference string) (models.PaymentTransaction, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.PaymentTransaction, error)
	ListAll(ctx context.Context) ([]models.PaymentTransaction, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
	Create(ctx context.Context, transaction *models.PaymentTransaction) error
	Update(ctx context.Context, transaction *models.PaymentTransaction) error
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository constructs a GORM-backed transaction repository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (models.PaymentTransaction, error) {
	var transaction models.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&transaction).Error; err != nil {
		return models.PaymentTransaction{}, err
	}
	return transaction, nil
}

func (r *transactionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.PaymentTransaction, error) {
	var transactions []models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *transactionRepository) ListAll(ctx context.Context) ([]models.PaymentTransaction, error) {
	var transactions []models.PaymentTransaction
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *transactionRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *transactionRepository) Update(ctx context.Context, transaction *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Save(transaction).Error
}
