package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
	"github.com/codicoteam/school-management-backend/pkg/paynow"
)

// ErrTransactionNotFound indicates the referenced gateway transaction does
// not exist.
var ErrTransactionNotFound = errors.New("payment transaction not found")

// ErrNoPollURL indicates the transaction carries no poll handle and its
// status cannot be checked.
var ErrNoPollURL = errors.New("transaction has no poll url")

// ErrCannotCancel indicates the transaction has left the pending state.
var ErrCannotCancel = errors.New("transaction can no longer be cancelled")

// ErrGatewayUnavailable wraps upstream gateway failures so handlers can map
// them to a bad-gateway response.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ErrNotOwnRecord indicates a student or parent tried to act on another
// student's payments.
var ErrNotOwnRecord = errors.New("payments can only be accessed for your own student record")

// Gateway is the slice of the payment provider client the service needs.
// Tests substitute a fake.
type Gateway interface {
	CreatePayment(ctx context.Context, req paynow.PaymentRequest) (paynow.PaymentResponse, error)
	PollStatus(ctx context.Context, pollURL string) (paynow.StatusResponse, error)
}

// PaymentService drives the gateway payment lifecycle: initiate, reconcile
// by poll or webhook, cancel, and list.
type PaymentService interface {
	Initiate(ctx context.Context, payload dto.InitiatePaymentRequest) (dto.InitiatePaymentResponse, error)
	CheckStatus(ctx context.Context, reference string) (dto.StatusCheckResponse, error)
	HandleWebhook(ctx context.Context, payload dto.WebhookPayload) (dto.WebhookResult, error)
	Cancel(ctx context.Context, reference string) (dto.TransactionResponse, error)
	ListStudentTransactions(ctx context.Context, studentRef string) ([]dto.TransactionResponse, error)
	ListAllTransactions(ctx context.Context) ([]dto.TransactionResponse, error)
	AuthorizeStudentAccess(ctx context.Context, userID uint, studentRef string) error
}

type paymentService struct {
	transactions repository.TransactionRepository
	fees         repository.FeeRepository
	students     repository.StudentRepository
	gateway      Gateway
	events       PaymentEventPublisher
	validator    *validator.Validate
	logger       zerolog.Logger
	now          func() time.Time
}

// NewPaymentService builds the payment service.
func NewPaymentService(transactions repository.TransactionRepository, fees repository.FeeRepository, students repository.StudentRepository, gateway Gateway, events PaymentEventPublisher, validate *validator.Validate, logger zerolog.Logger) PaymentService {
	return &paymentService{
		transactions: transactions,
		fees:         fees,
		students:     students,
		gateway:      gateway,
		events:       events,
		validator:    validate,
		logger:       logger.With().Str("component", "payment_service").Logger(),
		now:          time.Now,
	}
}

// mapGatewayStatus folds the provider's status vocabulary into ours.
func mapGatewayStatus(status string) string {
	switch status {
	case paynow.StatusPaid:
		return models.TransactionStatusPaid
	case paynow.StatusCancelled:
		return models.TransactionStatusCancelled
	case paynow.StatusFailed:
		return models.TransactionStatusFailed
	case paynow.StatusAwaitingDelivery:
		return models.TransactionStatusAwaitingDelivery
	case paynow.StatusDelivered:
		return models.TransactionStatusDelivered
	default:
		return models.TransactionStatusPending
	}
}

// Initiate opens a gateway session for the given billing period and records
// the pending transaction. The fee record is opened here, billed at the
// caller's amount; the price list plays no part on the gateway path.
func (s *paymentService) Initiate(ctx context.Context, payload dto.InitiatePaymentRequest) (dto.InitiatePaymentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InitiatePaymentResponse{}, err
	}

	student, err := resolveStudent(ctx, s.students, payload.Student)
	if err != nil {
		return dto.InitiatePaymentResponse{}, err
	}
	if student.User.ID == 0 {
		return dto.InitiatePaymentResponse{}, ErrStudentNotFound
	}

	fee, err := s.fees.FindByPeriod(ctx, student.ID, payload.Term, payload.AcademicYear)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fee = models.Fee{
			StudentID:    student.ID,
			Term:         payload.Term,
			AcademicYear: payload.AcademicYear,
			TotalAmount:  payload.Amount,
			DueDate:      s.now().AddDate(0, 0, 30),
		}
		err = s.fees.Create(ctx, &fee)
	}
	if err != nil {
		return dto.InitiatePaymentResponse{}, err
	}

	reference := fmt.Sprintf("SCHOOL_%s_%d", student.StudentID, s.now().UnixMilli())

	session, err := s.gateway.CreatePayment(ctx, paynow.PaymentRequest{
		Reference:   reference,
		Description: fmt.Sprintf("School fees %s %s for %s", payload.Term, payload.AcademicYear, student.User.FullName()),
		Amount:      payload.Amount,
		Email:       student.User.Email,
	})
	if err != nil {
		return dto.InitiatePaymentResponse{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	transaction := models.PaymentTransaction{
		StudentID:    student.ID,
		FeeID:        fee.ID,
		Reference:    reference,
		Amount:       payload.Amount,
		Term:         payload.Term,
		AcademicYear: payload.AcademicYear,
		RedirectURL:  session.RedirectURL,
		PollURL:      session.PollURL,
		Status:       models.TransactionStatusPending,
		StudentEmail: student.User.Email,
		StudentName:  student.User.FullName(),
		StudentCode:  student.StudentID,
	}

	if err := s.transactions.Create(ctx, &transaction); err != nil {
		return dto.InitiatePaymentResponse{}, err
	}

	s.logger.Info().Str("reference", reference).Float64("amount", payload.Amount).Msg("gateway payment initiated")

	return dto.InitiatePaymentResponse{
		TransactionID: transaction.ID,
		Reference:     reference,
		RedirectURL:   session.RedirectURL,
		PollURL:       session.PollURL,
		Instructions:  session.Instructions,
		Amount:        payload.Amount,
		Student: dto.PaymentStudent{
			Name:      student.User.FullName(),
			StudentID: student.StudentID,
			Email:     student.User.Email,
		},
		FeeDetails: dto.PaymentFeeDetails{
			Term:         payload.Term,
			AcademicYear: payload.AcademicYear,
			Amount:       payload.Amount,
		},
	}, nil
}

// CheckStatus polls the gateway and reconciles the fee ledger when the
// transaction has been paid. Re-checking a settled transaction is a no-op on
// the ledger.
func (s *paymentService) CheckStatus(ctx context.Context, reference string) (dto.StatusCheckResponse, error) {
	transaction, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StatusCheckResponse{}, ErrTransactionNotFound
		}
		return dto.StatusCheckResponse{}, err
	}

	if transaction.PollURL == "" {
		return dto.StatusCheckResponse{}, ErrNoPollURL
	}

	status, err := s.gateway.PollStatus(ctx, transaction.PollURL)
	if err != nil {
		return dto.StatusCheckResponse{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	transaction.Status = mapGatewayStatus(status.Status)
	if status.GatewayReference != "" {
		transaction.GatewayReference = status.GatewayReference
	}
	if status.Method != "" {
		transaction.PaymentMethod = status.Method
	}

	feeUpdated := false
	if status.Paid {
		if transaction.PaymentDate == nil {
			paidAt := s.now()
			transaction.PaymentDate = &paidAt
		}
		feeUpdated, err = s.settleFee(ctx, &transaction)
		if err != nil {
			return dto.StatusCheckResponse{}, err
		}
	}

	if err := s.transactions.Update(ctx, &transaction); err != nil {
		return dto.StatusCheckResponse{}, err
	}

	return dto.StatusCheckResponse{
		Reference:        transaction.Reference,
		Status:           transaction.Status,
		Amount:           transaction.Amount,
		StudentCode:      transaction.StudentCode,
		StudentName:      transaction.StudentName,
		GatewayReference: transaction.GatewayReference,
		PaymentMethod:    transaction.PaymentMethod,
		PaymentDate:      transaction.PaymentDate,
		FeeUpdated:       feeUpdated,
	}, nil
}

// HandleWebhook applies the provider's result callback. A callback for an
// unknown reference is acknowledged without error so the provider stops
// retrying; the mismatch is logged for the audit trail.
func (s *paymentService) HandleWebhook(ctx context.Context, payload dto.WebhookPayload) (dto.WebhookResult, error) {
	transaction, err := s.transactions.GetByReference(ctx, payload.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Str("reference", payload.Reference).Msg("webhook for unknown transaction")
			return dto.WebhookResult{Reference: payload.Reference, Status: payload.Status, Known: false}, nil
		}
		return dto.WebhookResult{}, err
	}

	transaction.Status = mapGatewayStatus(payload.Status)
	if payload.GatewayReference != "" {
		transaction.GatewayReference = payload.GatewayReference
	}
	if payload.Method != "" {
		transaction.PaymentMethod = payload.Method
	}

	if transaction.Status == models.TransactionStatusPaid {
		if transaction.PaymentDate == nil {
			paidAt := s.now()
			transaction.PaymentDate = &paidAt
		}
		if _, err := s.settleFee(ctx, &transaction); err != nil {
			return dto.WebhookResult{}, err
		}
	}

	if err := s.transactions.Update(ctx, &transaction); err != nil {
		return dto.WebhookResult{}, err
	}

	s.logger.Info().Str("reference", transaction.Reference).Str("status", transaction.Status).Msg("webhook processed")

	return dto.WebhookResult{Reference: transaction.Reference, Status: transaction.Status, Known: true}, nil
}

// settleFee appends the gateway payment to the fee ledger. The transaction
// reference doubles as the receipt number, so poll and webhook reconciliation
// can race without double-crediting: whichever lands second sees the receipt
// and backs off. A lost version race is retried once against a fresh read.
func (s *paymentService) settleFee(ctx context.Context, transaction *models.PaymentTransaction) (bool, error) {
	fee, err := s.findOrCreateFee(ctx, transaction)
	if err != nil {
		return false, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		if fee.HasReceipt(transaction.Reference) {
			transaction.FeeID = fee.ID
			return false, nil
		}

		payment := models.Payment{
			Amount:        transaction.Amount,
			PaymentDate:   s.now(),
			PaymentMethod: models.PaymentMethodGateway,
			ReceivedBy:    "payment-gateway",
			ReceiptNumber: transaction.Reference,
			Notes:         transaction.GatewayReference,
		}
		if transaction.PaymentDate != nil {
			payment.PaymentDate = *transaction.PaymentDate
		}

		err = s.fees.ApplyPayment(ctx, &fee, &payment)
		if err == nil {
			transaction.FeeID = fee.ID

			if err := s.events.PublishPaymentReceived(ctx, PaymentEvent{
				Reference:     transaction.Reference,
				StudentCode:   transaction.StudentCode,
				FeeID:         fee.ID,
				Amount:        payment.Amount,
				Method:        payment.PaymentMethod,
				ReceiptNumber: payment.ReceiptNumber,
				OccurredAt:    payment.PaymentDate,
			}); err != nil {
				s.logger.Warn().Err(err).Str("reference", transaction.Reference).Msg("payment event not published")
			}

			return true, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return false, err
		}

		fee, err = s.fees.GetByID(ctx, fee.ID)
		if err != nil {
			return false, err
		}
	}

	return false, err
}

// findOrCreateFee loads the fee for the transaction's billing period. The fee
// normally exists since Initiate opened it; when it was removed in between,
// it is re-created sized by the transaction amount so a confirmed payment is
// never dropped.
func (s *paymentService) findOrCreateFee(ctx context.Context, transaction *models.PaymentTransaction) (models.Fee, error) {
	fee, err := s.fees.FindByPeriod(ctx, transaction.StudentID, transaction.Term, transaction.AcademicYear)
	if err == nil {
		return fee, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Fee{}, err
	}

	fee = models.Fee{
		StudentID:    transaction.StudentID,
		Term:         transaction.Term,
		AcademicYear: transaction.AcademicYear,
		TotalAmount:  transaction.Amount,
		DueDate:      s.now().AddDate(0, 0, 30),
	}
	if err := s.fees.Create(ctx, &fee); err != nil {
		return models.Fee{}, err
	}
	return fee, nil
}

// Cancel marks a still-pending transaction cancelled.
func (s *paymentService) Cancel(ctx context.Context, reference string) (dto.TransactionResponse, error) {
	transaction, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TransactionResponse{}, ErrTransactionNotFound
		}
		return dto.TransactionResponse{}, err
	}

	if !transaction.CanCancel() {
		return dto.TransactionResponse{}, ErrCannotCancel
	}

	transaction.Status = models.TransactionStatusCancelled
	if err := s.transactions.Update(ctx, &transaction); err != nil {
		return dto.TransactionResponse{}, err
	}

	s.logger.Info().Str("reference", transaction.Reference).Msg("transaction cancelled")

	return dto.NewTransactionResponse(transaction), nil
}

func (s *paymentService) ListStudentTransactions(ctx context.Context, studentRef string) ([]dto.TransactionResponse, error) {
	student, err := resolveStudent(ctx, s.students, studentRef)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactions.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewTransactionResponseSlice(transactions), nil
}

// AuthorizeStudentAccess checks that the acting account is the student
// themselves or one of their linked parents. Staff roles are filtered out by
// the caller and never reach this check.
func (s *paymentService) AuthorizeStudentAccess(ctx context.Context, userID uint, studentRef string) error {
	student, err := resolveStudent(ctx, s.students, studentRef)
	if err != nil {
		return err
	}

	if student.UserID == userID {
		return nil
	}
	for _, parent := range student.Parents {
		if parent.UserID == userID {
			return nil
		}
	}

	return ErrNotOwnRecord
}

func (s *paymentService) ListAllTransactions(ctx context.Context) ([]dto.TransactionResponse, error) {
	transactions, err := s.transactions.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTransactionResponseSlice(transactions), nil
}
