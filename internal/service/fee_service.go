package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
)

// ErrFeeNotFound indicates the referenced fee record does not exist.
var ErrFeeNotFound = errors.New("fee record not found")

// ErrFeeExists indicates a fee already covers the billing period.
var ErrFeeExists = errors.New("fee record already exists for this term and year")

// ErrFeeStructureNotFound indicates no active price list entry covers the
// student's class for the billing period.
var ErrFeeStructureNotFound = errors.New("fee structure not found for this class and period")

// ErrPaymentExceedsBalance indicates a payment larger than the outstanding
// balance was refused.
var ErrPaymentExceedsBalance = errors.New("payment amount exceeds outstanding balance")

// FeeService owns fee records, the manual payment path, statements and
// reports, and the fee price list.
type FeeService interface {
	List(ctx context.Context) ([]dto.FeeResponse, error)
	Get(ctx context.Context, id uint) (dto.FeeResponse, error)
	Create(ctx context.Context, payload dto.FeeCreateRequest) (dto.FeeResponse, error)
	Update(ctx context.Context, id uint, payload dto.FeeUpdateRequest) (dto.FeeResponse, error)
	Delete(ctx context.Context, id uint) error
	ProcessPayment(ctx context.Context, payload dto.ManualPaymentRequest) (dto.PaymentReceipt, error)
	Statement(ctx context.Context, studentRef string) (dto.StatementResponse, error)
	Report(ctx context.Context, payload dto.FeeReportRequest) (dto.FeeReportResponse, error)
	UpsertStructure(ctx context.Context, payload dto.FeeStructureUpsertRequest) (dto.FeeStructureResponse, error)
	ListStructures(ctx context.Context) ([]dto.FeeStructureResponse, error)
	ClassStructures(ctx context.Context, grade, academicYear string) ([]dto.FeeStructureResponse, error)
}

type feeService struct {
	fees       repository.FeeRepository
	structures repository.FeeStructureRepository
	students   repository.StudentRepository
	events     PaymentEventPublisher
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewFeeService builds the fee service.
func NewFeeService(fees repository.FeeRepository, structures repository.FeeStructureRepository, students repository.StudentRepository, events PaymentEventPublisher, validate *validator.Validate, logger zerolog.Logger) FeeService {
	return &feeService{
		fees:       fees,
		structures: structures,
		students:   students,
		events:     events,
		validator:  validate,
		logger:     logger.With().Str("component", "fee_service").Logger(),
		now:        time.Now,
	}
}

// currentTerm maps a calendar month to the school term.
func currentTerm(now time.Time) (term, academicYear string) {
	month := int(now.Month())
	switch {
	case month <= 4:
		term = "Term 1"
	case month <= 8:
		term = "Term 2"
	default:
		term = "Term 3"
	}
	return term, strconv.Itoa(now.Year())
}

// termDueDate places the payment deadline at the end of the term.
func termDueDate(term, academicYear string, now time.Time) time.Time {
	year, err := strconv.Atoi(academicYear)
	if err != nil {
		year = now.Year()
	}

	switch term {
	case "Term 1":
		return time.Date(year, time.April, 30, 0, 0, 0, 0, time.UTC)
	case "Term 2":
		return time.Date(year, time.August, 31, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, time.December, 15, 0, 0, 0, 0, time.UTC)
	}
}

func newReceiptNumber() string {
	return "RCPT-" + uuid.NewString()
}

func (s *feeService) List(ctx context.Context) ([]dto.FeeResponse, error) {
	fees, err := s.fees.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewFeeResponseSlice(fees), nil
}

func (s *feeService) Get(ctx context.Context, id uint) (dto.FeeResponse, error) {
	fee, err := s.fees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeeResponse{}, ErrFeeNotFound
		}
		return dto.FeeResponse{}, err
	}
	return dto.NewFeeResponse(fee), nil
}

func (s *feeService) Create(ctx context.Context, payload dto.FeeCreateRequest) (dto.FeeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeeResponse{}, err
	}

	student, err := resolveStudent(ctx, s.students, payload.Student)
	if err != nil {
		return dto.FeeResponse{}, err
	}

	if _, err := s.fees.FindByPeriod(ctx, student.ID, payload.Term, payload.AcademicYear); err == nil {
		return dto.FeeResponse{}, ErrFeeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.FeeResponse{}, err
	}

	dueDate := termDueDate(payload.Term, payload.AcademicYear, s.now())
	if payload.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return dto.FeeResponse{}, ErrInvalidDate
		}
		dueDate = parsed
	}

	fee := models.Fee{
		StudentID:    student.ID,
		Term:         payload.Term,
		AcademicYear: payload.AcademicYear,
		TotalAmount:  payload.TotalAmount,
		DueDate:      dueDate,
	}
	if err := s.fees.Create(ctx, &fee); err != nil {
		return dto.FeeResponse{}, err
	}

	fee.Student = student
	return dto.NewFeeResponse(fee), nil
}

func (s *feeService) Update(ctx context.Context, id uint, payload dto.FeeUpdateRequest) (dto.FeeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeeResponse{}, err
	}

	fee, err := s.fees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeeResponse{}, ErrFeeNotFound
		}
		return dto.FeeResponse{}, err
	}

	if payload.TotalAmount != nil {
		fee.TotalAmount = *payload.TotalAmount
	}
	if payload.DueDate != nil {
		parsed, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.FeeResponse{}, ErrInvalidDate
		}
		fee.DueDate = parsed
	}

	if err := s.fees.Save(ctx, &fee); err != nil {
		return dto.FeeResponse{}, err
	}

	return dto.NewFeeResponse(fee), nil
}

// Delete removes a fee record together with its ledger entries.
func (s *feeService) Delete(ctx context.Context, id uint) error {
	if err := s.fees.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeeNotFound
		}
		return err
	}
	return nil
}

// ProcessPayment records a manual payment taken at the front desk. The fee
// record for the billing period is created on first contact from the active
// price list entry for the student's class.
func (s *feeService) ProcessPayment(ctx context.Context, payload dto.ManualPaymentRequest) (dto.PaymentReceipt, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PaymentReceipt{}, err
	}

	student, err := resolveStudent(ctx, s.students, payload.Student)
	if err != nil {
		return dto.PaymentReceipt{}, err
	}

	fee, err := s.fees.FindByPeriod(ctx, student.ID, payload.Term, payload.AcademicYear)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PaymentReceipt{}, err
		}

		structure, err := s.structures.FindActive(ctx, student.CurrentClass, payload.Term, payload.AcademicYear)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.PaymentReceipt{}, ErrFeeStructureNotFound
			}
			return dto.PaymentReceipt{}, err
		}

		// A fee opened by a walk-in payment is due a month out rather than at
		// the term deadline, which may already have passed.
		fee = models.Fee{
			StudentID:    student.ID,
			Term:         payload.Term,
			AcademicYear: payload.AcademicYear,
			TotalAmount:  structure.Amount,
			DueDate:      s.now().AddDate(0, 0, 30),
		}
		if err := s.fees.Create(ctx, &fee); err != nil {
			return dto.PaymentReceipt{}, err
		}
	}

	if payload.Amount > fee.Balance {
		return dto.PaymentReceipt{}, ErrPaymentExceedsBalance
	}

	payment := models.Payment{
		Amount:        payload.Amount,
		PaymentDate:   s.now(),
		PaymentMethod: payload.PaymentMethod,
		ReceivedBy:    payload.ReceivedBy,
		ReceiptNumber: newReceiptNumber(),
	}
	if err := s.fees.ApplyPayment(ctx, &fee, &payment); err != nil {
		return dto.PaymentReceipt{}, err
	}

	if err := s.events.PublishPaymentReceived(ctx, PaymentEvent{
		StudentCode:   student.StudentID,
		FeeID:         fee.ID,
		Amount:        payment.Amount,
		Method:        payment.PaymentMethod,
		ReceiptNumber: payment.ReceiptNumber,
		OccurredAt:    payment.PaymentDate,
	}); err != nil {
		s.logger.Warn().Err(err).Str("receipt", payment.ReceiptNumber).Msg("payment event not published")
	}

	s.logger.Info().
		Str("student_id", student.StudentID).
		Float64("amount", payment.Amount).
		Str("receipt", payment.ReceiptNumber).
		Msg("manual payment recorded")

	return dto.PaymentReceipt{
		ReceiptNumber: payment.ReceiptNumber,
		NewBalance:    fee.Balance,
		StudentID:     student.StudentID,
		StudentName:   student.User.FullName(),
		Term:          fee.Term,
		AcademicYear:  fee.AcademicYear,
	}, nil
}

// Statement assembles a student's full fee history plus the active price
// list entry for the present term.
func (s *feeService) Statement(ctx context.Context, studentRef string) (dto.StatementResponse, error) {
	student, err := resolveStudent(ctx, s.students, studentRef)
	if err != nil {
		return dto.StatementResponse{}, err
	}

	fees, err := s.fees.ListByStudent(ctx, student.ID)
	if err != nil {
		return dto.StatementResponse{}, err
	}

	var summary dto.StatementSummary
	records := make([]dto.FeeSummary, 0, len(fees))
	for _, fee := range fees {
		summary.TotalAmount += fee.TotalAmount
		summary.TotalPaid += fee.PaidAmount
		summary.TotalBalance += fee.Balance
		records = append(records, dto.NewFeeSummary(fee))
	}
	if summary.TotalAmount > 0 {
		summary.PaidPercentage = int(math.Round(summary.TotalPaid / summary.TotalAmount * 100))
	}

	teacherName := "Not assigned"
	if student.Teacher != nil {
		teacherName = student.Teacher.User.FullName()
	}

	response := dto.StatementResponse{
		Student: dto.StatementStudent{
			Name:         student.User.FullName(),
			StudentID:    student.StudentID,
			CurrentClass: student.CurrentClass,
			Teacher:      teacherName,
		},
		Summary:    summary,
		FeeRecords: records,
	}

	term, academicYear := currentTerm(s.now())
	structure, err := s.structures.FindActive(ctx, student.CurrentClass, term, academicYear)
	if err == nil {
		response.CurrentTermInfo = &dto.CurrentTermInfo{
			Term:         term,
			AcademicYear: academicYear,
			AmountDue:    structure.Amount,
			DueDate:      termDueDate(term, academicYear, s.now()),
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StatementResponse{}, err
	}

	return response, nil
}

// Report builds a consolidated fee report over the given students for one
// billing period. Unknown student refs are skipped rather than failing the
// whole report.
func (s *feeService) Report(ctx context.Context, payload dto.FeeReportRequest) (dto.FeeReportResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeeReportResponse{}, err
	}

	response := dto.FeeReportResponse{
		Term:          payload.Term,
		AcademicYear:  payload.AcademicYear,
		GeneratedDate: s.now(),
		Students:      make([]dto.FeeReportRow, 0, len(payload.StudentIDs)),
	}

	for _, ref := range payload.StudentIDs {
		student, err := resolveStudent(ctx, s.students, ref)
		if err != nil {
			if errors.Is(err, ErrStudentNotFound) {
				continue
			}
			return dto.FeeReportResponse{}, err
		}

		row := dto.FeeReportRow{
			Student:      student.User.FullName(),
			StudentID:    student.StudentID,
			CurrentClass: student.CurrentClass,
			Status:       "not-billed",
			Parents:      make([]string, 0, len(student.Parents)),
		}
		for _, parent := range student.Parents {
			row.Parents = append(row.Parents, parent.User.FullName())
		}

		fee, err := s.fees.FindByPeriod(ctx, student.ID, payload.Term, payload.AcademicYear)
		if err == nil {
			row.FeeAmount = fee.TotalAmount
			row.PaidAmount = fee.PaidAmount
			row.Balance = fee.Balance
			row.Status = fee.Status
			if last := fee.LastPayment(); last != nil {
				row.LastPayment = &last.PaymentDate
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeeReportResponse{}, err
		}

		response.TotalAmount += row.FeeAmount
		response.TotalPaid += row.PaidAmount
		response.TotalBalance += row.Balance
		response.Students = append(response.Students, row)
	}

	response.TotalStudents = len(response.Students)
	return response, nil
}

// UpsertStructure creates or refreshes the price list entry for one
// (grade, term, academic year) slot.
func (s *feeService) UpsertStructure(ctx context.Context, payload dto.FeeStructureUpsertRequest) (dto.FeeStructureResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeeStructureResponse{}, err
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	structure, err := s.structures.FindByPeriod(ctx, payload.Grade, payload.Term, payload.AcademicYear)
	if err == nil {
		structure.Amount = payload.Amount
		structure.IsActive = active
		if err := s.structures.Update(ctx, &structure); err != nil {
			return dto.FeeStructureResponse{}, err
		}
		return dto.NewFeeStructureResponse(structure), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.FeeStructureResponse{}, err
	}

	structure = models.FeeStructure{
		Grade:        payload.Grade,
		Term:         payload.Term,
		AcademicYear: payload.AcademicYear,
		Amount:       payload.Amount,
		IsActive:     active,
	}
	if err := s.structures.Create(ctx, &structure); err != nil {
		return dto.FeeStructureResponse{}, err
	}

	s.logger.Info().Str("slot", fmt.Sprintf("%s/%s/%s", structure.Grade, structure.Term, structure.AcademicYear)).Msg("fee structure created")

	return dto.NewFeeStructureResponse(structure), nil
}

func (s *feeService) ListStructures(ctx context.Context) ([]dto.FeeStructureResponse, error) {
	structures, err := s.structures.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewFeeStructureResponseSlice(structures), nil
}

func (s *feeService) ClassStructures(ctx context.Context, grade, academicYear string) ([]dto.FeeStructureResponse, error) {
	structures, err := s.structures.ListByGradeYear(ctx, grade, academicYear)
	if err != nil {
		return nil, err
	}
	return dto.NewFeeStructureResponseSlice(structures), nil
}
