package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
)

// ErrStudentNotFound indicates the referenced student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrStudentHasRecords indicates a delete was refused because fees or
// transactions still reference the student.
var ErrStudentHasRecords = errors.New("student has fee or payment records and cannot be deleted")

// ErrInvalidDate indicates a date field that is not valid RFC 3339.
var ErrInvalidDate = errors.New("invalid date format, expected RFC 3339")

// StudentService exposes student record use cases.
type StudentService interface {
	List(ctx context.Context) ([]dto.StudentResponse, error)
	Get(ctx context.Context, ref string) (dto.StudentResponse, error)
	ListByClass(ctx context.Context, grade, className string) ([]dto.StudentResponse, error)
	Search(ctx context.Context, name string) ([]dto.StudentResponse, error)
	ChangeClass(ctx context.Context, ref string, payload dto.ChangeClassRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, ref string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, ref string) error
}

type studentService struct {
	students     repository.StudentRepository
	teachers     repository.TeacherRepository
	fees         repository.FeeRepository
	transactions repository.TransactionRepository
	users        repository.UserRepository
	validator    *validator.Validate
	logger       zerolog.Logger
}

// NewStudentService builds the student service.
func NewStudentService(students repository.StudentRepository, teachers repository.TeacherRepository, fees repository.FeeRepository, transactions repository.TransactionRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:     students,
		teachers:     teachers,
		fees:         fees,
		transactions: transactions,
		users:        users,
		validator:    validate,
		logger:       logger.With().Str("component", "student_service").Logger(),
	}
}

// resolveStudent looks a student up by the tagged ref parsed from raw input,
// serving internal ids and external student codes through one path.
func resolveStudent(ctx context.Context, students repository.StudentRepository, raw string) (models.Student, error) {
	student, err := students.FindByRef(ctx, repository.ParseStudentRef(raw))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Get(ctx context.Context, ref string) (dto.StudentResponse, error) {
	student, err := resolveStudent(ctx, s.students, ref)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) ListByClass(ctx context.Context, grade, className string) ([]dto.StudentResponse, error) {
	students, err := s.students.ListByClass(ctx, grade+className)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Search(ctx context.Context, name string) ([]dto.StudentResponse, error) {
	students, err := s.students.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) ChangeClass(ctx context.Context, ref string, payload dto.ChangeClassRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := resolveStudent(ctx, s.students, ref)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	student.CurrentGrade = payload.Grade
	student.CurrentClass = payload.Grade + payload.ClassName

	// Re-link the homeroom teacher when the new class has one; otherwise the
	// previous assignment is kept.
	teacher, err := s.teachers.FindByAssignedClass(ctx, payload.Grade, payload.ClassName)
	if err == nil {
		student.TeacherID = &teacher.ID
		student.Teacher = &teacher
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, err
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Str("student_id", student.StudentID).Str("class", student.CurrentClass).Msg("student class changed")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, ref string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	student, err := resolveStudent(ctx, s.students, ref)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if payload.DateOfBirth != nil {
		dob, err := time.Parse(time.RFC3339, *payload.DateOfBirth)
		if err != nil {
			return dto.StudentResponse{}, ErrInvalidDate
		}
		student.DateOfBirth = &dob
	}

	if payload.Phone != nil {
		student.User.Phone = *payload.Phone
		if err := s.users.Update(ctx, &student.User); err != nil {
			return dto.StudentResponse{}, err
		}
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

// Delete refuses to remove a student who still has fee or transaction
// history; the audit trail must not be orphaned.
func (s *studentService) Delete(ctx context.Context, ref string) error {
	student, err := resolveStudent(ctx, s.students, ref)
	if err != nil {
		return err
	}

	feeCount, err := s.fees.CountByStudent(ctx, student.ID)
	if err != nil {
		return err
	}

	txnCount, err := s.transactions.CountByStudent(ctx, student.ID)
	if err != nil {
		return err
	}

	if feeCount > 0 || txnCount > 0 {
		return ErrStudentHasRecords
	}

	if err := s.students.Delete(ctx, student.ID); err != nil {
		return err
	}

	s.logger.Info().Str("student_id", student.StudentID).Msg("student deleted")
	return nil
}
