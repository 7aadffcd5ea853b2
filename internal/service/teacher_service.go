package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/repository"
)

// ErrTeacherNotFound indicates the referenced teacher does not exist.
var ErrTeacherNotFound = errors.New("teacher not found")

// ErrNoAssignedClass indicates a class overview was requested for a teacher
// without a homeroom class.
var ErrNoAssignedClass = errors.New("teacher has no assigned class")

// TeacherService exposes teacher record use cases.
type TeacherService interface {
	List(ctx context.Context) ([]dto.TeacherResponse, error)
	Get(ctx context.Context, id uint) (dto.TeacherResponse, error)
	AssignToClass(ctx context.Context, id uint, payload dto.AssignClassRequest) (dto.TeacherResponse, error)
	ClassFees(ctx context.Context, id uint) (dto.ClassFeesResponse, error)
}

type teacherService struct {
	teachers  repository.TeacherRepository
	students  repository.StudentRepository
	fees      repository.FeeRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTeacherService builds the teacher service.
func NewTeacherService(teachers repository.TeacherRepository, students repository.StudentRepository, fees repository.FeeRepository, validate *validator.Validate, logger zerolog.Logger) TeacherService {
	return &teacherService{
		teachers:  teachers,
		students:  students,
		fees:      fees,
		validator: validate,
		logger:    logger.With().Str("component", "teacher_service").Logger(),
	}
}

func (s *teacherService) List(ctx context.Context) ([]dto.TeacherResponse, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTeacherResponseSlice(teachers), nil
}

func (s *teacherService) Get(ctx context.Context, id uint) (dto.TeacherResponse, error) {
	teacher, err := s.teachers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherResponse{}, ErrTeacherNotFound
		}
		return dto.TeacherResponse{}, err
	}
	return dto.NewTeacherResponse(teacher), nil
}

// AssignToClass gives a teacher a homeroom class. Any teacher already
// holding the class is unassigned first, keeping at most one teacher per
// class; the students of the class are then re-linked.
func (s *teacherService) AssignToClass(ctx context.Context, id uint, payload dto.AssignClassRequest) (dto.TeacherResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TeacherResponse{}, err
	}

	teacher, err := s.teachers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherResponse{}, ErrTeacherNotFound
		}
		return dto.TeacherResponse{}, err
	}

	if err := s.teachers.ClearClassAssignment(ctx, payload.Grade, payload.ClassName); err != nil {
		return dto.TeacherResponse{}, err
	}

	teacher.AssignedGrade = payload.Grade
	teacher.AssignedClassName = payload.ClassName
	if err := s.teachers.Update(ctx, &teacher); err != nil {
		return dto.TeacherResponse{}, err
	}

	if err := s.students.ReassignClassTeacher(ctx, payload.Grade, payload.ClassName, teacher.ID); err != nil {
		return dto.TeacherResponse{}, err
	}

	s.logger.Info().Str("teacher_id", teacher.TeacherID).Str("class", teacher.AssignedClass()).Msg("teacher assigned to class")

	return dto.NewTeacherResponse(teacher), nil
}

// ClassFees sums the fees of every student currently linked to the teacher.
func (s *teacherService) ClassFees(ctx context.Context, id uint) (dto.ClassFeesResponse, error) {
	teacher, err := s.teachers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassFeesResponse{}, ErrTeacherNotFound
		}
		return dto.ClassFeesResponse{}, err
	}

	students, err := s.students.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return dto.ClassFeesResponse{}, err
	}

	rollups := make([]dto.StudentFeeRollup, 0, len(students))
	var classTotals dto.ClassFeeTotals

	for _, student := range students {
		fees, err := s.fees.ListByStudent(ctx, student.ID)
		if err != nil {
			return dto.ClassFeesResponse{}, err
		}

		rollup := dto.StudentFeeRollup{
			Student:   student.User.FullName(),
			StudentID: student.StudentID,
			Fees:      make([]dto.FeeSummary, 0, len(fees)),
		}

		for _, fee := range fees {
			rollup.TotalAmount += fee.TotalAmount
			rollup.TotalPaid += fee.PaidAmount
			rollup.TotalBalance += fee.Balance
			rollup.Fees = append(rollup.Fees, dto.NewFeeSummary(fee))
		}

		classTotals.TotalAmount += rollup.TotalAmount
		classTotals.TotalPaid += rollup.TotalPaid
		classTotals.TotalBalance += rollup.TotalBalance

		rollups = append(rollups, rollup)
	}

	return dto.ClassFeesResponse{
		Teacher:       dto.NewTeacherResponse(teacher),
		Class:         teacher.AssignedClass(),
		Students:      rollups,
		TotalStudents: len(students),
		ClassTotals:   classTotals,
	}, nil
}
