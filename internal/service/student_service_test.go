package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
)

func newStudentService(db *gorm.DB) StudentService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewStudentService(
		repository.NewStudentRepository(db),
		repository.NewTeacherRepository(db),
		repository.NewFeeRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewUserRepository(db),
		validate,
		zerolog.Nop(),
	)
}

func TestStudentServiceGetByCodeAndID(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260401", "2", "2A")

	svc := newStudentService(db)

	byCode, err := svc.Get(context.Background(), student.StudentID)
	require.NoError(t, err)

	byID, err := svc.Get(context.Background(), fmt.Sprint(student.ID))
	require.NoError(t, err)
	require.Equal(t, byCode, byID)

	_, err = svc.Get(context.Background(), "STU20269999")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentServiceChangeClassRelinksTeacher(t *testing.T) {
	db := newTestDB(t)
	teacher := seedTeacher(t, db, "TCH20260401", "3", "B")
	student := seedStudent(t, db, "STU20260402", "2", "2A")

	svc := newStudentService(db)

	moved, err := svc.ChangeClass(context.Background(), student.StudentID, dto.ChangeClassRequest{
		Grade:     "3",
		ClassName: "B",
	})
	require.NoError(t, err)
	require.Equal(t, "3B", moved.CurrentClass)
	require.Equal(t, teacher.User.FullName(), moved.Teacher)

	var persisted models.Student
	require.NoError(t, db.First(&persisted, student.ID).Error)
	require.Equal(t, "3", persisted.CurrentGrade)
	require.NotNil(t, persisted.TeacherID)
	require.Equal(t, teacher.ID, *persisted.TeacherID)
}

func TestStudentServiceDeleteForbiddenWithRecords(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260403", "2", "2A")

	repo := repository.NewFeeRepository(db)
	fee := models.Fee{StudentID: student.ID, Term: "Term 1", AcademicYear: "2026", TotalAmount: 300, DueDate: time.Now()}
	require.NoError(t, repo.Create(context.Background(), &fee))

	svc := newStudentService(db)

	err := svc.Delete(context.Background(), student.StudentID)
	require.ErrorIs(t, err, ErrStudentHasRecords)

	var count int64
	require.NoError(t, db.Model(&models.Student{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestStudentServiceDeleteWithoutRecords(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260404", "2", "2A")

	svc := newStudentService(db)

	require.NoError(t, svc.Delete(context.Background(), student.StudentID))

	var count int64
	require.NoError(t, db.Model(&models.Student{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestStudentServiceSearchByName(t *testing.T) {
	db := newTestDB(t)
	seedStudent(t, db, "STU20260405", "2", "2A")
	seedStudent(t, db, "STU20260406", "2", "2A")

	svc := newStudentService(db)

	matches, err := svc.Search(context.Background(), "stu20260405")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "STU20260405", matches[0].StudentID)
}
