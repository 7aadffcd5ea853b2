package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Teacher{},
		&models.Parent{},
		&models.StaffProfile{},
		&models.FeeStructure{},
		&models.Fee{},
		&models.Payment{},
		&models.PaymentTransaction{},
	))

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, code, grade, class string) models.Student {
	t.Helper()

	user := models.User{
		Username:     strings.ToLower(code),
		Email:        strings.ToLower(code) + "@school.test",
		PasswordHash: "x",
		Role:         models.RoleStudent,
		FirstName:    "Test",
		LastName:     code,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)

	student := models.Student{
		UserID:       user.ID,
		StudentID:    code,
		CurrentGrade: grade,
		CurrentClass: class,
	}
	require.NoError(t, db.Create(&student).Error)

	student.User = user
	return student
}

func seedStructure(t *testing.T, db *gorm.DB, grade, term, year string, amount float64) models.FeeStructure {
	t.Helper()

	structure := models.FeeStructure{
		Grade:        grade,
		Term:         term,
		AcademicYear: year,
		Amount:       amount,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&structure).Error)
	return structure
}

func newFeeService(db *gorm.DB) FeeService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	events := NewNATSPaymentPublisher(nil, "", zerolog.Nop())
	return NewFeeService(
		repository.NewFeeRepository(db),
		repository.NewFeeStructureRepository(db),
		repository.NewStudentRepository(db),
		events,
		validate,
		zerolog.Nop(),
	)
}

func TestFeeServiceProcessPaymentCreatesFeeFromPriceList(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260001", "2", "2A")
	seedStructure(t, db, "2A", "Term 1", "2026", 300)

	svc := newFeeService(db)

	receipt, err := svc.ProcessPayment(context.Background(), dto.ManualPaymentRequest{
		Student:       student.StudentID,
		Amount:        100,
		Term:          "Term 1",
		AcademicYear:  "2026",
		PaymentMethod: models.PaymentMethodCash,
		ReceivedBy:    "Front Desk",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(receipt.ReceiptNumber, "RCPT-"))
	require.Equal(t, float64(200), receipt.NewBalance)
	require.Equal(t, student.StudentID, receipt.StudentID)

	var fee models.Fee
	require.NoError(t, db.Preload("Payments").Where("student_id = ?", student.ID).First(&fee).Error)
	require.Equal(t, float64(300), fee.TotalAmount)
	require.Equal(t, models.FeeStatusPartial, fee.Status)
	require.Len(t, fee.Payments, 1)
}

func TestFeeServiceProcessPaymentRejectsOverpayment(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260002", "2", "2A")
	seedStructure(t, db, "2A", "Term 1", "2026", 300)

	svc := newFeeService(db)

	_, err := svc.ProcessPayment(context.Background(), dto.ManualPaymentRequest{
		Student:       student.StudentID,
		Amount:        400,
		Term:          "Term 1",
		AcademicYear:  "2026",
		PaymentMethod: models.PaymentMethodCash,
		ReceivedBy:    "Front Desk",
	})
	require.ErrorIs(t, err, ErrPaymentExceedsBalance)

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestFeeServiceProcessPaymentSettlesExactBalance(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260003", "2", "2A")
	seedStructure(t, db, "2A", "Term 1", "2026", 300)

	svc := newFeeService(db)

	first, err := svc.ProcessPayment(context.Background(), dto.ManualPaymentRequest{
		Student:       student.StudentID,
		Amount:        200,
		Term:          "Term 1",
		AcademicYear:  "2026",
		PaymentMethod: models.PaymentMethodCash,
		ReceivedBy:    "Front Desk",
	})
	require.NoError(t, err)
	require.Equal(t, float64(100), first.NewBalance)

	second, err := svc.ProcessPayment(context.Background(), dto.ManualPaymentRequest{
		Student:       student.StudentID,
		Amount:        100,
		Term:          "Term 1",
		AcademicYear:  "2026",
		PaymentMethod: models.PaymentMethodBankTransfer,
		ReceivedBy:    "Front Desk",
	})
	require.NoError(t, err)
	require.Zero(t, second.NewBalance)

	var fee models.Fee
	require.NoError(t, db.Preload("Payments").Where("student_id = ?", student.ID).First(&fee).Error)
	require.Equal(t, models.FeeStatusPaid, fee.Status)
	require.Len(t, fee.Payments, 2)
}

func TestFeeServiceProcessPaymentWithoutPriceList(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260004", "3", "3B")

	svc := newFeeService(db)

	_, err := svc.ProcessPayment(context.Background(), dto.ManualPaymentRequest{
		Student:       student.StudentID,
		Amount:        50,
		Term:          "Term 1",
		AcademicYear:  "2026",
		PaymentMethod: models.PaymentMethodCash,
		ReceivedBy:    "Front Desk",
	})
	require.ErrorIs(t, err, ErrFeeStructureNotFound)
}

func TestFeeServiceProcessPaymentUnknownStudent(t *testing.T) {
	db := newTestDB(t)
	svc := newFeeService(db)

	_, err := svc.ProcessPayment(context.Background(), dto.ManualPaymentRequest{
		Student:       "STU20269999",
		Amount:        50,
		Term:          "Term 1",
		AcademicYear:  "2026",
		PaymentMethod: models.PaymentMethodCash,
		ReceivedBy:    "Front Desk",
	})
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestFeeServiceStatementTotals(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260005", "2", "2A")

	due := time.Now().AddDate(0, 1, 0)
	fees := []models.Fee{
		{StudentID: student.ID, Term: "Term 1", AcademicYear: "2026", TotalAmount: 300, PaidAmount: 300, DueDate: due},
		{StudentID: student.ID, Term: "Term 2", AcademicYear: "2026", TotalAmount: 300, PaidAmount: 100, DueDate: due},
	}
	repo := repository.NewFeeRepository(db)
	for i := range fees {
		require.NoError(t, repo.Create(context.Background(), &fees[i]))
	}

	svc := newFeeService(db)

	statement, err := svc.Statement(context.Background(), student.StudentID)
	require.NoError(t, err)
	require.Equal(t, student.StudentID, statement.Student.StudentID)
	require.Equal(t, "Not assigned", statement.Student.Teacher)
	require.Equal(t, float64(600), statement.Summary.TotalAmount)
	require.Equal(t, float64(400), statement.Summary.TotalPaid)
	require.Equal(t, float64(200), statement.Summary.TotalBalance)
	// 400 of 600 paid rounds up to 67 percent.
	require.Equal(t, 67, statement.Summary.PaidPercentage)
	require.Len(t, statement.FeeRecords, 2)
}

func TestFeeServiceReportSkipsUnknownStudents(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260006", "2", "2A")

	repo := repository.NewFeeRepository(db)
	fee := models.Fee{StudentID: student.ID, Term: "Term 1", AcademicYear: "2026", TotalAmount: 300, PaidAmount: 120, DueDate: time.Now().AddDate(0, 1, 0)}
	require.NoError(t, repo.Create(context.Background(), &fee))

	svc := newFeeService(db)

	report, err := svc.Report(context.Background(), dto.FeeReportRequest{
		StudentIDs:   []string{student.StudentID, "STU20269999"},
		Term:         "Term 1",
		AcademicYear: "2026",
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalStudents)
	require.Equal(t, float64(300), report.TotalAmount)
	require.Equal(t, float64(120), report.TotalPaid)
	require.Equal(t, float64(180), report.TotalBalance)
	require.Equal(t, models.FeeStatusPartial, report.Students[0].Status)
}

func TestFeeServiceUpsertStructureUpdatesExistingSlot(t *testing.T) {
	db := newTestDB(t)
	svc := newFeeService(db)

	created, err := svc.UpsertStructure(context.Background(), dto.FeeStructureUpsertRequest{
		Grade:        "2A",
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       300,
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	updated, err := svc.UpsertStructure(context.Background(), dto.FeeStructureUpsertRequest{
		Grade:        "2A",
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       350,
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, float64(350), updated.Amount)

	var count int64
	require.NoError(t, db.Model(&models.FeeStructure{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestFeeServiceCreateRejectsDuplicatePeriod(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260007", "2", "2A")
	svc := newFeeService(db)

	_, err := svc.Create(context.Background(), dto.FeeCreateRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		TotalAmount:  300,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.FeeCreateRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		TotalAmount:  300,
	})
	require.ErrorIs(t, err, ErrFeeExists)
}
