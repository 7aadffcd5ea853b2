package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
	"github.com/codicoteam/school-management-backend/pkg/paynow"
)

type fakeGateway struct {
	createErr   error
	pollStatus  paynow.StatusResponse
	pollErr     error
	createCalls int
	pollCalls   int
	lastRequest paynow.PaymentRequest
}

func (g *fakeGateway) CreatePayment(_ context.Context, req paynow.PaymentRequest) (paynow.PaymentResponse, error) {
	g.createCalls++
	g.lastRequest = req
	if g.createErr != nil {
		return paynow.PaymentResponse{}, g.createErr
	}
	return paynow.PaymentResponse{
		Reference:    req.Reference,
		RedirectURL:  "https://gateway.test/pay/" + req.Reference,
		PollURL:      "https://gateway.test/poll/" + req.Reference,
		Instructions: "complete the payment in your browser",
	}, nil
}

func (g *fakeGateway) PollStatus(_ context.Context, _ string) (paynow.StatusResponse, error) {
	g.pollCalls++
	if g.pollErr != nil {
		return paynow.StatusResponse{}, g.pollErr
	}
	return g.pollStatus, nil
}

func newPaymentService(db *gorm.DB, gateway Gateway) PaymentService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	events := NewNATSPaymentPublisher(nil, "", zerolog.Nop())
	return NewPaymentService(
		repository.NewTransactionRepository(db),
		repository.NewFeeRepository(db),
		repository.NewStudentRepository(db),
		gateway,
		events,
		validate,
		zerolog.Nop(),
	)
}

func TestPaymentServiceInitiate(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260101", "2", "2A")

	gateway := &fakeGateway{}
	svc := newPaymentService(db, gateway)

	session, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       150,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(session.Reference, "SCHOOL_"+student.StudentID+"_"))
	require.NotEmpty(t, session.RedirectURL)
	require.NotEmpty(t, session.PollURL)
	require.Equal(t, student.User.Email, gateway.lastRequest.Email)

	var transaction models.PaymentTransaction
	require.NoError(t, db.Where("reference = ?", session.Reference).First(&transaction).Error)
	require.Equal(t, models.TransactionStatusPending, transaction.Status)
	require.Equal(t, student.StudentID, transaction.StudentCode)

	// Initiating opens the fee record, billed at the requested amount.
	var fee models.Fee
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&fee).Error)
	require.Equal(t, float64(150), fee.TotalAmount)
	require.Equal(t, models.FeeStatusPending, fee.Status)
	require.Equal(t, fee.ID, transaction.FeeID)
}

func TestPaymentServiceInitiateIgnoresPriceList(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260109", "2", "2A")
	seedStructure(t, db, "2A", "Term 1", "2026", 300)

	svc := newPaymentService(db, &fakeGateway{})

	_, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       150,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Fee{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	var fee models.Fee
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&fee).Error)
	require.Equal(t, float64(150), fee.TotalAmount)
	require.Equal(t, float64(150), fee.Balance)
}

func TestPaymentServiceInitiateUnlinkedStudent(t *testing.T) {
	db := newTestDB(t)
	orphan := models.Student{
		UserID:       9999,
		StudentID:    "STU20260110",
		CurrentGrade: "2",
		CurrentClass: "2A",
	}
	require.NoError(t, db.Create(&orphan).Error)

	gateway := &fakeGateway{}
	svc := newPaymentService(db, gateway)

	_, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
		Student:      orphan.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       150,
	})
	require.ErrorIs(t, err, ErrStudentNotFound)
	require.Zero(t, gateway.createCalls)
}

func TestPaymentServiceInitiateGatewayDown(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260102", "2", "2A")

	gateway := &fakeGateway{createErr: errors.New("connection refused")}
	svc := newPaymentService(db, gateway)

	_, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       150,
	})
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	var count int64
	require.NoError(t, db.Model(&models.PaymentTransaction{}).Count(&count).Error)
	require.Zero(t, count)

	// The fee opened before the gateway call stays; only the session failed.
	var fees int64
	require.NoError(t, db.Model(&models.Fee{}).Count(&fees).Error)
	require.Equal(t, int64(1), fees)
}

func TestPaymentServiceCheckStatusSettlesOnce(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260103", "2", "2A")
	seedStructure(t, db, "2A", "Term 1", "2026", 300)

	gateway := &fakeGateway{pollStatus: paynow.StatusResponse{
		Paid:             true,
		Status:           paynow.StatusPaid,
		GatewayReference: "PN-123",
		Method:           "ecocash",
	}}
	svc := newPaymentService(db, gateway)

	session, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       150,
	})
	require.NoError(t, err)

	first, err := svc.CheckStatus(context.Background(), session.Reference)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusPaid, first.Status)
	require.True(t, first.FeeUpdated)
	require.Equal(t, "PN-123", first.GatewayReference)

	// Polling again must not credit the ledger a second time.
	second, err := svc.CheckStatus(context.Background(), session.Reference)
	require.NoError(t, err)
	require.False(t, second.FeeUpdated)

	var fee models.Fee
	require.NoError(t, db.Preload("Payments").Where("student_id = ?", student.ID).First(&fee).Error)
	require.Equal(t, float64(150), fee.TotalAmount)
	require.Equal(t, float64(150), fee.PaidAmount)
	require.Equal(t, models.FeeStatusPaid, fee.Status)
	require.Len(t, fee.Payments, 1)
	require.Equal(t, session.Reference, fee.Payments[0].ReceiptNumber)
	require.Equal(t, models.PaymentMethodGateway, fee.Payments[0].PaymentMethod)
}

func TestPaymentServiceWebhookAndPollRace(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260104", "2", "2A")
	seedStructure(t, db, "2A", "Term 1", "2026", 300)

	gateway := &fakeGateway{pollStatus: paynow.StatusResponse{
		Paid:             true,
		Status:           paynow.StatusPaid,
		GatewayReference: "PN-456",
		Method:           "ecocash",
	}}
	svc := newPaymentService(db, gateway)

	session, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       300,
	})
	require.NoError(t, err)

	result, err := svc.HandleWebhook(context.Background(), dto.WebhookPayload{
		Reference:        session.Reference,
		GatewayReference: "PN-456",
		Status:           paynow.StatusPaid,
		Amount:           300,
		Method:           "ecocash",
	})
	require.NoError(t, err)
	require.True(t, result.Known)
	require.Equal(t, models.TransactionStatusPaid, result.Status)

	// The poll path lands after the webhook; the receipt guard keeps the
	// ledger at a single entry.
	status, err := svc.CheckStatus(context.Background(), session.Reference)
	require.NoError(t, err)
	require.False(t, status.FeeUpdated)

	var fee models.Fee
	require.NoError(t, db.Preload("Payments").Where("student_id = ?", student.ID).First(&fee).Error)
	require.Len(t, fee.Payments, 1)
	require.Equal(t, models.FeeStatusPaid, fee.Status)
}

func TestPaymentServiceWebhookUnknownReference(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(db, &fakeGateway{})

	result, err := svc.HandleWebhook(context.Background(), dto.WebhookPayload{
		Reference: "SCHOOL_STU20269999_1",
		Status:    paynow.StatusPaid,
	})
	require.NoError(t, err)
	require.False(t, result.Known)
}

func TestPaymentServiceCancelOnlyPending(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260105", "2", "2A")
	seedStructure(t, db, "2A", "Term 1", "2026", 300)

	gateway := &fakeGateway{pollStatus: paynow.StatusResponse{Paid: true, Status: paynow.StatusPaid}}
	svc := newPaymentService(db, gateway)

	session, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
		Student:      student.StudentID,
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       100,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), session.Reference)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), session.Reference)
	require.ErrorIs(t, err, ErrCannotCancel)
}

func TestPaymentServiceAuthorizeStudentAccess(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260107", "2", "2A")
	other := seedStudent(t, db, "STU20260108", "2", "2A")

	parentUser := models.User{
		Username:     "prent",
		Email:        "prent@school.test",
		PasswordHash: "x",
		Role:         models.RoleParent,
		FirstName:    "Pat",
		LastName:     "Rent",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&parentUser).Error)
	parent := models.Parent{UserID: parentUser.ID, ParentID: "PAR20260001"}
	require.NoError(t, db.Create(&parent).Error)
	require.NoError(t, db.Model(&student).Association("Parents").Append(&parent))

	svc := newPaymentService(db, &fakeGateway{})

	require.NoError(t, svc.AuthorizeStudentAccess(context.Background(), student.UserID, student.StudentID))
	require.NoError(t, svc.AuthorizeStudentAccess(context.Background(), parentUser.ID, student.StudentID))

	err := svc.AuthorizeStudentAccess(context.Background(), student.UserID, other.StudentID)
	require.ErrorIs(t, err, ErrNotOwnRecord)
}

func TestPaymentServiceCheckStatusUnknownReference(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(db, &fakeGateway{})

	_, err := svc.CheckStatus(context.Background(), "SCHOOL_STU20269999_1")
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestPaymentServiceListStudentTransactions(t *testing.T) {
	db := newTestDB(t)
	student := seedStudent(t, db, "STU20260106", "2", "2A")

	gateway := &fakeGateway{}
	svc := newPaymentService(db, gateway)

	for i := 0; i < 2; i++ {
		_, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{
			Student:      student.StudentID,
			Term:         "Term 1",
			AcademicYear: "2026",
			Amount:       float64(100 + i),
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	// The code and the numeric id resolve to the same student.
	byCode, err := svc.ListStudentTransactions(context.Background(), student.StudentID)
	require.NoError(t, err)
	require.Len(t, byCode, 2)

	byID, err := svc.ListStudentTransactions(context.Background(), fmt.Sprint(student.ID))
	require.NoError(t, err)
	require.Equal(t, byCode, byID)

	all, err := svc.ListAllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}
