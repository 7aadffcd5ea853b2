package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/handler"
	"github.com/codicoteam/school-management-backend/internal/service"
)

type mockPaymentService struct {
	service.PaymentService

	initiateFn      func(ctx context.Context, payload dto.InitiatePaymentRequest) (dto.InitiatePaymentResponse, error)
	checkStatusFn   func(ctx context.Context, reference string) (dto.StatusCheckResponse, error)
	handleWebhookFn func(ctx context.Context, payload dto.WebhookPayload) (dto.WebhookResult, error)
	cancelFn        func(ctx context.Context, reference string) (dto.TransactionResponse, error)
}

func (m *mockPaymentService) Initiate(ctx context.Context, payload dto.InitiatePaymentRequest) (dto.InitiatePaymentResponse, error) {
	return m.initiateFn(ctx, payload)
}

func (m *mockPaymentService) CheckStatus(ctx context.Context, reference string) (dto.StatusCheckResponse, error) {
	return m.checkStatusFn(ctx, reference)
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, payload dto.WebhookPayload) (dto.WebhookResult, error) {
	return m.handleWebhookFn(ctx, payload)
}

func (m *mockPaymentService) Cancel(ctx context.Context, reference string) (dto.TransactionResponse, error) {
	return m.cancelFn(ctx, reference)
}

func newPaymentApp(svc service.PaymentService) *fiber.App {
	app := fiber.New()
	h := handler.NewPaymentHandler(svc, zerolog.Nop())
	h.RegisterWebhook(app.Group("/payments"))
	h.Register(app.Group("/payments"), passGuard)
	return app
}

func TestPaymentHandlerInitiate(t *testing.T) {
	svc := &mockPaymentService{
		initiateFn: func(_ context.Context, payload dto.InitiatePaymentRequest) (dto.InitiatePaymentResponse, error) {
			return dto.InitiatePaymentResponse{
				Reference:   "SCHOOL_STU20260001_1",
				RedirectURL: "https://gateway.test/pay",
				PollURL:     "https://gateway.test/poll",
				Amount:      payload.Amount,
			}, nil
		},
	}
	app := newPaymentApp(svc)

	resp, envelope := doJSON(t, app, http.MethodPost, "/payments/initiate", dto.InitiatePaymentRequest{
		Student:      "STU20260001",
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       150,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session dto.InitiatePaymentResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &session))
	require.Equal(t, "SCHOOL_STU20260001_1", session.Reference)
	require.NotEmpty(t, session.RedirectURL)
}

func TestPaymentHandlerInitiateGatewayDown(t *testing.T) {
	svc := &mockPaymentService{
		initiateFn: func(context.Context, dto.InitiatePaymentRequest) (dto.InitiatePaymentResponse, error) {
			return dto.InitiatePaymentResponse{}, service.ErrGatewayUnavailable
		},
	}
	app := newPaymentApp(svc)

	resp, envelope := doJSON(t, app, http.MethodPost, "/payments/initiate", dto.InitiatePaymentRequest{
		Student:      "STU20260001",
		Term:         "Term 1",
		AcademicYear: "2026",
		Amount:       150,
	})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.False(t, envelope.Success)
}

func TestPaymentHandlerCheckStatusUnknown(t *testing.T) {
	svc := &mockPaymentService{
		checkStatusFn: func(context.Context, string) (dto.StatusCheckResponse, error) {
			return dto.StatusCheckResponse{}, service.ErrTransactionNotFound
		},
	}
	app := newPaymentApp(svc)

	resp, _ := doJSON(t, app, http.MethodGet, "/payments/status/SCHOOL_STU20269999_1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaymentHandlerWebhook(t *testing.T) {
	var received dto.WebhookPayload
	svc := &mockPaymentService{
		handleWebhookFn: func(_ context.Context, payload dto.WebhookPayload) (dto.WebhookResult, error) {
			received = payload
			return dto.WebhookResult{Reference: payload.Reference, Status: "paid", Known: true}, nil
		},
	}
	app := newPaymentApp(svc)

	resp, envelope := doJSON(t, app, http.MethodPost, "/payments/webhook", dto.WebhookPayload{
		Reference:        "SCHOOL_STU20260001_1",
		GatewayReference: "PN-789",
		Status:           "Paid",
		Amount:           150,
		Method:           "ecocash",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)
	require.Equal(t, "PN-789", received.GatewayReference)
}

// The provider retries anything that is not a 200, so delivery failures are
// acknowledged and only logged.
func TestPaymentHandlerWebhookAlwaysAcknowledges(t *testing.T) {
	svc := &mockPaymentService{
		handleWebhookFn: func(context.Context, dto.WebhookPayload) (dto.WebhookResult, error) {
			return dto.WebhookResult{}, errors.New("database unavailable")
		},
	}
	app := newPaymentApp(svc)

	resp, envelope := doJSON(t, app, http.MethodPost, "/payments/webhook", dto.WebhookPayload{
		Reference: "SCHOOL_STU20260001_1",
		Status:    "Paid",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)
}

func TestPaymentHandlerCancelConflict(t *testing.T) {
	svc := &mockPaymentService{
		cancelFn: func(context.Context, string) (dto.TransactionResponse, error) {
			return dto.TransactionResponse{}, service.ErrCannotCancel
		},
	}
	app := newPaymentApp(svc)

	resp, _ := doJSON(t, app, http.MethodPost, "/payments/cancel/SCHOOL_STU20260001_1", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}
