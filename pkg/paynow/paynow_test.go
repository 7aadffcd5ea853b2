package paynow

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, initiateURL string) *Client {
	t.Helper()

	client, err := New(Config{
		IntegrationID:  "1201",
		IntegrationKey: "integration-key",
		InitiateURL:    initiateURL,
		ReturnURL:      "https://school.test/return",
		ResultURL:      "https://school.test/webhook",
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	require.Error(t, err)
}

func TestCreatePayment(t *testing.T) {
	var posted url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		posted = r.PostForm

		response := url.Values{}
		response.Set("status", "Ok")
		response.Set("browserurl", "https://gateway.test/pay/abc")
		response.Set("pollurl", "https://gateway.test/poll/abc")
		response.Set("instructions", "complete the payment in your browser")
		_, _ = w.Write([]byte(response.Encode()))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	session, err := client.CreatePayment(context.Background(), PaymentRequest{
		Reference:   "SCHOOL_STU20260001_1",
		Description: "Term 1 2026 fees",
		Amount:      150.5,
		Email:       "parent@school.test",
	})
	require.NoError(t, err)
	require.Equal(t, "SCHOOL_STU20260001_1", session.Reference)
	require.Equal(t, "https://gateway.test/pay/abc", session.RedirectURL)
	require.Equal(t, "https://gateway.test/poll/abc", session.PollURL)

	require.Equal(t, "1201", posted.Get("id"))
	require.Equal(t, "SCHOOL_STU20260001_1", posted.Get("reference"))
	require.Equal(t, "150.50", posted.Get("amount"))
	require.Equal(t, "https://school.test/webhook", posted.Get("resulturl"))
	require.Equal(t, "Message", posted.Get("status"))

	// The hash is the uppercase SHA-512 of the field values in request order
	// with the integration key appended.
	concatenated := posted.Get("id") + posted.Get("reference") + posted.Get("amount") +
		posted.Get("additionalinfo") + posted.Get("returnurl") + posted.Get("resulturl") +
		posted.Get("authemail") + posted.Get("status") + "integration-key"
	sum := sha512.Sum512([]byte(concatenated))
	require.Equal(t, strings.ToUpper(hex.EncodeToString(sum[:])), posted.Get("hash"))
	require.Len(t, posted.Get("hash"), 128)
}

func TestCreatePaymentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := url.Values{}
		response.Set("status", "Error")
		response.Set("error", "invalid integration id")
		_, _ = w.Write([]byte(response.Encode()))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CreatePayment(context.Background(), PaymentRequest{
		Reference: "SCHOOL_STU20260001_1",
		Amount:    150,
	})
	require.ErrorContains(t, err, "invalid integration id")
}

func TestCreatePaymentEmptyReference(t *testing.T) {
	client := newTestClient(t, "https://gateway.test")

	_, err := client.CreatePayment(context.Background(), PaymentRequest{Amount: 150})
	require.Error(t, err)
}

func TestCreatePaymentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CreatePayment(context.Background(), PaymentRequest{
		Reference: "SCHOOL_STU20260001_1",
		Amount:    150,
	})
	require.ErrorContains(t, err, "status 502")
}

func TestPollStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := url.Values{}
		response.Set("status", "Paid")
		response.Set("paynowreference", "PN-42")
		response.Set("method", "ecocash")
		response.Set("amount", "150.50")
		_, _ = w.Write([]byte(response.Encode()))
	}))
	defer server.Close()

	client := newTestClient(t, "https://gateway.test")

	status, err := client.PollStatus(context.Background(), server.URL)
	require.NoError(t, err)
	require.True(t, status.Paid)
	require.Equal(t, StatusPaid, status.Status)
	require.Equal(t, "PN-42", status.GatewayReference)
	require.Equal(t, "ecocash", status.Method)
	require.Equal(t, 150.5, status.Amount)
}

func TestPollStatusNotPaid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := url.Values{}
		response.Set("status", "Created")
		_, _ = w.Write([]byte(response.Encode()))
	}))
	defer server.Close()

	client := newTestClient(t, "https://gateway.test")

	status, err := client.PollStatus(context.Background(), server.URL)
	require.NoError(t, err)
	require.False(t, status.Paid)
	require.Equal(t, StatusCreated, status.Status)
}

func TestPollStatusEmptyURL(t *testing.T) {
	client := newTestClient(t, "https://gateway.test")

	_, err := client.PollStatus(context.Background(), "")
	require.Error(t, err)
}
