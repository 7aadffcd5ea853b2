package paynow

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultInitiateURL = "https://www.paynow.co.zw/interface/initiatetransaction"

// Transaction statuses reported by the gateway.
const (
	StatusPaid             = "Paid"
	StatusCancelled        = "Cancelled"
	StatusFailed           = "Failed"
	StatusCreated          = "Created"
	StatusSent             = "Sent"
	StatusAwaitingDelivery = "Awaiting Delivery"
	StatusDelivered        = "Delivered"
)

// Config contains credentials and callback URLs for the gateway.
type Config struct {
	IntegrationID  string
	IntegrationKey string
	InitiateURL    string
	ReturnURL      string
	ResultURL      string
	Timeout        time.Duration
}

// PaymentRequest describes a payment session to create.
type PaymentRequest struct {
	Reference   string
	Description string
	Amount      float64
	Email       string
}

// PaymentResponse is the gateway's answer to a session creation.
type PaymentResponse struct {
	Reference    string
	RedirectURL  string
	PollURL      string
	Instructions string
}

// StatusResponse is the gateway's answer to a poll.
type StatusResponse struct {
	Paid             bool
	Status           string
	GatewayReference string
	Method           string
	Amount           float64
}

// Client talks to the payment gateway's initiate and poll endpoints.
type Client struct {
	httpClient  *http.Client
	cfg         Config
	initiateURL string
	logger      zerolog.Logger
}

// New constructs a gateway client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.IntegrationID == "" || cfg.IntegrationKey == "" {
		return nil, fmt.Errorf("paynow integration credentials must be provided")
	}

	initiateURL := cfg.InitiateURL
	if initiateURL == "" {
		initiateURL = defaultInitiateURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		cfg:         cfg,
		initiateURL: initiateURL,
		logger:      logger.With().Str("component", "paynow").Logger(),
	}, nil
}

// CreatePayment opens a payment session and returns the redirect and poll URLs.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	if req.Reference == "" {
		return PaymentResponse{}, fmt.Errorf("payment reference must not be empty")
	}

	fields := []field{
		{"id", c.cfg.IntegrationID},
		{"reference", req.Reference},
		{"amount", formatAmount(req.Amount)},
		{"additionalinfo", req.Description},
		{"returnurl", c.cfg.ReturnURL},
		{"resulturl", c.cfg.ResultURL},
		{"authemail", req.Email},
		{"status", "Message"},
	}

	values := make(url.Values, len(fields)+1)
	for _, f := range fields {
		values.Set(f.key, f.value)
	}
	values.Set("hash", c.hash(fields))

	body, err := c.post(ctx, c.initiateURL, values)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("initiate transaction: %w", err)
	}

	parsed, err := url.ParseQuery(body)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid gateway response: %w", err)
	}

	if status := parsed.Get("status"); !strings.EqualFold(status, "ok") {
		return PaymentResponse{}, fmt.Errorf("gateway rejected transaction: %s", parsed.Get("error"))
	}

	response := PaymentResponse{
		Reference:    req.Reference,
		RedirectURL:  parsed.Get("browserurl"),
		PollURL:      parsed.Get("pollurl"),
		Instructions: parsed.Get("instructions"),
	}

	c.logger.Info().Str("reference", req.Reference).Msg("payment session created")

	return response, nil
}

// PollStatus queries the gateway for the current state of a transaction.
func (c *Client) PollStatus(ctx context.Context, pollURL string) (StatusResponse, error) {
	if pollURL == "" {
		return StatusResponse{}, fmt.Errorf("poll url must not be empty")
	}

	body, err := c.post(ctx, pollURL, url.Values{})
	if err != nil {
		return StatusResponse{}, fmt.Errorf("poll transaction: %w", err)
	}

	parsed, err := url.ParseQuery(body)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("invalid gateway response: %w", err)
	}

	status := parsed.Get("status")
	amount, _ := strconv.ParseFloat(parsed.Get("amount"), 64)

	return StatusResponse{
		Paid:             strings.EqualFold(status, StatusPaid),
		Status:           status,
		GatewayReference: parsed.Get("paynowreference"),
		Method:           parsed.Get("method"),
		Amount:           amount,
	}, nil
}

type field struct {
	key   string
	value string
}

// hash concatenates the field values in request order, appends the
// integration key and returns the uppercase SHA-512 digest the gateway
// expects.
func (c *Client) hash(fields []field) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.value)
	}
	b.WriteString(c.cfg.IntegrationKey)

	sum := sha512.Sum512([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func (c *Client) post(ctx context.Context, endpoint string, values url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return string(body), nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
