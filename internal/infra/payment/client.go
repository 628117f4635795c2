package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mealmates/internal/usecase"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL  = "https://api.stripe.com/v1"
	DefaultCurrency = "nzd"
	requestTimeout  = 10 * time.Second
)

// Client talks to a Stripe-compatible payment intents API. Card
// confirmation happens in the browser; the server creates intents and
// re-reads them before recording a paid order.
type Client struct {
	baseURL   string
	secretKey string
	currency  string
	http      *http.Client
}

func NewClient(baseURL, secretKey, currency string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		currency:  currency,
		http:      &http.Client{Timeout: requestTimeout},
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// 金額はセント単位で送る
func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (usecase.PaymentIntent, error) {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if cents <= 0 {
		return usecase.PaymentIntent{}, fmt.Errorf("payment amount must be positive, got %s", amount)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(cents, 10))
	form.Set("currency", c.currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	out, err := c.do(ctx, http.MethodPost, "/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return usecase.PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}

// RetrievePaymentIntent reads the intent back from the provider so the
// server does not have to trust the browser's confirmation.
func (c *Client) RetrievePaymentIntent(ctx context.Context, intentID string) (usecase.PaymentIntentDetails, error) {
	out, err := c.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(intentID), nil)
	if err != nil {
		return usecase.PaymentIntentDetails{}, fmt.Errorf("retrieve payment intent %s: %w", intentID, err)
	}
	if !strings.EqualFold(out.Currency, c.currency) {
		return usecase.PaymentIntentDetails{}, fmt.Errorf("retrieve payment intent %s: unexpected currency %q", intentID, out.Currency)
	}
	return usecase.PaymentIntentDetails{
		ID:     out.ID,
		Status: out.Status,
		Amount: decimal.New(out.Amount, -2),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (intentResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return intentResponse{}, err
	}
	req.SetBasicAuth(c.secretKey, "")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return intentResponse{}, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return intentResponse{}, fmt.Errorf("read response: %w", err)
	}

	var out intentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return intentResponse{}, fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
	}
	if res.StatusCode == http.StatusNotFound {
		return intentResponse{}, usecase.ErrPaymentIntentNotFound
	}
	if res.StatusCode >= 300 {
		msg := http.StatusText(res.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return intentResponse{}, errors.New(msg)
	}
	return out, nil
}
