package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mealmates/internal/infra/payment"
	"mealmates/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment_intents", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test", user)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1250", r.PostForm.Get("amount"))
		assert.Equal(t, "nzd", r.PostForm.Get("currency"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret"}`))
	}))
	defer srv.Close()

	c := payment.NewClient(srv.URL, "sk_test", "")
	pi, err := c.CreatePaymentIntent(context.Background(), decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.Equal(t, "pi_1", pi.ID)
	assert.Equal(t, "pi_1_secret", pi.ClientSecret)
}

func TestClient_CreatePaymentIntent_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Amount must be at least 50 cents"}}`))
	}))
	defer srv.Close()

	c := payment.NewClient(srv.URL, "sk_test", "nzd")
	_, err := c.CreatePaymentIntent(context.Background(), decimal.RequireFromString("0.10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 50 cents")
}

func TestClient_CreatePaymentIntent_RejectsZero(t *testing.T) {
	c := payment.NewClient("http://127.0.0.1:1", "sk_test", "nzd")
	_, err := c.CreatePaymentIntent(context.Background(), decimal.Zero)
	assert.Error(t, err)
}

func TestClient_RetrievePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payment_intents/pi_42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_42","status":"succeeded","amount":1550,"currency":"nzd"}`))
	}))
	defer srv.Close()

	c := payment.NewClient(srv.URL, "sk_test", "nzd")
	got, err := c.RetrievePaymentIntent(context.Background(), "pi_42")
	require.NoError(t, err)
	assert.Equal(t, "pi_42", got.ID)
	assert.Equal(t, "succeeded", got.Status)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("15.50")), got.Amount.String())
}

func TestClient_RetrievePaymentIntent_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"No such payment_intent: 'pi_forged'"}}`))
	}))
	defer srv.Close()

	c := payment.NewClient(srv.URL, "sk_test", "nzd")
	_, err := c.RetrievePaymentIntent(context.Background(), "pi_forged")
	assert.ErrorIs(t, err, usecase.ErrPaymentIntentNotFound)
}

func TestClient_RetrievePaymentIntent_WrongCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pi_42","status":"succeeded","amount":1550,"currency":"usd"}`))
	}))
	defer srv.Close()

	c := payment.NewClient(srv.URL, "sk_test", "nzd")
	_, err := c.RetrievePaymentIntent(context.Background(), "pi_42")
	assert.ErrorContains(t, err, "unexpected currency")
}
