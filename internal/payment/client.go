// Package payment предоставляет клиент платёжного процессора (payment intents).
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

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// StatusSucceeded — статус успешно оплаченного намерения платежа.
const StatusSucceeded = "succeeded"

// ErrNotConfigured возвращается, если не задан секретный ключ процессора.
var ErrNotConfigured = errors.New("payment processor not configured")

// Intent описывает намерение платежа на стороне процессора.
type Intent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"client_secret"`
}

// APIError описывает ошибку, которую вернул процессор.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment processor: status %d: %s", e.StatusCode, e.Message)
}

// Client инкапсулирует HTTP-взаимодействие с платёжным процессором.
type Client struct {
	baseURL   string
	secretKey string
	http      *retryablehttp.Client
}

// NewClient создаёт клиент процессора по указанному адресу. Временные ошибки
// (сеть, 429, 5xx) повторяются с экспоненциальной задержкой.
func NewClient(baseURL, secretKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = leveledLogger{logger.Sugar().Named("payment")}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      rc,
	}
}

// Configured сообщает, можно ли обращаться к процессору.
func (c *Client) Configured() bool {
	return c != nil && c.secretKey != "" && c.baseURL != ""
}

// CreatePaymentIntent создаёт намерение платежа на amount минимальных единиц валюты.
// Пустой idempotencyKey заменяется сгенерированным, так что повторы запроса
// не приводят к двойному списанию.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (*Intent, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", []byte(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	return c.do(req)
}

// GetPaymentIntent запрашивает текущее состояние намерения платежа.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*Intent, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *retryablehttp.Request) (*Intent, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &intent, nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		apiErr.Type = payload.Error.Type
		apiErr.Message = payload.Error.Message
	}
	return apiErr
}

// leveledLogger передаёт журнал повторов retryablehttp в zap.
type leveledLogger struct {
	l *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.l.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.l.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.l.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.l.Debugw(msg, kv...) }
