package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrInvoiceServiceError is returned when the invoice service answers with a server error.
	ErrInvoiceServiceError = errors.New("invoice service error")
	// ErrInvoiceRejected is returned when the invoice service refuses the request.
	ErrInvoiceRejected = errors.New("invoice request rejected")
)

const (
	defaultInvoiceTimeout  = 30 * time.Second
	defaultInvoiceAttempts = 3
)

// HTTPInvoiceRenderer implements protocol.InvoiceRenderer against the invoice service:
//
//	POST {baseURL}/accounts/{accountID}/orders/{orderID}/invoice {"templateId": "..."}
//	200 {"url": "https://..."}
type HTTPInvoiceRenderer struct {
	baseURL    string
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
}

type InvoiceOption func(*HTTPInvoiceRenderer)

// WithRetryPolicy sets how many times a request is attempted and the pause between attempts.
func WithRetryPolicy(attempts int, delay time.Duration) InvoiceOption {
	return func(r *HTTPInvoiceRenderer) {
		if attempts > 0 {
			r.attempts = attempts
		}

		r.retryDelay = delay
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) InvoiceOption {
	return func(r *HTTPInvoiceRenderer) {
		r.client.Timeout = timeout
	}
}

// NewHTTPInvoiceRenderer creates a renderer for the service at baseURL.
func NewHTTPInvoiceRenderer(logger *slog.Logger, baseURL string, opts ...InvoiceOption) *HTTPInvoiceRenderer {
	r := &HTTPInvoiceRenderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultInvoiceTimeout,
		},
		attempts:   defaultInvoiceAttempts,
		retryDelay: time.Second,
		logger:     logger.With("module", "invoice_renderer"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type invoiceRequest struct {
	TemplateID string `json:"templateId,omitempty"`
}

type invoiceResponse struct {
	URL string `json:"url"`
}

// Generate renders the invoice of orderID and returns its URL. Server errors are retried.
func (r *HTTPInvoiceRenderer) Generate(ctx context.Context, accountID, orderID, templateID string) (string, error) {
	body, err := json.Marshal(invoiceRequest{TemplateID: templateID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal invoice request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/orders/%s/invoice", r.baseURL, url.PathEscape(accountID), url.PathEscape(orderID))

	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			r.logger.InfoContext(ctx, "Retrying invoice request", "attempt", attempt, "order_id", orderID)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}

		pdfURL, retry, err := r.do(ctx, endpoint, body)
		if err == nil {
			return pdfURL, nil
		}

		lastErr = err

		if !retry {
			break
		}
	}

	return "", fmt.Errorf("invoice for order %s: %w", orderID, lastErr)
}

func (r *HTTPInvoiceRenderer) do(ctx context.Context, endpoint string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to build invoice request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("invoice request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read invoice response: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", true, fmt.Errorf("status %d: %w", resp.StatusCode, ErrInvoiceServiceError)
	case resp.StatusCode >= http.StatusBadRequest:
		return "", false, fmt.Errorf("status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(payload)), ErrInvoiceRejected)
	}

	var decoded invoiceResponse

	err = json.Unmarshal(payload, &decoded)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse invoice response: %w", err)
	}

	if decoded.URL == "" {
		return "", false, fmt.Errorf("invoice response has no url: %w", ErrInvoiceRejected)
	}

	return decoded.URL, false, nil
}
