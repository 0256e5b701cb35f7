package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/tracing"
)

const (
	defaultGatewayTimeout = 10 * time.Second
	maxErrorBodyBytes     = 512
)

type GatewayOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// GatewayClient delivers instant messages through an HTTP messaging gateway.
// A message is attempted once.
type GatewayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewGatewayClient(opts GatewayOptions) *GatewayClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	return &GatewayClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GatewayClient) Send(ctx context.Context, recipient, text string) error {
	url := c.baseURL + "/messages"

	ctx, span := tracing.StartExternalAPISpan(ctx, "send_message", url)
	defer span.End()

	err := c.doRequest(ctx, url, recipient, text)
	tracing.RecordSpanError(span, err)
	return err
}

func (c *GatewayClient) doRequest(ctx context.Context, url, recipient, text string) error {
	payload, err := json.Marshal(outboundMessage{To: recipient, Body: text})
	if err != nil {
		return domain.NewSendError(domain.ChannelMessage, recipient, "failed to marshal message", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return domain.NewSendError(domain.ChannelMessage, recipient, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("x-request-id", requestID)
	}
	tracing.InjectToHTTPRequest(ctx, req)

	slog.DebugContext(ctx, "sending message through gateway",
		slog.String("url", url),
		slog.String("recipient", recipient),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewSendError(domain.ChannelMessage, recipient, "gateway request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		reason := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		if msg := strings.TrimSpace(string(body)); msg != "" {
			reason = fmt.Sprintf("%s: %s", reason, msg)
		}
		return domain.NewSendError(domain.ChannelMessage, recipient, reason, nil)
	}

	slog.InfoContext(ctx, "message accepted by gateway",
		slog.String("recipient", recipient),
		slog.Int("status_code", resp.StatusCode),
	)
	return nil
}
