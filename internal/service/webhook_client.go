package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	svix "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"github.com/tidwall/gjson"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
	"github.com/aihubhq/aihub/pkg/tracing"
)

const (
	// maxWebhookResponseSize caps how much of a tool response is read and stored
	maxWebhookResponseSize = 10 << 20

	defaultWebhookTimeout = 5 * time.Minute
)

var ErrEmptyWebhookResponse = errors.New("tool returned an empty response")

// ToolWebhookClient posts execution inputs to a tool's webhook and returns its JSON output
type ToolWebhookClient struct {
	httpClient *http.Client
	signer     *svix.Webhook
	logger     logger.Logger
}

type ToolWebhookClientConfig struct {
	Timeout time.Duration
	// SigningSecret enables standard-webhooks signatures (whsec_ prefixed base64)
	SigningSecret string
	HTTPClient    *http.Client
	Logger        logger.Logger
}

func NewToolWebhookClient(cfg ToolWebhookClientConfig) (*ToolWebhookClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	base := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		base = &copied
	}
	base.Timeout = timeout

	client := &ToolWebhookClient{
		httpClient: tracing.WrapHTTPClient(base),
		logger:     cfg.Logger,
	}

	if cfg.SigningSecret != "" {
		signer, err := svix.NewWebhook(cfg.SigningSecret)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook signing secret: %w", err)
		}
		client.signer = signer
	}
	return client, nil
}

func (c *ToolWebhookClient) Call(ctx context.Context, url string, req domain.WebhookRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if c.signer != nil {
		now := time.Now()
		signature, err := c.signer.Sign(req.ExecutionID, now, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to sign webhook payload: %w", err)
		}
		httpReq.Header.Set("webhook-id", req.ExecutionID)
		httpReq.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
		httpReq.Header.Set("webhook-signature", signature)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}
	if len(body) > maxWebhookResponseSize {
		return nil, fmt.Errorf("webhook response exceeds %d bytes", maxWebhookResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(map[string]interface{}{
			"execution_id": req.ExecutionID,
			"tool_id":      req.ToolID,
			"status_code":  resp.StatusCode,
		}).Warn("Tool webhook returned an error status")
		return nil, fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return toJSONOutput(body)
}

// toJSONOutput keeps valid JSON as is and stores any other text as a JSON string
func toJSONOutput(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyWebhookResponse
	}
	if gjson.ValidBytes(trimmed) {
		return json.RawMessage(bytes.Clone(trimmed)), nil
	}
	raw, err := json.Marshal(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook response: %w", err)
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
