package routeradapter

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

	application "strangler/contexts/migration-control/arbiter-service/application"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
)

const (
	setWeightPath  = "/admin/set-weight"
	DefaultTimeout = 5 * time.Second
)

type setWeightRequest struct {
	Service string  `json:"service"`
	Weight  float64 `json:"weight"`
}

// Client calls the traffic router's admin endpoint. Each call is bounded by
// the configured timeout and never retried here; the decision loop repeats it
// on its next tick.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: timeout,
		client:  client,
		logger:  application.ResolveLogger(logger),
	}
}

func (c *Client) SetWeight(ctx context.Context, service string, weight float64) error {
	if weight < 0 || weight > 1 {
		return domainerrors.ErrInvalidWeight
	}
	body, err := json.Marshal(setWeightRequest{Service: service, Weight: weight})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+setWeightPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build set-weight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrRouterUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", domainerrors.ErrRouterRejected, resp.Status)
	}

	c.logger.Info("router weight updated",
		"event", "arbiter_router_weight_set",
		"module", "migration-control/arbiter-service",
		"layer", "adapter",
		"service", service,
		"weight", weight,
	)
	return nil
}
