package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/resilience"
)

// EnvPrefix prefixes the client's environment overrides
const EnvPrefix = "SHELLCTL"

// Config holds control client settings
type Config struct {
	URL          string        `default:"http://localhost:8000"`
	Timeout      time.Duration `default:"10s"`
	Retries      int           `default:"2"`
	RetryWait    time.Duration `default:"200ms" split_words:"true"`
	RetryMaxWait time.Duration `default:"2s" split_words:"true"`
	// BreakerThreshold consecutive failures open the circuit for BreakerCooldown
	BreakerThreshold int           `default:"5" split_words:"true"`
	BreakerCooldown  time.Duration `default:"30s" split_words:"true"`
}

// ConfigFromEnv reads SHELLCTL_* variables over the defaults
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load client config: %w", err)
	}
	return cfg, nil
}

// APIError is a non-2xx answer from the shell daemon
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("homeshell: %d %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to a running shell daemon
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// New creates a client. logger may be nil.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWait
	retryClient.RetryWaitMax = cfg.RetryMaxWait
	retryClient.Logger = nil

	r := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("User-Agent", "shellctl/1.0").
		SetTransport(retryClient.HTTPClient.Transport)
	r.JSONMarshal = sonic.Marshal
	r.JSONUnmarshal = sonic.Unmarshal
	r.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("Shell request",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()))
		return nil
	})

	breaker := resilience.New("homeshell", resilience.Settings{
		Threshold: cfg.BreakerThreshold,
		Cooldown:  cfg.BreakerCooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &Client{resty: r, breaker: breaker, logger: logger}
}

// Breaker exposes the circuit breaker guarding every call
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}

// do runs one request through the breaker. Transport errors and 5xx answers
// count against the breaker; 4xx answers do not.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	resp, err := resilience.Execute(c.breaker, func() (*resty.Response, error) {
		req := c.resty.R().
			SetContext(ctx).
			SetError(&APIError{})
		if body != nil {
			req.SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, apiError(resp)
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return fmt.Errorf("circuit breaker open: %w", err)
	case err != nil:
		return err
	case resp.IsError():
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	out := &APIError{Status: resp.StatusCode()}
	if e, ok := resp.Error().(*APIError); ok && e != nil {
		out.Message = e.Message
	}
	if out.Message == "" {
		out.Message = http.StatusText(out.Status)
	}
	return out
}

func taskPath(taskID int, action string) string {
	return "/sim/tasks/" + strconv.Itoa(taskID) + "/" + action
}
