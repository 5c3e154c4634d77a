package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/bobmcallan/tahlil-portal/internal/models"
)

// Options configures an AnalysisClient.
type Options struct {
	BaseURL     string
	AnalyzePath string
	// Timeout bounds each call. Zero means no timeout.
	Timeout time.Duration
	// RateLimit caps outbound requests per second. Zero means unlimited.
	RateLimit float64
}

// analyzeRequest is the POST body: a single normalized symbol.
type analyzeRequest struct {
	Symbol string `json:"symbol"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

// errorResponse accepts both {"error": ...} and {"message": ...} bodies.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// AnalysisClient calls the backend analysis endpoint.
type AnalysisClient struct {
	http        *resty.Client
	analyzePath string
	limiter     *rate.Limiter
}

// NewAnalysisClient creates a client for the backend at opts.BaseURL.
// Requests are never retried.
func NewAnalysisClient(opts Options) *AnalysisClient {
	path := opts.AnalyzePath
	if path == "" {
		path = "/api/analyze"
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	c := &AnalysisClient{
		http:        httpClient,
		analyzePath: path,
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// Analyze requests the markdown analysis for symbol.
// POST {analyzePath} {"symbol": "AAPL"} -> {"analysis": "# ..."}
//
// Errors are *RequestError for non-success responses (or a success response
// without a payload) and *TransportError when the call itself fails.
func (c *AnalysisClient) Analyze(ctx context.Context, symbol models.Symbol) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &TransportError{Cause: err}
		}
	}

	var result analyzeResponse
	var failure errorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		// Backends do not always label JSON bodies.
		SetForceResponseContentType("application/json").
		SetBody(analyzeRequest{Symbol: symbol.String()}).
		SetResult(&result).
		SetError(&failure).
		Post(c.analyzePath)
	if err != nil {
		if resp != nil && resp.StatusCode() > 0 {
			// Body could not be decoded; the status is still meaningful.
			return "", &RequestError{StatusCode: resp.StatusCode()}
		}
		return "", &TransportError{Cause: err}
	}

	if !resp.IsSuccess() {
		return "", &RequestError{StatusCode: resp.StatusCode(), Message: failure.text()}
	}

	if result.Analysis == "" {
		return "", &RequestError{StatusCode: resp.StatusCode()}
	}

	return result.Analysis, nil
}

// Health probes GET /api/health on the backend.
func (c *AnalysisClient) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return &TransportError{Cause: err}
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("analysis backend health returned status %d", resp.StatusCode())
	}
	return nil
}
