package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/0xmhha/bitquery-go/internal/constants"
	"github.com/0xmhha/bitquery-go/internal/logger"
	"github.com/0xmhha/bitquery-go/query"
	"github.com/0xmhha/bitquery-go/response"
)

// ErrDecode is wrapped when a successful HTTP response body is not JSON
var ErrDecode = errors.New("undecodable response")

// Client executes GraphQL documents against the Bitquery API.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	oauth      *clientcredentials.Config
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
	metrics    *Metrics

	mu    sync.Mutex
	token string
}

// Config holds client configuration
type Config struct {
	ClientID     string
	ClientSecret string

	// Endpoint is the GraphQL URL. Default: constants.DefaultEndpoint
	Endpoint string
	// TokenURL is the OAuth2 token URL. Default: constants.DefaultTokenURL
	TokenURL string

	// MaxRetries is the number of retries after the first attempt.
	// Zero selects constants.DefaultMaxRetries; a negative value disables
	// retries.
	MaxRetries int
	// RetryDelay is the fixed wait between attempts.
	// Zero selects constants.DefaultRetryDelay.
	RetryDelay time.Duration

	// Timeout bounds each HTTP attempt. Ignored when HTTPClient is set.
	Timeout time.Duration
	// HTTPClient is used for both token and query requests
	HTTPClient *http.Client

	Logger  *zap.Logger
	Metrics *Metrics
}

// NewClient creates a new Bitquery client. No network call is made until
// the first Authenticate or Query.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client id and client secret are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = constants.DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = constants.DefaultTokenURL
	}
	if _, err := url.ParseRequestURI(tokenURL); err != nil {
		return nil, fmt.Errorf("invalid token url: %w", err)
	}

	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = constants.DefaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = constants.DefaultRetryDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		oauth: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{constants.DefaultScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     log,
		metrics:    cfg.Metrics,
	}, nil
}

// Authenticate returns the cached access token, requesting one with the
// client-credentials grant on first use. The token is kept for the life of
// the Client. Concurrent first calls share a single token request.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	tok, err := c.oauth.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err == nil && tok.AccessToken == "" {
		err = errors.New("token response has no access_token")
	}
	if err != nil {
		c.metrics.recordAuth(false)
		logger.FromContext(ctx, c.logger).Error("authentication failed", zap.Error(err))
		return "", &AuthenticationError{Err: err}
	}

	c.metrics.recordAuth(true)
	c.token = tok.AccessToken
	logger.FromContext(ctx, c.logger).Debug("authenticated with Bitquery API")
	return c.token, nil
}

// Send authenticates and POSTs doc, retrying retryable HTTP statuses and
// connection failures with a constant delay. A 2xx body is decoded and
// returned as is; interpretation is left to response.Parse.
//
// Errors are *AuthenticationError, *TransportError, or wrap ErrDecode.
func (c *Client) Send(ctx context.Context, doc query.Document) (*response.Raw, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := encodeRequest(doc)
	if err != nil {
		return nil, err
	}

	log := logger.WithOperation(logger.FromContext(ctx, c.logger), doc.OperationName())
	log.Debug("sending query", zap.Int("variables", len(doc.Variables)))

	start := time.Now()
	defer c.metrics.observeDuration(start)

	attempts := 0
	operation := func() (*response.Raw, error) {
		attempts++
		status, body, err := c.post(ctx, token, payload)
		c.metrics.recordAttempt(status)

		if err != nil {
			terr := &TransportError{Attempts: attempts, Err: err}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(terr)
			}
			return nil, terr
		}

		if status >= 200 && status < 300 {
			raw, err := response.Decode(body)
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrDecode, err))
			}
			return raw, nil
		}

		terr := &TransportError{StatusCode: status, Body: body, Attempts: attempts}
		if constants.IsRetryableStatus(status) {
			return nil, terr
		}
		return nil, backoff.Permanent(terr)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxRetries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		c.metrics.recordRetry()
		log.Warn("retrying request",
			zap.Error(err),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait))
	}

	raw, err := backoff.RetryNotifyWithData(operation, policy, notify)
	if err == nil {
		return raw, nil
	}

	var terr *TransportError
	switch {
	case errors.As(err, &terr):
		if terr.StatusCode != 0 && constants.IsRetryableStatus(terr.StatusCode) {
			terr.Exhausted = true
		}
	case errors.Is(err, ErrDecode):
		log.Error("failed to decode response", zap.Error(err))
		return nil, err
	default:
		// context ended while waiting between attempts
		terr = &TransportError{Attempts: attempts, Err: err}
	}

	log.Error("request failed",
		zap.Int("status", terr.StatusCode),
		zap.Int("attempts", terr.Attempts),
		zap.Error(terr))
	return nil, terr
}

// Query runs doc and returns a normalized envelope.
//
// Only authentication failures are returned as errors. Transport failures
// become a single-error envelope coded NETWORK_ERROR, or with the HTTP
// status as code for non-retryable statuses. Undecodable bodies become
// PARSER_ERROR envelopes.
func (c *Client) Query(ctx context.Context, doc query.Document) (*response.Envelope, error) {
	raw, err := c.Send(ctx, doc)
	if err != nil {
		var authErr *AuthenticationError
		if errors.As(err, &authErr) {
			return nil, err
		}
		env, outcome := errorEnvelope(err)
		c.metrics.recordOutcome(outcome)
		return env, nil
	}

	env := response.Parse(raw)
	if env.Success {
		c.metrics.recordOutcome(OutcomeSuccess)
	} else {
		c.metrics.recordOutcome(OutcomeGraphQLError)
	}
	return env, nil
}

func (c *Client) post(ctx context.Context, token string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func encodeRequest(doc query.Document) ([]byte, error) {
	if doc.Variables == nil {
		doc.Variables = map[string]any{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return payload, nil
}

// errorEnvelope converts a Send error into a failed envelope and the
// outcome label to record
func errorEnvelope(err error) (*response.Envelope, string) {
	var terr *TransportError
	if !errors.As(err, &terr) {
		return response.CreateErrorResponse(err.Error(), nil), OutcomeDecodeError
	}

	switch {
	case terr.StatusCode == 0:
		return response.CreateErrorResponse(terr.Err.Error(), map[string]any{
			"code": response.CodeNetworkError,
		}), OutcomeNetworkError
	case terr.Exhausted:
		return response.CreateErrorResponse(terr.Error(), map[string]any{
			"code":   response.CodeNetworkError,
			"status": terr.StatusCode,
		}), OutcomeNetworkError
	default:
		detail, body := describeBody(terr.Body)
		return response.CreateErrorResponse(
			fmt.Sprintf("API Error: %d - %s", terr.StatusCode, detail),
			map[string]any{
				"code":     terr.StatusCode,
				"response": body,
			},
		), OutcomeHTTPError
	}
}

// describeBody returns the upstream errors array as JSON text when the body
// carries one, otherwise the trimmed body, along with the decoded body for
// extensions.response
func describeBody(body []byte) (string, any) {
	trimmed := bytes.TrimSpace(body)

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed), string(trimmed)
	}

	if obj, ok := decoded.(map[string]any); ok {
		if errs, ok := obj["errors"]; ok {
			if text, err := json.Marshal(errs); err == nil {
				return string(text), decoded
			}
		}
	}
	return string(trimmed), decoded
}
