package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/0xmhha/bitquery-go/internal/testutil"
	"github.com/0xmhha/bitquery-go/query"
	"github.com/0xmhha/bitquery-go/response"
	"github.com/0xmhha/bitquery-go/templates"
)

func newTestClient(t *testing.T, fs *testutil.FakeServer, mutate func(*Config)) (*Client, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	cfg := &Config{
		ClientID:     testutil.TestClientID,
		ClientSecret: testutil.TestClientSecret,
		Endpoint:     fs.Endpoint(),
		TokenURL:     fs.TokenURL(),
		MaxRetries:   3,
		RetryDelay:   time.Millisecond,
		Logger:       testutil.NewTestLogger(t),
		Metrics:      metrics,
	}
	if mutate != nil {
		mutate(cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c, metrics
}

func balancesDoc() query.Document {
	return templates.TokenBalances("0xabc", templates.TokenBalancesOptions{})
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config", config: nil, wantErr: true},
		{name: "missing secret", config: &Config{ClientID: "id"}, wantErr: true},
		{name: "missing id", config: &Config{ClientSecret: "secret"}, wantErr: true},
		{
			name:    "relative endpoint",
			config:  &Config{ClientID: "id", ClientSecret: "secret", Endpoint: "graphql"},
			wantErr: true,
		},
		{name: "defaults", config: &Config{ClientID: "id", ClientSecret: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://streaming.bitquery.io/graphql", c.endpoint)
			assert.Equal(t, "https://oauth2.bitquery.io/oauth2/token", c.oauth.TokenURL)
			assert.Equal(t, []string{"api"}, c.oauth.Scopes)
			assert.Equal(t, 3, c.maxRetries)
			assert.Equal(t, time.Second, c.retryDelay)
		})
	}
}

func TestNewClient_NegativeRetriesDisable(t *testing.T) {
	c, err := NewClient(&Config{ClientID: "id", ClientSecret: "secret", MaxRetries: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, c.maxRetries)
}

func TestClient_Query(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.Script(testutil.Reply{Status: http.StatusOK, Body: `{"data":{"ethereum":{"address":[{"balances":[]}]}}}`})
	c, metrics := newTestClient(t, fs, nil)

	env, err := c.Query(context.Background(), balancesDoc())
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Empty(t, env.Errors)
	assert.Contains(t, env.Data, "ethereum")

	reqs := fs.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GetTokenBalances", reqs[0].OperationName)
	assert.Equal(t, "Bearer "+testutil.TestAccessToken, reqs[0].Authorization)
	assert.Equal(t, "0xabc", reqs[0].Variables["address"])
	assert.Equal(t, float64(100), reqs[0].Variables["limit"])

	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("200")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.AuthTotal.WithLabelValues("success")))
}

func TestClient_NilVariablesSentAsObject(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	c, _ := newTestClient(t, fs, nil)

	_, err := c.Query(context.Background(), query.Document{Query: "query Ping { ping }"})
	require.NoError(t, err)

	reqs := fs.Requests()
	require.Len(t, reqs, 1)
	assert.NotNil(t, reqs[0].Variables)
	assert.Empty(t, reqs[0].Variables)
}

func TestClient_TokenIsCached(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	c, _ := newTestClient(t, fs, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Query(context.Background(), balancesDoc())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, fs.TokenRequests())
	assert.Len(t, fs.Requests(), 3)
}

func TestClient_ConcurrentFirstCallsAuthenticateOnce(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	c, _ := newTestClient(t, fs, nil)

	var wg sync.WaitGroup
	tokens := make([]string, 16)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := c.Authenticate(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, fs.TokenRequests())
	for _, tok := range tokens {
		assert.Equal(t, testutil.TestAccessToken, tok)
	}
}

func TestClient_AuthenticationFailure(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*testutil.FakeServer)
		mutate func(*Config)
	}{
		{
			name:  "token endpoint error",
			setup: func(fs *testutil.FakeServer) { fs.FailTokens(http.StatusInternalServerError) },
		},
		{
			name:   "wrong secret",
			mutate: func(c *Config) { c.ClientSecret = "wrong" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testutil.NewFakeServer(t)
			if tt.setup != nil {
				tt.setup(fs)
			}
			c, metrics := newTestClient(t, fs, tt.mutate)

			env, err := c.Query(context.Background(), balancesDoc())
			assert.Nil(t, env)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAuthentication)
			assert.Contains(t, err.Error(), "failed to authenticate with Bitquery API")

			var authErr *AuthenticationError
			require.ErrorAs(t, err, &authErr)
			var retrieveErr *oauth2.RetrieveError
			assert.ErrorAs(t, err, &retrieveErr)

			assert.Empty(t, fs.Requests())
			assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.AuthTotal.WithLabelValues("failure")))
		})
	}
}

func TestClient_AuthenticationIsRetriedOnNextCall(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.FailTokens(http.StatusServiceUnavailable)
	c, _ := newTestClient(t, fs, nil)

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)

	fs.FailTokens(http.StatusOK)
	tok, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.TestAccessToken, tok)
	assert.Equal(t, 2, fs.TokenRequests())
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.Script(
		testutil.Reply{Status: http.StatusServiceUnavailable, Body: `{}`},
		testutil.Reply{Status: http.StatusServiceUnavailable, Body: `{}`},
		testutil.Reply{Status: http.StatusServiceUnavailable, Body: `{}`},
		testutil.Reply{Status: http.StatusOK, Body: `{"data":{"ok":true}}`},
	)
	c, metrics := newTestClient(t, fs, nil)

	env, err := c.Query(context.Background(), balancesDoc())
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Equal(t, true, env.Data["ok"])
	assert.Len(t, fs.Requests(), 4)
	assert.Equal(t, float64(3), promtestutil.ToFloat64(metrics.RetriesTotal))
	assert.Equal(t, float64(3), promtestutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("503")))
}

func TestClient_RetryableStatuses(t *testing.T) {
	for _, status := range []int{408, 429, 500, 502, 503, 504} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			fs := testutil.NewFakeServer(t)
			fs.Script(
				testutil.Reply{Status: status, Body: `{}`},
				testutil.Reply{Status: http.StatusOK, Body: `{"data":{"n":1}}`},
			)
			c, _ := newTestClient(t, fs, nil)

			env, err := c.Query(context.Background(), balancesDoc())
			require.NoError(t, err)
			assert.True(t, env.Success)
			assert.Len(t, fs.Requests(), 2)
		})
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.SetDefault(testutil.Reply{Status: http.StatusServiceUnavailable, Body: `{"errors":[{"message":"busy"}]}`})
	c, metrics := newTestClient(t, fs, func(cfg *Config) { cfg.MaxRetries = 2 })

	env, err := c.Query(context.Background(), balancesDoc())
	require.NoError(t, err)

	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, response.CodeNetworkError, env.Errors[0].Code())
	assert.Equal(t, http.StatusServiceUnavailable, env.Errors[0].Extensions["status"])
	assert.Contains(t, env.Errors[0].Message, "503")
	assert.Len(t, fs.Requests(), 3)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(OutcomeNetworkError)))
}

func TestClient_SendReturnsTransportError(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.SetDefault(testutil.Reply{Status: http.StatusBadGateway, Body: `{}`})
	c, _ := newTestClient(t, fs, func(cfg *Config) { cfg.MaxRetries = 1 })

	raw, err := c.Send(context.Background(), balancesDoc())
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, ErrTransport)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadGateway, terr.StatusCode)
	assert.Equal(t, 2, terr.Attempts)
	assert.True(t, terr.Exhausted)
}

func TestClient_NonRetryableStatus(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.Script(testutil.Reply{Status: http.StatusBadRequest, Body: `{"errors":[{"message":"bad query"}]}`})
	c, metrics := newTestClient(t, fs, nil)

	env, err := c.Query(context.Background(), balancesDoc())
	require.NoError(t, err)

	assert.False(t, env.Success)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, http.StatusBadRequest, env.Errors[0].Code())
	assert.Equal(t, `API Error: 400 - [{"message":"bad query"}]`, env.Errors[0].Message)
	assert.Equal(t,
		map[string]any{"errors": []any{map[string]any{"message": "bad query"}}},
		env.Errors[0].Extensions["response"])
	assert.Len(t, fs.Requests(), 1)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(OutcomeHTTPError)))
}

func TestClient_NonRetryableStatusPlainBody(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.Script(testutil.Reply{Status: http.StatusForbidden, Body: "forbidden\n"})
	c, _ := newTestClient(t, fs, nil)

	env, err := c.Query(context.Background(), balancesDoc())
	require.NoError(t, err)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "API Error: 403 - forbidden", env.Errors[0].Message)
	assert.Equal(t, "forbidden", env.Errors[0].Extensions["response"])
}

func TestClient_ConnectionFailure(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL + "/graphql"
	dead.Close()

	c, metrics := newTestClient(t, fs, func(cfg *Config) {
		cfg.Endpoint = deadURL
		cfg.MaxRetries = 1
	})

	env, err := c.Query(context.Background(), balancesDoc())
	require.NoError(t, err)

	assert.False(t, env.Success)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, response.CodeNetworkError, env.Errors[0].Code())
	assert.NotContains(t, env.Errors[0].Extensions, "status")
	assert.Equal(t, float64(2), promtestutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("error")))
}

func TestClient_ContextCancelledBetweenRetries(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.SetDefault(testutil.Reply{Status: http.StatusServiceUnavailable, Body: `{}`})
	c, _ := newTestClient(t, fs, func(cfg *Config) { cfg.RetryDelay = time.Hour })

	_, err := c.Authenticate(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	raw, err := c.Send(ctx, balancesDoc())
	assert.Nil(t, raw)
	assert.Less(t, time.Since(start), 10*time.Second)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Len(t, fs.Requests(), 1)
}

func TestClient_UpstreamGraphQLErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSuccess bool
		wantData    bool
	}{
		{
			name: "errors without data",
			body: `{"data":null,"errors":[{"message":"Cannot query field","locations":[{"line":3,"column":5}],"extensions":{"code":"GRAPHQL_VALIDATION_FAILED"}}]}`,
		},
		{
			name:     "partial data",
			body:     `{"data":{"a":1},"errors":[{"message":"field b failed","path":["b"]}]}`,
			wantData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testutil.NewFakeServer(t)
			fs.Script(testutil.Reply{Status: http.StatusOK, Body: tt.body})
			c, metrics := newTestClient(t, fs, nil)

			env, err := c.Query(context.Background(), balancesDoc())
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantData, env.Data != nil)
			require.Len(t, env.Errors, 1)
			assert.NotEmpty(t, env.Errors[0].Message)
			assert.Len(t, fs.Requests(), 1)
			assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(OutcomeGraphQLError)))
		})
	}
}

func TestClient_UndecodableBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"html", "<html>oops</html>", "failed to decode response body"},
		{"empty", "", "No response received"},
		{"null", "null", "No response received"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testutil.NewFakeServer(t)
			fs.Script(testutil.Reply{Status: http.StatusOK, Body: tt.body})
			c, _ := newTestClient(t, fs, nil)

			env, err := c.Query(context.Background(), balancesDoc())
			require.NoError(t, err)

			assert.False(t, env.Success)
			require.Len(t, env.Errors, 1)
			assert.Contains(t, env.Errors[0].Message, tt.message)
			assert.Equal(t, response.CodeParserError, env.Errors[0].Code())
			assert.Len(t, fs.Requests(), 1)
		})
	}
}

func TestTransportError_Messages(t *testing.T) {
	conn := &TransportError{Attempts: 2, Err: errors.New("connection refused")}
	assert.Equal(t, "request failed after 2 attempt(s): connection refused", conn.Error())
	assert.ErrorIs(t, conn, ErrTransport)

	exhausted := &TransportError{StatusCode: 503, Attempts: 4, Exhausted: true}
	assert.Equal(t, "request failed with status code 503 after 4 attempt(s)", exhausted.Error())

	status := &TransportError{StatusCode: 400, Attempts: 1}
	assert.Equal(t, "request failed with status code 400", status.Error())
	assert.ErrorIs(t, status, ErrTransport)
}
