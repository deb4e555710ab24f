package constants

import (
	"net/http"
	"time"
)

// Bitquery Endpoints
const (
	// DefaultTokenURL is the OAuth2 token endpoint
	DefaultTokenURL = "https://oauth2.bitquery.io/oauth2/token"

	// DefaultEndpoint is the GraphQL endpoint
	DefaultEndpoint = "https://streaming.bitquery.io/graphql"

	// DefaultScope is the OAuth2 scope requested with client credentials
	DefaultScope = "api"
)

// Retry Constants
const (
	// DefaultMaxRetries is the default number of retries after the first attempt
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the fixed delay between attempts
	DefaultRetryDelay = 1000 * time.Millisecond

	// DefaultRequestTimeout bounds a single HTTP attempt
	DefaultRequestTimeout = 30 * time.Second
)

// RetryableStatusCodes lists the HTTP statuses that are retried
var RetryableStatusCodes = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// IsRetryableStatus reports whether status is in RetryableStatusCodes
func IsRetryableStatus(status int) bool {
	for _, s := range RetryableStatusCodes {
		if s == status {
			return true
		}
	}
	return false
}

// Environment Variables
const (
	EnvClientID     = "BITQUERY_CLIENT_ID"
	EnvClientSecret = "BITQUERY_CLIENT_SECRET"
	EnvMaxRetries   = "MAX_RETRIES"
	EnvRetryDelay   = "RETRY_DELAY" // milliseconds
	EnvEndpoint     = "BITQUERY_ENDPOINT"
	EnvTokenURL     = "BITQUERY_TOKEN_URL"
	EnvTimeout      = "BITQUERY_TIMEOUT"
	EnvLogLevel     = "BITQUERY_LOG_LEVEL"
	EnvLogFormat    = "BITQUERY_LOG_FORMAT"
)

// Metrics
const (
	// MetricsNamespace prefixes every exported metric
	MetricsNamespace = "bitquery"

	// MetricsSubsystem groups client metrics
	MetricsSubsystem = "client"
)
