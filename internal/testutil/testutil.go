package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Credentials and token accepted by a FakeServer
const (
	TestClientID     = "test-client"
	TestClientSecret = "test-secret"
	TestAccessToken  = "test-token"
)

// NewTestLogger creates a logger that writes through t.Log
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t)
}

// Reply is one scripted GraphQL endpoint response
type Reply struct {
	Status int
	Body   string
}

// Request is a GraphQL request as received by a FakeServer
type Request struct {
	Authorization string
	OperationName string
	Query         string
	Variables     map[string]any
	// Parsed is false when the query text did not parse as GraphQL
	Parsed bool
}

// FakeServer stands in for both the Bitquery token and GraphQL endpoints.
// GraphQL replies are served from a script in order; once the script is
// used up every request gets the default reply.
type FakeServer struct {
	*httptest.Server

	tokenRequests atomic.Int32
	tokenStatus   atomic.Int32

	mu       sync.Mutex
	script   []Reply
	fallback Reply
	requests []Request
}

// NewFakeServer starts a FakeServer that is closed when the test ends
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()

	fs := &FakeServer{
		fallback: Reply{Status: http.StatusOK, Body: `{"data":{}}`},
	}
	fs.tokenStatus.Store(http.StatusOK)

	r := chi.NewRouter()
	r.Post("/oauth2/token", fs.handleToken)
	r.Post("/graphql", fs.handleGraphQL)

	fs.Server = httptest.NewServer(r)
	t.Cleanup(fs.Close)
	return fs
}

// TokenURL returns the URL of the token endpoint
func (fs *FakeServer) TokenURL() string {
	return fs.URL + "/oauth2/token"
}

// Endpoint returns the URL of the GraphQL endpoint
func (fs *FakeServer) Endpoint() string {
	return fs.URL + "/graphql"
}

// Script queues replies for upcoming GraphQL requests
func (fs *FakeServer) Script(replies ...Reply) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.script = append(fs.script, replies...)
}

// SetDefault sets the reply used once the script is exhausted
func (fs *FakeServer) SetDefault(reply Reply) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fallback = reply
}

// FailTokens makes the token endpoint answer with status
func (fs *FakeServer) FailTokens(status int) {
	fs.tokenStatus.Store(int32(status))
}

// TokenRequests returns the number of token requests served
func (fs *FakeServer) TokenRequests() int {
	return int(fs.tokenRequests.Load())
}

// Requests returns a copy of the GraphQL requests received so far
func (fs *FakeServer) Requests() []Request {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]Request, len(fs.requests))
	copy(out, fs.requests)
	return out
}

func (fs *FakeServer) handleToken(w http.ResponseWriter, r *http.Request) {
	fs.tokenRequests.Add(1)

	if status := int(fs.tokenStatus.Load()); status != http.StatusOK {
		writeJSON(w, status, map[string]string{"error": "server_error"})
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") != "client_credentials" ||
		r.PostForm.Get("client_id") != TestClientID ||
		r.PostForm.Get("client_secret") != TestClientSecret ||
		r.PostForm.Get("scope") != "api" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": TestAccessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (fs *FakeServer) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": []map[string]string{{"message": "invalid request body"}},
		})
		return
	}

	name, parsed := operationName(body.Query)
	req := Request{
		Authorization: r.Header.Get("Authorization"),
		OperationName: name,
		Query:         body.Query,
		Variables:     body.Variables,
		Parsed:        parsed,
	}

	fs.mu.Lock()
	fs.requests = append(fs.requests, req)
	reply := fs.fallback
	if len(fs.script) > 0 {
		reply = fs.script[0]
		fs.script = fs.script[1:]
	}
	fs.mu.Unlock()

	if req.Authorization != "Bearer "+TestAccessToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"errors": []map[string]string{{"message": "unauthorized"}},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = w.Write([]byte(reply.Body))
}

// operationName returns the name of the first operation in query
func operationName(query string) (string, bool) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return "", false
	}
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			if op.Name != nil {
				return op.Name.Value, true
			}
			return "", true
		}
	}
	return "", true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
