package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xmhha/bitquery-go/internal/config"
	"github.com/0xmhha/bitquery-go/templates"
)

func TestBuildDocument_Template(t *testing.T) {
	doc, err := buildDocument("token-balances", "", "", templates.Args{
		Address: "0xabc",
		Limit:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, "GetTokenBalances", doc.OperationName())
	assert.Equal(t, "0xabc", doc.Variables["address"])
	assert.Equal(t, 5, doc.Variables["limit"])
}

func TestBuildDocument_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.graphql")
	require.NoError(t, os.WriteFile(path, []byte("query GetBlocks($limit: Int!) { ethereum { blocks(options: {limit: $limit}) { height } } }"), 0o644))

	doc, err := buildDocument("", path, `{"limit": 3}`, templates.Args{})
	require.NoError(t, err)
	assert.Equal(t, "GetBlocks", doc.OperationName())
	assert.Equal(t, float64(3), doc.Variables["limit"])

	doc, err = buildDocument("", path, "", templates.Args{})
	require.NoError(t, err)
	assert.NotNil(t, doc.Variables)
	assert.Empty(t, doc.Variables)

	_, err = buildDocument("", path, "{not json", templates.Args{})
	assert.ErrorContains(t, err, "invalid -vars")
}

func TestBuildDocument_Errors(t *testing.T) {
	_, err := buildDocument("", "", "", templates.Args{})
	assert.ErrorContains(t, err, "token-balances")

	_, err = buildDocument("token-balances", "x.graphql", "", templates.Args{})
	assert.Error(t, err)

	_, err = buildDocument("no-such-template", "", "", templates.Args{})
	assert.ErrorIs(t, err, templates.ErrUnknownTemplate)

	_, err = buildDocument("token-balances", "", "", templates.Args{})
	assert.ErrorIs(t, err, templates.ErrAddressRequired)
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a.b", "c"}, splitPaths(" a.b, ,c,"))
	assert.Nil(t, splitPaths(""))
}

func TestNewClientConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Bitquery.ClientID = "id"
	cfg.Bitquery.ClientSecret = "secret"

	cc := newClientConfig(cfg, zap.NewNop())
	assert.Equal(t, "id", cc.ClientID)
	assert.Equal(t, "secret", cc.ClientSecret)
	assert.Equal(t, cfg.Bitquery.Endpoint, cc.Endpoint)
	assert.Equal(t, cfg.Bitquery.TokenURL, cc.TokenURL)
	assert.Equal(t, 3, cc.MaxRetries)
	assert.Equal(t, cfg.Retry.Delay, cc.RetryDelay)
	assert.NotNil(t, cc.Metrics)

	cfg.Retry.MaxRetries = 0
	cc = newClientConfig(cfg, zap.NewNop())
	assert.Equal(t, -1, cc.MaxRetries)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	for _, key := range []string{"BITQUERY_ENDPOINT", "BITQUERY_TOKEN_URL", "BITQUERY_TIMEOUT", "MAX_RETRIES", "RETRY_DELAY"} {
		t.Setenv(key, "")
	}
	t.Setenv("BITQUERY_CLIENT_ID", "id")
	t.Setenv("BITQUERY_CLIENT_SECRET", "secret")

	cfg, err := loadConfig("", "debug", "console")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}
