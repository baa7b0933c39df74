package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistryBody = `{
	"data": [
		{
			"attributes": {
				"entity": {
					"legalName": {"name": "Acme Holdings PLC"},
					"legalAddress": {"country": "GB"}
				},
				"bic": ["ACMEGB2L"]
			}
		}
	]
}`

func TestEnrichCommandEndToEnd(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(testRegistryBody))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	viper.Set("registry.base_url", server.URL)
	viper.Set("registry.rate_limit_delay", time.Millisecond)
	viper.Set("registry.max_retries", 3)
	viper.Set("registry.timeout", 5*time.Second)
	viper.Set("cache.backend", "json")
	viper.Set("cache.path", filepath.Join(dir, "lei_cache.json"))
	t.Cleanup(viper.Reset)

	inputPath := filepath.Join(dir, "in.csv")
	outputPath := filepath.Join(dir, "out.csv")
	input := strings.Join([]string{
		"lei,notional,rate",
		"GB9900T8BM49AURSDO55,1000,1.05",
		"GB9900T8BM49AURSDO55,2000,1.10",
	}, "\n")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o600))

	cmd := enrichCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--input", inputPath, "--output", outputPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	out, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "lei,notional,rate,legalName,bic,transactionCost", lines[0])
	assert.Equal(t, "GB9900T8BM49AURSDO55,1000,1.05,Acme Holdings PLC,ACMEGB2L,50", lines[1])
	assert.Equal(t, "GB9900T8BM49AURSDO55,2000,1.10,Acme Holdings PLC,ACMEGB2L,200", lines[2])

	// Duplicate LEIs resolved once.
	assert.Equal(t, int32(1), calls.Load())

	// A second run hits the persisted cache and stays off the network.
	cmd = enrichCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--input", inputPath, "--output", outputPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnrichCommandMissingColumn(t *testing.T) {
	dir := t.TempDir()
	viper.Set("cache.backend", "json")
	viper.Set("cache.path", filepath.Join(dir, "lei_cache.json"))
	t.Cleanup(viper.Reset)

	inputPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(inputPath, []byte("notional,rate\n1000,1.05\n"), 0o600))

	cmd := enrichCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--input", inputPath, "--output", filepath.Join(dir, "out.csv")})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}
