package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"grpc_address":           "www.example:9000",
		"http_address":           "www.example:8000",
		"database_dsn":           "postgres://x",
		"secret_key":             "my_secret_key",
		"access_token_validity":  "1m",
		"refresh_token_validity": "3m",
		"s3_root_user":           "user",
		"s3_root_password":       "password",
		"s3_bucket":              "bucket",
		"s3_region":              "region",
		"s3_base_endpoint":       "base_endpoint",
		"otlp_endpoint":          "otel:4318",
		"admin_email":            "root@example.com",
		"admin_password":         "root",
		"scanner_email":          "gate@example.com",
		"scanner_password":       "gate",
		"login_rate":             20,
		"login_burst":            2,
		"cors_origins":           []string{"https://dash.example.com"},
		"seed_demo":              true,
		"event_id":               "EVT24",
		"log_level":              "debug",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		parseJson(cfg, []string{"-config", pathFlag})

		want := &Config{
			EndpointAddrGRPC:             "www.example:9000",
			EndpointAddrHTTP:             "www.example:8000",
			DatabaseDSN:                  "postgres://x",
			SecretKey:                    "my_secret_key",
			AccessTokenValidityDuration:  time.Minute,
			RefreshTokenValidityDuration: 3 * time.Minute,
			S3RootUser:                   "user",
			S3RootPassword:               "password",
			S3Bucket:                     "bucket",
			S3Region:                     "region",
			S3BaseEndpoint:               "base_endpoint",
			OTLPEndpoint:                 "otel:4318",
			AdminEmail:                   "root@example.com",
			AdminPassword:                "root",
			ScannerEmail:                 "gate@example.com",
			ScannerPassword:              "gate",
			LoginRatePerMinute:           20,
			LoginBurst:                   2,
			CORSOrigins:                  []string{"https://dash.example.com"},
			SeedDemo:                     true,
			EventID:                      "EVT24",
			LogLevel:                     "debug",
		}
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"http_address": ":9999"})

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", partial})

		var want Config
		want.LoadDefaults()
		want.EndpointAddrHTTP = ":9999"
		assert.Empty(t, cmp.Diff(&want, cfg))
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		cfg := &Config{EndpointAddrGRPC: "defaults:1234", SecretKey: "key"}
		parseJson(cfg, nil)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseJson(&Config{}, []string{"-config", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-config", filepath.Join(dir, "nope.json")}) })
	})
}
