package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "ROLLCALL_"

// loadDotenv is a seam for testing godotenv.Load.
var loadDotenv = godotenv.Load

// parseEnv overlays ROLLCALL_* environment variables onto config.
//
// When -env names a file it must load; otherwise a .env in the working
// directory is loaded if present. godotenv never overrides variables that
// are already set in the process environment.
func parseEnv(config *Config, args []string) {
	if path := flagx.EnvFileFlag(args); path != "" {
		if err := loadDotenv(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := loadDotenv(); err != nil {
			panic(err)
		}
	}

	applyEnv(config, os.LookupEnv)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(err)
			}
			*dst = n
		}
	}

	str("GRPC_ADDRESS", &config.EndpointAddrGRPC)
	str("HTTP_ADDRESS", &config.EndpointAddrHTTP)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	dur("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	dur("REFRESH_TOKEN_VALIDITY", &config.RefreshTokenValidityDuration)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("OTLP_ENDPOINT", &config.OTLPEndpoint)
	str("ADMIN_EMAIL", &config.AdminEmail)
	str("ADMIN_PASSWORD", &config.AdminPassword)
	str("SCANNER_EMAIL", &config.ScannerEmail)
	str("SCANNER_PASSWORD", &config.ScannerPassword)
	num("LOGIN_RATE", &config.LoginRatePerMinute)
	num("LOGIN_BURST", &config.LoginBurst)
	str("EVENT_ID", &config.EventID)
	str("LOG_LEVEL", &config.LogLevel)

	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok && v != "" {
		config.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(envPrefix + "SEED_DEMO"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.SeedDemo = b
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
