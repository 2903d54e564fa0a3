package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/rollcall/internal/flagx"
	"github.com/dmitrijs2005/rollcall/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// strings such as "15m" as well as integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"grpc_address"`
	EndpointAddrHTTP             string         `json:"http_address"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	OTLPEndpoint                 string         `json:"otlp_endpoint"`
	AdminEmail                   string         `json:"admin_email"`
	AdminPassword                string         `json:"admin_password"`
	ScannerEmail                 string         `json:"scanner_email"`
	ScannerPassword              string         `json:"scanner_password"`
	LoginRatePerMinute           int            `json:"login_rate"`
	LoginBurst                   int            `json:"login_burst"`
	CORSOrigins                  []string       `json:"cors_origins"`
	SeedDemo                     *bool          `json:"seed_demo"`
	EventID                      string         `json:"event_id"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson loads the file named by -c / -config and overlays every field it
// sets onto config. Without the flag nothing happens; an unreadable or
// malformed file panics.
func parseJson(config *Config, args []string) {

	jsonConfigFile := flagx.JsonConfigFlags(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.IsSet() {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.IsSet() {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.ScannerEmail, c.ScannerEmail)
	setString(&config.ScannerPassword, c.ScannerPassword)
	if c.LoginRatePerMinute > 0 {
		config.LoginRatePerMinute = c.LoginRatePerMinute
	}
	if c.LoginBurst > 0 {
		config.LoginBurst = c.LoginBurst
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.SeedDemo != nil {
		config.SeedDemo = *c.SeedDemo
	}
	setString(&config.EventID, c.EventID)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
