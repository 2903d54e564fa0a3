package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/flagx"
	"github.com/dmitrijs2005/rollcall/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from an explicit empty value.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_url"`
	OnlineCheckInterval timex.Duration `json:"ping_interval"`
	DatabaseDSN         string         `json:"database_dsn"`
	StationID           string         `json:"station_id"`
	DebounceWindow      timex.Duration `json:"debounce_window"`
	CameraCommand       *string        `json:"camera_command"`
	BadgeDir            string         `json:"badge_dir"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays cfg with the fields set in the file named by -c or
// -config. Without the flag nothing happens; read or unmarshal errors panic.
func parseJson(cfg *Config, args []string) {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.StationID != "" {
		cfg.StationID = jc.StationID
	}
	if jc.DebounceWindow.Duration != 0 {
		cfg.DebounceWindow = time.Duration(jc.DebounceWindow.Duration)
	}
	if jc.CameraCommand != nil {
		cfg.CameraCommand = *jc.CameraCommand
	}
	if jc.BadgeDir != "" {
		cfg.BadgeDir = jc.BadgeDir
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
