package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/google/uuid"
)

// DefaultCameraCommand decodes QR codes from the default video device.
const DefaultCameraCommand = "zbarcam --raw --nodisplay"

// Config holds runtime settings for the scanner station.
//
// Units: OnlineCheckInterval and DebounceWindow are time.Duration values.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabaseDSN         string
	StationID           string
	DebounceWindow      time.Duration
	CameraCommand       string
	BadgeDir            string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults. The station id defaults
// to the host name.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabaseDSN = "rollcall.db"
	c.StationID = defaultStationID()
	c.DebounceWindow = checkin.DefaultDebounceWindow
	c.CameraCommand = DefaultCameraCommand
	c.BadgeDir = "."
	c.LogLevel = "warn"
}

var hostname = os.Hostname

func defaultStationID() string {
	if h, err := hostname(); err == nil && h != "" {
		return h
	}
	return "station-" + uuid.NewString()[:8]
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	args := os.Args[1:]
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
