package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/flagx"
)

// parseFlags populates Config fields from command-line flags. Only the flags
// listed in the package documentation are considered; flagx.FilterArgs drops
// the rest so other layers can share the command line.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-station", "-w", "-camera", "-badges"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite database file")
	fs.StringVar(&cfg.StationID, "station", cfg.StationID, "station identifier")
	debounceWindow := fs.Int("w", int(cfg.DebounceWindow.Milliseconds()), "debounce window (in milliseconds)")
	fs.StringVar(&cfg.CameraCommand, "camera", cfg.CameraCommand, "QR decoder command; empty reads stdin")
	fs.StringVar(&cfg.BadgeDir, "badges", cfg.BadgeDir, "badge output directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.DebounceWindow = time.Duration(*debounceWindow) * time.Millisecond
}
