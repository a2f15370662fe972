package config

import (
	"log"
	"net"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds the gateway configuration, loaded from PUZZLE_* environment
// variables. CLI flags in main override individual fields after Load.
type Settings struct {
	Host    string `envconfig:"HOST" default:"0.0.0.0"`
	Port    int    `envconfig:"PORT" default:"1337"`
	Backlog int    `envconfig:"BACKLOG" default:"512"`

	// BinaryPath is the puzzle executable. Empty means discover it from
	// the conventional build output locations.
	BinaryPath string `envconfig:"BINARY" default:""`

	// HostKeyPath is where the server identity key lives; generated with
	// owner-only permissions when absent.
	HostKeyPath string `envconfig:"HOST_KEY" default:"ssh_host_key"`

	// LogPath is an optional log file; stdout is always used.
	LogPath string `envconfig:"LOG_PATH" default:""`
}

// Addr returns the listen address in host:port form.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

var Cfg Settings

func Load() {
	if err := envconfig.Process("PUZZLE", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
}
