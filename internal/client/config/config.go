// Package config loads settings for the gophauth command-line client.
package config

import (
	"errors"
	"os"
	"time"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the server's gRPC endpoint.
//   - DeviceID: identifies this client; one session is kept per device.
//   - RequestTimeout: upper bound on a single call to the server.
//   - SessionFile: SQLite file keeping the session between runs; empty keeps
//     it in memory and logs out on exit.
type Config struct {
	ServerEndpointAddr string
	DeviceID           string
	RequestTimeout     time.Duration
	SessionFile        string
}

// hostname is a test seam for os.Hostname.
var hostname = os.Hostname

// LoadDefaults populates c with sensible defaults. The device id defaults to
// the machine's host name.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.SessionFile = "session.db"
	if h, err := hostname(); err == nil && h != "" {
		c.DeviceID = h
	} else {
		c.DeviceID = "cli"
	}
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address is empty"))
	}
	if c.DeviceID == "" {
		errs = append(errs, errors.New("device id is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
