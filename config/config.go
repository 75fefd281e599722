// Package config loads the layer settings from YAML.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/pion/logging"
	"gopkg.in/yaml.v3"
)

// DefaultSTUNPort is used when stun_port is absent.
const DefaultSTUNPort = 3478

var (
	ErrInvalidIP       = errors.New("config: invalid IPv4 address")
	ErrInvalidLogLevel = errors.New("config: invalid log level")
	ErrInvalidPort     = errors.New("config: invalid port")
)

// Config is the top-level configuration.
type Config struct {
	EnableGoCentral bool `yaml:"enable_gocentral"`
	EnableLiveless  bool `yaml:"enable_liveless"`

	// STUNServer is a host name or IPv4 literal. Empty skips discovery.
	STUNServer string `yaml:"stun_server"`
	// STUNPort zero skips discovery.
	STUNPort              uint16        `yaml:"stun_port"`
	STUNLocalPort         int           `yaml:"stun_local_port"`
	STUNTimeout           time.Duration `yaml:"stun_timeout"`
	STUNVerifyTransaction bool          `yaml:"stun_verify_transaction"`

	// ExternalIP is used when discovery is skipped or fails.
	ExternalIP string `yaml:"external_ip"`
	// RedirectIP overrides the external address as the peer redirect.
	RedirectIP string `yaml:"redirect_ip"`

	Emulator bool `yaml:"emulator"`

	StatusAddr string `yaml:"status_addr"`
	LogLevel   string `yaml:"log_level"`
}

// Default returns the settings used for keys a file leaves out.
func Default() *Config {
	return &Config{
		STUNPort:              DefaultSTUNPort,
		STUNTimeout:           4000 * time.Millisecond,
		STUNVerifyTransaction: true,
		LogLevel:              "info",
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks addresses, ports and the log level.
func (c *Config) Validate() error {
	if _, err := parseIPv4("external_ip", c.ExternalIP); err != nil {
		return err
	}
	if _, err := parseIPv4("redirect_ip", c.RedirectIP); err != nil {
		return err
	}
	if c.STUNLocalPort < 0 || c.STUNLocalPort > 65535 {
		return fmt.Errorf("%w: stun_local_port %d", ErrInvalidPort, c.STUNLocalPort)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// External returns external_ip, or the zero Addr when unset.
func (c *Config) External() netip.Addr {
	ip, _ := parseIPv4("external_ip", c.ExternalIP)
	return ip
}

// Redirect returns redirect_ip, or the zero Addr when unset.
func (c *Config) Redirect() netip.Addr {
	ip, _ := parseIPv4("redirect_ip", c.RedirectIP)
	return ip
}

// DiscoveryEnabled reports whether a STUN server is configured.
func (c *Config) DiscoveryEnabled() bool {
	return c.STUNServer != "" && c.STUNPort != 0
}

// Level maps log_level to a pion log level. Empty means info.
func (c *Config) Level() (logging.LogLevel, error) {
	switch strings.ToLower(c.LogLevel) {
	case "", "info":
		return logging.LogLevelInfo, nil
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
}

// LoggerFactory returns a factory logging at the configured level.
func (c *Config) LoggerFactory() *logging.DefaultLoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	if lvl, err := c.Level(); err == nil {
		f.DefaultLogLevel = lvl
	}
	return f
}

func parseIPv4(key, s string) (netip.Addr, error) {
	if s == "" {
		return netip.Addr{}, nil
	}
	ip, err := netip.ParseAddr(s)
	if err != nil || !ip.Unmap().Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %s %q", ErrInvalidIP, key, s)
	}
	return ip.Unmap(), nil
}
