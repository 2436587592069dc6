// Package config implements C9: YAML-file and flag-driven startup
// configuration for a zclipd process, grounded on the YAML struct-tag
// style the teacher used throughout its spec/PICS tooling (now removed
// from this module, see DESIGN.md) and parsed with the same
// gopkg.in/yaml.v3 library.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is a zclipd process's complete startup configuration: listen
// addresses, PSK credentials, storage location, the host embedded in
// outbound notification source URIs, and the reporting tick interval.
type Config struct {
	// DeviceID names this device for mDNS advertisement and logging.
	DeviceID string `yaml:"device_id"`

	// Origin is this device's own host, embedded as the "u" field of
	// every notification it sends (spec.md §4.7).
	Origin string `yaml:"origin"`

	// StoragePath is the path to the mmap-backed table file (spec.md
	// §4.2/§6).
	StoragePath string `yaml:"storage_path"`

	// PlainPort is the UDP port for the four unencrypted listeners.
	PlainPort int `yaml:"plain_port"`

	// SecurePort is the UDP port for the four secure-port listeners
	// (plain UDP; no DTLS handshake is performed). 0 disables them.
	SecurePort int `yaml:"secure_port"`

	// PSKIdentity and PSKKey configure the placeholder DTLS PSK
	// (spec.md §4.4); PSKKey is hex-encoded in the YAML file.
	PSKIdentity string `yaml:"psk_identity"`
	PSKKey      string `yaml:"psk_key"`

	// VendorID and ProductID are advertised in the device's mDNS TXT
	// records (SPEC_FULL.md §6's ambient discovery carve-out).
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`

	// Interface names the network interface mDNS and CoAP multicast
	// should bind to. Empty selects every interface.
	Interface string `yaml:"interface"`

	// TickIntervalSeconds bounds how often the host loop is willing to
	// run an inbound poll even when no binding is due, so a freshly
	// created binding with no prior notification doesn't wait forever.
	TickIntervalSeconds int `yaml:"tick_interval_seconds"`

	// Interactive enables the REPL built with github.com/chzyer/readline.
	Interactive bool `yaml:"-"`
}

// Default returns a Config with the engine's documented defaults:
// plain port 5683, no DTLS, a 60s fallback tick.
func Default() Config {
	return Config{
		Origin:              "zclipd.local",
		StoragePath:         "zclipd.dat",
		PlainPort:           5683,
		SecurePort:          0,
		TickIntervalSeconds: 60,
	}
}

// Load reads and parses a YAML configuration file, starting from
// Default() so an omitted field keeps its default rather than
// zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// PSKKeyBytes decodes the hex-encoded PSK key, or returns nil if none
// is configured.
func (c Config) PSKKeyBytes() ([]byte, error) {
	if c.PSKKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.PSKKey)
	if err != nil {
		return nil, fmt.Errorf("config: psk_key is not valid hex: %w", err)
	}
	return key, nil
}

// RegisterFlags binds command-line flags onto cfg, following
// cmd/mash-device/main.go's own flag-based CLI (flags override a
// loaded YAML file, matching standard precedence: defaults < file <
// flags). Call after Load (or Default) and before fs.Parse.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DeviceID, "device-id", c.DeviceID, "device identifier advertised over mDNS")
	fs.Func("vendor-id", "vendor id advertised over mDNS, 0x-prefixed or decimal", func(s string) error {
		id, err := parseUint16(s)
		if err != nil {
			return err
		}
		c.VendorID = id
		return nil
	})
	fs.Func("product-id", "product id advertised over mDNS, 0x-prefixed or decimal", func(s string) error {
		id, err := parseUint16(s)
		if err != nil {
			return err
		}
		c.ProductID = id
		return nil
	})
	fs.StringVar(&c.Origin, "origin", c.Origin, "host embedded in outbound notification source URIs")
	fs.StringVar(&c.StoragePath, "storage", c.StoragePath, "path to the mmap-backed table file")
	fs.IntVar(&c.PlainPort, "plain-port", c.PlainPort, "UDP port for the unencrypted listeners")
	fs.IntVar(&c.SecurePort, "secure-port", c.SecurePort, "UDP port for the secure listeners (0 disables)")
	fs.StringVar(&c.PSKIdentity, "psk-identity", c.PSKIdentity, "DTLS PSK identity")
	fs.StringVar(&c.PSKKey, "psk-key", c.PSKKey, "DTLS PSK key, hex-encoded")
	fs.StringVar(&c.Interface, "interface", c.Interface, "network interface for mDNS and CoAP multicast (empty selects all)")
	fs.IntVar(&c.TickIntervalSeconds, "tick-interval", c.TickIntervalSeconds, "fallback reporting tick interval in seconds")
	fs.BoolVar(&c.Interactive, "interactive", c.Interactive, "start an interactive REPL for local inspection")
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("not a valid 16-bit id: %w", err)
	}
	return uint16(v), nil
}
