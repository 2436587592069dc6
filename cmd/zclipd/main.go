// Command zclipd runs a reference ZCLIP device: a CoAP/CBOR server
// exposing a small demo data model (a Basic cluster and an On/Off
// cluster), mDNS presence advertisement, and an optional interactive
// REPL for local inspection.
//
// Usage:
//
//	zclipd [flags]
//
// Flags:
//
//	-config string       YAML configuration file path
//	-device-id string    device identifier advertised over mDNS
//	-vendor-id string    vendor id advertised over mDNS, 0x-prefixed or decimal
//	-product-id string   product id advertised over mDNS, 0x-prefixed or decimal
//	-origin string        host embedded in outbound notification source URIs
//	-storage string        path to the mmap-backed table file
//	-plain-port int        UDP port for the unencrypted listeners
//	-secure-port int       UDP port for the secure listeners (0 disables)
//	-psk-identity string   DTLS PSK identity
//	-psk-key string        DTLS PSK key, hex-encoded
//	-interface string      network interface for mDNS and CoAP multicast
//	-tick-interval int     fallback reporting tick interval in seconds
//	-interactive           start an interactive REPL for local inspection
//
// Examples:
//
//	# Start with defaults on the standard CoAP port
//	zclipd -device-id demo-1 -vendor-id 0x1234 -product-id 1
//
//	# Start from a config file, override the storage path
//	zclipd -config /etc/zclipd/device.yaml -storage /var/lib/zclipd/device.dat
//
//	# Start with a local REPL for reading/writing attributes
//	zclipd -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zclip-go/zclipd/pkg/config"
	"github.com/zclip-go/zclipd/pkg/examples"
	"github.com/zclip-go/zclipd/pkg/log"
	"github.com/zclip-go/zclipd/pkg/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "zclipd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()

	// A config file, if named, supplies defaults; command-line flags
	// are registered against it afterward so they still take final
	// precedence (defaults < file < flags).
	if path := configFileFlag(os.Args[1:]); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flag.String("config", "", "YAML configuration file path")
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	logger := log.NewSlogAdapter(slog.Default())

	demo := examples.NewDemoDevice()
	svc, err := service.New(demo.Device(), cfg, service.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("construct service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	slog.Info("zclipd started", "device_id", cfg.DeviceID, "plain_port", cfg.PlainPort)

	runErr := make(chan error, 1)
	go func() { runErr <- svc.Run(ctx) }()

	if cfg.Interactive {
		go runREPL(ctx, cancel, svc)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil {
			slog.Error("host loop exited", "error", err)
		}
	}

	if err := svc.Stop(); err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	return nil
}

// configFileFlag looks for -config/--config among args without
// invoking the flag package, since the real FlagSet isn't registered
// until after a config file (if any) has supplied its defaults.
func configFileFlag(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
