package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zclip-go/zclipd/pkg/coap"
	"github.com/zclip-go/zclipd/pkg/config"
	"github.com/zclip-go/zclipd/pkg/discovery"
	"github.com/zclip-go/zclipd/pkg/dispatch"
	"github.com/zclip-go/zclipd/pkg/log"
	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/report"
	"github.com/zclip-go/zclipd/pkg/storage"
)

// minPollInterval bounds how long Run ever blocks in a single
// ProcessIncoming call, even when a reporting tick says nothing is due
// for longer: a freshly created binding with no prior notification,
// or a control-plane request arriving mid-sleep, must still be served
// promptly.
const minPollInterval = time.Second

// Service owns a zclipd process's full runtime: the data model, its
// mmap-backed storage, the CoAP transport, and the reporting engine.
// It implements spec.md §6's host loop — init, start, a repeated
// process_outgoing/process_incoming pair — as Go methods instead of a
// C event loop's four free functions.
type Service struct {
	device     *model.Device
	store      *storage.Store
	dispatcher *dispatch.Dispatcher
	server     *coap.Server
	reporter   *report.Engine
	advertiser *discovery.Advertiser
	mdnsInfo   discovery.Info
	logger     log.Logger
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithLogger overrides the default NoopLogger.
func WithLogger(l log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New implements C9's init(): it opens the configured storage table,
// links device against any previously persisted bindings/report
// configurations, and builds the dispatcher, transport and reporting
// engine around it. device must already have its endpoints, clusters,
// attributes and commands populated; New only wires the runtime layers
// around a complete data model.
func New(device *model.Device, cfg config.Config, opts ...Option) (*Service, error) {
	store, err := storage.Open(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("service: open storage: %w", err)
	}
	if err := store.Link(device); err != nil {
		store.Close()
		return nil, fmt.Errorf("service: link storage: %w", err)
	}

	pskKey, err := cfg.PSKKeyBytes()
	if err != nil {
		store.Close()
		return nil, err
	}

	s := &Service{
		device: device,
		store:  store,
		logger: log.NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.dispatcher = dispatch.New(device, store, dispatch.WithLogger(s.logger))

	var psk *coap.PSK
	if cfg.PSKIdentity != "" {
		psk = &coap.PSK{Identity: cfg.PSKIdentity, Key: pskKey}
	}
	s.server = coap.NewServer(s.dispatcher, coap.Config{
		PlainPort:  cfg.PlainPort,
		SecurePort: cfg.SecurePort,
		PSK:        psk,
		Logger:     s.logger,
	})

	s.reporter = report.New(device, store, coap.NewClient(), cfg.Origin, report.WithLogger(s.logger))

	s.advertiser = discovery.NewAdvertiser(cfg.Interface)
	s.mdnsInfo = discovery.Info{
		DeviceID:  cfg.DeviceID,
		Port:      cfg.PlainPort,
		VendorID:  cfg.VendorID,
		ProductID: cfg.ProductID,
	}

	return s, nil
}

// Start implements start()/start_secure(): it opens the plain-UDP
// listeners and, if a secure port is configured, the secure-port ones.
func (s *Service) Start(ctx context.Context) error {
	if err := s.server.Start(ctx); err != nil {
		return fmt.Errorf("service: start: %w", err)
	}
	if err := s.server.StartSecure(ctx); err != nil {
		return fmt.Errorf("service: start secure: %w", err)
	}
	if err := s.advertiser.Start(s.mdnsInfo); err != nil {
		// Presence advertisement is a convenience, not a correctness
		// requirement (SPEC_FULL.md §6): a device unreachable by mDNS
		// is still reachable by address, so this is logged, not fatal.
		s.logError("mdns", err)
	}
	return nil
}

// Stop withdraws the mDNS record and closes the transport and the
// storage table, in that order so no in-flight request touches a
// closed table.
func (s *Service) Stop() error {
	s.advertiser.Stop()
	if err := s.server.Stop(); err != nil {
		return err
	}
	return s.store.Close()
}

func (s *Service) logError(context string, err error) {
	code := -1
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Code:    &code,
			Context: context,
		},
	})
}

// ProcessOutgoing implements process_outgoing(): one reporting tick,
// returning the host loop's next sleep hint in seconds. The host loop
// interface names this an int32 with -1 meaning fatal; the reporting
// engine has no fatal condition of its own; a negative return never
// occurs here.
func (s *Service) ProcessOutgoing(ctx context.Context) int32 {
	return int32(s.reporter.Tick(ctx))
}

// ProcessIncoming implements process_incoming(timeout_ms): it waits up
// to timeoutMS for one inbound datagram and dispatches it. Returns 0
// whether or not a datagram arrived (a timeout is not an error here),
// or -1 if ctx was already done.
func (s *Service) ProcessIncoming(ctx context.Context, timeoutMS int32) int {
	if ctx.Err() != nil {
		return -1
	}
	s.server.ProcessIncoming(ctx, time.Duration(timeoutMS)*time.Millisecond)
	return 0
}

// Run drives the host loop until ctx is cancelled: alternate an
// outbound tick with a bounded inbound poll sized to the tick's sleep
// hint, per spec.md §5's single-threaded cooperative model. Both
// halves run on the calling goroutine, so this must not be called
// concurrently with another Run/ProcessIncoming/ProcessOutgoing call
// on the same Service.
func (s *Service) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		hint := s.ProcessOutgoing(ctx)
		if hint < 0 {
			return fmt.Errorf("service: fatal outbound tick")
		}

		poll := time.Duration(hint) * time.Second
		if poll < minPollInterval {
			poll = minPollInterval
		}
		if code := s.ProcessIncoming(ctx, int32(poll/time.Millisecond)); code < 0 {
			return ctx.Err()
		}
	}
}

// Device returns the data model this service was built around, for
// callers that need to mutate attributes between ticks (e.g. a
// simulation loop or an interactive REPL).
func (s *Service) Device() *model.Device { return s.device }
