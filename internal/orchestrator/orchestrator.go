package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/api"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/config"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/detector"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/eventbus"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/health"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/hub"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/notifier"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/settings"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/source"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/status"
)

const shutdownTimeout = 5 * time.Second

type Orchestrator struct {
	config *config.Config

	settings   *settings.Settings
	reporter   *status.Reporter
	source     source.SignalSource
	dispatcher *notifier.Dispatcher
	loop       *detector.Loop
	publisher  *eventbus.Publisher
	hub        *hub.Hub
	grpc       *health.GRPCServer
	api        *api.Server
}

func NewOrchestrator(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		config: cfg,
	}
}

// Start wires the detector and starts the operator-facing servers.
// Detection itself stays disabled until Run or the API enables it.
func (o *Orchestrator) Start() error {
	log.Printf("Starting Sound Detector Orchestrator...")

	mode, err := models.ParseSensitivityMode(o.config.Sensitivity)
	if err != nil {
		return err
	}

	src, err := source.NewSource(o.config)
	if err != nil {
		return fmt.Errorf("%w: %s", err, o.config.SignalSource)
	}
	o.source = src

	o.settings = settings.New()
	o.settings.SetMode(mode)
	o.settings.SetThresholds(models.ThresholdSet{
		Sensitive: o.config.Thresholds.SensitiveDB,
		Normal:    o.config.Thresholds.NormalDB,
		Sleeping:  o.config.Thresholds.SleepingDB,
	})
	o.settings.SetCredentials(models.Credentials{
		BotToken: o.config.BotToken,
		UserID:   o.config.UserID,
	})

	o.reporter = status.NewReporter()

	o.dispatcher = notifier.NewDispatcher(notifier.Options{
		BaseURL:             o.config.DiscordAPIBase,
		RequestTimeout:      o.config.RequestTimeout,
		MaxRateLimitRetries: o.config.MaxRateLimitRetries,
	}, o.settings, o.reporter)

	o.loop = detector.NewLoop(o.source, o.settings, o.reporter, o.dispatcher, o.config.SampleInterval)
	log.Printf("Detection loop ready (source: %s, interval: %v)", o.source.Name(), o.loop.Interval())

	if o.config.EnableStatusPublishing {
		publisher, err := eventbus.NewPublisher(o.config.NatsURL, o.config.StatusSubject)
		if err != nil {
			log.Printf("Warning: status publishing disabled: %v", err)
		} else {
			o.publisher = publisher
			o.reporter.Subscribe(publisher.StatusObserver())
		}
	}

	o.hub = hub.New(o.config.AllowedOrigins, o.reporter.Current)
	o.reporter.Subscribe(o.hub.BroadcastStatus)

	o.grpc = health.NewGRPCServer()
	o.reporter.Subscribe(o.grpc.StatusObserver())
	o.loop.OnStateChange(o.grpc.SetDetectionServing)
	if err := o.grpc.Start(o.config.GRPCPort); err != nil {
		return err
	}

	handler := api.NewHandler(o.settings, o.reporter, o.loop)
	o.api = api.NewServer(o.config.HTTPPort, api.NewRouter(handler, o.config.AllowedOrigins, o.hub.HandleConnect))
	o.api.Start()

	return nil
}

// Run optionally enables detection, then streams status to websocket
// clients until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.config.EnableOnStart {
		if err := o.loop.Enable(); err != nil {
			log.Printf("Detection not enabled on start: %v", err)
		} else {
			log.Printf("Detection enabled on start (mode: %s)", o.settings.Mode())
		}
	}

	o.hub.Run(ctx)
	return ctx.Err()
}

// Stop disables detection, abandons pending deliveries and shuts the
// servers down. The final status is always Disabled.
func (o *Orchestrator) Stop() error {
	log.Printf("Stopping orchestrator...")

	if o.loop != nil {
		o.loop.Disable()
	}
	if o.dispatcher != nil {
		o.dispatcher.Close()
	}
	if o.reporter != nil && o.reporter.Current().Kind != models.StatusDisabled {
		o.reporter.Set(models.DisabledStatus())
	}

	if o.publisher != nil {
		o.publisher.Close()
	}
	if o.grpc != nil {
		o.grpc.Stop()
	}

	if o.api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := o.api.Shutdown(ctx); err != nil {
			return err
		}
	}

	log.Printf("Orchestrator stopped")
	return nil
}

// Enabled, SourceName and CurrentStatus let the health check read the
// detector without reaching into its parts.
func (o *Orchestrator) Enabled() bool {
	return o.loop != nil && o.loop.Enabled()
}

func (o *Orchestrator) SourceName() string {
	if o.source == nil {
		return ""
	}
	return o.source.Name()
}

func (o *Orchestrator) CurrentStatus() models.StatusMessage {
	if o.reporter == nil {
		return models.IdleStatus()
	}
	return o.reporter.Current()
}
