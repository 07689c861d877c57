package main

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v3"
	"github.com/hyp3rd/ewrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/internal/config"
	"github.com/hyp3rd/tally/internal/constants"
	otelexporter "github.com/hyp3rd/tally/pkg/exporter/otel"
	promexporter "github.com/hyp3rd/tally/pkg/exporter/prometheus"
	redisexporter "github.com/hyp3rd/tally/pkg/exporter/redis"
	"github.com/hyp3rd/tally/pkg/middleware"
)

const shutdownTimeout = 5 * time.Second

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		var err error

		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	defer func() { _ = logger.Sync() }()

	d, err := newDaemon(cfg, logger.Sugar())
	if err != nil {
		return err
	}

	return d.run(ctx)
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, ewrap.Wrapf(err, "log.level %q", cfg.Level)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, ewrap.Wrap(err, "build logger")
	}

	return logger, nil
}

// daemon owns every long-running component of "tally serve".
type daemon struct {
	logger   tally.Logger
	store    *tally.Synchronized
	stats    tally.Statistics
	mgmt     *tally.ManagementHTTPServer
	reporter *tally.Reporter
	exporter *otelexporter.Exporter
	redis    *goredis.Client
}

func newDaemon(cfg config.Config, logger tally.Logger) (*daemon, error) {
	d := &daemon{logger: logger, store: tally.New()}

	d.stats = middleware.NewLoggingMiddleware(d.store, logger)

	if cfg.OTel.Enabled {
		meter := otel.GetMeterProvider().Meter(constants.InstrumentationName)

		exporter, err := otelexporter.NewExporter(meter, d.store)
		if err != nil {
			return nil, err
		}

		d.exporter = exporter

		d.stats, err = middleware.NewOTelMetricsMiddleware(d.stats, meter)
		if err != nil {
			_ = exporter.Close()

			return nil, err
		}

		d.stats = middleware.NewOTelTracingMiddleware(d.stats, otel.Tracer(constants.InstrumentationName))
	}

	if cfg.Management.Enabled {
		d.mgmt = tally.NewManagementHTTPServer(cfg.Management.Addr, managementOptions(cfg, d.store, logger)...)
	}

	sinks := []tally.Sink{tally.NewLogSink(logger)}

	if cfg.Redis.Addr != "" {
		client, err := redisexporter.NewClient(
			redisexporter.WithAddr(cfg.Redis.Addr),
			redisexporter.WithCredentials(cfg.Redis.Username, cfg.Redis.Password),
			redisexporter.WithDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, err
		}

		publisher, err := redisexporter.NewPublisher(client,
			redisexporter.WithChannel(cfg.Redis.Channel),
			redisexporter.WithSerializer(cfg.Report.Serializer),
			redisexporter.WithLogger(logger),
		)
		if err != nil {
			_ = client.Close()

			return nil, err
		}

		d.redis = client
		sinks = append(sinks, publisher)
	}

	reporter, err := tally.NewReporter(d.stats, cfg.Report.Interval,
		tally.WithReset(cfg.Report.Reset),
		tally.WithReportWorkers(cfg.Report.Workers),
		tally.WithReporterLogger(logger),
		tally.WithSinks(sinks...),
	)
	if err != nil {
		return nil, err
	}

	d.reporter = reporter

	return d, nil
}

func managementOptions(cfg config.Config, store tally.Statistics, logger tally.Logger) []tally.ManagementHTTPOption {
	opts := []tally.ManagementHTTPOption{
		tally.WithMgmtReadTimeout(cfg.Management.ReadTimeout),
		tally.WithMgmtWriteTimeout(cfg.Management.WriteTimeout),
		tally.WithMgmtSerializer(cfg.Report.Serializer),
		tally.WithMgmtLogger(logger),
	}

	if token := cfg.Management.Token; token != "" {
		opts = append(opts, tally.WithMgmtAuth(bearerAuth(token)))
	}

	if cfg.Prometheus.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(promexporter.NewCollector(store))

		opts = append(opts, tally.WithMgmtRoute("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return opts
}

func bearerAuth(token string) func(fiber.Ctx) error {
	want := []byte(token)

	return func(fiberCtx fiber.Ctx) error {
		got, ok := strings.CutPrefix(fiberCtx.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			return fiber.ErrUnauthorized
		}

		return nil
	}
}

// run starts every component and blocks until ctx is done, then shuts them down.
func (d *daemon) run(ctx context.Context) error {
	err := d.start(ctx)
	if err != nil {
		return err
	}

	return d.wait(ctx)
}

func (d *daemon) start(ctx context.Context) error {
	if d.mgmt != nil {
		err := d.mgmt.Start(ctx, d.stats)
		if err != nil {
			d.close()

			return err
		}

		d.logger.Infof("management API listening on %s", d.mgmt.Address())
	}

	err := d.reporter.Start(ctx)
	if err != nil {
		d.close()

		return err
	}

	return nil
}

// wait blocks until ctx is done, then stops the management API and the reporter concurrently.
func (d *daemon) wait(ctx context.Context) error {
	<-ctx.Done()
	d.logger.Infof("shutting down")

	var group errgroup.Group

	if d.mgmt != nil {
		group.Go(func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return d.mgmt.Shutdown(shutdownCtx)
		})
	}

	group.Go(func() error {
		// stopping publishes the interval in progress
		d.reporter.Stop()

		return nil
	})

	err := group.Wait()
	d.close()

	return err
}

func (d *daemon) close() {
	if d.exporter != nil {
		err := d.exporter.Close()
		if err != nil {
			d.logger.Errorf("close otel exporter: %v", err)
		}
	}

	if d.redis != nil {
		err := d.redis.Close()
		if err != nil {
			d.logger.Errorf("close redis client: %v", err)
		}
	}
}
