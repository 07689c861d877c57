package tally

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	fiber "github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/tally/internal/constants"
	"github.com/hyp3rd/tally/internal/libs/serializer"
	"github.com/hyp3rd/tally/internal/sentinel"
)

// ManagementHTTPOption configures the management HTTP server.
type ManagementHTTPOption func(*ManagementHTTPServer)

// ManagementHTTPServer exposes a Statistics over HTTP: snapshots, lookups, resets
// and remote recording of samples and occurrences.
type ManagementHTTPServer struct {
	addr         string
	app          *fiber.App
	readTimeout  time.Duration
	writeTimeout time.Duration
	authFunc     func(fiber.Ctx) error
	logger       Logger
	serializer   string
	registry     *serializer.Registry
	extra        map[string]http.Handler
	ln           net.Listener
	started      bool
}

// WithMgmtAuth sets an auth function (return error to block).
func WithMgmtAuth(fn func(fiber.Ctx) error) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.authFunc = fn }
}

// WithMgmtReadTimeout sets read timeout.
func WithMgmtReadTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.readTimeout = d }
}

// WithMgmtWriteTimeout sets write timeout.
func WithMgmtWriteTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.writeTimeout = d }
}

// WithMgmtSerializer sets the serializer used for snapshots when the request names no format.
func WithMgmtSerializer(name string) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) {
		if name != "" {
			s.serializer = name
		}
	}
}

// WithMgmtLogger sets the logger for server errors.
func WithMgmtLogger(logger Logger) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMgmtRoute mounts a net/http handler for GET requests on path, behind the same auth.
// The daemon uses it to serve Prometheus metrics.
func WithMgmtRoute(path string, handler http.Handler) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) {
		if s.extra == nil {
			s.extra = make(map[string]http.Handler)
		}

		s.extra[path] = handler
	}
}

// NewManagementHTTPServer builds an HTTP server holder (lazy start).
func NewManagementHTTPServer(addr string, opts ...ManagementHTTPOption) *ManagementHTTPServer {
	srv := &ManagementHTTPServer{
		addr:         addr,
		readTimeout:  constants.DefaultReadTimeout,
		writeTimeout: constants.DefaultWriteTimeout,
		logger:       NopLogger(),
		serializer:   constants.DefaultSerializer,
		registry:     serializer.NewSerializerRegistry(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.app = fiber.New(fiber.Config{
		ReadTimeout:  srv.readTimeout,
		WriteTimeout: srv.writeTimeout,
	})

	return srv
}

// Start mounts the routes for stats and launches the listener (idempotent).
func (s *ManagementHTTPServer) Start(ctx context.Context, stats Statistics) error {
	if s.started {
		return nil
	}

	if stats == nil {
		return sentinel.ErrNilStatistics
	}

	_, err := s.registry.New(s.serializer)
	if err != nil {
		return ewrap.Wrap(err, "mgmt serializer")
	}

	s.mountRoutes(stats)

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ewrap.Wrap(err, "mgmt listen")
	}

	s.ln = ln

	go func() {
		serveErr := s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
		if serveErr != nil {
			s.logger.Errorf("management http server: %v", serveErr)
		}
	}()

	s.started = true

	return nil
}

// Address returns the bound address (useful when passing ":0" for ephemeral port). Empty if not started yet.
func (s *ManagementHTTPServer) Address() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *ManagementHTTPServer) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}

	ch := make(chan error, 1)

	go func() {
		ch <- s.app.Shutdown()
	}()

	select {
	case <-ctx.Done():
		return sentinel.ErrMgmtHTTPShutdownTimeout
	case err := <-ch:
		return err
	}
}

func (s *ManagementHTTPServer) mountRoutes(stats Statistics) {
	useAuth := s.wrapAuth
	s.registerSnapshots(useAuth, stats)
	s.registerLookups(useAuth, stats)
	s.registerRecording(useAuth, stats)

	for path, handler := range s.extra {
		s.app.Get(path, useAuth(adaptor.HTTPHandler(handler)))
	}
}

// wrapAuth returns an auth-wrapped handler if authFunc provided.
func (s *ManagementHTTPServer) wrapAuth(handler fiber.Handler) fiber.Handler { //nolint:ireturn
	if s.authFunc == nil {
		return handler
	}

	return func(fiberCtx fiber.Ctx) error {
		authErr := s.authFunc(fiberCtx)
		if authErr != nil {
			return authErr
		}

		return handler(fiberCtx)
	}
}

func (s *ManagementHTTPServer) registerSnapshots(useAuth func(fiber.Handler) fiber.Handler, stats Statistics) {
	s.app.Get("/health", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.SendString("ok") }))
	s.app.Get("/snapshot", useAuth(func(fiberCtx fiber.Ctx) error {
		return s.sendReport(fiberCtx, stats.Snapshot().Report(), true)
	}))
	s.app.Post("/snapshot/reset", useAuth(func(fiberCtx fiber.Ctx) error {
		return s.sendReport(fiberCtx, stats.SnapshotAndReset().Report(), false)
	}))
	s.app.Post("/reset", useAuth(func(fiberCtx fiber.Ctx) error {
		stats.Reset()

		return fiberCtx.SendStatus(fiber.StatusNoContent)
	}))
}

func (s *ManagementHTTPServer) registerLookups(useAuth func(fiber.Handler) fiber.Handler, stats Statistics) {
	s.app.Get("/statistics/:name", useAuth(func(fiberCtx fiber.Ctx) error {
		name := fiberCtx.Params("name")

		return fiberCtx.JSON(SeriesEntry{Name: name, Summary: stats.FindStatistic(name).Summary()})
	}))
	s.app.Get("/durations/:name", useAuth(func(fiberCtx fiber.Ctx) error {
		name := fiberCtx.Params("name")

		return fiberCtx.JSON(SeriesEntry{Name: name, Summary: stats.FindDuration(name).Summary()})
	}))
	s.app.Get("/occurrences/:name", useAuth(func(fiberCtx fiber.Ctx) error {
		name := fiberCtx.Params("name")

		return fiberCtx.JSON(CounterEntry{Name: name, Count: stats.FindOccurrence(name)})
	}))
}

func (s *ManagementHTTPServer) registerRecording(useAuth func(fiber.Handler) fiber.Handler, stats Statistics) {
	s.app.Post("/samples/:name", useAuth(func(fiberCtx fiber.Ctx) error {
		value, err := strconv.ParseFloat(fiberCtx.Query("value"), 64)
		if err != nil {
			return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid value"})
		}

		err = stats.AddSample(fiberCtx.Params("name"), value)
		if err != nil {
			return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		return fiberCtx.SendStatus(fiber.StatusAccepted)
	}))
	s.app.Post("/occurrences/:name", useAuth(func(fiberCtx fiber.Ctx) error {
		n, err := strconv.ParseInt(fiberCtx.Query("n", "1"), 10, 64)
		if err != nil {
			return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid n"})
		}

		err = stats.AddOccurrences(fiberCtx.Params("name"), n)
		if err != nil {
			return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		return fiberCtx.SendStatus(fiber.StatusAccepted)
	}))
}

// sendReport encodes report with the serializer named by the "format" query parameter,
// or the server default. Cacheable responses carry an ETag and honor If-None-Match.
func (s *ManagementHTTPServer) sendReport(fiberCtx fiber.Ctx, report Report, cacheable bool) error {
	codec, err := s.registry.New(fiberCtx.Query("format", s.serializer))
	if err != nil {
		return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	body, err := codec.Marshal(report)
	if err != nil {
		return ewrap.Wrap(err, "encode report")
	}

	fiberCtx.Set(fiber.HeaderContentType, codec.ContentType())

	if cacheable {
		etag, etagErr := reportETag(codec, report)
		if etagErr != nil {
			return etagErr
		}

		fiberCtx.Set(fiber.HeaderETag, etag)

		if fiberCtx.Get(fiber.HeaderIfNoneMatch) == etag {
			return fiberCtx.SendStatus(fiber.StatusNotModified)
		}
	}

	return fiberCtx.Send(body)
}

// reportETag hashes the report content. TakenAt changes on every request, so it is
// left out of the hash.
func reportETag(codec serializer.ISerializer, report Report) (string, error) {
	report.TakenAt = time.Time{}

	content, err := codec.Marshal(report)
	if err != nil {
		return "", ewrap.Wrap(err, "encode report etag")
	}

	return `"` + strconv.FormatUint(xxhash.Sum64(content), 16) + `"`, nil
}
