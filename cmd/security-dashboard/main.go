package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/dashboard"
	"github.com/diwise/security-dashboard/internal/pkg/application/events"
	"github.com/diwise/security-dashboard/internal/pkg/application/timefmt"
	"github.com/diwise/security-dashboard/internal/pkg/application/webevents"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/config"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/logging"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/metrics"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/mockdata"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/router"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/tracing"
	"github.com/diwise/security-dashboard/internal/pkg/presentation/api"
	"github.com/diwise/security-dashboard/internal/pkg/presentation/gui"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const serviceName string = "security-dashboard"

func main() {
	serviceVersion := version()

	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion, zerolog.InfoLevel)

	cfg, err := config.Load()
	exitIf(err, logger, "could not load configuration")

	err = parseFlags(flag.CommandLine, os.Args[1:], cfg)
	exitIf(err, logger, "could not parse command line")

	level, err := cfg.Level()
	exitIf(err, logger, "invalid log level")
	ctx, logger = logging.NewLogger(ctx, serviceName, serviceVersion, level)

	logger.Info().Msg("starting up ...")

	cleanup, err := tracing.Init(ctx, logger, cfg.EnableTracing, serviceName, serviceVersion)
	exitIf(err, logger, "failed to init tracing")
	defer cleanup()

	notifications, err := loadNotifications(cfg.NotificationsFile)
	exitIf(err, logger, "could not load notifications configuration")

	sender, err := events.New(notifications)
	exitIf(err, logger, "could not create event sender")

	loc, err := cfg.Location()
	exitIf(err, logger, "invalid time zone")

	locale := gui.Locale{Tag: timefmt.Match(cfg.Locale), Location: loc}

	we := webevents.New()
	defer we.Shutdown()

	c := clock.New()

	var app *dashboard.Dashboard
	m := metrics.New(func() metrics.Summary { return summarize(app.Snapshot()) })

	app = dashboard.New(c, mockdata.New(c, cfg.Seed(c.Now())),
		dashboard.WithCountdownSeconds(cfg.CountdownSeconds),
		dashboard.WithEventSender(sender),
		dashboard.WithWebEvents(we),
		dashboard.WithRecorder(m),
		dashboard.WithFormatter(timefmt.New(locale.Tag, locale.Location)),
	)

	err = app.Start(ctx)
	exitIf(err, logger, "failed to start dashboard")
	defer app.Stop()

	r := setupRouter(logger, app, locale, we.Handler(), m.Handler())

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = serve(ctx, server, logger)
	exitIf(err, logger, "failed to start request router")

	logger.Info().Msg("shutting down")
}

// serve listens until ctx is cancelled and then shuts the server down gracefully
func serve(ctx context.Context, server *http.Server, logger zerolog.Logger) error {
	shutdown := make(chan error, 1)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to shut down http server")
		}
		shutdown <- err
	}()

	logger.Info().Str("addr", server.Addr).Msg("starting to listen for connections")

	err := server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-shutdown
}

func setupRouter(logger zerolog.Logger, app dashboard.Service, locale gui.Locale, stream, metricsHandler http.Handler) *chi.Mux {
	r := router.New(serviceName)

	api.RegisterHandlers(logger, r, app, stream, metricsHandler)
	gui.RegisterHandlers(logger, r, locale, app)

	return r
}

func loadNotifications(path string) (*events.Config, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return events.LoadConfiguration(f)
}

func summarize(s dashboard.Snapshot) metrics.Summary {
	return metrics.Summary{
		CamerasOnline:        lo.CountBy(s.Cameras, func(c types.CameraFeed) bool { return c.Online() }),
		CamerasTotal:         len(s.Cameras),
		AlertsUnacknowledged: s.UnacknowledgedAlerts(),
		AlertsTotal:          len(s.Alerts),
		Anomalies:            lo.CountBy(s.Events, func(e types.SecurityEvent) bool { return e.IsAnomaly }),
		Sessions:             len(s.Sessions),
		PeopleCounted:        lo.SumBy(s.Sessions, func(p types.PersonCount) int { return p.Count }),
		Counting:             s.Counter.Counting,
	}
}

// parseFlags lets command line arguments override defaults and environment variables
func parseFlags(fs *flag.FlagSet, args []string, cfg *config.Config) error {
	str := func(target *string) func(string) error {
		return func(value string) error {
			*target = value
			return nil
		}
	}

	fs.Func("listen", "address to listen on", str(&cfg.ListenAddress))
	fs.Func("port", "port to serve the dashboard on", str(&cfg.ServicePort))
	fs.Func("loglevel", "log level (debug, info, warn, error)", str(&cfg.LogLevel))
	fs.Func("locale", "default locale (en-US or zh-TW)", str(&cfg.Locale))
	fs.Func("timezone", "time zone used when showing times", str(&cfg.Timezone))
	fs.Func("notifications", "notifications configuration file", str(&cfg.NotificationsFile))
	fs.Func("countdown", "seconds before a confirmation is carried out", func(value string) error {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.CountdownSeconds = seconds
		return nil
	})
	fs.Func("seed", "seed for the generated mock data", func(value string) error {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.MockSeed = seed
		return nil
	})

	return fs.Parse(args)
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}

func exitIf(err error, logger zerolog.Logger, msg string) {
	if err != nil {
		logger.Error().Err(err).Msg(msg)
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}
}
