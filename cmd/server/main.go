// Command server runs the data custody coordinator's HTTP API.
//
// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"datacustody/internal/consent"
	"datacustody/internal/dispatch"
	"datacustody/internal/domain"
	"datacustody/internal/domains/actionlog"
	"datacustody/internal/domains/ars"
	"datacustody/internal/domains/loginguard"
	"datacustody/internal/domains/profile"
	"datacustody/internal/export"
	"datacustody/internal/lifecycle"
	"datacustody/internal/platform/config"
	"datacustody/internal/platform/httpserver"
	"datacustody/internal/platform/logger"
	"datacustody/internal/platform/metrics"
	redisplatform "datacustody/internal/platform/redis"
	httptransport "datacustody/internal/transport/http"
	"datacustody/internal/user"
	"datacustody/internal/wipe"
	emailsink "datacustody/internal/wipe/sinks/email"
	"datacustody/internal/wipe/sinks/mirror"
	"datacustody/internal/wipe/sinks/stream"
	pkgemail "datacustody/pkg/email"
	"datacustody/pkg/platform/middleware/auth"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	m := metrics.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("opening database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	rdb, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Error("connecting to redis failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	users := user.NewPostgresStore(db)

	registry, err := dispatch.NewRegistry(
		profile.NewHandler(users),
		actionlog.NewHandler(actionlog.NewPostgresStore(db)),
		loginguard.NewHandler(loginguard.NewPostgresStore(db)),
		ars.NewHandler(ars.NewPostgresStore(db)),
	)
	if err != nil {
		log.Error("building domain registry failed", "error", err)
		os.Exit(1)
	}
	dispatcher := dispatch.New(registry, log, dispatch.WithMetrics(m))

	var locker wipe.Locker = wipe.NewMemoryLocker()
	var gateCache consent.GateCache = consent.NewMemoryGateCache()
	if rdb != nil {
		locker = wipe.NewRedisLocker(rdb.Client)
		gateCache = consent.NewRedisGateCache(rdb.Client)
	}

	var sender pkgemail.Sender
	var sinks []wipe.Sink
	if cfg.SMTPHost != "" {
		sender = pkgemail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
		sinks = append(sinks, emailsink.New(sender, cfg.AdminEmails, cfg.SiteName, log))
	}
	if cfg.MirrorBucket != "" {
		mirrorSink, err := mirror.New(mirror.Config{
			Bucket:          cfg.MirrorBucket,
			Endpoint:        cfg.MirrorEndpoint,
			Region:          cfg.MirrorRegion,
			AccessKeyID:     cfg.MirrorAccessKey,
			SecretAccessKey: cfg.MirrorSecretKey,
		})
		if err != nil {
			log.Error("building audit mirror sink failed", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, mirrorSink)
	}
	if len(cfg.KafkaBrokers) > 0 {
		streamSink, err := stream.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("building audit stream sink failed", "error", err)
			os.Exit(1)
		}
		defer streamSink.Close()
		sinks = append(sinks, streamSink)
	}

	notifier := wipe.NewNotifier(log, m, sinks...)
	wipes := wipe.NewService(
		dispatcher,
		wipe.NewPostgresStore(db),
		notifier,
		users,
		locker,
		cfg.ConfirmPhrase,
		log,
		wipe.WithMetrics(m),
	)

	policy := lifecycle.Policy{
		InactivityThreshold: time.Duration(cfg.LifecycleInactiveDays) * 24 * time.Hour,
		GracePeriod:         time.Duration(cfg.LifecycleGraceDays) * 24 * time.Hour,
	}
	lifecycleOpts := []lifecycle.Option{lifecycle.WithMetrics(m)}
	if sender != nil {
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithSender(sender))
	}
	lifecycles := lifecycle.NewService(users, wipes, policy, log, lifecycleOpts...)
	wipes.SetEligibilityChecker(lifecycles)

	dntPolicy, err := domain.ParseDNTPolicy(cfg.DNTPolicy)
	if err != nil {
		log.Error("invalid DNT policy", "error", err)
		os.Exit(1)
	}
	consents := consent.NewService(consent.NewPostgresStore(db), gateCache, dntPolicy, log)

	health := []httptransport.HealthCheck{
		{Name: "postgres", Check: db.PingContext},
	}
	if rdb != nil {
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
	}

	handler := httptransport.NewHandler(wipes, consents, dispatcher, export.NewSerializer(), log, m, health...)
	router := httptransport.NewRouter(handler, auth.NewValidator(cfg.JWTSigningKey), log)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting datacustody", "addr", cfg.Addr, "sinks", len(sinks))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
