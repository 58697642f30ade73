// Command custodyctl runs erasure operations from the command line: one-off
// deletions on a user's behalf and the unattended lifecycle batch.
//
// Usage:
//
//	custodyctl delete -user <id> -type <user|admin|lifecycle> [-confirm <phrase>]
//	custodyctl lifecycle notify
//	custodyctl lifecycle run
//
// The batch commands exit non-zero only when the batch could not start;
// per-user failures are logged and counted.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"datacustody/internal/dispatch"
	"datacustody/internal/domain"
	"datacustody/internal/domains/actionlog"
	"datacustody/internal/domains/ars"
	"datacustody/internal/domains/loginguard"
	"datacustody/internal/domains/profile"
	"datacustody/internal/lifecycle"
	"datacustody/internal/platform/config"
	"datacustody/internal/platform/logger"
	redisplatform "datacustody/internal/platform/redis"
	"datacustody/internal/user"
	"datacustody/internal/wipe"
	emailsink "datacustody/internal/wipe/sinks/email"
	"datacustody/internal/wipe/sinks/mirror"
	"datacustody/internal/wipe/sinks/stream"
	pkgemail "datacustody/pkg/email"
	"datacustody/pkg/requestcontext"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "delete":
		err = runDelete(os.Args[2:])
	case "lifecycle":
		err = runLifecycle(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "custodyctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  custodyctl delete -user <id> -type <user|admin|lifecycle> [-confirm <phrase>]
  custodyctl lifecycle notify
  custodyctl lifecycle run`)
}

// services is the wired-up slice of the application the CLI commands need.
type services struct {
	wipes      *wipe.Service
	lifecycles *lifecycle.Service
	close      func()
}

func buildServices(configPath string) (*services, error) {
	cfg, errs := config.Load(configPath)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs[0])
	}
	log := logger.New(cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	rdb, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	users := user.NewPostgresStore(db)
	registry, err := dispatch.NewRegistry(
		profile.NewHandler(users),
		actionlog.NewHandler(actionlog.NewPostgresStore(db)),
		loginguard.NewHandler(loginguard.NewPostgresStore(db)),
		ars.NewHandler(ars.NewPostgresStore(db)),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build domain registry: %w", err)
	}
	dispatcher := dispatch.New(registry, log)

	var locker wipe.Locker = wipe.NewMemoryLocker()
	if rdb != nil {
		locker = wipe.NewRedisLocker(rdb.Client)
	}

	var sender pkgemail.Sender
	var sinks []wipe.Sink
	var closeSinks func()
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
			db.Close()
			return nil, fmt.Errorf("build audit mirror sink: %w", err)
		}
		sinks = append(sinks, mirrorSink)
	}
	if len(cfg.KafkaBrokers) > 0 {
		streamSink, err := stream.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("build audit stream sink: %w", err)
		}
		closeSinks = streamSink.Close
		sinks = append(sinks, streamSink)
	}

	wipes := wipe.NewService(
		dispatcher,
		wipe.NewPostgresStore(db),
		wipe.NewNotifier(log, nil, sinks...),
		users,
		locker,
		cfg.ConfirmPhrase,
		log,
	)

	policy := lifecycle.Policy{
		InactivityThreshold: time.Duration(cfg.LifecycleInactiveDays) * 24 * time.Hour,
		GracePeriod:         time.Duration(cfg.LifecycleGraceDays) * 24 * time.Hour,
	}
	var lifecycleOpts []lifecycle.Option
	if sender != nil {
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithSender(sender))
	}
	lifecycles := lifecycle.NewService(users, wipes, policy, log, lifecycleOpts...)
	wipes.SetEligibilityChecker(lifecycles)

	return &services{
		wipes:      wipes,
		lifecycles: lifecycles,
		close: func() {
			if closeSinks != nil {
				closeSinks()
			}
			if rdb != nil {
				rdb.Close()
			}
			db.Close()
		},
	}, nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", "", "optional YAML config file")
	userID := fs.Int64("user", 0, "user to erase")
	wipeType := fs.String("type", "admin", "wipe type: user, admin or lifecycle")
	confirm := fs.String("confirm", "", "confirmation phrase, required for type=user")
	_ = fs.Parse(args)

	if *userID <= 0 {
		return fmt.Errorf("delete: -user is required")
	}
	parsed, err := domain.ParseWipeType(*wipeType)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	svcs, err := buildServices(*configPath)
	if err != nil {
		return err
	}
	defer svcs.close()

	// Batch commands pin one timestamp for the whole run.
	ctx := requestcontext.WithTime(context.Background(), time.Now())

	rec, err := svcs.wipes.Execute(ctx, wipe.Request{
		UserID:        *userID,
		Type:          parsed,
		ConfirmPhrase: *confirm,
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", *userID, err)
	}
	fmt.Printf("wiped user %d, audit record %s, %d domain(s) reported deletions\n",
		*userID, rec.ID, len(rec.Items))
	return nil
}

func runLifecycle(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("lifecycle: expected subcommand notify or run")
	}
	sub := args[0]

	fs := flag.NewFlagSet("lifecycle "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "optional YAML config file")
	_ = fs.Parse(args[1:])

	svcs, err := buildServices(*configPath)
	if err != nil {
		return err
	}
	defer svcs.close()

	ctx := requestcontext.WithTime(context.Background(), time.Now())

	switch sub {
	case "notify":
		sent, err := svcs.lifecycles.Notify(ctx)
		if err != nil {
			return fmt.Errorf("lifecycle notify: %w", err)
		}
		fmt.Printf("sent %d lifecycle warning mail(s)\n", sent)
		return nil
	case "run":
		result, err := svcs.lifecycles.Run(ctx)
		if err != nil {
			return fmt.Errorf("lifecycle run: %w", err)
		}
		fmt.Printf("lifecycle batch done: %d wiped, %d skipped, %d failed\n",
			result.Wiped, result.Skipped, result.Failed)
		return nil
	default:
		return fmt.Errorf("lifecycle: unknown subcommand %q", sub)
	}
}
