package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	fsimagestore "github.com/minnehack/registration-api/internal/adapters/fs/imagestore"
	fsuploads "github.com/minnehack/registration-api/internal/adapters/fs/uploads"
	"github.com/minnehack/registration-api/internal/adapters/httpapi"
	memidempotency "github.com/minnehack/registration-api/internal/adapters/memory/idempotency"
	memimagestore "github.com/minnehack/registration-api/internal/adapters/memory/imagestore"
	"github.com/minnehack/registration-api/internal/adapters/memory/outbox"
	memregistrationrepo "github.com/minnehack/registration-api/internal/adapters/memory/registrationrepo"
	postgres "github.com/minnehack/registration-api/internal/adapters/postgres"
	pgidempotency "github.com/minnehack/registration-api/internal/adapters/postgres/idempotency"
	pgregistrationrepo "github.com/minnehack/registration-api/internal/adapters/postgres/registrationrepo"
	"github.com/minnehack/registration-api/internal/adapters/qrcode"
	redisimagestore "github.com/minnehack/registration-api/internal/adapters/redis/imagestore"
	"github.com/minnehack/registration-api/internal/adapters/smtp"
	"github.com/minnehack/registration-api/internal/app/credentials"
	"github.com/minnehack/registration-api/internal/app/registrations"
	"github.com/minnehack/registration-api/internal/platform/adminsession"
	platformclock "github.com/minnehack/registration-api/internal/platform/clock"
	"github.com/minnehack/registration-api/internal/platform/codegen"
	"github.com/minnehack/registration-api/internal/platform/config"
	"github.com/minnehack/registration-api/internal/platform/logger"
	"github.com/minnehack/registration-api/internal/platform/metrics"
	idempotencyport "github.com/minnehack/registration-api/internal/ports/out/idempotency"
	imagestoreport "github.com/minnehack/registration-api/internal/ports/out/imagestore"
	notifierport "github.com/minnehack/registration-api/internal/ports/out/notifier"
	registrationrepoport "github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := platformclock.NewSystemClock()
	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		repo      registrationrepoport.Repository
		idemStore idempotencyport.Store
		cleanup   []func()
	)
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	switch cfg.Storage.Backend {
	case "postgres":
		if err := postgres.Migrate(cfg.Storage.DatabaseURL, lg); err != nil {
			return err
		}
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		cleanup = append(cleanup, pool.Close)
		repo = pgregistrationrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		lg.Warn("using in-memory storage; registrations are lost on restart")
		repo = memregistrationrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	}

	var images imagestoreport.Store
	switch cfg.ImageCache.Backend {
	case "redis":
		opts, err := redis.ParseURL(cfg.ImageCache.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		client := redis.NewClient(opts)
		cleanup = append(cleanup, func() { _ = client.Close() })
		images = redisimagestore.NewStore(client, redisimagestore.WithTTL(cfg.ImageCache.TTL))
	case "memory":
		images = memimagestore.NewStore()
	default:
		fsStore, err := fsimagestore.NewStore(cfg.ImageCache.Dir)
		if err != nil {
			return err
		}
		images = fsStore
	}

	var sender notifierport.Sender
	switch cfg.Mail.Notifier {
	case "log":
		sender = outbox.New(lg.Named("outbox"))
	default:
		sender = smtp.NewSender(smtp.Config{
			Host:        cfg.Mail.SMTPHost,
			Port:        cfg.Mail.SMTPPort,
			Username:    cfg.Mail.Username,
			Password:    cfg.Mail.Password,
			From:        cfg.Mail.From,
			Origin:      cfg.Server.Origin,
			EventName:   cfg.Mail.EventName,
			DiscordLink: cfg.Mail.DiscordLink,
		})
	}

	uploadStore, err := fsuploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	regs := registrations.NewService(repo, sender, codegen.New(), clk, registrations.Options{
		Origin:  cfg.Server.Origin,
		Logger:  lg.Named("registrations"),
		Metrics: m,
	})
	creds := credentials.NewService(repo, images,
		qrcode.NewGenerator(qrcode.Config{Size: cfg.Credential.QRSize, LogoPath: cfg.Credential.LogoPath}),
		cfg.Server.Origin,
		credentials.Options{Logger: lg.Named("credentials"), Metrics: m},
	)
	sessions := adminsession.NewManager(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.CookieSecret, cfg.Admin.SessionTTL, clk)

	api := httpapi.NewServer(regs, creds, sessions, uploadStore, idemStore, httpapi.ServerOptions{
		Logger:       lg.Named("http"),
		CookieSecure: cfg.Admin.CookieSecure,
	})
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Logger:             lg.Named("access"),
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MetricsHandler:     promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("image_cache", cfg.ImageCache.Backend),
			zap.String("notifier", cfg.Mail.Notifier),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
