// Command server runs the relay: the game-facing HTTP API, the Discord bot
// and the background sweepers, all sharing one service graph.
//
//	@title						Orion Relay API
//	@version					1.0
//	@description				Account linking, product catalog and entitlement delivery between a game and a Discord community.
//	@BasePath					/
//	@securityDefinitions.apikey	AdminKey
//	@in							header
//	@name						X-Admin-Key
//	@securityDefinitions.apikey	GameKey
//	@in							header
//	@name						X-Api-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/blob"
	"github.com/tbourn/orion-relay/internal/bot"
	"github.com/tbourn/orion-relay/internal/cache"
	"github.com/tbourn/orion-relay/internal/config"
	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/gamebackend"
	apphttp "github.com/tbourn/orion-relay/internal/http"
	"github.com/tbourn/orion-relay/internal/http/handlers"
	"github.com/tbourn/orion-relay/internal/observability"
	"github.com/tbourn/orion-relay/internal/repo"
	"github.com/tbourn/orion-relay/internal/services"
	"github.com/tbourn/orion-relay/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = ""

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	v := sysutil.FirstNonEmpty(version, cfg.Domain.BotVersion)
	lg := sysutil.SetupLogger(sysutil.LogOptions{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: cfg.OTEL.ServiceName,
		Version: v,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = lg.WithContext(ctx)

	if err := run(ctx, cfg, v); err != nil {
		lg.Fatal().Err(err).Msg("relay stopped")
	}
	lg.Info().Msg("relay stopped")
}

func run(ctx context.Context, cfg config.Config, v string) error {
	lg := zerolog.Ctx(ctx)
	gin.SetMode(cfg.GinMode)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, v)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			lg.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(repo.Options{
		Driver:  cfg.Storage.Driver,
		Path:    cfg.Storage.DBPath,
		DSN:     cfg.Storage.DatabaseURL,
		Tracing: cfg.OTEL.Enabled,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	lg.Info().Str("driver", cfg.Storage.Driver).Msg("database ready")

	codes, purger, closeCodes, err := openCodeStore(ctx, cfg.Storage, db)
	if err != nil {
		return err
	}
	defer closeCodes()

	blobs, err := openPayloadStore(ctx, cfg.Storage, db)
	if err != nil {
		return err
	}

	opts := stackOptions(cfg, db, codes, blobs, v)
	if opts.Broadcaster != nil {
		lg.Info().Str("topic", cfg.GameBackend.DowntimeTopic).Msg("downtime broadcast enabled")
	}

	var gw *bot.Gateway
	if cfg.Discord.BotEnabled() {
		if gw, err = bot.Dial(cfg.Discord.Token); err != nil {
			return err
		}
		opts.Transport = &bot.DMTransport{Session: gw}
		opts.Audit = &bot.LogChannel{Session: gw, ChannelID: cfg.Discord.LogChannelID}
	} else {
		lg.Warn().Msg("DISCORD_TOKEN not set; bot and deliveries disabled")
	}

	stack := services.NewStack(opts)

	h := handlers.New(handlers.Deps{
		Codes:          stack.Codes,
		Links:          stack.Links,
		Catalog:        stack.Catalog,
		Entitlements:   stack.Entitlements,
		Downtime:       stack.Downtime,
		Status:         stack.Status,
		DB:             db,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})
	r := gin.New()
	apphttp.RegisterRoutes(r, db, h, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	if gw != nil {
		b := bot.New(gw, stack.Links, stack.Catalog, stack.Entitlements, stack.Downtime,
			&bot.HTTPFetcher{Client: &http.Client{Timeout: 30 * time.Second}, MaxBytes: cfg.Discord.MaxFetchBytes},
			bot.Options{
				Prefix:      cfg.Discord.CommandPrefix,
				StepTimeout: cfg.Discord.FlowStepTimeout,
				MaxAttempts: cfg.Discord.FlowMaxAttempts,
			})
		b.Logger = *lg
		if err := gw.Start(b); err != nil {
			return err
		}
		defer gw.Close()
		lg.Info().Str("prefix", b.Prefix).Msg("bot connected")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	janitor := &services.Janitor{
		DB:       db,
		Codes:    purger,
		CodeTTL:  cfg.Domain.CodeTTL,
		Interval: cfg.Domain.CodePurgeInterval,
	}
	g.Go(func() error { janitor.Run(gctx); return nil })
	g.Go(func() error { stack.Status.Watch(gctx, cfg.Domain.HeartbeatInterval); return nil })

	if gw != nil {
		g.Go(func() error {
			bot.Heartbeat(gctx, gw, stack.Status, cfg.Domain.HeartbeatInterval, v)
			return nil
		})
	}

	return g.Wait()
}

// stackOptions maps cfg onto the service graph. The Discord transport and
// audit sink are added by the caller once the gateway exists.
func stackOptions(cfg config.Config, db *gorm.DB, codes services.CodeStore, blobs blob.Store, v string) services.StackOptions {
	opts := services.StackOptions{
		DB:                db,
		CodeStore:         codes,
		CodeTTL:           cfg.Domain.CodeTTL,
		Blobs:             blobs,
		Hubs:              domain.NewHubSet(cfg.Domain.Hubs...),
		MaxFileBytes:      cfg.Domain.MaxFileBytes,
		FanoutConcurrency: cfg.Domain.FanoutConcurrency,
		BroadcastTimeout:  cfg.GameBackend.BroadcastTimeout,
		HeartbeatTimeout:  cfg.Domain.HeartbeatTimeout,
		Version:           v,
	}
	// Broadcaster stays a nil interface when disabled.
	if gb := cfg.GameBackend; gb.BroadcastEnabled() {
		opts.Broadcaster = gamebackend.New(gb.BaseURL, gb.UniverseID, gb.APIKey, gb.DowntimeTopic, gb.BroadcastTimeout)
	}
	return opts
}

// openCodeStore returns the configured verification code store, its purger
// (nil when keys expire on their own) and a close func.
func openCodeStore(ctx context.Context, sc config.StorageConfig, db *gorm.DB) (services.CodeStore, services.CodePurger, func(), error) {
	if sc.CodeStore != "redis" {
		s := services.NewSQLCodeStore(db)
		return s, s, func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, sc.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	zerolog.Ctx(ctx).Info().Msg("code store: redis")
	return cache.NewRedisCodeStore(client, "codes"), nil, func() { _ = client.Close() }, nil
}

func openPayloadStore(ctx context.Context, sc config.StorageConfig, db *gorm.DB) (blob.Store, error) {
	if sc.PayloadStore != "s3" {
		return blob.NewGormStore(db), nil
	}
	client, err := blob.NewS3Client(ctx, blob.S3Options{
		Region:          sc.S3.Region,
		Endpoint:        sc.S3.Endpoint,
		AccessKeyID:     sc.S3.AccessKeyID,
		SecretAccessKey: sc.S3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("bucket", sc.S3.Bucket).Msg("payload store: s3")
	return blob.NewS3Store(client, sc.S3.Bucket, sc.S3.Prefix), nil
}
