package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedran77/concorde/internal/auth"
	"github.com/vedran77/concorde/internal/avatar"
	"github.com/vedran77/concorde/internal/config"
	"github.com/vedran77/concorde/internal/database"
	"github.com/vedran77/concorde/internal/keyvalue"
	"github.com/vedran77/concorde/internal/logger"
	"github.com/vedran77/concorde/internal/repository"
	"github.com/vedran77/concorde/internal/repository/memory"
	postgresrepo "github.com/vedran77/concorde/internal/repository/postgres"
	sqliterepo "github.com/vedran77/concorde/internal/repository/sqlite"
	"github.com/vedran77/concorde/internal/service"
	"github.com/vedran77/concorde/internal/transport/http/handlers"
	"github.com/vedran77/concorde/internal/transport/http/middleware"
	"github.com/vedran77/concorde/internal/transport/ws"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogToFile)
	if err != nil {
		log.Fatal(err)
	}
	defer logg.Sync()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	store, closeStore, err := openStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Key-value cache
	cache, closeCache, err := openCache(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeCache()

	// Avatars
	avatars, avatarDir, err := openAvatars(ctx, cfg)
	if err != nil {
		return err
	}

	// Real-time hub
	hub := ws.NewHub(logg.Named("ws"))
	go hub.Run(ctx)
	notifier := ws.NewHubNotifier(hub)

	// Services
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(store, tokens)
	userService := service.NewUserService(store, avatars)
	friendService := service.NewFriendService(store, logg.Named("friends"))
	serverService := service.NewServerService(store, logg.Named("servers"))
	joinService := service.NewJoinRequestService(store, logg.Named("join_requests"))
	channelService := service.NewChannelService(store, logg.Named("channels"))

	friendService.SetNotifier(notifier)
	serverService.SetNotifier(notifier)
	joinService.SetNotifier(notifier)
	channelService.SetNotifier(notifier)

	// Handlers
	httpLog := logg.Named("http")
	authenticator := middleware.NewAuthenticator(tokens, userService, cache, httpLog)

	router := handlers.NewRouter(handlers.Routes{
		Auth:          handlers.NewAuthHandler(authService, httpLog),
		Users:         handlers.NewUserHandler(userService, httpLog),
		Friends:       handlers.NewFriendHandler(friendService, httpLog),
		Servers:       handlers.NewServerHandler(serverService, httpLog),
		JoinRequests:  handlers.NewJoinRequestHandler(joinService, httpLog),
		Channels:      handlers.NewChannelHandler(channelService, httpLog),
		Authenticator: authenticator,
		WebSocket:     ws.ServeWS(hub, authenticator, ws.OriginPatterns(cfg.AllowedOrigins())),
		AvatarDir:     avatarDir,
		AvatarPath:    cfg.AvatarBaseURL,
		CORSOrigins:   cfg.AllowedOrigins(),
		Log:           httpLog,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logg.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
		return postgresrepo.NewStore(pool), pool.Close, nil

	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logg.Info("opened sqlite", zap.String("path", cfg.SQLitePath))
		return sqliterepo.NewStore(db), func() { db.Close() }, nil

	default:
		logg.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}
}

func openCache(ctx context.Context, cfg *config.Config, logg *zap.Logger) (keyvalue.Store, func(), error) {
	if cfg.RedisURL == "" {
		local := keyvalue.NewLocal()
		go local.RunJanitor(ctx, time.Minute)
		return local, func() {}, nil
	}

	client, err := keyvalue.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logg.Info("connected to redis")
	return keyvalue.NewRedis(client), func() { client.Close() }, nil
}

// openAvatars returns the avatar store and, for local storage, the directory
// to serve files from.
func openAvatars(ctx context.Context, cfg *config.Config) (service.AvatarStore, string, error) {
	if cfg.AvatarDriver == config.AvatarS3 {
		store, err := avatar.NewS3(ctx, avatar.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		return store, "", err
	}

	store, err := avatar.NewLocal(cfg.AvatarDir, cfg.AvatarBaseURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}
