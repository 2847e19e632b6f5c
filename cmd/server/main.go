package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/tmcfarlane/google-login-server/auth"
	"github.com/tmcfarlane/google-login-server/internal/config"
	"github.com/tmcfarlane/google-login-server/oauth"
	"github.com/tmcfarlane/google-login-server/server"
	"github.com/tmcfarlane/google-login-server/sessions"
	"github.com/tmcfarlane/google-login-server/users"
)

const expiredSessionSweepInterval = time.Hour

func main() {
	for {
		if err := run(); err != nil {
			zlog.Error().Err(err).Msg("server exited with error")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	zlog.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	env := config.EnvironmentFromString(os.Getenv("ENV"))
	cfg, err := config.Load(env)
	if err != nil {
		return errors.Wrap(err, "[run] loading config")
	}

	setupLogging(cfg)
	displayAppname(cfg.AppName)

	ctx := context.Background()

	provider, err := oauth.NewGoogle(ctx, oauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		AuthURL:      cfg.Google.AuthURL,
		TokenURL:     cfg.Google.TokenURL,
		UserInfoURL:  cfg.Google.UserInfoURL,
		Issuer:       cfg.Google.Issuer,
		Scopes:       cfg.Google.Scopes,
		HTTPTimeout:  cfg.Google.HTTPTimeout,
	})
	if err != nil {
		return errors.Wrap(err, "[run] configuring provider")
	}

	store, userRepo, healthCheck, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "[run] building stores")
	}
	defer cleanup()

	authService, err := auth.NewService(provider, store, userRepo,
		auth.WithAuthenticatedTTL(cfg.Sessions.AuthenticatedTTL))
	if err != nil {
		return errors.Wrap(err, "[run] building auth service")
	}

	var serverOptions []server.Option
	if healthCheck != nil {
		serverOptions = append(serverOptions, server.WithHealthCheck(healthCheck))
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.New(cfg, authService, serverOptions...),
	}
	go listenAndServe(httpServer, cfg.SSL)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildStores wires the session store and user repository for the
// configured driver. The returned cleanup closes whatever connections
// were opened; the health check is nil for the in-memory driver.
func buildStores(ctx context.Context, cfg *config.Config) (sessions.Store, users.Repo, func() error, func(), error) {
	noop := func() {}

	switch cfg.Sessions.Driver {
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, noop, errors.Wrap(err, "[buildStores] parsing database url")
		}
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.ConnConfig.ConnectTimeout = cfg.Database.ConnectTimeout

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, nil, noop, errors.Wrap(err, "[buildStores] connecting to postgres")
		}

		store := sessions.NewPostgresStore(pool, cfg.Sessions.PendingTTL)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, noop, errors.Wrap(err, "[buildStores] migrating sessions")
		}

		userRepo := users.NewPostgresRepo(pool)
		if err := userRepo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, noop, errors.Wrap(err, "[buildStores] migrating users")
		}

		sweeperDone := startSessionSweeper(store)

		healthCheck := func() error { return pool.Ping(context.Background()) }
		cleanup := func() {
			close(sweeperDone)
			pool.Close()
		}
		return store, userRepo, healthCheck, cleanup, nil

	case "redis":
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, nil, noop, errors.Wrap(err, "[buildStores] parsing redis url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, noop, errors.Wrap(err, "[buildStores] connecting to redis")
		}

		store := sessions.NewRedisStore(client, cfg.Sessions.PendingTTL)
		healthCheck := func() error { return client.Ping(context.Background()).Err() }
		cleanup := func() { client.Close() }
		return store, nil, healthCheck, cleanup, nil

	case "memory":
		zlog.Warn().Msg("using in-memory session store, sessions will not survive restarts")
		return sessions.NewInMemoryStore(cfg.Sessions.PendingTTL), nil, nil, noop, nil

	default:
		return nil, nil, nil, noop, errors.Errorf("[buildStores] unknown sessions driver %q", cfg.Sessions.Driver)
	}
}

// startSessionSweeper periodically deletes expired session rows. The
// stores keep expired entries until destroyed, so Postgres needs an
// explicit sweep where Redis relies on key TTLs.
func startSessionSweeper(store *sessions.PostgresStore) chan struct{} {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(expiredSessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := store.DeleteExpired(context.Background())
				if err != nil {
					zlog.Error().Err(err).Msg("sweeping expired sessions")
					continue
				}
				if removed > 0 {
					zlog.Debug().Int64("removed", removed).Msg("swept expired sessions")
				}
			case <-done:
				return
			}
		}
	}()
	return done
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(httpServer *http.Server, ssl config.SSLConfig) {
	zlog.Info().Str("addr", httpServer.Addr).Bool("ssl", ssl.Enabled).Msg("server listening")

	var err error
	if ssl.Enabled {
		err = httpServer.ListenAndServeTLS(ssl.CertPath, ssl.KeyPath)
	} else {
		err = httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		zlog.Fatal().Err(err).Msg("server listen failed")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "[shutdown] server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
