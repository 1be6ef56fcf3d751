package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lotterylot/portal/auth"
	"github.com/lotterylot/portal/internal/config"
	"github.com/lotterylot/portal/lottery"
	"github.com/lotterylot/portal/server"
	"github.com/lotterylot/portal/token"
	"github.com/lotterylot/portal/users"
	"github.com/lotterylot/portal/users/postgres"
	fakeuserrepo "github.com/lotterylot/portal/users/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	for {
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	log := newLogger(c)
	displayAppname(c.GetAppName())

	ctx := context.Background()

	userRepo, cleanup, err := newUserRepo(ctx, c, log)
	if err != nil {
		return err
	}
	defer cleanup()

	codec := token.NewCodec(c)
	authService, err := auth.NewService(userRepo, codec, auth.WithLogger(log))
	if err != nil {
		return err
	}

	provider := lottery.NewProvider(c, lottery.WithProviderLogger(log))
	lotteryService, err := lottery.NewService(provider, newCache(c, log))
	if err != nil {
		return err
	}

	portal, err := server.New(c, authService, userRepo, lotteryService, server.WithLogger(log))
	if err != nil {
		return err
	}
	if err := portal.EnsureAdminAccount(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: portal}
	go listenAndServe(httpServer, log)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	log.Info().Msg("server stopped")
	return returnError
}

func newLogger(c config.Config) zerolog.Logger {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if c.GetEnv() == "DEV" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout}).Level(zerolog.DebugLevel)
	}
	return log
}

// newUserRepo selects the user store: Postgres when DATABASE_URL is
// set, otherwise the in-memory repo. The in-memory repo loses all
// accounts on restart, so it warns loudly outside tests.
func newUserRepo(ctx context.Context, c config.StorageConfig, log zerolog.Logger) (users.Repo, func(), error) {
	databaseURL := c.GetDatabaseURL()
	if databaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory user store")
		return fakeuserrepo.NewFakeUserRepo(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	log.Info().Msg("connected to postgres")
	return postgres.NewRepo(pool), pool.Close, nil
}

// newCache returns the lottery result cache, or nil when REDIS_ADDR is
// unset. A nil cache is valid; every request goes upstream.
func newCache(c config.StorageConfig, log zerolog.Logger) *lottery.Cache {
	addr := c.GetRedisAddr()
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: c.GetRedisPassword()})
	log.Info().Str("addr", addr).Msg("lottery result cache enabled")
	return lottery.NewCache(rdb, log)
}

func listenAndServe(httpServer *http.Server, log zerolog.Logger) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
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
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
