package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aaronzipp/impostor/internal/game"
	"github.com/aaronzipp/impostor/internal/handlers"
	"github.com/aaronzipp/impostor/internal/logging"
	"github.com/aaronzipp/impostor/internal/store"
	"github.com/aaronzipp/impostor/internal/wordbank"
	"github.com/aaronzipp/impostor/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func newStore(ctx context.Context, cfg *Config, logger *zap.Logger) (store.SessionStore, error) {
	switch cfg.store {
	case storeFirebase:
		s, err := store.NewFirebaseStore(ctx, store.NewFirebaseStoreOptions{
			CredentialsFile: cfg.firebaseCredentials,
			DatabaseURL:     cfg.firebaseDatabaseURL,
			PollInterval:    cfg.pollInterval,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case storePostgres:
		s, err := store.NewPostgresStore(ctx, cfg.databaseURL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return store.NewMemoryStore(logger), nil
	}
}

func newWordBank(cfg *Config, rng wordbank.Intn) (*wordbank.Static, error) {
	if cfg.wordBank == "" {
		return wordbank.Default(rng)
	}
	return wordbank.LoadFile(cfg.wordBank, rng)
}

// Serve runs the HTTP server until ctx ends or SIGINT/SIGTERM arrives
func Serve(ctx context.Context, cfg *Config) (err error) {
	logger, err := logging.New(cfg.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, sessions.Close()) }()

	rng := game.DefaultRandom
	bank, err := newWordBank(cfg, rng)
	if err != nil {
		return err
	}

	lobbies := game.NewLobbyManager(game.NewLobbyManagerOptions{
		Store:    sessions,
		WordBank: bank,
		Logger:   logger.Named("lobby"),
	})
	machine := game.NewStateMachine(game.NewStateMachineOptions{
		Store:                sessions,
		WordBank:             bank,
		Random:               rng,
		AllowPlaceholderWord: !cfg.strictCustomWord,
		Logger:               logger.Named("game"),
	})

	router := handlers.NewRouter(&handlers.Context{
		Store:   sessions,
		Lobbies: lobbies,
		Machine: machine,
		Words:   bank,
		Sockets: ws.NewHandler(ws.NewHandlerOptions{
			Store:   sessions,
			Lobbies: lobbies,
			Machine: machine,
			Logger:  logger.Named("ws"),
		}),
		BaseURL: cfg.baseURL,
		Logger:  logger.Named("http"),
	})

	g, gctx := errgroup.WithContext(ctx)

	// Streams and sockets end when the base context does.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           router,
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.store),
			zap.Strings("categories", bank.Categories()),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		cancelBase()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
