package main

import (
	"context"
	"database/sql"
	"errors"
	stdhttp "net/http"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/tabletop/internal/adapters/handler/http"
	"github.com/vncsmyrnk/tabletop/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/tabletop/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/tabletop/internal/adapters/transport/console"
	"github.com/vncsmyrnk/tabletop/internal/adapters/transport/discord"
	"github.com/vncsmyrnk/tabletop/internal/config"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/core/services"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Log.Fatal(err)
	}
	logging.Bootstrap(cfg.Log.Level, cfg.Log.JSON)
	log := logging.Log

	store, closeStore, err := openStore(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	transport, closeTransport, err := openTransport(cfg.Discord)
	if err != nil {
		log.Fatal(err)
	}
	defer closeTransport()

	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, member routes will reject every token")
	}

	// Initialize Services
	clock := services.SystemClock()
	members := services.NewMemberService(store, clock)
	events := services.NewEventService(store, transport, clock, log)
	registry := services.NewSuggestionRegistry(store, clock, log)
	tally := services.NewTallyEngine(store, transport, clock, log)
	messages := services.NewMessageService(store, transport, clock, log)
	resolver := services.NewResolver(store, transport, clock, log)
	lifecycle := services.NewPollLifecycle(store, resolver, transport, clock,
		services.WithReminderLead(cfg.Poll.ReminderLead),
		services.WithRetryDelay(cfg.Poll.RetryDelay),
		services.WithLogger(log),
	)
	defer lifecycle.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := lifecycle.Reconcile(ctx); err != nil {
		log.WithError(err).Error("failed to reconcile open poll")
	}

	handler := http.NewHandler(http.Handlers{
		Auth:        http.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.OwnerID, members),
		Events:      http.NewEventHandler(events),
		Suggestions: http.NewSuggestionHandler(registry),
		Poll:        http.NewPollHandler(lifecycle, tally),
		Members:     http.NewMemberHandler(messages),
	})
	server := &stdhttp.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

func openStore(cfg config.DatabaseConfig) (ports.UnitOfWork, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logging.Log.Warn("using in-memory store, state is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}

func openTransport(cfg config.DiscordConfig) (ports.Transport, func(), error) {
	if !cfg.Enabled() {
		logging.Log.Info("discord not configured, announcements go to the log")
		return console.NewTransport(logging.Log), func() {}, nil
	}

	session, err := discord.Open(cfg.Token)
	if err != nil {
		return nil, nil, err
	}
	return discord.NewTransport(session, cfg.ChannelID), func() { session.Close() }, nil
}
