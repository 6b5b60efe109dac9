package main

import (
	"context"
	"database/sql"
	"flag"
	"time"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/tabletop/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/tabletop/internal/adapters/transport/console"
	"github.com/vncsmyrnk/tabletop/internal/adapters/transport/discord"
	"github.com/vncsmyrnk/tabletop/internal/config"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/core/services"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

// pollreconciler resolves an open poll whose deadline has passed, then
// exits. Meant for cron next to, or instead of, the server's own timer.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Log.Fatal(err)
	}
	logging.Bootstrap(cfg.Log.Level, cfg.Log.JSON)
	log := logging.Log

	flag.StringVar(&cfg.Database.Host, "db-host", cfg.Database.Host, "Database host")
	flag.StringVar(&cfg.Database.Port, "db-port", cfg.Database.Port, "Database port")
	flag.StringVar(&cfg.Database.User, "db-user", cfg.Database.User, "Database user")
	flag.StringVar(&cfg.Database.Password, "db-pass", cfg.Database.Password, "Database password")
	flag.StringVar(&cfg.Database.Name, "db-name", cfg.Database.Name, "Database name")
	flag.Parse()

	db, err := sql.Open("postgres", cfg.Database.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	var transport ports.Transport = console.NewTransport(log)
	if cfg.Discord.Enabled() {
		session, err := discord.Open(cfg.Discord.Token)
		if err != nil {
			log.Fatal(err)
		}
		defer session.Close()
		transport = discord.NewTransport(session, cfg.Discord.ChannelID)
	}

	// Initialize Services
	store := postgres.NewStore(db)
	clock := services.SystemClock()
	resolver := services.NewResolver(store, transport, clock, log)
	lifecycle := services.NewPollLifecycle(store, resolver, transport, clock, services.WithLogger(log))

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info("Starting poll reconciliation job...")

	outcome, err := lifecycle.ResolveOverdue(ctx)
	if err != nil {
		log.Fatalf("Error resolving poll: %v", err)
	}

	if outcome == nil {
		log.Info("No overdue poll.")
		return
	}
	log.WithField("resolved", outcome.Resolved).Info("Poll reconciliation completed successfully.")
}
