// Package app wires the store and the notification dispatcher from configuration for both binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/config"
	"bookshare-backend/internal/firebase"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/notifier"
	"bookshare-backend/internal/repository"
	"bookshare-backend/internal/repository/firestore"
	"bookshare-backend/internal/repository/memory"
	"bookshare-backend/internal/repository/postgres"
)

// Deps are the long-lived collaborators shared by the server and the cron runner.
type Deps struct {
	Store    repository.Store
	Notifier *notifier.Dispatcher
	Clock    clock.Clock
}

// Close releases the store.
func (d *Deps) Close() error {
	return d.Store.Close()
}

// Build opens the configured store and assembles the dispatcher.
func Build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	var fbApp *firebase.App
	if cfg.Store.Type == config.StoreFirestore || cfg.Push.Enabled {
		var err error
		fbApp, err = firebase.NewApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
	}

	store, err := OpenStore(ctx, cfg, fbApp)
	if err != nil {
		return nil, err
	}

	var push notifier.PushSender = notifier.LogSender{}
	if cfg.Push.Enabled {
		client, err := fbApp.Messaging(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
		push = notifier.NewFCMSender(client)
		logger.Info("Push notifications enabled", "provider", "fcm")
	} else {
		logger.Info("Push notifications disabled, logging only")
	}

	var mail notifier.Mailer
	if cfg.SendGrid.APIKey != "" {
		mail = notifier.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
		logger.Info("Email notifications enabled", "provider", "sendgrid", "from", cfg.SendGrid.FromEmail)
	}

	clk := clock.Real{}
	return &Deps{
		Store:    store,
		Notifier: notifier.NewDispatcher(store.Notifications(), store.Users(), push, mail, clk),
		Clock:    clk,
	}, nil
}

// OpenStore connects the backend named by cfg.Store.Type.
func OpenStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (repository.Store, error) {
	switch cfg.Store.Type {
	case config.StorePostgres:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")

		store := postgres.NewStore(db)
		if cfg.Database.Migrate {
			if err := store.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
			logger.Info("Database schema applied")
		}
		return store, nil

	case config.StoreFirestore:
		if fbApp == nil {
			return nil, fmt.Errorf("firestore store requires firebase")
		}
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Firestore store", "project_id", cfg.Firebase.ProjectID)
		return firestore.NewStore(client), nil

	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unknown store type: %q", cfg.Store.Type)
}
