package main

import (
	"context"
	"fmt"
	"time"

	"curator/internal/auth"
	"curator/internal/cache"
	"curator/internal/core"
	"curator/internal/features/content"
	"curator/internal/features/content/services"
	"curator/internal/features/profile"
	"curator/internal/features/ui"
	"curator/internal/server"
	"curator/internal/state"
	"curator/internal/store"
	"curator/internal/upgrade"
)

// environment is the configuration, logger and store every command needs
type environment struct {
	config   *core.Config
	logger   *core.Logger
	db       *core.Database
	profiles *store.ProfileStore
}

func openEnvironment(ctx context.Context) (*environment, error) {
	config, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := core.NewLogger()
	level, _ := core.ParseLevel(config.Log.Level)
	logger.SetLevel(level)

	db, err := core.OpenSQLite(config.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	profiles, err := store.Open(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &environment{
		config:   config,
		logger:   logger,
		db:       db,
		profiles: profiles,
	}, nil
}

func (e *environment) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Error("Failed to close database", "error", err)
	}
}

func (e *environment) authService() *auth.Service {
	return auth.NewService(e.profiles, e.logger, e.config)
}

// application is a fully wired server
type application struct {
	*environment
	cache  cache.Cache
	state  *state.App
	server *server.Server
}

func newApplication(ctx context.Context, env *environment) (*application, error) {
	if _, err := upgrade.MigrateLegacyData(ctx, env.profiles, env.logger); err != nil {
		return nil, err
	}

	authService := env.authService()
	if env.config.Auth.SeedDemoAccount {
		if err := authService.SeedDemoAccount(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed demo account: %w", err)
		}
	}

	responseCache, err := cache.New(ctx, env.config.Cache, env.logger.ForFeature("cache"))
	if err != nil {
		return nil, err
	}

	app := state.New(state.Deps{
		Store:   env.profiles,
		Auth:    authService,
		Content: services.NewDefaultAggregator(env.config, responseCache, env.logger),
		Logger:  env.logger,
		Now:     time.Now,
	})
	if err := app.Restore(ctx); err != nil {
		app.Close()
		responseCache.Close()
		return nil, err
	}

	registry := core.NewRegistry(env.logger)
	for _, feature := range []core.Feature{
		content.NewFeature(env.logger, env.config, app),
		profile.NewFeature(env.logger, app),
		ui.NewFeature(env.logger, app),
	} {
		if err := registry.Register(feature); err != nil {
			app.Close()
			responseCache.Close()
			return nil, err
		}
	}

	return &application{
		environment: env,
		cache:       responseCache,
		state:       app,
		server:      server.New(env.config, env.logger, env.db, registry),
	}, nil
}

func (a *application) close() {
	a.state.Close()
	if err := a.cache.Close(); err != nil {
		a.logger.Error("Failed to close cache", "error", err)
	}
}
