package main

import (
	"context"

	"github.com/jomfood/jomdeals/internal/api"
	"github.com/jomfood/jomdeals/internal/config"
	"github.com/jomfood/jomdeals/internal/storage"
)

// backend bundles everything a command needs to talk to the marketplace.
type backend struct {
	settings *config.Settings
	client   *api.Client
	rc       api.RequestContext
}

func newBackend() (*backend, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.Config{
		BaseURL:   settings.BaseURL,
		PageLimit: settings.PageLimit,
	})
	if err != nil {
		return nil, err
	}

	return &backend{
		settings: settings,
		client:   client,
		rc: api.RequestContext{
			LanguageCode: settings.Language,
			AuthToken:    settings.AuthToken,
			CustomerID:   settings.CustomerID,
		},
	}, nil
}

// openStore opens and migrates the local claim store.
func (b *backend) openStore(ctx context.Context) (*storage.Store, error) {
	store, err := storage.NewStore(b.settings.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
