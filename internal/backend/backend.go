// Package backend selects the remote task store named in the settings.
package backend

import (
	"context"
	"fmt"

	"taskmirror/internal/backend/googletasks"
	"taskmirror/internal/backend/rest"
	"taskmirror/internal/config"
	"taskmirror/internal/service"
)

// New creates the configured task store.
func New(ctx context.Context, cfg *config.Config) (service.Service, error) {
	switch cfg.Settings.Backend {
	case config.BackendREST:
		client, err := rest.New(ctx, cfg.Settings.Endpoint, cfg.Settings.Token)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendGoogleTasks:
		if !cfg.HasOAuthClient() {
			return nil, fmt.Errorf("%s not found in %s: %w", config.OAuthClientFile, cfg.Dir, service.ErrUnauthorized)
		}
		if !cfg.HasToken() {
			return nil, fmt.Errorf("not logged in (run: %s login): %w", config.AppName, service.ErrUnauthorized)
		}
		client, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", service.ErrInvalidInput, cfg.Settings.Backend)
}
