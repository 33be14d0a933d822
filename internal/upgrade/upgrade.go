// Package upgrade moves personalization data written by older, single-user
// versions into the per-user record of the remembered profile.
package upgrade

import (
	"context"
	"fmt"

	"curator/internal/core"
	"curator/internal/models"
	"curator/internal/store"
)

// Store is the slice of the profile store the migration touches
type Store interface {
	LegacyData(ctx context.Context) (store.LegacyData, error)
	DeleteLegacy(ctx context.Context) error
	CurrentProfile(ctx context.Context) (*models.UserProfile, error)
	HasUserData(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, email string, patch models.UserDataPatch) error
}

// Result describes what MigrateLegacyData did
type Result struct {
	Migrated bool
	Email    string
}

// MigrateLegacyData copies legacy global favorites and search history into
// the record of the remembered profile, then deletes the legacy keys. Keys
// holding empty lists are migrated too. It does nothing unless a legacy key
// and a remembered profile exist and that profile
// has no record yet, so running it again never overwrites newer data.
func MigrateLegacyData(ctx context.Context, s Store, logger *core.Logger) (Result, error) {
	legacy, err := s.LegacyData(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read legacy data: %w", err)
	}
	if !legacy.Exists() {
		return Result{}, nil
	}

	profile, err := s.CurrentProfile(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read current profile: %w", err)
	}
	if profile == nil {
		return Result{}, nil
	}

	exists, err := s.HasUserData(ctx, profile.Email)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check user data: %w", err)
	}
	if exists {
		return Result{}, nil
	}

	favorites := legacy.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	history := legacy.SearchHistory
	if history == nil {
		history = []string{}
	}

	err = s.Save(ctx, profile.Email, models.UserDataPatch{
		Favorites:     favorites,
		SearchHistory: history,
		Preferences:   models.FullPreferences(models.DefaultPreferences()),
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to write migrated data: %w", err)
	}

	if err := s.DeleteLegacy(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to delete legacy data: %w", err)
	}

	logger.Info("Migrated legacy data", "email", profile.Email,
		"favorites", len(favorites), "search_history", len(history))
	return Result{Migrated: true, Email: profile.Email}, nil
}
