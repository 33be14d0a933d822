package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"curator/internal/core"
	"curator/internal/models"
	"curator/internal/store/migrations"
)

// Storage keys
const (
	KeyAccounts            = "accounts"
	KeyCurrentProfile      = "current_profile"
	KeyLegacyFavorites     = "legacy_favorites"
	KeyLegacySearchHistory = "legacy_search_history"
	userDataPrefix         = "user_data_"
)

var ErrDuplicateEmail = errors.New("duplicate email")

// UserDataKey returns the key holding the record for email
func UserDataKey(email string) string {
	return userDataPrefix + email
}

// ProfileStore persists per-user personalization data, the account list and
// the current-profile marker
type ProfileStore struct {
	kv     KV
	logger *core.Logger
}

// NewProfileStore creates a store over kv
func NewProfileStore(kv KV, logger *core.Logger) *ProfileStore {
	return &ProfileStore{
		kv:     kv,
		logger: logger.ForFeature("store"),
	}
}

// Open migrates db and returns a store backed by it
func Open(ctx context.Context, db *core.Database, logger *core.Logger) (*ProfileStore, error) {
	if err := migrations.NewManager(db, logger.ForFeature("store")).Migrate(ctx); err != nil {
		return nil, core.NewDatabaseError("failed to migrate profile store", err)
	}
	return NewProfileStore(NewSQLiteKV(db), logger), nil
}

// Load returns the record for email, or the default record when none is
// stored or the stored one is unreadable. It never fails.
func (s *ProfileStore) Load(ctx context.Context, email string) models.UserData {
	raw, ok, err := s.kv.Get(ctx, UserDataKey(email))
	if err != nil {
		s.logger.Warn("Failed to read user data, using defaults", "email", email, "error", err)
		return models.DefaultUserData(email)
	}
	if !ok {
		return models.DefaultUserData(email)
	}

	data, err := decodeUserData(email, raw)
	if err != nil {
		s.logger.Warn("Stored user data is corrupt, using defaults", "email", email, "error", err)
		return models.DefaultUserData(email)
	}
	return data
}

// Save merges patch into the stored record for email in one transaction
func (s *ProfileStore) Save(ctx context.Context, email string, patch models.UserDataPatch) error {
	err := s.kv.Update(ctx, UserDataKey(email), func(raw string, ok bool) (string, error) {
		current := models.DefaultUserData(email)
		if ok {
			decoded, err := decodeUserData(email, raw)
			if err != nil {
				s.logger.Warn("Replacing corrupt user data", "email", email, "error", err)
			} else {
				current = decoded
			}
		}

		next := patch.Apply(current)
		next.Email = email
		return encode(next)
	})
	if err != nil {
		return fmt.Errorf("failed to save user data for %s: %w", email, err)
	}
	return nil
}

// HasUserData reports whether a record exists for email
func (s *ProfileStore) HasUserData(ctx context.Context, email string) (bool, error) {
	_, ok, err := s.kv.Get(ctx, UserDataKey(email))
	return ok, err
}

// ListAccounts returns every registered account
func (s *ProfileStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	raw, ok, err := s.kv.Get(ctx, KeyAccounts)
	if err != nil || !ok {
		return []models.Account{}, err
	}
	return decodeAccounts(raw)
}

// FindAccount looks up the account registered under email
func (s *ProfileStore) FindAccount(ctx context.Context, email string) (models.Account, bool, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return models.Account{}, false, err
	}
	for _, account := range accounts {
		if strings.EqualFold(account.Email, email) {
			return account, true, nil
		}
	}
	return models.Account{}, false, nil
}

// AddAccount appends account to the account list. Emails are unique
// regardless of case.
func (s *ProfileStore) AddAccount(ctx context.Context, account models.Account) error {
	return s.kv.Update(ctx, KeyAccounts, func(raw string, ok bool) (string, error) {
		accounts := []models.Account{}
		if ok {
			decoded, err := decodeAccounts(raw)
			if err != nil {
				return "", err
			}
			accounts = decoded
		}

		for _, existing := range accounts {
			if strings.EqualFold(existing.Email, account.Email) {
				return "", ErrDuplicateEmail
			}
		}

		return encode(append(accounts, account))
	})
}

// CurrentProfile returns the signed-in profile marker, or nil
func (s *ProfileStore) CurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	raw, ok, err := s.kv.Get(ctx, KeyCurrentProfile)
	if err != nil || !ok {
		return nil, err
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		s.logger.Warn("Ignoring corrupt current profile", "error", err)
		return nil, nil
	}
	if profile.Email == "" {
		return nil, nil
	}
	return &profile, nil
}

// SetCurrentProfile records profile as signed in
func (s *ProfileStore) SetCurrentProfile(ctx context.Context, profile models.UserProfile) error {
	raw, err := encode(profile)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyCurrentProfile, raw)
}

// ClearCurrentProfile removes the signed-in marker and nothing else
func (s *ProfileStore) ClearCurrentProfile(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyCurrentProfile)
}

// LegacyData holds the global, pre-account favorites and search history
type LegacyData struct {
	Favorites     []string
	SearchHistory []string

	found bool
}

// Exists reports whether either legacy key is stored, even with an empty or
// unreadable value
func (l LegacyData) Exists() bool {
	return l.found
}

// LegacyData reads the legacy global keys. Unreadable values count as absent.
func (s *ProfileStore) LegacyData(ctx context.Context) (LegacyData, error) {
	var legacy LegacyData
	for key, target := range map[string]*[]string{
		KeyLegacyFavorites:     &legacy.Favorites,
		KeyLegacySearchHistory: &legacy.SearchHistory,
	} {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return LegacyData{}, err
		}
		if !ok {
			continue
		}
		legacy.found = true
		if err := json.Unmarshal([]byte(raw), target); err != nil {
			s.logger.Warn("Ignoring corrupt legacy value", "key", key, "error", err)
			*target = nil
		}
	}
	return legacy, nil
}

// SetLegacyData writes the legacy global keys. Used to seed installs from
// older versions.
func (s *ProfileStore) SetLegacyData(ctx context.Context, legacy LegacyData) error {
	if legacy.Favorites != nil {
		raw, err := encode(legacy.Favorites)
		if err != nil {
			return err
		}
		if err := s.kv.Set(ctx, KeyLegacyFavorites, raw); err != nil {
			return err
		}
	}
	if legacy.SearchHistory != nil {
		raw, err := encode(legacy.SearchHistory)
		if err != nil {
			return err
		}
		if err := s.kv.Set(ctx, KeyLegacySearchHistory, raw); err != nil {
			return err
		}
	}
	return nil
}

// DeleteLegacy removes both legacy global keys
func (s *ProfileStore) DeleteLegacy(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyLegacyFavorites, KeyLegacySearchHistory)
}

func decodeUserData(email, raw string) (models.UserData, error) {
	data := models.DefaultUserData(email)
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return models.UserData{}, err
	}
	if data.Favorites == nil {
		data.Favorites = []string{}
	}
	if data.SearchHistory == nil {
		data.SearchHistory = []string{}
	}
	if len(data.Preferences.Categories) == 0 {
		data.Preferences.Categories = models.DefaultPreferences().Categories
	}
	data.Email = email
	return data, nil
}

func decodeAccounts(raw string) ([]models.Account, error) {
	var accounts []models.Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, core.NewDatabaseError("stored account list is corrupt", err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", core.NewInternalError("failed to encode record", err)
	}
	return string(raw), nil
}
