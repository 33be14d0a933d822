package state

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"curator/internal/core"
	"curator/internal/models"
)

// Status is the sign-in state of the session
type Status string

const (
	StatusSignedOut Status = "signedOut"
	StatusSigningIn Status = "signingIn"
	StatusSignedIn  Status = "signedIn"
)

// Bounds enforced on preferences
const (
	MaxSearchHistory = 10
	MinPageSize      = 10
	MaxPageSize      = 100
)

// ProfileStore is the persistence the session writes through to
type ProfileStore interface {
	Load(ctx context.Context, email string) models.UserData
	Save(ctx context.Context, email string, patch models.UserDataPatch) error
	CurrentProfile(ctx context.Context) (*models.UserProfile, error)
	SetCurrentProfile(ctx context.Context, profile models.UserProfile) error
	ClearCurrentProfile(ctx context.Context) error
}

// SessionState is the signed-in user and their personalization data
type SessionState struct {
	IsAuthenticated bool                   `json:"isAuthenticated"`
	Status          Status                 `json:"status"`
	Profile         *models.UserProfile    `json:"profile"`
	Favorites       []string               `json:"favorites"`
	SearchHistory   []string               `json:"searchHistory"`
	Preferences     models.UserPreferences `json:"preferences"`
}

// Clone returns a deep copy
func (s SessionState) Clone() SessionState {
	if s.Profile != nil {
		profile := *s.Profile
		s.Profile = &profile
	}
	s.Favorites = append([]string{}, s.Favorites...)
	s.SearchHistory = append([]string{}, s.SearchHistory...)
	s.Preferences = s.Preferences.Clone()
	return s
}

// Session owns SessionState and writes every personalization change through
// to the profile store while a user is signed in. A change is applied in
// memory only after the write succeeds. Signed-out changes stay in memory.
type Session struct {
	state  SessionState
	store  ProfileStore
	logger *core.Logger
}

// NewSession creates a signed-out session with default preferences
func NewSession(store ProfileStore, logger *core.Logger) *Session {
	return &Session{
		state: SessionState{
			Status:        StatusSignedOut,
			Favorites:     []string{},
			SearchHistory: []string{},
			Preferences:   models.DefaultPreferences(),
		},
		store:  store,
		logger: logger.ForFeature("session"),
	}
}

// State returns a deep copy of the current state
func (s *Session) State() SessionState {
	return s.state.Clone()
}

// Preferences returns a copy of the active preferences
func (s *Session) Preferences() models.UserPreferences {
	return s.state.Preferences.Clone()
}

// Email returns the signed-in address, or "" when signed out
func (s *Session) Email() string {
	if s.state.Profile == nil {
		return ""
	}
	return s.state.Profile.Email
}

// BeginSignIn marks a credential check as in flight
func (s *Session) BeginSignIn() {
	s.state.Status = StatusSigningIn
}

// CompleteSignIn makes profile the active user, replacing favorites, history
// and preferences with the stored record for their email. If the profile
// cannot be remembered the check ends as a failed sign-in.
func (s *Session) CompleteSignIn(ctx context.Context, profile models.UserProfile) error {
	if err := s.store.SetCurrentProfile(ctx, profile); err != nil {
		s.FailSignIn()
		return fmt.Errorf("failed to remember signed-in profile: %w", err)
	}
	s.activate(ctx, profile)
	s.logger.Info("Signed in", "email", profile.Email)
	return nil
}

// FailSignIn ends a rejected credential check. A user who was already
// signed in stays signed in.
func (s *Session) FailSignIn() {
	if s.state.IsAuthenticated {
		s.state.Status = StatusSignedIn
		return
	}
	s.state.Status = StatusSignedOut
}

// SignOut clears the in-memory identity and personalization data. Only the
// current-profile marker is removed from the store; preferences stay active.
func (s *Session) SignOut(ctx context.Context) error {
	email := s.Email()

	s.state.IsAuthenticated = false
	s.state.Status = StatusSignedOut
	s.state.Profile = nil
	s.state.Favorites = []string{}
	s.state.SearchHistory = []string{}

	if err := s.store.ClearCurrentProfile(ctx); err != nil {
		return fmt.Errorf("failed to clear signed-in profile: %w", err)
	}
	if email != "" {
		s.logger.Info("Signed out", "email", email)
	}
	return nil
}

// Restore signs in the remembered profile, if any, and loads its data
func (s *Session) Restore(ctx context.Context) error {
	profile, err := s.store.CurrentProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to read signed-in profile: %w", err)
	}
	if profile == nil {
		return nil
	}

	s.activate(ctx, *profile)
	s.logger.Info("Restored session", "email", profile.Email)
	return nil
}

func (s *Session) activate(ctx context.Context, profile models.UserProfile) {
	data := s.store.Load(ctx, profile.Email)

	s.state.IsAuthenticated = true
	s.state.Status = StatusSignedIn
	s.state.Profile = &profile
	s.state.Favorites = append([]string{}, data.Favorites...)
	s.state.SearchHistory = append([]string{}, data.SearchHistory...)
	s.state.Preferences = data.Preferences.Clone()
}

// AddToFavorites appends id unless it is already a favorite
func (s *Session) AddToFavorites(ctx context.Context, id string) error {
	if slices.Contains(s.state.Favorites, id) {
		return nil
	}
	favorites := append(slices.Clone(s.state.Favorites), id)
	if err := s.persist(ctx, models.UserDataPatch{Favorites: favorites}); err != nil {
		return err
	}
	s.state.Favorites = favorites
	return nil
}

// RemoveFromFavorites drops id. Absent ids are ignored.
func (s *Session) RemoveFromFavorites(ctx context.Context, id string) error {
	if !slices.Contains(s.state.Favorites, id) {
		return nil
	}
	favorites := slices.DeleteFunc(slices.Clone(s.state.Favorites), func(f string) bool { return f == id })
	if err := s.persist(ctx, models.UserDataPatch{Favorites: favorites}); err != nil {
		return err
	}
	s.state.Favorites = favorites
	return nil
}

// ToggleFavorite adds or removes id and reports whether it is now a favorite
func (s *Session) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	if s.IsFavorite(id) {
		return false, s.RemoveFromFavorites(ctx, id)
	}
	return true, s.AddToFavorites(ctx, id)
}

// IsFavorite reports whether id is a favorite
func (s *Session) IsFavorite(id string) bool {
	return slices.Contains(s.state.Favorites, id)
}

// AddToSearchHistory records query as the most recent search. Blank and
// previously recorded queries are ignored.
func (s *Session) AddToSearchHistory(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" || slices.Contains(s.state.SearchHistory, query) {
		return nil
	}

	history := append([]string{query}, s.state.SearchHistory...)
	if len(history) > MaxSearchHistory {
		history = history[:MaxSearchHistory]
	}
	if err := s.persist(ctx, models.UserDataPatch{SearchHistory: history}); err != nil {
		return err
	}
	s.state.SearchHistory = history
	return nil
}

// ClearSearchHistory empties the history
func (s *Session) ClearSearchHistory(ctx context.Context) error {
	if err := s.persist(ctx, models.UserDataPatch{SearchHistory: []string{}}); err != nil {
		return err
	}
	s.state.SearchHistory = []string{}
	return nil
}

// UpdatePreferences merges patch into the active preferences
func (s *Session) UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) error {
	next := patch.Apply(s.state.Preferences)

	fields := map[string]string{}
	if len(next.Categories) == 0 {
		fields["categories"] = "Select at least one category"
	}
	if next.PageSize < MinPageSize || next.PageSize > MaxPageSize {
		fields["pageSize"] = fmt.Sprintf("Page size must be between %d and %d", MinPageSize, MaxPageSize)
	}
	if len(fields) > 0 {
		return core.NewValidationError("Invalid preferences", fields)
	}

	if err := s.persist(ctx, models.UserDataPatch{Preferences: &patch}); err != nil {
		return err
	}
	s.state.Preferences = next
	return nil
}

// ToggleDarkMode flips the dark mode preference
func (s *Session) ToggleDarkMode(ctx context.Context) error {
	darkMode := !s.state.Preferences.DarkMode
	return s.UpdatePreferences(ctx, models.PreferencesPatch{DarkMode: &darkMode})
}

// FavoriteItems resolves favorite ids against known items, in the order the
// favorites were added. Ids with no known item are skipped.
func (s *Session) FavoriteItems(known []models.ContentItem) []models.ContentItem {
	index := make(map[string]models.ContentItem, len(known))
	for _, item := range known {
		if _, ok := index[item.ID]; !ok {
			index[item.ID] = item
		}
	}

	items := make([]models.ContentItem, 0, len(s.state.Favorites))
	for _, id := range s.state.Favorites {
		if item, ok := index[id]; ok {
			items = append(items, item.Clone())
		}
	}
	return items
}

func (s *Session) persist(ctx context.Context, patch models.UserDataPatch) error {
	if !s.state.IsAuthenticated || s.state.Profile == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.state.Profile.Email, patch); err != nil {
		s.logger.Error("Failed to save user data", "email", s.state.Profile.Email, "error", err)
		return err
	}
	return nil
}
