package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/core"
	"curator/internal/models"
)

func newTestStore(t *testing.T) (*ProfileStore, *SQLiteKV) {
	t.Helper()

	logger := core.NewDiscardLogger()
	db, err := core.OpenSQLite(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := Open(context.Background(), db, logger)
	require.NoError(t, err)
	return s, NewSQLiteKV(db)
}

func TestLoadReturnsDefaultsForUnknownEmail(t *testing.T) {
	s, _ := newTestStore(t)

	data := s.Load(context.Background(), "nobody@example.com")

	assert.Equal(t, models.DefaultUserData("nobody@example.com"), data)
}

func TestLoadIgnoresCorruptRecord(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, UserDataKey("u@example.com"), "{not json"))

	data := s.Load(ctx, "u@example.com")

	assert.Equal(t, models.DefaultUserData("u@example.com"), data)
}

func TestSaveMergesPartialRecords(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	email := "u@example.com"

	require.NoError(t, s.Save(ctx, email, models.UserDataPatch{Favorites: []string{"news-1"}}))
	require.NoError(t, s.Save(ctx, email, models.UserDataPatch{SearchHistory: []string{"react"}}))

	country := "gb"
	require.NoError(t, s.Save(ctx, email, models.UserDataPatch{
		Preferences: &models.PreferencesPatch{Country: &country},
	}))

	data := s.Load(ctx, email)
	assert.Equal(t, email, data.Email)
	assert.Equal(t, []string{"news-1"}, data.Favorites)
	assert.Equal(t, []string{"react"}, data.SearchHistory)
	assert.Equal(t, "gb", data.Preferences.Country)
	// untouched keys keep their defaults
	assert.Equal(t, "en", data.Preferences.Language)
	assert.Equal(t, 20, data.Preferences.PageSize)
	assert.Equal(t, []string{"technology", "business", "entertainment"}, data.Preferences.Categories)
}

func TestSaveEmptySliceReplaces(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	email := "u@example.com"

	require.NoError(t, s.Save(ctx, email, models.UserDataPatch{SearchHistory: []string{"a", "b"}}))
	require.NoError(t, s.Save(ctx, email, models.UserDataPatch{SearchHistory: []string{}}))

	assert.Empty(t, s.Load(ctx, email).SearchHistory)
}

func TestRecordsAreKeyedByEmail(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a@example.com", models.UserDataPatch{Favorites: []string{"x"}}))
	require.NoError(t, s.Save(ctx, "b@example.com", models.UserDataPatch{Favorites: []string{"y"}}))

	assert.Equal(t, []string{"x"}, s.Load(ctx, "a@example.com").Favorites)
	assert.Equal(t, []string{"y"}, s.Load(ctx, "b@example.com").Favorites)

	ok, err := s.HasUserData(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasUserData(ctx, "c@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddAccountRejectsDuplicateEmail(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddAccount(ctx, models.Account{Name: "A", Email: "a@example.com", PasswordHash: "h"}))
	err := s.AddAccount(ctx, models.Account{Name: "A2", Email: "A@example.com", PasswordHash: "h2"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "A", accounts[0].Name)

	account, ok, err := s.FindAccount(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h", account.PasswordHash)
}

func TestCurrentProfileMarker(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	profile, err := s.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, s.Save(ctx, "u@example.com", models.UserDataPatch{Favorites: []string{"x"}}))
	require.NoError(t, s.SetCurrentProfile(ctx, models.UserProfile{Name: "U", Email: "u@example.com"}))

	profile, err = s.CurrentProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "u@example.com", profile.Email)

	require.NoError(t, s.ClearCurrentProfile(ctx))
	profile, err = s.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	// clearing the marker leaves user data alone
	assert.Equal(t, []string{"x"}, s.Load(ctx, "u@example.com").Favorites)
}

func TestLegacyData(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	legacy, err := s.LegacyData(ctx)
	require.NoError(t, err)
	assert.False(t, legacy.Exists())

	require.NoError(t, s.SetLegacyData(ctx, LegacyData{Favorites: []string{"f1"}, SearchHistory: []string{"q1"}}))
	legacy, err = s.LegacyData(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, legacy.Favorites)
	assert.Equal(t, []string{"q1"}, legacy.SearchHistory)
	assert.True(t, legacy.Exists())

	require.NoError(t, s.DeleteLegacy(ctx))
	legacy, err = s.LegacyData(ctx)
	require.NoError(t, err)
	assert.False(t, legacy.Exists())
}

func TestLegacyDataCountsEmptyKeys(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetLegacyData(ctx, LegacyData{Favorites: []string{}}))

	legacy, err := s.LegacyData(ctx)
	require.NoError(t, err)
	assert.True(t, legacy.Exists())
	assert.Empty(t, legacy.Favorites)
	assert.Nil(t, legacy.SearchHistory)
}
