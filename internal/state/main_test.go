package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"curator/internal/core"
	"curator/internal/models"
	"curator/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *store.ProfileStore {
	t.Helper()

	logger := core.NewDiscardLogger()
	db, err := core.OpenSQLite(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	profiles, err := store.Open(context.Background(), db, logger)
	require.NoError(t, err)
	return profiles
}

// failingStore rejects writes with saveErr and profile updates with
// profileErr while they are set
type failingStore struct {
	*store.ProfileStore
	saveErr    error
	profileErr error
}

func (f *failingStore) Save(ctx context.Context, email string, patch models.UserDataPatch) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.ProfileStore.Save(ctx, email, patch)
}

func (f *failingStore) SetCurrentProfile(ctx context.Context, profile models.UserProfile) error {
	if f.profileErr != nil {
		return f.profileErr
	}
	return f.ProfileStore.SetCurrentProfile(ctx, profile)
}
