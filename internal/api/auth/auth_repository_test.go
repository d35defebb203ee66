package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	database "github.com/FACorreiaa/cv-builder-api/app/db"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

// Runs against a real MongoDB when MONGO_TEST_URI is set.
func TestMongoAuthRepoIntegration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := database.ConnectMongo(ctx, uri, 10*time.Second, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(fmt.Sprintf("cvbuilder_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	require.NoError(t, database.EnsureMongoIndexes(ctx, db, slog.Default()))

	repo := NewMongoAuthRepo(db, slog.Default())

	created, err := repo.CreateUser(ctx, &types.User{Username: "jane", Email: "jane@x.com", Password: "hash", Provider: types.ProviderLocal})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = repo.CreateUser(ctx, &types.User{Username: "other", Email: "jane@x.com", Provider: types.ProviderLocal})
	assert.ErrorIs(t, err, types.ErrConflict)

	byName, err := repo.GetUserByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	linked, err := repo.LinkGoogleAccount(ctx, created.ID, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.ProviderGoogle, linked.Provider)

	byGoogle, err := repo.GetUserByGoogleID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byGoogle.ID)

	_, err = repo.GetUserByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
