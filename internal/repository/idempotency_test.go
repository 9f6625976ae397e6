package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agri-trade-ledger/internal/repository"
	"github.com/josh-kwaku/agri-trade-ledger/internal/testutil"
)

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	live := &repository.IdempotencyCacheEntry{
		Key:          "k-1",
		Actor:        "clerk.ade",
		RequestHash:  "abc",
		StatusCode:   201,
		ResponseBody: []byte(`{"success":true}`),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	require.NoError(t, repo.Set(ctx, live))

	got, err := repo.Get(ctx, "k-1", "clerk.ade")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(got.ResponseBody))

	other, err := repo.Get(ctx, "k-1", "clerk.bola")
	require.NoError(t, err)
	assert.Nil(t, other, "keys are scoped to the actor")

	dup := *live
	dup.RequestHash = "changed"
	require.NoError(t, repo.Set(ctx, &dup))
	got, err = repo.Get(ctx, "k-1", "clerk.ade")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.RequestHash, "first writer wins")

	expired := &repository.IdempotencyCacheEntry{
		Key:          "k-old",
		Actor:        "clerk.ade",
		RequestHash:  "x",
		StatusCode:   200,
		ResponseBody: []byte(`{}`),
		CreatedAt:    now.Add(-48 * time.Hour),
		ExpiresAt:    now.Add(-24 * time.Hour),
	}
	require.NoError(t, repo.Set(ctx, expired))

	gone, err := repo.Get(ctx, "k-old", "clerk.ade")
	require.NoError(t, err)
	assert.Nil(t, gone)

	n, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
