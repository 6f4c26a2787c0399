//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"phonecbr/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newPostgresRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg17",
		postgres.WithDatabase("phonecbr_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewPostgresRepository(dsn, PostgresOptions{MaxConnections: 4, MaxIdleConnections: 2, EnableVectors: true})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPostgresRepository(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	inserted, errs := repo.InsertPhones(ctx, seedPhones())
	require.Empty(t, errs)
	assert.Equal(t, 3, inserted)

	auto := &model.Phone{Name: "Nokia G42", Brand: "Nokia", Price: 2_000_000, OS: "Android"}
	require.NoError(t, repo.InsertPhone(ctx, auto))
	assert.Equal(t, int64(13), auto.ID, "sequence moved past explicit IDs")

	phones, total, err := repo.QueryPhones(ctx, &model.PhoneFilter{}, "price", "desc", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, int64(12), phones[0].ID)

	// Duplicate IDs roll back to the savepoint and the rest of the batch commits.
	batch := []model.Phone{
		{ID: 20, Name: "Poco X6", Brand: "Poco", Price: 4_700_000, OS: "Android"},
		{ID: 20, Name: "Poco X6 again", Brand: "Poco", Price: 4_700_000, OS: "Android"},
		{ID: 21, Name: "Itel A70", Brand: "Itel", Price: 1_200_000, OS: "Android"},
	}
	inserted, errs = repo.InsertPhones(ctx, batch)
	assert.Equal(t, 2, inserted)
	assert.Len(t, errs, 1)

	require.NoError(t, repo.LogRecommendation(ctx, model.RecommendationLog{Query: model.JSONMap{"ram": 8.0}, ResultCount: 1, PhoneIDs: "11"}))
	n, err := repo.CountRecommendations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPostgresFeatureVectors(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()
	require.True(t, repo.VectorsEnabled())

	_, errs := repo.InsertPhones(ctx, seedPhones())
	require.Empty(t, errs)

	vec := func(v float32) []float32 {
		out := make([]float32, model.NumericCount)
		for i := range out {
			out[i] = v
		}
		return out
	}
	items := []model.FeatureItem{
		{PhoneID: 10, CatalogVersion: 2, Features: vec(0.1)},
		{PhoneID: 11, CatalogVersion: 2, Features: vec(0.2)},
		{PhoneID: 12, CatalogVersion: 2, Features: vec(0.9)},
	}
	n, errs := repo.SyncFeatures(ctx, 2, items)
	require.Empty(t, errs)
	assert.Equal(t, 3, n)

	ids, err := repo.NearestByFeatures(ctx, vec(0.12), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)

	// A newer version prunes vectors that were not resynced.
	n, errs = repo.SyncFeatures(ctx, 3, items[:1])
	require.Empty(t, errs)
	assert.Equal(t, 1, n)
	ids, err = repo.NearestByFeatures(ctx, vec(0.9), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids)
}
