package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_DSN", "")
	t.Setenv("RECOMMEND_DEFAULT_TOP_K", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Recommend.DefaultTopK)
	assert.Equal(t, int64(42), cfg.Evaluation.Seed)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=phonecbr sslmode=disable", cfg.GetPostgreSQLDSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/phones")
	t.Setenv("RECOMMEND_DEFAULT_TOP_K", "not-a-number")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/phones", cfg.GetPostgreSQLDSN())
	assert.Equal(t, 10, cfg.Recommend.DefaultTopK, "invalid integers fall back to the default")
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)
}

func TestCORSList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, CORSList(" http://a, ,http://b "))
	assert.Nil(t, CORSList(""))
}
