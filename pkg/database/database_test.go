package database

import (
	"context"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/getaround-pricing/pkg/database/queries"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

func TestMigrationFiles(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_create_predictions.sql", files[0])
}

func TestNilDB(t *testing.T) {
	var db *DB
	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, db.Close())
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "full",
			cfg:  Config{Host: "localhost", Port: 5432, User: "pricing", Password: "secret", Name: "pricing", SSLMode: "require"},
			want: "host=localhost port=5432 user=pricing password=secret dbname=pricing sslmode=require",
		},
		{
			name: "defaults ssl mode and skips empty values",
			cfg:  Config{Host: "db", Name: "pricing"},
			want: "host=db dbname=pricing sslmode=disable",
		},
		{
			name: "quotes awkward passwords",
			cfg:  Config{Host: "db", Port: 5432, Password: `it's a secret`, Name: "pricing"},
			want: `host=db port=5432 password='it\'s a secret' dbname=pricing sslmode=disable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

func TestListMigrations_SortsByName(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_add_index.sql":          {Data: []byte("SELECT 1;")},
		"migrations/001_create_predictions.sql": {Data: []byte("SELECT 1;")},
		"migrations/README.md":                  {Data: []byte("notes")},
	}

	names, err := listMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_predictions.sql", "002_add_index.sql"}, names)
}

// openTestDB connects to the database named by PRICING_TEST_DATABASE_HOST or
// skips the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv("PRICING_TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("PRICING_TEST_DATABASE_HOST not set")
	}

	db, err := Open(context.Background(), Config{
		Host:           host,
		Port:           5432,
		Name:           envOr("PRICING_TEST_DATABASE_NAME", "pricing_test"),
		User:           envOr("PRICING_TEST_DATABASE_USER", "pricing"),
		Password:       envOr("PRICING_TEST_DATABASE_PASSWORD", "password"),
		MaxConnections: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestPredictionRepository_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := NewMigrator(db).Run(ctx)
	require.NoError(t, err)

	again, err := NewMigrator(db).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	migrated, err := db.Migrated(ctx)
	require.NoError(t, err)
	assert.True(t, migrated)

	repo := queries.NewPredictionRepository(db.DB)
	since := time.Now().Add(-time.Second)

	ok := models.NewPredictionEvent("trace-ok", models.ExampleFeatures())
	price := 179.4
	ok.Price = &price
	require.NoError(t, repo.Insert(ctx, models.NewPredictionRecord(ok)))

	failed := models.NewPredictionEvent("trace-failed", models.ExampleFeatures())
	failed.ErrorKind = "unknown_category"
	require.NoError(t, repo.Insert(ctx, models.NewPredictionRecord(failed)))

	recent, err := repo.GetRecent(ctx, 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(recent))
	for _, r := range recent {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, ok.ID)
	assert.Contains(t, ids, failed.ID)

	counts, err := repo.CountByErrorKind(ctx, since)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counts["ok"], 1)
	assert.GreaterOrEqual(t, counts["unknown_category"], 1)
}
