package database

import (
	"testing"

	"foodgram/internal/config"
	"foodgram/internal/middleware"
	"foodgram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: NewGormLogger(middleware.Logger)})
	require.NoError(t, err)
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, configurePool(db, &config.Config{DBMaxOpenConns: 10, DBMaxIdleConns: 5}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Defaults(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_CreatesJoinTables(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RegisterQueryMetrics(db))
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "tags", "ingredients", "recipes", "recipe_tags", "ingredient_amounts", "favorites", "shopping_carts", "follows"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Follow{}, "idx_follows_pair"))
}

func TestDSN_DefaultsSSLMode(t *testing.T) {
	dsn := DSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "foodgram"})
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "dbname=foodgram")
}
