package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"foodgram/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"record not found", gorm.ErrRecordNotFound, models.CodeNotFound},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, models.CodeNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.CodeInternal},
		{"app error passes through", models.NewValidationError("bad"), models.CodeValidation},
		{"driver error", errors.New("connection reset"), models.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, models.IsCode(translateError(tt.err, "Recipe", 1), tt.code))
		})
	}
	assert.NoError(t, translateError(nil, "Recipe", 1))
}

func TestRelationStore_RemoveForeignKeyViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewCartStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "shopping_carts" WHERE user_id = $1 AND recipe_id = $2`)).
		WithArgs(1, 2).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	_, err := store.Remove(context.Background(), 1, 2)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShoppingListRepository_AggregateQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewShoppingListRepository(db)

	rows := sqlmock.NewRows([]string{"name", "measurement_unit", "total"}).
		AddRow("Flour", "g", 500).
		AddRow("Milk", "ml", 250)
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY ingredients.name, ingredients.measurement_unit ORDER BY ingredients.name, ingredients.measurement_unit`)).
		WithArgs(7).
		WillReturnRows(rows)

	items, err := repo.Aggregate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []models.ShoppingListItem{
		{Name: "Flour", MeasurementUnit: "g", Total: 500},
		{Name: "Milk", MeasurementUnit: "ml", Total: 250},
	}, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}
