package services

import (
	"context"
	"testing"
	"time"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/database"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplateEnv(t *testing.T) (pgxmock.PgxPoolIface, *TemplateService) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	st := store.New(&database.DB{Pool: mock})
	c := cache.New(st, 128, time.Minute)
	return mock, NewTemplateService(st, c, NewStaticLimits(nil))
}

func TestTemplateService_Create_RejectsInvalidNames(t *testing.T) {
	_, svc := newTemplateEnv(t)

	for _, name := range []string{"", "has space", "thirtyone-characters-long-name!", "naïve"} {
		_, err := svc.Create(context.Background(), "g1", name)
		assert.True(t, IsValidation(err), "name %q should be rejected", name)
	}
}

func TestTemplateService_Create_RejectsDuplicateNameCaseInsensitive(t *testing.T) {
	mock, svc := newTemplateEnv(t)

	existing := uuid.New()
	mock.ExpectQuery("FROM templates").
		WithArgs("g1", "hero").
		WillReturnRows(templateRows(existing, "g1", "Hero", 1, 10))

	_, err := svc.Create(context.Background(), "g1", "hero")
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "Hero")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateService_Create_EnforcesGuildCeiling(t *testing.T) {
	mock, svc := newTemplateEnv(t)

	mock.ExpectQuery("FROM templates").
		WithArgs("g1", "Hero").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("g1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

	_, err := svc.Create(context.Background(), "g1", "Hero")
	assert.True(t, IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateService_Create_Success(t *testing.T) {
	mock, svc := newTemplateEnv(t)
	id := uuid.New()

	mock.ExpectQuery("FROM templates").
		WithArgs("g1", "Hero").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("g1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO templates").
		WithArgs("g1", "Hero", 1, 10).
		WillReturnRows(templateRows(id, "g1", "Hero", 1, 10))
	mock.ExpectQuery("SELECT " + templateCols + " FROM templates WHERE id").
		WithArgs(id).
		WillReturnRows(templateRows(id, "g1", "Hero", 1, 10))

	created, err := svc.Create(context.Background(), "g1", "Hero")
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
	assert.Equal(t, 1, created.MaxProfileCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateService_Resolve_ByNameAndByID(t *testing.T) {
	mock, svc := newTemplateEnv(t)
	id := uuid.New()

	// Name resolution reads the guild's template list once.
	mock.ExpectQuery("FROM templates").
		WithArgs("g1").
		WillReturnRows(templateRows(id, "g1", "Hero", 1, 10))

	byName, err := svc.Resolve(context.Background(), "g1", "HERO")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	// The list lookup primed the id cache; resolving by id hits it.
	byID, err := svc.Resolve(context.Background(), "g1", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, byID.ID)

	// The same id seen through another guild does not resolve.
	_, err = svc.Resolve(context.Background(), "g2", id.String())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
