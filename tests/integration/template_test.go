package integration

import (
	"context"
	"testing"

	"github.com/alenk/profilio-api/internal/store"
	"github.com/alenk/profilio-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateName_UniquePerGuild_CaseInsensitive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	st := store.New(tdb.DB)
	ctx := context.Background()

	_, err := st.CreateTemplate(ctx, "guild-1", "Hero", 1, 10)
	require.NoError(t, err)

	// Same name, different case, same guild: rejected by the unique index.
	_, err = st.CreateTemplate(ctx, "guild-1", "hero", 1, 10)
	assert.Error(t, err)

	// Same name in another guild is fine.
	_, err = st.CreateTemplate(ctx, "guild-2", "Hero", 1, 10)
	assert.NoError(t, err)
}

func TestTemplateByName_CaseInsensitiveLookup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	st := store.New(tdb.DB)
	ctx := context.Background()

	created, err := st.CreateTemplate(ctx, "guild-1", "Hero", 1, 10)
	require.NoError(t, err)

	found, err := st.TemplateByName(ctx, "guild-1", "HERO")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	// Stored casing is preserved.
	assert.Equal(t, "Hero", found.Name)
}

func TestTemplateDelete_CascadesToFieldsAndProfiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	st := store.New(tdb.DB)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	template := fixtures.CreateTemplate(t, "guild-1")
	field := fixtures.CreateField(t, template.ID, 0, "Bio", "Tell us about yourself")
	fixtures.CreateProfile(t, "user-1", template.ID, "main")
	fixtures.FillField(t, "user-1", field.ID, "hello")

	require.NoError(t, st.DeleteTemplate(ctx, template.ID))

	_, err := st.FieldByID(ctx, field.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.ProfileByKey(ctx, "user-1", template.ID, "main")
	assert.ErrorIs(t, err, store.ErrNotFound)

	filled, err := st.FilledFieldsByOwner(ctx, "user-1", template.ID)
	require.NoError(t, err)
	assert.Empty(t, filled)
}
