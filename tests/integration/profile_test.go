package integration

import (
	"context"
	"testing"

	"github.com/alenk/profilio-api/internal/store"
	"github.com/alenk/profilio-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileKey_OwnerTemplateName(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	st := store.New(tdb.DB)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	template := fixtures.CreateTemplate(t, "guild-1")

	_, err := st.CreateProfile(ctx, "user-1", template.ID, "main")
	require.NoError(t, err)

	// Same name for another owner is a different key.
	_, err = st.CreateProfile(ctx, "user-2", template.ID, "main")
	assert.NoError(t, err)

	// Duplicate key is rejected.
	_, err = st.CreateProfile(ctx, "user-1", template.ID, "main")
	assert.Error(t, err)
}

func TestFilledField_UpsertReplacesValue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	st := store.New(tdb.DB)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	template := fixtures.CreateTemplate(t, "guild-1")
	field := fixtures.CreateField(t, template.ID, 0, "Bio", "p")

	first := "hello"
	_, err := st.UpsertFilledField(ctx, "user-1", field.ID, &first)
	require.NoError(t, err)

	second := "goodbye"
	filled, err := st.UpsertFilledField(ctx, "user-1", field.ID, &second)
	require.NoError(t, err)
	require.NotNil(t, filled.Value)
	assert.Equal(t, "goodbye", *filled.Value)

	all, err := st.FilledFieldsByOwner(ctx, "user-1", template.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
