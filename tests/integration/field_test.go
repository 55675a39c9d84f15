package integration

import (
	"context"
	"testing"

	"github.com/alenk/profilio-api/internal/store"
	"github.com/alenk/profilio-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftDeletedField_StaysResolvable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	st := store.New(tdb.DB)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	template := fixtures.CreateTemplate(t, "guild-1")
	field := fixtures.CreateField(t, template.ID, 0, "Bio", "Tell us about yourself")
	fixtures.FillField(t, "user-1", field.ID, "hello")

	require.NoError(t, st.SoftDeleteField(ctx, field.ID))

	// Gone from the template's listing.
	fields, err := st.FieldsByTemplate(ctx, template.ID)
	require.NoError(t, err)
	assert.Empty(t, fields)

	// Still resolvable by id, flagged deleted.
	resolved, err := st.FieldByID(ctx, field.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Deleted)

	// The filled value survives the soft delete.
	filled, err := st.FilledFieldsByOwner(ctx, "user-1", template.ID)
	require.NoError(t, err)
	require.Len(t, filled, 1)
	assert.Equal(t, field.ID, filled[0].FieldID)
}

func TestFieldPosition_OrderWithIDTieBreak(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	st := store.New(tdb.DB)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	template := fixtures.CreateTemplate(t, "guild-1")
	fixtures.CreateField(t, template.ID, 1, "Second", "p")
	fixtures.CreateField(t, template.ID, 0, "First", "p")
	fixtures.CreateField(t, template.ID, 1, "AlsoSecond", "p")

	fields, err := st.FieldsByTemplate(ctx, template.ID)
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "First", fields[0].Name)
	// Equal positions keep a deterministic order by field id.
	assert.Equal(t, fields[1].Index, fields[2].Index)
	assert.Less(t, fields[1].ID.String(), fields[2].ID.String())
}
