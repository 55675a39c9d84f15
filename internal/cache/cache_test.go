package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	templates map[uuid.UUID]*models.Template
	fields    map[uuid.UUID]*models.Field
	profiles  map[ProfileKey]*models.Profile
	filled    map[uuid.UUID]*models.FilledField

	templateReads int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		templates: make(map[uuid.UUID]*models.Template),
		fields:    make(map[uuid.UUID]*models.Field),
		profiles:  make(map[ProfileKey]*models.Profile),
		filled:    make(map[uuid.UUID]*models.FilledField),
	}
}

func (b *fakeBackend) TemplateByID(_ context.Context, id uuid.UUID) (*models.Template, error) {
	b.templateReads++
	if t, ok := b.templates[id]; ok {
		copy := *t
		return &copy, nil
	}
	return nil, store.ErrNotFound
}

func (b *fakeBackend) TemplatesByGuild(_ context.Context, guildID string) ([]models.Template, error) {
	var out []models.Template
	for _, t := range b.templates {
		if t.GuildID == guildID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (b *fakeBackend) FieldByID(_ context.Context, id uuid.UUID) (*models.Field, error) {
	if f, ok := b.fields[id]; ok {
		copy := *f
		return &copy, nil
	}
	return nil, store.ErrNotFound
}

func (b *fakeBackend) FieldsByTemplate(_ context.Context, templateID uuid.UUID) ([]models.Field, error) {
	var out []models.Field
	for _, f := range b.fields {
		if f.TemplateID == templateID && !f.Deleted {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (b *fakeBackend) ProfileByKey(_ context.Context, owner string, templateID uuid.UUID, name string) (*models.Profile, error) {
	if p, ok := b.profiles[ProfileKey{OwnerUserID: owner, TemplateID: templateID, Name: name}]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, store.ErrNotFound
}

func (b *fakeBackend) FilledFieldsByOwner(_ context.Context, owner string, templateID uuid.UUID) ([]models.FilledField, error) {
	var out []models.FilledField
	for fieldID, ff := range b.filled {
		f, ok := b.fields[fieldID]
		if ok && f.TemplateID == templateID && ff.OwnerUserID == owner {
			out = append(out, *ff)
		}
	}
	return out, nil
}

func setupCache(t *testing.T) (*EntityCache, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	return New(backend, 128, time.Minute), backend
}

func TestEntityCache_ReadThrough(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	id := uuid.New()
	backend.templates[id] = &models.Template{ID: id, GuildID: "g1", Name: "Hero"}

	got, err := c.Template(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hero", got.Name)
	assert.Equal(t, 1, backend.templateReads)

	// Second read is served from the cache.
	_, err = c.Template(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.templateReads)
}

func TestEntityCache_RefreshReplacesFromStore(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	id := uuid.New()
	backend.templates[id] = &models.Template{ID: id, GuildID: "g1", Name: "Hero"}

	_, err := c.Template(ctx, id)
	require.NoError(t, err)

	// A confirmed store write must be followed by Refresh; the cache is
	// never updated from request data.
	backend.templates[id].Name = "Villain"
	got, err := c.Template(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hero", got.Name, "stale until refresh")

	got, err = c.RefreshTemplate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Villain", got.Name)
}

func TestEntityCache_RefreshRemovesAbsent(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	id := uuid.New()
	backend.templates[id] = &models.Template{ID: id, GuildID: "g1", Name: "Hero"}

	_, err := c.Template(ctx, id)
	require.NoError(t, err)

	delete(backend.templates, id)

	_, err = c.RefreshTemplate(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Template(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntityCache_TemplateByName_CaseInsensitive(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	id := uuid.New()
	backend.templates[id] = &models.Template{ID: id, GuildID: "g1", Name: "Hero"}

	got, err := c.TemplateByName(ctx, "g1", "hErO")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = c.TemplateByName(ctx, "g1", "Unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntityCache_InvalidateGuildList(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	id := uuid.New()
	backend.templates[id] = &models.Template{ID: id, GuildID: "g1", Name: "Hero"}

	ts, err := c.TemplatesByGuild(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, ts, 1)

	id2 := uuid.New()
	backend.templates[id2] = &models.Template{ID: id2, GuildID: "g1", Name: "Sidekick"}

	ts, err = c.TemplatesByGuild(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, ts, 1, "list is cached until invalidated")

	c.InvalidateGuild("g1")
	ts, err = c.TemplatesByGuild(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, ts, 2)
}

func TestEntityCache_DeletedFieldStillResolvableByID(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	templateID := uuid.New()
	fieldID := uuid.New()
	backend.fields[fieldID] = &models.Field{
		ID: fieldID, TemplateID: templateID, Name: "age",
		Type: models.NumberType{}, Deleted: true,
	}

	fields, err := c.FieldsByTemplate(ctx, templateID)
	require.NoError(t, err)
	assert.Empty(t, fields, "deleted fields are not listed")

	f, err := c.Field(ctx, fieldID)
	require.NoError(t, err)
	assert.True(t, f.Deleted)
}

func TestEntityCache_RefreshField_InvalidatesTemplateList(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	templateID := uuid.New()
	fieldID := uuid.New()
	backend.fields[fieldID] = &models.Field{ID: fieldID, TemplateID: templateID, Name: "bio", Type: models.TextType{}}

	fields, err := c.FieldsByTemplate(ctx, templateID)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	backend.fields[fieldID].Deleted = true
	_, err = c.RefreshField(ctx, fieldID)
	require.NoError(t, err)

	fields, err = c.FieldsByTemplate(ctx, templateID)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestEntityCache_Profiles(t *testing.T) {
	c, backend := setupCache(t)
	ctx := context.Background()

	templateID := uuid.New()
	key := ProfileKey{OwnerUserID: "u1", TemplateID: templateID, Name: "main"}
	backend.profiles[key] = &models.Profile{OwnerUserID: "u1", TemplateID: templateID, Name: "main"}

	p, err := c.Profile(ctx, key)
	require.NoError(t, err)
	assert.False(t, p.Verified)

	backend.profiles[key].Verified = true
	p, err = c.RefreshProfile(ctx, key)
	require.NoError(t, err)
	assert.True(t, p.Verified)

	delete(backend.profiles, key)
	_, err = c.RefreshProfile(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}
