// Package cache holds the in-process entity cache: read-through LRU maps
// over the persistence adapter, keyed by id and by owner key. The cache is
// never the source of truth and is never updated from request payloads; a
// confirmed write is followed by Refresh/Invalidate so the next read comes
// from store state.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Backend is the slice of the persistence adapter the cache reads through.
// *store.Store satisfies it.
type Backend interface {
	TemplateByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	TemplatesByGuild(ctx context.Context, guildID string) ([]models.Template, error)
	FieldByID(ctx context.Context, id uuid.UUID) (*models.Field, error)
	FieldsByTemplate(ctx context.Context, templateID uuid.UUID) ([]models.Field, error)
	ProfileByKey(ctx context.Context, ownerUserID string, templateID uuid.UUID, name string) (*models.Profile, error)
	FilledFieldsByOwner(ctx context.Context, ownerUserID string, templateID uuid.UUID) ([]models.FilledField, error)
}

// ErrNotFound mirrors the adapter's absence result so callers can treat the
// cache as their only read path.
var ErrNotFound = store.ErrNotFound

type ProfileKey struct {
	OwnerUserID string
	TemplateID  uuid.UUID
	Name        string
}

type filledKey struct {
	ownerUserID string
	templateID  uuid.UUID
}

type EntityCache struct {
	backend Backend

	templates      *expirable.LRU[uuid.UUID, *models.Template]
	guildTemplates *expirable.LRU[string, []models.Template]
	fields         *expirable.LRU[uuid.UUID, *models.Field]
	templateFields *expirable.LRU[uuid.UUID, []models.Field]
	profiles       *expirable.LRU[ProfileKey, *models.Profile]
	filled         *expirable.LRU[filledKey, []models.FilledField]
}

func New(backend Backend, size int, ttl time.Duration) *EntityCache {
	return &EntityCache{
		backend:        backend,
		templates:      expirable.NewLRU[uuid.UUID, *models.Template](size, nil, ttl),
		guildTemplates: expirable.NewLRU[string, []models.Template](size, nil, ttl),
		fields:         expirable.NewLRU[uuid.UUID, *models.Field](size, nil, ttl),
		templateFields: expirable.NewLRU[uuid.UUID, []models.Field](size, nil, ttl),
		profiles:       expirable.NewLRU[ProfileKey, *models.Profile](size, nil, ttl),
		filled:         expirable.NewLRU[filledKey, []models.FilledField](size, nil, ttl),
	}
}

// Template returns a template by id, reading through to the store on miss.
func (c *EntityCache) Template(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	if t, ok := c.templates.Get(id); ok {
		return t, nil
	}
	return c.RefreshTemplate(ctx, id)
}

// TemplateByName resolves by guild + case-insensitive name. Name lookups are
// not cached separately; they read the guild list.
func (c *EntityCache) TemplateByName(ctx context.Context, guildID, name string) (*models.Template, error) {
	templates, err := c.TemplatesByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if strings.EqualFold(templates[i].Name, name) {
			t := templates[i]
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (c *EntityCache) TemplatesByGuild(ctx context.Context, guildID string) ([]models.Template, error) {
	if ts, ok := c.guildTemplates.Get(guildID); ok {
		return ts, nil
	}
	ts, err := c.backend.TemplatesByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c.guildTemplates.Add(guildID, ts)
	for i := range ts {
		t := ts[i]
		c.templates.Add(t.ID, &t)
	}
	return ts, nil
}

// RefreshTemplate re-reads one template from the store and replaces the
// cached copy, or drops it if the store reports absence. The owning guild's
// list is invalidated either way.
func (c *EntityCache) RefreshTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	prev, _ := c.templates.Get(id)
	t, err := c.backend.TemplateByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.templates.Remove(id)
		if prev != nil {
			c.guildTemplates.Remove(prev.GuildID)
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.templates.Add(id, t)
	c.guildTemplates.Remove(t.GuildID)
	return t, nil
}

func (c *EntityCache) InvalidateTemplate(id uuid.UUID) {
	if prev, ok := c.templates.Get(id); ok {
		c.guildTemplates.Remove(prev.GuildID)
	}
	c.templates.Remove(id)
	c.templateFields.Remove(id)
}

func (c *EntityCache) InvalidateGuild(guildID string) {
	c.guildTemplates.Remove(guildID)
}

// Field returns a field by id, deleted ones included.
func (c *EntityCache) Field(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	if f, ok := c.fields.Get(id); ok {
		return f, nil
	}
	return c.RefreshField(ctx, id)
}

// FieldsByTemplate returns the non-deleted fields of a template in render
// order.
func (c *EntityCache) FieldsByTemplate(ctx context.Context, templateID uuid.UUID) ([]models.Field, error) {
	if fs, ok := c.templateFields.Get(templateID); ok {
		return fs, nil
	}
	fs, err := c.backend.FieldsByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	c.templateFields.Add(templateID, fs)
	for i := range fs {
		f := fs[i]
		c.fields.Add(f.ID, &f)
	}
	return fs, nil
}

func (c *EntityCache) RefreshField(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	prev, _ := c.fields.Get(id)
	f, err := c.backend.FieldByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.fields.Remove(id)
		if prev != nil {
			c.templateFields.Remove(prev.TemplateID)
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.fields.Add(id, f)
	c.templateFields.Remove(f.TemplateID)
	return f, nil
}

func (c *EntityCache) InvalidateField(id uuid.UUID) {
	if prev, ok := c.fields.Get(id); ok {
		c.templateFields.Remove(prev.TemplateID)
	}
	c.fields.Remove(id)
}

func (c *EntityCache) InvalidateTemplateFields(templateID uuid.UUID) {
	c.templateFields.Remove(templateID)
}

func (c *EntityCache) Profile(ctx context.Context, key ProfileKey) (*models.Profile, error) {
	if p, ok := c.profiles.Get(key); ok {
		return p, nil
	}
	return c.RefreshProfile(ctx, key)
}

func (c *EntityCache) RefreshProfile(ctx context.Context, key ProfileKey) (*models.Profile, error) {
	p, err := c.backend.ProfileByKey(ctx, key.OwnerUserID, key.TemplateID, key.Name)
	if errors.Is(err, store.ErrNotFound) {
		c.profiles.Remove(key)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.profiles.Add(key, p)
	return p, nil
}

func (c *EntityCache) InvalidateProfile(key ProfileKey) {
	c.profiles.Remove(key)
}

// FilledFields returns one user's filled values for a template, keyed by
// field id. Deleted fields are included; the assembler filters.
func (c *EntityCache) FilledFields(ctx context.Context, ownerUserID string, templateID uuid.UUID) ([]models.FilledField, error) {
	key := filledKey{ownerUserID: ownerUserID, templateID: templateID}
	if fs, ok := c.filled.Get(key); ok {
		return fs, nil
	}
	fs, err := c.backend.FilledFieldsByOwner(ctx, ownerUserID, templateID)
	if err != nil {
		return nil, err
	}
	c.filled.Add(key, fs)
	return fs, nil
}

func (c *EntityCache) InvalidateFilledFields(ownerUserID string, templateID uuid.UUID) {
	c.filled.Remove(filledKey{ownerUserID: ownerUserID, templateID: templateID})
}
