package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/alenk/profilio-api/internal/database"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	store   *store.Store
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{store: store.New(db)}
}

// CreateTemplate creates a test template with default values
func (f *Fixtures) CreateTemplate(t *testing.T, guildID string, opts ...TemplateOption) *models.Template {
	t.Helper()
	f.counter++

	cfg := templateConfig{
		name:        fmt.Sprintf("Template%d", f.counter),
		maxProfiles: 1,
		maxFields:   10,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	template, err := f.store.CreateTemplate(context.Background(), guildID, cfg.name, cfg.maxProfiles, cfg.maxFields)
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	return template
}

type templateConfig struct {
	name        string
	maxProfiles int
	maxFields   int
}

// TemplateOption configures a test template
type TemplateOption func(*templateConfig)

// WithName sets the template's name
func WithName(name string) TemplateOption {
	return func(c *templateConfig) {
		c.name = name
	}
}

// WithMaxProfiles sets the per-user profile ceiling
func WithMaxProfiles(n int) TemplateOption {
	return func(c *templateConfig) {
		c.maxProfiles = n
	}
}

// CreateField appends a test field to a template
func (f *Fixtures) CreateField(t *testing.T, templateID uuid.UUID, position int, name, prompt string) *models.Field {
	t.Helper()

	field, err := f.store.CreateField(context.Background(), templateID, position, name, prompt, 120, models.TextType{}, false)
	if err != nil {
		t.Fatalf("failed to create field: %v", err)
	}
	return field
}

// CreateProfile creates a test profile
func (f *Fixtures) CreateProfile(t *testing.T, ownerUserID string, templateID uuid.UUID, name string) *models.Profile {
	t.Helper()

	profile, err := f.store.CreateProfile(context.Background(), ownerUserID, templateID, name)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return profile
}

// FillField writes a filled value for a field
func (f *Fixtures) FillField(t *testing.T, ownerUserID string, fieldID uuid.UUID, value string) *models.FilledField {
	t.Helper()

	filled, err := f.store.UpsertFilledField(context.Background(), ownerUserID, fieldID, &value)
	if err != nil {
		t.Fatalf("failed to fill field: %v", err)
	}
	return filled
}
