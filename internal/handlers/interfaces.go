package handlers

import (
	"context"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/services"
	"github.com/google/uuid"
)

// TemplateServiceInterface defines the methods used by handlers from TemplateService
type TemplateServiceInterface interface {
	Create(ctx context.Context, guildID, name string) (*models.Template, error)
	Resolve(ctx context.Context, guildID, ref string) (*models.Template, error)
	ResolveField(ctx context.Context, id uuid.UUID) (*models.Field, error)
	Summaries(ctx context.Context, guildID string) ([]services.TemplateSummary, error)
	Describe(ctx context.Context, t *models.Template) (*services.TemplateDetail, error)
	Delete(ctx context.Context, t *models.Template) error
}

// ProfileServiceInterface defines the methods used by handlers from ProfileService
type ProfileServiceInterface interface {
	Create(ctx context.Context, t *models.Template, ownerUserID, name string) (*models.Profile, error)
	Get(ctx context.Context, key cache.ProfileKey) (*models.Profile, error)
	SetValue(ctx context.Context, ownerUserID string, fieldID uuid.UUID, raw *string) (*models.FilledField, error)
	Delete(ctx context.Context, key cache.ProfileKey, callerID string, callerManages bool) error
	Verify(ctx context.Context, t *models.Template, profile *models.Profile, ownerRoles expr.RoleSet) (*services.DeliveryOutcome, error)
	Archive(ctx context.Context, t *models.Template, profile *models.Profile, ownerRoles expr.RoleSet) (*services.DeliveryOutcome, error)
}

// AssemblerInterface defines the methods used by handlers from AssemblerService
type AssemblerInterface interface {
	Build(ctx context.Context, profile *models.Profile, viewer expr.RoleSet) ([]services.Row, error)
}
