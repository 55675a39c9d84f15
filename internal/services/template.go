package services

import (
	"context"
	"errors"
	"regexp"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/google/uuid"
)

var templateNameRe = regexp.MustCompile(`^[A-Za-z0-9]{1,30}$`)

type TemplateService struct {
	store  *store.Store
	cache  *cache.EntityCache
	limits LimitsProvider
}

func NewTemplateService(st *store.Store, c *cache.EntityCache, limits LimitsProvider) *TemplateService {
	return &TemplateService{store: st, cache: c, limits: limits}
}

// Create makes an empty template. Name rules: 1-30 alphanumeric characters,
// unique within the guild case-insensitively. The guild's template count is
// checked against its entitlement ceiling.
func (s *TemplateService) Create(ctx context.Context, guildID, name string) (*models.Template, error) {
	if err := s.ValidateName(ctx, guildID, name, uuid.Nil); err != nil {
		return nil, err
	}

	limits, err := s.limits.Limits(ctx, guildID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountTemplates(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if count >= limits.MaxTemplates {
		return nil, validationf("this guild already has its maximum of %d templates", limits.MaxTemplates)
	}

	t, err := s.store.CreateTemplate(ctx, guildID, name, 1, limits.MaxFields)
	if err != nil {
		return nil, err
	}

	// Cache is refilled from confirmed store state, never from the request.
	if _, err := s.cache.RefreshTemplate(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// ValidateName enforces the template name rules against current store state.
// Sessions call this twice: once at prompt time and again immediately before
// commit, to close the race between the two.
func (s *TemplateService) ValidateName(ctx context.Context, guildID, name string, self uuid.UUID) error {
	if !templateNameRe.MatchString(name) {
		return validationf("template name must be 1-30 alphanumeric characters")
	}
	existing, err := s.store.TemplateByName(ctx, guildID, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return validationf("a template named %q already exists in this guild", existing.Name)
	}
	return nil
}

// Resolve finds a template by id or by case-insensitive name within a guild.
func (s *TemplateService) Resolve(ctx context.Context, guildID, ref string) (*models.Template, error) {
	if id, err := uuid.Parse(ref); err == nil {
		t, err := s.cache.Template(ctx, id)
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if t.GuildID != guildID {
			return nil, ErrNotFound
		}
		return t, nil
	}
	t, err := s.cache.TemplateByName(ctx, guildID, ref)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

// ResolveField finds a field by id, soft-deleted fields included.
func (s *TemplateService) ResolveField(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	f, err := s.cache.Field(ctx, id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *TemplateService) List(ctx context.Context, guildID string) ([]models.Template, error) {
	return s.cache.TemplatesByGuild(ctx, guildID)
}

// TemplateSummary is the brief list view of one template.
type TemplateSummary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Colour          int       `json:"colour"`
	FieldCount      int       `json:"field_count"`
	MaxProfileCount int       `json:"max_profile_count"`
}

// FieldDescription is the full per-field view. PromptStatus distinguishes
// literal prompts from valid and malformed expressions without evaluating
// them.
type FieldDescription struct {
	ID           uuid.UUID `json:"id"`
	Index        int       `json:"index"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Prompt       string    `json:"prompt"`
	PromptStatus string    `json:"prompt_status"`
	Timeout      int       `json:"timeout"`
	Optional     bool      `json:"optional"`
}

type TemplateDetail struct {
	Template           models.Template    `json:"template"`
	VerificationStatus string             `json:"verification_status"`
	ArchiveStatus      string             `json:"archive_status"`
	GrantStatus        string             `json:"grant_status"`
	Fields             []FieldDescription `json:"fields"`
}

// Summaries builds the brief describe-view for a guild. Pure read of cached
// state.
func (s *TemplateService) Summaries(ctx context.Context, guildID string) ([]TemplateSummary, error) {
	templates, err := s.cache.TemplatesByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	summaries := make([]TemplateSummary, 0, len(templates))
	for _, t := range templates {
		fields, err := s.cache.FieldsByTemplate(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, TemplateSummary{
			ID:              t.ID,
			Name:            t.Name,
			Colour:          t.Colour,
			FieldCount:      len(fields),
			MaxProfileCount: t.MaxProfileCount,
		})
	}
	return summaries, nil
}

// Describe builds the full describe-view of one template. Destination and
// grant values are reported by expression status, never evaluated here.
func (s *TemplateService) Describe(ctx context.Context, t *models.Template) (*TemplateDetail, error) {
	fields, err := s.cache.FieldsByTemplate(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	detail := &TemplateDetail{
		Template:           *t,
		VerificationStatus: describeOptional(t.VerificationDestination),
		ArchiveStatus:      describeOptional(t.ArchiveDestination),
		GrantStatus:        describeOptional(t.GrantID),
		Fields:             make([]FieldDescription, 0, len(fields)),
	}
	for _, f := range fields {
		detail.Fields = append(detail.Fields, FieldDescription{
			ID:           f.ID,
			Index:        f.Index,
			Name:         f.Name,
			Type:         f.Type.Tag(),
			Prompt:       f.Prompt,
			PromptStatus: expr.Describe(f.Prompt),
			Timeout:      f.Timeout,
			Optional:     f.Optional,
		})
	}
	return detail, nil
}

// Delete removes a template for good; the store cascades fields, profiles
// and filled values.
func (s *TemplateService) Delete(ctx context.Context, t *models.Template) error {
	if err := s.store.DeleteTemplate(ctx, t.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.cache.InvalidateTemplate(t.ID)
	s.cache.InvalidateTemplateFields(t.ID)
	s.cache.InvalidateGuild(t.GuildID)
	return nil
}

func describeOptional(v *string) string {
	if v == nil {
		return "unset"
	}
	return expr.Describe(*v)
}
