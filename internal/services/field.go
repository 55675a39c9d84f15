package services

import (
	"context"
	"errors"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/store"
)

// WarnMalformedExpression is attached to outcomes that stored prompt text
// shaped like an expression that does not parse. Prompts are user content,
// so a malformed expression is warned about and saved, never blocked.
const WarnMalformedExpression = "the text looks like an expression but does not parse; it will be reported as malformed"

type FieldService struct {
	store  *store.Store
	cache  *cache.EntityCache
	limits LimitsProvider
}

func NewFieldService(st *store.Store, c *cache.EntityCache, limits LimitsProvider) *FieldService {
	return &FieldService{store: st, cache: c, limits: limits}
}

// Create appends a field to a template. The field count ceiling is the
// smaller of the template's own max and the guild's entitlement.
func (s *FieldService) Create(ctx context.Context, t *models.Template, name, prompt string) (*models.Field, string, error) {
	limits, err := s.limits.Limits(ctx, t.GuildID)
	if err != nil {
		return nil, "", err
	}
	if err := validateFieldName(name, limits); err != nil {
		return nil, "", err
	}
	warning, err := validatePrompt(prompt)
	if err != nil {
		return nil, "", err
	}

	max := t.MaxFieldCount
	if limits.MaxFields < max {
		max = limits.MaxFields
	}
	count, err := s.store.CountFields(ctx, t.ID)
	if err != nil {
		return nil, "", err
	}
	if count >= max {
		return nil, "", validationf("this template already has its maximum of %d fields", max)
	}

	f, err := s.store.CreateField(ctx, t.ID, count, name, prompt, 120, models.TextType{}, false)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.cache.RefreshField(ctx, f.ID); err != nil {
		return nil, "", err
	}
	return f, warning, nil
}

func (s *FieldService) Rename(ctx context.Context, f *models.Field, guildID, name string) error {
	limits, err := s.limits.Limits(ctx, guildID)
	if err != nil {
		return err
	}
	if err := validateFieldName(name, limits); err != nil {
		return err
	}
	return s.write(ctx, f, "name", name)
}

func (s *FieldService) SetPrompt(ctx context.Context, f *models.Field, prompt string) (string, error) {
	warning, err := validatePrompt(prompt)
	if err != nil {
		return "", err
	}
	return warning, s.write(ctx, f, "prompt", prompt)
}

func (s *FieldService) SetTimeout(ctx context.Context, f *models.Field, timeout int) error {
	if isExpressionBacked(f) {
		return validationf("an expression-backed field is never asked interactively; it has no timeout")
	}
	if timeout < models.FieldTimeoutMin || timeout > models.FieldTimeoutMax {
		return validationf("timeout must be between %d and %d seconds", models.FieldTimeoutMin, models.FieldTimeoutMax)
	}
	return s.write(ctx, f, "timeout", timeout)
}

func (s *FieldService) SetOptional(ctx context.Context, f *models.Field, optional bool) error {
	if isExpressionBacked(f) {
		return validationf("an expression-backed field is always present; it cannot be optional")
	}
	return s.write(ctx, f, "optional", optional)
}

func (s *FieldService) SetIndex(ctx context.Context, f *models.Field, index int) error {
	if index < 0 {
		return validationf("field position must not be negative")
	}
	return s.write(ctx, f, "position", index)
}

// SetType changes the field's variant. A template may carry at most one
// image-typed field among its non-deleted fields.
func (s *FieldService) SetType(ctx context.Context, f *models.Field, tag string) error {
	ft, err := models.ParseFieldType(tag)
	if err != nil {
		return validationf("field type must be one of text, number, image")
	}
	if ft.Tag() == models.TypeImage {
		exists, err := s.store.HasImageField(ctx, f.TemplateID, f.ID)
		if err != nil {
			return err
		}
		if exists {
			return validationf("this template already has an image field")
		}
	}
	return s.write(ctx, f, "field_type", ft.Tag())
}

// Delete soft-deletes a field: it disappears from listings and rendering
// but stays resolvable for existing filled values.
func (s *FieldService) Delete(ctx context.Context, f *models.Field) error {
	if err := s.store.SoftDeleteField(ctx, f.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	_, err := s.cache.RefreshField(ctx, f.ID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	return err
}

func (s *FieldService) write(ctx context.Context, f *models.Field, column string, value any) error {
	if err := s.store.UpdateFieldAttr(ctx, f.ID, column, value); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	_, err := s.cache.RefreshField(ctx, f.ID)
	return err
}

func validateFieldName(name string, limits Limits) error {
	if len(name) < 1 || len(name) > limits.FieldNameLimit() {
		return validationf("field name must be 1-%d characters", limits.FieldNameLimit())
	}
	return nil
}

// validatePrompt accepts any non-empty text. Expression-shaped text that
// does not parse is stored anyway with a warning.
func validatePrompt(prompt string) (string, error) {
	if len(prompt) < 1 {
		return "", validationf("prompt must not be empty")
	}
	if expr.IsExpression(prompt) && !expr.IsValid(prompt) {
		return WarnMalformedExpression, nil
	}
	return "", nil
}

// isExpressionBacked reports whether the field's prompt is a valid
// expression: such fields render computed values and are exempt from the
// interactive optional/timeout attributes.
func isExpressionBacked(f *models.Field) bool {
	return expr.IsExpression(f.Prompt) && expr.IsValid(f.Prompt)
}
