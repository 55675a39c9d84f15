package services

import (
	"context"
	"errors"
	"strings"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/google/uuid"
)

type ProfileService struct {
	store     *store.Store
	cache     *cache.EntityCache
	assembler *AssemblerService
	notifier  Notifier
	granter   RoleGranter
}

func NewProfileService(st *store.Store, c *cache.EntityCache, assembler *AssemblerService, notifier Notifier, granter RoleGranter) *ProfileService {
	return &ProfileService{store: st, cache: c, assembler: assembler, notifier: notifier, granter: granter}
}

// Create registers a new profile instance for a user. The per-user instance
// ceiling is the template's max_profile_count; the (owner, template, name)
// key must be free.
func (s *ProfileService) Create(ctx context.Context, t *models.Template, ownerUserID, name string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > models.ProfileNameMaxLen {
		return nil, validationf("profile name must be 1-%d characters", models.ProfileNameMaxLen)
	}

	count, err := s.store.CountProfiles(ctx, ownerUserID, t.ID)
	if err != nil {
		return nil, err
	}
	if count >= t.MaxProfileCount {
		return nil, validationf("you already have the maximum of %d profiles for this template", t.MaxProfileCount)
	}

	if _, err := s.store.ProfileByKey(ctx, ownerUserID, t.ID, name); err == nil {
		return nil, validationf("you already have a profile named %q for this template", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	p, err := s.store.CreateProfile(ctx, ownerUserID, t.ID, name)
	if err != nil {
		return nil, err
	}
	key := cache.ProfileKey{OwnerUserID: ownerUserID, TemplateID: t.ID, Name: name}
	if _, err := s.cache.RefreshProfile(ctx, key); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, key cache.ProfileKey) (*models.Profile, error) {
	p, err := s.cache.Profile(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// SetValue validates and stores one filled value through the field's type
// rule. A nil value clears an optional field; required fields reject it.
func (s *ProfileService) SetValue(ctx context.Context, ownerUserID string, fieldID uuid.UUID, raw *string) (*models.FilledField, error) {
	f, err := s.cache.Field(ctx, fieldID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if f.Deleted {
		return nil, ErrNotFound
	}

	var stored *string
	if raw == nil {
		if !f.Optional {
			return nil, validationf("field %q is required", f.Name)
		}
	} else if expr.IsExpression(*raw) && expr.IsValid(*raw) {
		// Conditional values bypass the type rule: they are evaluated per
		// viewer at render time, not stored as a typed value.
		v := *raw
		stored = &v
	} else {
		value, err := f.Type.Validate(*raw)
		if err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
		v := f.Type.Serialize(value)
		stored = &v
	}

	ff, err := s.store.UpsertFilledField(ctx, ownerUserID, fieldID, stored)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateFilledFields(ownerUserID, f.TemplateID)
	return ff, nil
}

// Delete removes a profile. Only the owner or a managing moderator may do
// it.
func (s *ProfileService) Delete(ctx context.Context, key cache.ProfileKey, callerID string, callerManages bool) error {
	if key.OwnerUserID != callerID && !callerManages {
		return ErrPermissionDenied
	}
	if err := s.store.DeleteProfile(ctx, key.OwnerUserID, key.TemplateID, key.Name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.cache.InvalidateProfile(key)
	s.cache.InvalidateFilledFields(key.OwnerUserID, key.TemplateID)
	return nil
}

// DeliveryOutcome reports the best-effort side effects of a verification or
// archive action. The profile write itself always sticks; Notices collects
// whatever did not.
type DeliveryOutcome struct {
	Delivered bool     `json:"delivered"`
	Granted   bool     `json:"granted"`
	Notices   []string `json:"notices,omitempty"`
}

// Verify marks a profile verified, then best-effort: renders it, delivers it
// to the verification destination and grants the configured role. Delivery
// or grant failures are reported as notices, never rolled back — the write
// that matters has already succeeded.
func (s *ProfileService) Verify(ctx context.Context, t *models.Template, profile *models.Profile, ownerRoles expr.RoleSet) (*DeliveryOutcome, error) {
	if err := s.store.SetProfileVerified(ctx, profile.OwnerUserID, t.ID, profile.Name, true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	key := cache.ProfileKey{OwnerUserID: profile.OwnerUserID, TemplateID: t.ID, Name: profile.Name}
	refreshed, err := s.cache.RefreshProfile(ctx, key)
	if err != nil {
		return nil, err
	}

	outcome := &DeliveryOutcome{}

	rows, err := s.assembler.Build(ctx, refreshed, ownerRoles)
	if err != nil {
		outcome.Notices = append(outcome.Notices, "could not assemble profile for delivery")
		return outcome, nil
	}

	if t.VerificationDestination == nil {
		outcome.Notices = append(outcome.Notices, "no verification destination configured")
	} else if dest, err := expr.EvaluateText(*t.VerificationDestination, ownerRoles); err != nil {
		outcome.Notices = append(outcome.Notices, "verification destination is a malformed expression")
	} else if err := s.notifier.NotifyVerified(ctx, t.GuildID, dest, refreshed, rows); err != nil {
		outcome.Notices = append(outcome.Notices, "verification notice could not be delivered")
	} else {
		outcome.Delivered = true
	}

	if t.GrantID != nil {
		if roleID, err := expr.EvaluateText(*t.GrantID, ownerRoles); err != nil {
			outcome.Notices = append(outcome.Notices, "grant id is a malformed expression")
		} else if err := s.granter.Grant(ctx, t.GuildID, profile.OwnerUserID, roleID); err != nil {
			outcome.Notices = append(outcome.Notices, "role grant failed")
		} else {
			outcome.Granted = true
		}
	}

	return outcome, nil
}

// Archive delivers the rendered profile to the archive destination. Like
// verification delivery it is at-most-once and best-effort.
func (s *ProfileService) Archive(ctx context.Context, t *models.Template, profile *models.Profile, ownerRoles expr.RoleSet) (*DeliveryOutcome, error) {
	outcome := &DeliveryOutcome{}

	rows, err := s.assembler.Build(ctx, profile, ownerRoles)
	if err != nil {
		outcome.Notices = append(outcome.Notices, "could not assemble profile for delivery")
		return outcome, nil
	}

	if t.ArchiveDestination == nil {
		outcome.Notices = append(outcome.Notices, "no archive destination configured")
		return outcome, nil
	}
	dest, err := expr.EvaluateText(*t.ArchiveDestination, ownerRoles)
	if err != nil {
		outcome.Notices = append(outcome.Notices, "archive destination is a malformed expression")
		return outcome, nil
	}
	if err := s.notifier.NotifyArchived(ctx, t.GuildID, dest, profile, rows); err != nil {
		outcome.Notices = append(outcome.Notices, "archive notice could not be delivered")
		return outcome, nil
	}
	outcome.Delivered = true
	return outcome, nil
}
