package testutil

import (
	"context"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTemplateService mocks the TemplateService
type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Create(ctx context.Context, guildID, name string) (*models.Template, error) {
	args := m.Called(ctx, guildID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockTemplateService) Resolve(ctx context.Context, guildID, ref string) (*models.Template, error) {
	args := m.Called(ctx, guildID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockTemplateService) ResolveField(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Field), args.Error(1)
}

func (m *MockTemplateService) Summaries(ctx context.Context, guildID string) ([]services.TemplateSummary, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.TemplateSummary), args.Error(1)
}

func (m *MockTemplateService) Describe(ctx context.Context, t *models.Template) (*services.TemplateDetail, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TemplateDetail), args.Error(1)
}

func (m *MockTemplateService) Delete(ctx context.Context, t *models.Template) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockProfileService mocks the ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Create(ctx context.Context, t *models.Template, ownerUserID, name string) (*models.Profile, error) {
	args := m.Called(ctx, t, ownerUserID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Get(ctx context.Context, key cache.ProfileKey) (*models.Profile, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) SetValue(ctx context.Context, ownerUserID string, fieldID uuid.UUID, raw *string) (*models.FilledField, error) {
	args := m.Called(ctx, ownerUserID, fieldID, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FilledField), args.Error(1)
}

func (m *MockProfileService) Delete(ctx context.Context, key cache.ProfileKey, callerID string, callerManages bool) error {
	args := m.Called(ctx, key, callerID, callerManages)
	return args.Error(0)
}

func (m *MockProfileService) Verify(ctx context.Context, t *models.Template, profile *models.Profile, ownerRoles expr.RoleSet) (*services.DeliveryOutcome, error) {
	args := m.Called(ctx, t, profile, ownerRoles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DeliveryOutcome), args.Error(1)
}

func (m *MockProfileService) Archive(ctx context.Context, t *models.Template, profile *models.Profile, ownerRoles expr.RoleSet) (*services.DeliveryOutcome, error) {
	args := m.Called(ctx, t, profile, ownerRoles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DeliveryOutcome), args.Error(1)
}

// MockAssembler mocks the AssemblerService
type MockAssembler struct {
	mock.Mock
}

func (m *MockAssembler) Build(ctx context.Context, profile *models.Profile, viewer expr.RoleSet) ([]services.Row, error) {
	args := m.Called(ctx, profile, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.Row), args.Error(1)
}
