package handlers

import (
	"context"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/middleware"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/services"
	"github.com/alenk/profilio-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ProfileHandler struct {
	templateService TemplateServiceInterface
	profileService  ProfileServiceInterface
	assembler       AssemblerInterface
}

func NewProfileHandler(
	templateService TemplateServiceInterface,
	profileService ProfileServiceInterface,
	assembler AssemblerInterface,
) *ProfileHandler {
	return &ProfileHandler{
		templateService: templateService,
		profileService:  profileService,
		assembler:       assembler,
	}
}

func (h *ProfileHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}

	guildID := c.Param("guildId")
	ref := c.Param("templateRef")
	if guildID == "" || ref == "" {
		c.BadRequest("guild id and template are required")
		return
	}

	var req dto.CreateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := context.Background()
	template, err := h.templateService.Resolve(ctx, guildID, ref)
	if err != nil {
		respondServiceError(c, err, "failed to resolve template")
		return
	}

	profile, err := h.profileService.Create(ctx, template, userID, req.Name)
	if err != nil {
		respondServiceError(c, err, "failed to create profile")
		return
	}

	_ = c.JSON(201, profileResponse(profile))
}

// Get renders a profile for the caller: ordered rows with the caller's roles
// applied to any conditional values.
func (h *ProfileHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}

	key, _, ok := h.resolveKey(c)
	if !ok {
		return
	}

	ctx := context.Background()
	profile, err := h.profileService.Get(ctx, key)
	if err != nil {
		respondServiceError(c, err, "failed to load profile")
		return
	}

	rows, err := h.assembler.Build(ctx, profile, middleware.GetRoles(c))
	if err != nil {
		c.InternalServerError("failed to assemble profile")
		return
	}

	response := dto.RenderedProfileResponse{
		Profile: profileResponse(profile),
		Rows:    make([]dto.RowResponse, len(rows)),
	}
	for i, row := range rows {
		response.Rows[i] = dto.RowResponse{
			Label:  row.Label,
			Value:  row.Value,
			Layout: row.Layout,
			Image:  row.Image,
		}
	}

	_ = c.JSON(200, response)
}

func (h *ProfileHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}

	key, _, ok := h.resolveKey(c)
	if !ok {
		return
	}

	ctx := context.Background()
	if err := h.profileService.Delete(ctx, key, userID, middleware.HasManage(c)); err != nil {
		respondServiceError(c, err, "failed to delete profile")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "profile deleted"})
}

// SetValue writes one of the caller's own filled values.
func (h *ProfileHandler) SetValue(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}

	guildID := c.Param("guildId")
	fieldID, err := uuid.Parse(c.Param("fieldId"))
	if err != nil {
		c.BadRequest("invalid field id")
		return
	}

	var req dto.SetValueRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := context.Background()

	field, err := h.templateService.ResolveField(ctx, fieldID)
	if err != nil {
		respondServiceError(c, err, "failed to resolve field")
		return
	}
	// The template lookup doubles as the guild check.
	if _, err := h.templateService.Resolve(ctx, guildID, field.TemplateID.String()); err != nil {
		respondServiceError(c, err, "failed to resolve field")
		return
	}

	filled, err := h.profileService.SetValue(ctx, userID, fieldID, req.Value)
	if err != nil {
		respondServiceError(c, err, "failed to save value")
		return
	}

	_ = c.JSON(200, dto.FilledFieldResponse{
		OwnerUserID: filled.OwnerUserID,
		FieldID:     filled.FieldID,
		Value:       filled.Value,
		UpdatedAt:   filled.UpdatedAt,
	})
}

// Verify marks a profile verified and triggers best-effort delivery. Requires
// the management permission.
func (h *ProfileHandler) Verify(c *drift.Context) {
	h.deliver(c, func(ctx context.Context, t *models.Template, p *models.Profile, roles []string) (*services.DeliveryOutcome, error) {
		return h.profileService.Verify(ctx, t, p, rolesToSet(roles))
	})
}

// Archive delivers the rendered profile to the archive destination. Requires
// the management permission.
func (h *ProfileHandler) Archive(c *drift.Context) {
	h.deliver(c, func(ctx context.Context, t *models.Template, p *models.Profile, roles []string) (*services.DeliveryOutcome, error) {
		return h.profileService.Archive(ctx, t, p, rolesToSet(roles))
	})
}

func (h *ProfileHandler) deliver(c *drift.Context, action func(context.Context, *models.Template, *models.Profile, []string) (*services.DeliveryOutcome, error)) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}
	if !middleware.HasManage(c) {
		c.Forbidden("template management permission required")
		return
	}

	key, template, ok := h.resolveKey(c)
	if !ok {
		return
	}

	var req dto.DeliveryRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := context.Background()
	profile, err := h.profileService.Get(ctx, key)
	if err != nil {
		respondServiceError(c, err, "failed to load profile")
		return
	}

	outcome, err := action(ctx, template, profile, req.OwnerRoles)
	if err != nil {
		respondServiceError(c, err, "delivery failed")
		return
	}

	_ = c.JSON(200, dto.DeliveryResponse{
		Delivered: outcome.Delivered,
		Granted:   outcome.Granted,
		Notices:   outcome.Notices,
	})
}

func (h *ProfileHandler) resolveKey(c *drift.Context) (cache.ProfileKey, *models.Template, bool) {
	guildID := c.Param("guildId")
	ref := c.Param("templateRef")
	ownerID := c.Param("ownerId")
	name := c.Param("profileName")
	if guildID == "" || ref == "" || ownerID == "" || name == "" {
		c.BadRequest("guild id, template, owner and profile name are required")
		return cache.ProfileKey{}, nil, false
	}

	template, err := h.templateService.Resolve(context.Background(), guildID, ref)
	if err != nil {
		respondServiceError(c, err, "failed to resolve template")
		return cache.ProfileKey{}, nil, false
	}

	return cache.ProfileKey{
		OwnerUserID: ownerID,
		TemplateID:  template.ID,
		Name:        name,
	}, template, true
}

func rolesToSet(roles []string) expr.RoleSet {
	return expr.NewRoleSet(roles...)
}

func profileResponse(p *models.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		OwnerUserID: p.OwnerUserID,
		TemplateID:  p.TemplateID,
		Name:        p.Name,
		Verified:    p.Verified,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
