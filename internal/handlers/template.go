package handlers

import (
	"context"

	"github.com/alenk/profilio-api/internal/middleware"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type TemplateHandler struct {
	templateService TemplateServiceInterface
}

func NewTemplateHandler(templateService TemplateServiceInterface) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

func (h *TemplateHandler) List(c *drift.Context) {
	guildID := c.Param("guildId")
	if guildID == "" {
		c.BadRequest("guild id is required")
		return
	}

	ctx := context.Background()
	summaries, err := h.templateService.Summaries(ctx, guildID)
	if err != nil {
		c.InternalServerError("failed to list templates")
		return
	}

	_ = c.JSON(200, summaries)
}

func (h *TemplateHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}
	if !middleware.HasManage(c) {
		c.Forbidden("template management permission required")
		return
	}

	guildID := c.Param("guildId")
	if guildID == "" {
		c.BadRequest("guild id is required")
		return
	}

	var req dto.CreateTemplateRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := context.Background()
	template, err := h.templateService.Create(ctx, guildID, req.Name)
	if err != nil {
		respondServiceError(c, err, "failed to create template")
		return
	}

	_ = c.JSON(201, templateResponse(template))
}

func (h *TemplateHandler) Get(c *drift.Context) {
	guildID := c.Param("guildId")
	ref := c.Param("templateRef")
	if guildID == "" || ref == "" {
		c.BadRequest("guild id and template are required")
		return
	}

	ctx := context.Background()
	template, err := h.templateService.Resolve(ctx, guildID, ref)
	if err != nil {
		respondServiceError(c, err, "failed to resolve template")
		return
	}

	detail, err := h.templateService.Describe(ctx, template)
	if err != nil {
		c.InternalServerError("failed to describe template")
		return
	}

	_ = c.JSON(200, detail)
}

func (h *TemplateHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}
	if !middleware.HasManage(c) {
		c.Forbidden("template management permission required")
		return
	}

	guildID := c.Param("guildId")
	ref := c.Param("templateRef")
	if guildID == "" || ref == "" {
		c.BadRequest("guild id and template are required")
		return
	}

	ctx := context.Background()
	template, err := h.templateService.Resolve(ctx, guildID, ref)
	if err != nil {
		respondServiceError(c, err, "failed to resolve template")
		return
	}

	if err := h.templateService.Delete(ctx, template); err != nil {
		respondServiceError(c, err, "failed to delete template")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "template deleted"})
}

func templateResponse(t *models.Template) dto.TemplateResponse {
	return dto.TemplateResponse{
		ID:                      t.ID,
		GuildID:                 t.GuildID,
		Name:                    t.Name,
		Colour:                  t.Colour,
		VerificationDestination: t.VerificationDestination,
		ArchiveDestination:      t.ArchiveDestination,
		GrantID:                 t.GrantID,
		MaxProfileCount:         t.MaxProfileCount,
		MaxFieldCount:           t.MaxFieldCount,
		CreatedAt:               t.CreatedAt,
		UpdatedAt:               t.UpdatedAt,
	}
}
