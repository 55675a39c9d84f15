package handlers

import (
	"context"

	"github.com/alenk/profilio-api/internal/middleware"
	"github.com/alenk/profilio-api/internal/services"
	"github.com/alenk/profilio-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SessionHandler struct {
	sessions *services.SessionManager
}

func NewSessionHandler(sessions *services.SessionManager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

func (h *SessionHandler) Begin(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}

	guildID := c.Param("guildId")
	if guildID == "" {
		c.BadRequest("guild id is required")
		return
	}

	var req dto.BeginSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Template == "" {
		c.BadRequest("template is required")
		return
	}

	ctx := context.Background()
	session, err := h.sessions.Begin(ctx, guildID, req.Template, userID, middleware.HasManage(c))
	if err != nil {
		respondServiceError(c, err, "failed to begin edit session")
		return
	}

	_ = c.JSON(201, sessionResponse(session, session.Describe()))
}

func (h *SessionHandler) Get(c *drift.Context) {
	session, ok := h.resolve(c)
	if !ok {
		return
	}
	_ = c.JSON(200, sessionResponse(session, session.Describe()))
}

// Select consumes a selection input: an attribute, a field reference, "new",
// "back" or "done".
func (h *SessionHandler) Select(c *drift.Context) {
	session, ok := h.resolve(c)
	if !ok {
		return
	}

	var req dto.SessionInputRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	out, err := session.Select(context.Background(), req.Input)
	if err != nil {
		respondServiceError(c, err, "failed to process selection")
		return
	}
	_ = c.JSON(200, sessionResponse(session, out))
}

// Submit consumes the value for the attribute being edited.
func (h *SessionHandler) Submit(c *drift.Context) {
	session, ok := h.resolve(c)
	if !ok {
		return
	}

	var req dto.SessionInputRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	out, err := session.Submit(context.Background(), req.Input)
	if err != nil {
		respondServiceError(c, err, "failed to save value")
		return
	}
	_ = c.JSON(200, sessionResponse(session, out))
}

func (h *SessionHandler) Cancel(c *drift.Context) {
	session, ok := h.resolve(c)
	if !ok {
		return
	}
	session.Cancel()
	_ = c.JSON(200, map[string]string{"message": "session cancelled"})
}

// resolve finds the caller's live session. Only the editor who began the
// session may drive it.
func (h *SessionHandler) resolve(c *drift.Context) (*services.Session, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return nil, false
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		c.BadRequest("invalid session id")
		return nil, false
	}

	session, ok := h.sessions.Get(sessionID)
	if !ok {
		c.NotFound("session not found")
		return nil, false
	}
	if session.EditorID != userID {
		c.Forbidden("this session belongs to another editor")
		return nil, false
	}
	return session, true
}

func sessionResponse(s *services.Session, out services.StepOutcome) dto.SessionResponse {
	return dto.SessionResponse{
		SessionID:  s.ID,
		GuildID:    s.GuildID,
		TemplateID: s.TemplateID(),
		State:      string(out.State),
		Attribute:  out.Attribute,
		Prompt:     out.Prompt,
		Clamped:    out.Clamped,
		Warning:    out.Warning,
		Notice:     out.Notice,
	}
}
