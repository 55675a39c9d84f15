package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/events"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/google/uuid"
)

// Session states. A field-level edit nests the same select/edit shape one
// level deeper.
type SessionState string

const (
	StateSelectingAttribute      SessionState = "selecting_attribute"
	StateEditingAttribute        SessionState = "editing_attribute"
	StateSelectingField          SessionState = "selecting_field"
	StateSelectingFieldAttribute SessionState = "selecting_field_attribute"
	StateEditingFieldAttribute   SessionState = "editing_field_attribute"
	StateClosed                  SessionState = "closed"
)

// Session end reasons.
const (
	EndDone      = "done"
	EndCancelled = "cancelled"
	EndTimeout   = "timeout"
)

// Template attributes the session can edit.
const (
	attrName        = "name"
	attrColour      = "colour"
	attrVerify      = "verification"
	attrArchive     = "archive"
	attrGrant       = "grant"
	attrMaxProfiles = "max_profiles"
	attrMaxFields   = "max_fields"
)

// Field attributes, plus the two-step new-field chain.
const (
	fattrName      = "name"
	fattrPrompt    = "prompt"
	fattrTimeout   = "timeout"
	fattrOptional  = "optional"
	fattrType      = "type"
	fattrIndex     = "index"
	fattrNewName   = "new_name"
	fattrNewPrompt = "new_prompt"
)

// StepOutcome is what one session step reports back to the transport.
type StepOutcome struct {
	State     SessionState `json:"state"`
	Attribute string       `json:"attribute,omitempty"`
	Prompt    string       `json:"prompt"`
	Clamped   bool         `json:"clamped,omitempty"`
	Warning   string       `json:"warning,omitempty"`
	Notice    string       `json:"notice,omitempty"`
}

// SessionManager gates template editing: exactly one live session per guild.
// The lock is guild-wide and process-local; the store's uniqueness
// constraints are the backstop against cross-process races.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	templates   *TemplateService
	fields      *FieldService
	store       *store.Store
	cache       *cache.EntityCache
	limits      LimitsProvider
	hub         *events.Hub
	stepTimeout time.Duration
}

func NewSessionManager(templates *TemplateService, fields *FieldService, st *store.Store, c *cache.EntityCache, limits LimitsProvider, hub *events.Hub, stepTimeout time.Duration) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		templates:   templates,
		fields:      fields,
		store:       st,
		cache:       c,
		limits:      limits,
		hub:         hub,
		stepTimeout: stepTimeout,
	}
}

// Begin opens an edit session for one template. It is rejected iff a session
// is already live for the guild, before any state is touched.
func (m *SessionManager) Begin(ctx context.Context, guildID, templateRef, editorID string, manage bool) (*Session, error) {
	if !manage {
		return nil, ErrPermissionDenied
	}
	t, err := m.templates.Resolve(ctx, guildID, templateRef)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.sessions[guildID]; busy {
		return nil, ErrSessionBusy
	}

	s := &Session{
		ID:       uuid.New(),
		GuildID:  guildID,
		EditorID: editorID,
		mgr:      m,
		template: t,
		state:    StateSelectingAttribute,
	}
	s.timer = time.AfterFunc(m.stepTimeout, s.expire)
	m.sessions[guildID] = s
	return s, nil
}

// Get returns the live session with the given id, if any.
func (m *SessionManager) Get(sessionID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == sessionID {
			return s, true
		}
	}
	return nil, false
}

func (m *SessionManager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.GuildID]; ok && cur == s {
		delete(m.sessions, s.GuildID)
	}
}

// Session is one editor's locked walk through a template's attributes. Every
// step is a bounded wait for exactly one input; a step timeout cancels the
// whole session and releases the guild lock.
type Session struct {
	ID       uuid.UUID
	GuildID  string
	EditorID string

	mgr   *SessionManager
	timer *time.Timer

	mu          sync.Mutex
	state       SessionState
	template    *models.Template
	field       *models.Field
	attr        string
	pendingName string
	endReason   string
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) EndReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

func (s *Session) TemplateID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template.ID
}

// Describe reports the current step without advancing it.
func (s *Session) Describe() StepOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome("", "")
}

// Select consumes a selection input: an attribute name, a field reference,
// "back" or "done". Unknown selections re-prompt without changing state.
func (s *Session) Select(ctx context.Context, input string) (StepOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return StepOutcome{State: StateClosed}, ErrSessionClosed
	}
	defer s.rearm()

	input = strings.ToLower(strings.TrimSpace(input))

	switch s.state {
	case StateSelectingAttribute:
		return s.selectTemplateAttribute(input)
	case StateSelectingField:
		return s.selectField(ctx, input)
	case StateSelectingFieldAttribute:
		return s.selectFieldAttribute(ctx, input)
	default:
		return s.outcome("", ""), validationf("a value is expected, not a selection")
	}
}

// Submit consumes the value for the attribute being edited, commits it as
// its own atomic write, refreshes the cache and returns to selection.
// Validation failures keep the session on the same step.
func (s *Session) Submit(ctx context.Context, value string) (StepOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return StepOutcome{State: StateClosed}, ErrSessionClosed
	}
	defer s.rearm()

	switch s.state {
	case StateEditingAttribute:
		return s.commitTemplateAttribute(ctx, value)
	case StateEditingFieldAttribute:
		return s.commitFieldAttribute(ctx, value)
	default:
		return s.outcome("", ""), validationf("a selection is expected, not a value")
	}
}

// Cancel closes the session and releases the guild lock. Nothing committed
// so far is rolled back: every attribute change was its own atomic write.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.close(EndCancelled)
}

func (s *Session) selectTemplateAttribute(input string) (StepOutcome, error) {
	switch input {
	case attrName, attrColour, attrVerify, attrArchive, attrGrant, attrMaxProfiles, attrMaxFields:
		s.state = StateEditingAttribute
		s.attr = input
		return s.outcome("", ""), nil
	case "fields":
		s.state = StateSelectingField
		return s.outcome("", ""), nil
	case "done":
		s.close(EndDone)
		return StepOutcome{State: StateClosed, Prompt: "editing finished"}, nil
	default:
		return s.outcome("", ""), validationf("unknown attribute %q", input)
	}
}

func (s *Session) selectField(ctx context.Context, input string) (StepOutcome, error) {
	switch input {
	case "back":
		s.state = StateSelectingAttribute
		return s.outcome("", ""), nil
	case "new":
		s.state = StateEditingFieldAttribute
		s.attr = fattrNewName
		return s.outcome("", ""), nil
	}

	fields, err := s.mgr.cache.FieldsByTemplate(ctx, s.template.ID)
	if err != nil {
		return s.outcome("", ""), err
	}
	for i := range fields {
		f := fields[i]
		if strings.EqualFold(f.Name, input) || strconv.Itoa(f.Index) == input {
			s.field = &f
			s.state = StateSelectingFieldAttribute
			return s.outcome("", ""), nil
		}
	}
	return s.outcome("", ""), validationf("no field named or numbered %q", input)
}

func (s *Session) selectFieldAttribute(ctx context.Context, input string) (StepOutcome, error) {
	switch input {
	case "back":
		s.field = nil
		s.state = StateSelectingField
		return s.outcome("", ""), nil
	case fattrName, fattrPrompt, fattrTimeout, fattrOptional, fattrType, fattrIndex:
		s.state = StateEditingFieldAttribute
		s.attr = input
		return s.outcome("", ""), nil
	case "delete":
		// Deletion commits immediately; there is no value to wait for.
		if err := s.mgr.fields.Delete(ctx, s.field); err != nil {
			return s.outcome("", ""), err
		}
		s.broadcast("field deleted")
		s.field = nil
		s.state = StateSelectingField
		return s.outcome("", "field deleted"), nil
	default:
		return s.outcome("", ""), validationf("unknown field attribute %q", input)
	}
}

func (s *Session) commitTemplateAttribute(ctx context.Context, value string) (StepOutcome, error) {
	value = strings.TrimSpace(value)

	switch s.attr {
	case attrName:
		if err := s.mgr.templates.ValidateName(ctx, s.GuildID, value, s.template.ID); err != nil {
			return s.outcome("", ""), err
		}
		// Re-checked immediately before the write: the prompt/commit gap is
		// long enough for another process to take the name.
		if err := s.mgr.templates.ValidateName(ctx, s.GuildID, value, s.template.ID); err != nil {
			s.state = StateSelectingAttribute
			return s.outcome("", ""), err
		}
		return s.writeTemplateAttr(ctx, "name", value, StepOutcome{})

	case attrColour:
		colour, err := parseColour(value)
		if err != nil {
			return s.outcome("", ""), err
		}
		return s.writeTemplateAttr(ctx, "colour", colour, StepOutcome{})

	case attrVerify, attrArchive, attrGrant:
		column := map[string]string{
			attrVerify:  "verification_destination",
			attrArchive: "archive_destination",
			attrGrant:   "grant_id",
		}[s.attr]
		var stored any
		var warning string
		if value == "" || strings.EqualFold(value, "none") {
			stored = nil
		} else {
			stored = value
			if expr.IsExpression(value) && !expr.IsValid(value) {
				// Saved anyway: destination text is user content.
				warning = WarnMalformedExpression
			}
		}
		return s.writeTemplateAttr(ctx, column, stored, StepOutcome{Warning: warning})

	case attrMaxProfiles, attrMaxFields:
		requested, err := strconv.Atoi(value)
		if err != nil || requested < 1 {
			return s.outcome("", ""), validationf("expected a positive number")
		}
		limits, err := s.mgr.limits.Limits(ctx, s.GuildID)
		if err != nil {
			return s.outcome("", ""), err
		}
		ceiling := limits.MaxProfiles
		column := "max_profile_count"
		if s.attr == attrMaxFields {
			ceiling = limits.MaxFields
			column = "max_field_count"
		}
		extra := StepOutcome{}
		stored := requested
		if requested > ceiling {
			stored = ceiling
			extra.Clamped = true
			extra.Notice = "requested " + strconv.Itoa(requested) + " exceeds this guild's ceiling; stored " + strconv.Itoa(ceiling)
		}
		return s.writeTemplateAttr(ctx, column, stored, extra)

	default:
		return s.outcome("", ""), validationf("nothing is being edited")
	}
}

// writeTemplateAttr commits one attribute write, refreshes the cached
// template from store state and returns to attribute selection. Store
// failures (e.g. a uniqueness race the pre-check missed) abort this step
// only; the session stays alive.
func (s *Session) writeTemplateAttr(ctx context.Context, column string, value any, extra StepOutcome) (StepOutcome, error) {
	attr := s.attr
	s.attr = ""
	s.state = StateSelectingAttribute

	if err := s.mgr.store.UpdateTemplateAttr(ctx, s.template.ID, column, value); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.close(EndCancelled)
			return StepOutcome{State: StateClosed}, ErrNotFound
		}
		if column == "name" {
			// A concurrent writer can still win the unique index between the
			// re-check and this write; that aborts the step, not the session.
			return s.outcome("", ""), validationf("could not save name: it conflicts with another template")
		}
		return s.outcome("", ""), err
	}
	t, err := s.mgr.cache.RefreshTemplate(ctx, s.template.ID)
	if err != nil {
		return s.outcome("", ""), err
	}
	s.template = t
	s.broadcast(attr)

	out := s.outcome(attr, extra.Notice)
	out.Clamped = extra.Clamped
	out.Warning = extra.Warning
	return out, nil
}

func (s *Session) commitFieldAttribute(ctx context.Context, value string) (StepOutcome, error) {
	value = strings.TrimSpace(value)
	fields := s.mgr.fields

	switch s.attr {
	case fattrNewName:
		limits, err := s.mgr.limits.Limits(ctx, s.GuildID)
		if err != nil {
			return s.outcome("", ""), err
		}
		if err := validateFieldName(value, limits); err != nil {
			return s.outcome("", ""), err
		}
		s.pendingName = value
		s.attr = fattrNewPrompt
		return s.outcome("", ""), nil

	case fattrNewPrompt:
		f, warning, err := fields.Create(ctx, s.template, s.pendingName, value)
		if err != nil {
			return s.outcome("", ""), err
		}
		s.pendingName = ""
		s.field = f
		s.state = StateSelectingFieldAttribute
		s.broadcast("field created")
		out := s.outcome("field created", "")
		out.Warning = warning
		return out, nil

	case fattrName:
		if err := fields.Rename(ctx, s.field, s.GuildID, value); err != nil {
			return s.outcome("", ""), err
		}

	case fattrPrompt:
		warning, err := fields.SetPrompt(ctx, s.field, value)
		if err != nil {
			return s.outcome("", ""), err
		}
		return s.finishFieldStep(ctx, StepOutcome{Warning: warning})

	case fattrTimeout:
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return s.outcome("", ""), validationf("expected a number of seconds")
		}
		if err := fields.SetTimeout(ctx, s.field, timeout); err != nil {
			return s.outcome("", ""), err
		}

	case fattrOptional:
		optional, err := strconv.ParseBool(value)
		if err != nil {
			return s.outcome("", ""), validationf("expected true or false")
		}
		if err := fields.SetOptional(ctx, s.field, optional); err != nil {
			return s.outcome("", ""), err
		}

	case fattrType:
		if err := fields.SetType(ctx, s.field, value); err != nil {
			return s.outcome("", ""), err
		}

	case fattrIndex:
		index, err := strconv.Atoi(value)
		if err != nil {
			return s.outcome("", ""), validationf("expected a number")
		}
		if err := fields.SetIndex(ctx, s.field, index); err != nil {
			return s.outcome("", ""), err
		}

	default:
		return s.outcome("", ""), validationf("nothing is being edited")
	}

	return s.finishFieldStep(ctx, StepOutcome{})
}

func (s *Session) finishFieldStep(ctx context.Context, extra StepOutcome) (StepOutcome, error) {
	attr := s.attr
	s.attr = ""
	s.state = StateSelectingFieldAttribute

	f, err := s.mgr.cache.Field(ctx, s.field.ID)
	if err != nil {
		return s.outcome("", ""), err
	}
	s.field = f
	s.broadcast("field " + attr)

	out := s.outcome(attr, extra.Notice)
	out.Clamped = extra.Clamped
	out.Warning = extra.Warning
	return out, nil
}

// expire fires when a step's bounded wait elapses: the session cancels
// itself and releases the guild lock. Other sessions are unaffected.
func (s *Session) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.close(EndTimeout)
}

func (s *Session) close(reason string) {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.endReason = reason
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mgr.release(s)
}

func (s *Session) rearm() {
	if s.state != StateClosed && s.timer != nil {
		s.timer.Reset(s.mgr.stepTimeout)
	}
}

func (s *Session) broadcast(attribute string) {
	if s.mgr.hub == nil {
		return
	}
	s.mgr.hub.BroadcastToGuild(s.GuildID, events.Event{
		Type: "template.updated",
		Data: events.TemplateUpdatedData{
			GuildID:    s.GuildID,
			TemplateID: s.template.ID,
			Attribute:  attribute,
			UpdatedBy:  s.EditorID,
		},
	})
}

// outcome snapshots the step the session is waiting on. Callers hold s.mu.
func (s *Session) outcome(committed, notice string) StepOutcome {
	out := StepOutcome{State: s.state, Attribute: s.attr, Notice: notice}
	switch s.state {
	case StateSelectingAttribute:
		out.Prompt = "select an attribute to edit: name, colour, verification, archive, grant, max_profiles, max_fields, fields; or done"
	case StateEditingAttribute:
		out.Prompt = "enter the new value for " + s.attr
	case StateSelectingField:
		out.Prompt = "select a field by name or position, new to add one, or back"
	case StateSelectingFieldAttribute:
		out.Prompt = "select a field attribute: name, prompt, timeout, optional, type, index; delete or back"
	case StateEditingFieldAttribute:
		switch s.attr {
		case fattrNewName:
			out.Prompt = "enter the new field's name"
		case fattrNewPrompt:
			out.Prompt = "enter the new field's prompt"
		default:
			out.Prompt = "enter the new value for " + s.attr
		}
	case StateClosed:
		out.Prompt = "session closed"
	}
	if committed != "" {
		out.Attribute = committed
	}
	return out
}

func parseColour(value string) (int, error) {
	value = strings.TrimPrefix(value, "#")
	if n, err := strconv.ParseInt(value, 16, 32); err == nil && len(value) == 6 {
		return int(n), nil
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 0 {
		return n, nil
	}
	return 0, validationf("expected a colour as #RRGGBB or a non-negative number")
}
