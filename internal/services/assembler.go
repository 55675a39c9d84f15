package services

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/models"
	"github.com/google/uuid"
)

// InlineLimit is the rendered-text length at or below which a row gets the
// "inline" layout hint. Readers lay out cards around this contract.
const InlineLimit = 100

const (
	LayoutInline = "inline"
	LayoutBlock  = "block"
)

// Row is one rendered line of an assembled profile.
type Row struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Layout string `json:"layout"`
	Image  bool   `json:"image"`
}

// AssemblerService merges a profile's template metadata, field order and
// filled values into an ordered, renderable view. It reads only cached state
// and has no side effects.
type AssemblerService struct {
	cache *cache.EntityCache
}

func NewAssemblerService(c *cache.EntityCache) *AssemblerService {
	return &AssemblerService{cache: c}
}

// Build renders a profile for a viewer. Effective fields are the non-deleted
// fields with a non-null filled value, ordered by field index with field id
// as the deterministic tie-break. Expression-shaped values evaluate against
// the viewer's role set; a profile with no effective fields still renders a
// single identifying row.
func (s *AssemblerService) Build(ctx context.Context, profile *models.Profile, viewer expr.RoleSet) ([]Row, error) {
	template, err := s.cache.Template(ctx, profile.TemplateID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields, err := s.cache.FieldsByTemplate(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	filled, err := s.cache.FilledFields(ctx, profile.OwnerUserID, template.ID)
	if err != nil {
		return nil, err
	}

	values := make(map[uuid.UUID]string, len(filled))
	for _, ff := range filled {
		if ff.Value != nil {
			values[ff.FieldID] = *ff.Value
		}
	}

	effective := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if f.Deleted {
			continue
		}
		if _, ok := values[f.ID]; ok {
			effective = append(effective, f)
		}
	}
	sort.SliceStable(effective, func(i, j int) bool {
		if effective[i].Index != effective[j].Index {
			return effective[i].Index < effective[j].Index
		}
		return bytes.Compare(effective[i].ID[:], effective[j].ID[:]) < 0
	})

	if len(effective) == 0 {
		return []Row{{
			Label:  template.Name,
			Value:  ownerReference(profile),
			Layout: LayoutInline,
		}}, nil
	}

	rows := make([]Row, 0, len(effective))
	for _, f := range effective {
		raw := values[f.ID]

		if f.Type.Tag() == models.TypeImage {
			rows = append(rows, Row{Label: f.Name, Value: raw, Layout: LayoutBlock, Image: true})
			continue
		}

		value := raw
		if expr.IsExpression(raw) {
			e, err := expr.Parse(raw)
			if err != nil {
				// Malformed expressions are a reportable state, never
				// silently shown as literal text.
				value = "[malformed expression]"
			} else {
				value = e.Evaluate(viewer)
			}
		}

		layout := LayoutBlock
		if len(value) <= InlineLimit {
			layout = LayoutInline
		}
		rows = append(rows, Row{Label: f.Name, Value: value, Layout: layout})
	}
	return rows, nil
}

func ownerReference(p *models.Profile) string {
	return "profile " + p.Name + " of user " + p.OwnerUserID
}
