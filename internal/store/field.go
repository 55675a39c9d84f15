package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alenk/profilio-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const fieldColumns = `id, template_id, position, name, prompt, timeout, field_type, optional, deleted, created_at, updated_at`

func scanField(row pgx.Row) (*models.Field, error) {
	var f models.Field
	var tag string
	err := row.Scan(
		&f.ID, &f.TemplateID, &f.Index, &f.Name, &f.Prompt,
		&f.Timeout, &tag, &f.Optional, &f.Deleted, &f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ft, err := models.ParseFieldType(tag)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.ID, err)
	}
	f.Type = ft
	return &f, nil
}

func (s *Store) CreateField(ctx context.Context, templateID uuid.UUID, position int, name, prompt string, timeout int, fieldType models.FieldType, optional bool) (*models.Field, error) {
	return scanField(s.db.Pool.QueryRow(ctx, `
		INSERT INTO fields (template_id, position, name, prompt, timeout, field_type, optional)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+fieldColumns+`
	`, templateID, position, name, prompt, timeout, fieldType.Tag(), optional))
}

// FieldByID resolves a field by id, including soft-deleted fields: filled
// values must stay resolvable after their field is removed from a template.
func (s *Store) FieldByID(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	return scanField(s.db.Pool.QueryRow(ctx, `
		SELECT `+fieldColumns+` FROM fields WHERE id = $1
	`, id))
}

// FieldsByTemplate lists the non-deleted fields of a template in render
// order: position ascending, field id as the deterministic tie-break.
func (s *Store) FieldsByTemplate(ctx context.Context, templateID uuid.UUID) ([]models.Field, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+fieldColumns+` FROM fields
		WHERE template_id = $1 AND deleted = FALSE
		ORDER BY position ASC, id ASC
	`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []models.Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *f)
	}
	return fields, rows.Err()
}

func (s *Store) CountFields(ctx context.Context, templateID uuid.UUID) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM fields WHERE template_id = $1 AND deleted = FALSE
	`, templateID).Scan(&n)
	return n, err
}

// HasImageField reports whether the template already has a non-deleted
// image-typed field other than exclude. A template may carry at most one.
func (s *Store) HasImageField(ctx context.Context, templateID uuid.UUID, exclude uuid.UUID) (bool, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM fields
		WHERE template_id = $1 AND field_type = $2 AND deleted = FALSE AND id <> $3
	`, templateID, models.TypeImage, exclude).Scan(&n)
	return n > 0, err
}

// UpdateFieldAttr writes one field attribute. The column set is closed to
// what the edit session can touch.
func (s *Store) UpdateFieldAttr(ctx context.Context, id uuid.UUID, column string, value any) error {
	switch column {
	case "position", "name", "prompt", "timeout", "field_type", "optional":
	default:
		return fmt.Errorf("field attribute %q is not editable", column)
	}
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE fields SET `+column+` = $1, updated_at = NOW() WHERE id = $2
	`, value, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteField flags a field as deleted. The row survives so existing
// filled values keep resolving.
func (s *Store) SoftDeleteField(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE fields SET deleted = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
