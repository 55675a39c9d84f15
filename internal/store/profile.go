package store

import (
	"context"
	"errors"

	"github.com/alenk/profilio-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `owner_user_id, template_id, name, verified, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.OwnerUserID, &p.TemplateID, &p.Name, &p.Verified, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProfile(ctx context.Context, ownerUserID string, templateID uuid.UUID, name string) (*models.Profile, error) {
	return scanProfile(s.db.Pool.QueryRow(ctx, `
		INSERT INTO created_profiles (owner_user_id, template_id, name)
		VALUES ($1, $2, $3)
		RETURNING `+profileColumns+`
	`, ownerUserID, templateID, name))
}

func (s *Store) ProfileByKey(ctx context.Context, ownerUserID string, templateID uuid.UUID, name string) (*models.Profile, error) {
	return scanProfile(s.db.Pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM created_profiles
		WHERE owner_user_id = $1 AND template_id = $2 AND name = $3
	`, ownerUserID, templateID, name))
}

func (s *Store) ProfilesByOwner(ctx context.Context, ownerUserID string, templateID uuid.UUID) ([]models.Profile, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+profileColumns+` FROM created_profiles
		WHERE owner_user_id = $1 AND template_id = $2
		ORDER BY name ASC
	`, ownerUserID, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *Store) CountProfiles(ctx context.Context, ownerUserID string, templateID uuid.UUID) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM created_profiles
		WHERE owner_user_id = $1 AND template_id = $2
	`, ownerUserID, templateID).Scan(&n)
	return n, err
}

func (s *Store) SetProfileVerified(ctx context.Context, ownerUserID string, templateID uuid.UUID, name string, verified bool) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE created_profiles SET verified = $1, updated_at = NOW()
		WHERE owner_user_id = $2 AND template_id = $3 AND name = $4
	`, verified, ownerUserID, templateID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, ownerUserID string, templateID uuid.UUID, name string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM created_profiles
		WHERE owner_user_id = $1 AND template_id = $2 AND name = $3
	`, ownerUserID, templateID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFilledField(row pgx.Row) (*models.FilledField, error) {
	var ff models.FilledField
	err := row.Scan(&ff.OwnerUserID, &ff.FieldID, &ff.Value, &ff.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ff, nil
}

func (s *Store) UpsertFilledField(ctx context.Context, ownerUserID string, fieldID uuid.UUID, value *string) (*models.FilledField, error) {
	return scanFilledField(s.db.Pool.QueryRow(ctx, `
		INSERT INTO filled_fields (owner_user_id, field_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_user_id, field_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING owner_user_id, field_id, value, updated_at
	`, ownerUserID, fieldID, value))
}

func (s *Store) FilledField(ctx context.Context, ownerUserID string, fieldID uuid.UUID) (*models.FilledField, error) {
	return scanFilledField(s.db.Pool.QueryRow(ctx, `
		SELECT owner_user_id, field_id, value, updated_at FROM filled_fields
		WHERE owner_user_id = $1 AND field_id = $2
	`, ownerUserID, fieldID))
}

// FilledFieldsByOwner lists one user's filled values across a template,
// joined through fields. Deleted fields are included here; readers decide
// what is effective.
func (s *Store) FilledFieldsByOwner(ctx context.Context, ownerUserID string, templateID uuid.UUID) ([]models.FilledField, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT ff.owner_user_id, ff.field_id, ff.value, ff.updated_at
		FROM filled_fields ff
		JOIN fields f ON f.id = ff.field_id
		WHERE ff.owner_user_id = $1 AND f.template_id = $2
	`, ownerUserID, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filled []models.FilledField
	for rows.Next() {
		ff, err := scanFilledField(rows)
		if err != nil {
			return nil, err
		}
		filled = append(filled, *ff)
	}
	return filled, rows.Err()
}
