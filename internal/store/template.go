package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alenk/profilio-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const templateColumns = `id, guild_id, name, colour, verification_destination, archive_destination, grant_id, max_profile_count, max_field_count, created_at, updated_at`

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var t models.Template
	err := row.Scan(
		&t.ID, &t.GuildID, &t.Name, &t.Colour,
		&t.VerificationDestination, &t.ArchiveDestination, &t.GrantID,
		&t.MaxProfileCount, &t.MaxFieldCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTemplate(ctx context.Context, guildID, name string, maxProfiles, maxFields int) (*models.Template, error) {
	return scanTemplate(s.db.Pool.QueryRow(ctx, `
		INSERT INTO templates (guild_id, name, max_profile_count, max_field_count)
		VALUES ($1, $2, $3, $4)
		RETURNING `+templateColumns+`
	`, guildID, name, maxProfiles, maxFields))
}

func (s *Store) TemplateByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return scanTemplate(s.db.Pool.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM templates WHERE id = $1
	`, id))
}

// TemplateByName resolves a template by guild and case-insensitive name.
func (s *Store) TemplateByName(ctx context.Context, guildID, name string) (*models.Template, error) {
	return scanTemplate(s.db.Pool.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM templates
		WHERE guild_id = $1 AND LOWER(name) = LOWER($2)
	`, guildID, name))
}

func (s *Store) TemplatesByGuild(ctx context.Context, guildID string) ([]models.Template, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+templateColumns+` FROM templates
		WHERE guild_id = $1
		ORDER BY LOWER(name) ASC
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *Store) CountTemplates(ctx context.Context, guildID string) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM templates WHERE guild_id = $1
	`, guildID).Scan(&n)
	return n, err
}

// UpdateTemplateAttr writes one template attribute. Each call is its own
// atomic write; the column set is closed to what the edit session can touch.
func (s *Store) UpdateTemplateAttr(ctx context.Context, id uuid.UUID, column string, value any) error {
	switch column {
	case "name", "colour", "verification_destination", "archive_destination",
		"grant_id", "max_profile_count", "max_field_count":
	default:
		return fmt.Errorf("template attribute %q is not editable", column)
	}
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE templates SET `+column+` = $1, updated_at = NOW() WHERE id = $2
	`, value, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
