package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS templates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		guild_id VARCHAR(32) NOT NULL,
		name VARCHAR(30) NOT NULL,
		colour INTEGER NOT NULL DEFAULT 0,
		verification_destination TEXT,
		archive_destination TEXT,
		grant_id TEXT,
		max_profile_count INTEGER NOT NULL DEFAULT 1,
		max_field_count INTEGER NOT NULL DEFAULT 10,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Template names are unique per guild, case-insensitively. The index is
	// the cross-process backstop; services re-check at commit time.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_guild_name
		ON templates (guild_id, LOWER(name))`,

	`CREATE TABLE IF NOT EXISTS fields (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		template_id UUID NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		name VARCHAR(256) NOT NULL,
		prompt TEXT NOT NULL,
		timeout INTEGER NOT NULL DEFAULT 120,
		field_type VARCHAR(20) NOT NULL DEFAULT 'text',
		optional BOOLEAN NOT NULL DEFAULT FALSE,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_fields_template_id ON fields(template_id)`,

	`CREATE TABLE IF NOT EXISTS created_profiles (
		owner_user_id VARCHAR(32) NOT NULL,
		template_id UUID NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
		name VARCHAR(30) NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (owner_user_id, template_id, name)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_created_profiles_template_id ON created_profiles(template_id)`,

	// Filled values reference fields directly. Fields are soft-deleted, so
	// these rows stay resolvable after a field is removed from a template.
	`CREATE TABLE IF NOT EXISTS filled_fields (
		owner_user_id VARCHAR(32) NOT NULL,
		field_id UUID NOT NULL REFERENCES fields(id) ON DELETE CASCADE,
		value TEXT,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (owner_user_id, field_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_filled_fields_field_id ON filled_fields(field_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
