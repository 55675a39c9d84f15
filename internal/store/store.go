// Package store is the persistence adapter: parameterized SQL against the
// relational store, one transactional call per method. It owns durable state;
// the entity cache layered above it is always rebuildable from here.
package store

import (
	"errors"

	"github.com/alenk/profilio-api/internal/database"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}
