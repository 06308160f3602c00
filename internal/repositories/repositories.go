package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/vibecast/internal/shared"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// DefaultListLimit bounds list queries when the caller passes a non-positive limit.
const DefaultListLimit = 20

type scanner interface {
	Scan(dest ...any) error
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// Open opens the configured run log, or returns (nil, nil) when it is disabled.
func Open(cfg shared.DatabaseConfig) (*RunRepository, *sql.DB, error) {
	if cfg.Path == "" {
		return nil, nil, nil
	}
	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewRunRepository(db), db, nil
}
