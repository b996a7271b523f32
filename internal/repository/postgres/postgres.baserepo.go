package postgres

import (
	"context"

	"github.com/smartir/hub/internal/database"
	"github.com/smartir/hub/internal/errors"
)

// baseRepo carries the shared DB handle and transaction plumbing for the
// postgres repositories.
type baseRepo struct {
	db database.DB
}

func (r *baseRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to begin transaction", err)
	}
	return tx, nil
}

func (r *baseRepo) Ping(ctx context.Context) error {
	if err := r.db.GetDB().PingContext(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}

// initSchema runs the given DDL statements in order. Repositories create
// their own tables on construction, so a fresh database is usable without a
// separate migration step.
func (r *baseRepo) initSchema(queries []string) error {
	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}
