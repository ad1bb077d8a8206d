// Package service holds operations that span more than one desk call: CSV
// imports and store maintenance.
package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/admindesk/internal/database"
)

// MaintenanceService houses destructive actions on the sqlite store.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset deletes every person. It keeps the schema intact so the store can be
// reseeded or used straight away.
func (s *MaintenanceService) Reset(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	var removed int64
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM people")
		if err != nil {
			return fmt.Errorf("reset people: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	}); err != nil {
		return 0, err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return removed, nil
}
