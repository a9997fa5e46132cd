package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fieldops-api/internal/models"
)

const personColumns = `id, COALESCE(nombres, '') AS nombres, COALESCE(apellidos, '') AS apellidos`

// ProfileRepository reads accounts from the usuario table.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID returns a profile by identifier. sql.ErrNoRows is returned untouched when absent.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	const query = `SELECT id, COALESCE(rol_id, 0) AS rol_id, COALESCE(nombres, '') AS nombres, COALESCE(apellidos, '') AS apellidos FROM usuario WHERE id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &profile, nil
}

// FindWorker returns the worker account with the given id.
func (r *ProfileRepository) FindWorker(ctx context.Context, id string) (*models.WorkerRef, error) {
	query := `SELECT ` + personColumns + ` FROM usuario WHERE id = $1 LIMIT 1`
	var worker models.WorkerRef
	if err := r.db.GetContext(ctx, &worker, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find worker: %w", err)
	}
	return &worker, nil
}

// ListUnitsOwnedBy returns the unit leads created by ownerID.
func (r *ProfileRepository) ListUnitsOwnedBy(ctx context.Context, ownerID string) ([]models.UnitRef, error) {
	var units []models.UnitRef
	if err := r.db.SelectContext(ctx, &units, ownedByQuery, ownerID, models.RoleIDUnitLead); err != nil {
		return nil, fmt.Errorf("list units owned by %s: %w", ownerID, err)
	}
	return units, nil
}

// ListWorkersOwnedBy returns the workers created by ownerID.
func (r *ProfileRepository) ListWorkersOwnedBy(ctx context.Context, ownerID string) ([]models.WorkerRef, error) {
	var workers []models.WorkerRef
	if err := r.db.SelectContext(ctx, &workers, ownedByQuery, ownerID, models.RoleIDWorker); err != nil {
		return nil, fmt.Errorf("list workers owned by %s: %w", ownerID, err)
	}
	return workers, nil
}

const ownedByQuery = `SELECT ` + personColumns + ` FROM usuario WHERE "creadoPor" = $1 AND rol_id = $2 ORDER BY nombres, apellidos, id`
