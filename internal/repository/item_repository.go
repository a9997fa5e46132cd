package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/fieldops-api/internal/models"
)

const itemColumns = `id, COALESCE(nombre, '') AS nombre, asignado_a, created_at`

// ItemRepository reads items and their photos.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// ListByWorker returns every item assigned to workerID ordered by name.
func (r *ItemRepository) ListByWorker(ctx context.Context, workerID string) ([]models.ItemSummary, error) {
	query := `SELECT ` + itemColumns + ` FROM suministro WHERE asignado_a = $1 ORDER BY nombre ASC, id ASC`
	var items []models.ItemSummary
	if err := r.db.SelectContext(ctx, &items, query, workerID); err != nil {
		return nil, fmt.Errorf("list items by worker: %w", err)
	}
	return items, nil
}

// ListByWorkersInRange returns the items of any of workerIDs created within [from, to], both ends
// inclusive.
func (r *ItemRepository) ListByWorkersInRange(ctx context.Context, workerIDs []string, from, to time.Time) ([]models.ItemSummary, error) {
	if len(workerIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM suministro WHERE asignado_a = ANY($1) AND created_at >= $2 AND created_at <= $3 ORDER BY nombre ASC, id ASC`
	var items []models.ItemSummary
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(workerIDs), from, to); err != nil {
		return nil, fmt.Errorf("list items in range: %w", err)
	}
	return items, nil
}

// GetWithPhotos returns the item and its photos in creation order. sql.ErrNoRows is returned
// untouched when the item does not exist.
func (r *ItemRepository) GetWithPhotos(ctx context.Context, itemID string) (*models.ItemDetail, error) {
	query := `SELECT ` + itemColumns + ` FROM suministro WHERE id = $1 LIMIT 1`
	var detail models.ItemDetail
	if err := r.db.GetContext(ctx, &detail.ItemSummary, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	photos, err := r.ListPhotos(ctx, itemID)
	if err != nil {
		return nil, err
	}
	detail.Photos = photos
	return &detail, nil
}

// ListPhotos returns the photos of itemID in creation order.
func (r *ItemRepository) ListPhotos(ctx context.Context, itemID string) ([]models.PhotoRef, error) {
	const query = `SELECT id, nombre, direccion FROM fotos WHERE suministro_id = $1 ORDER BY created_at ASC, id ASC`
	var photos []models.PhotoRef
	if err := r.db.SelectContext(ctx, &photos, query, itemID); err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}
