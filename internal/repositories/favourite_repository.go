package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type FavouriteRepository interface {
	Create(ctx context.Context, f *models.Favourite) error
	DeleteByPropertyAndUser(ctx context.Context, propertyID uuid.UUID, userID string) (bool, error)
	Exists(ctx context.Context, propertyID uuid.UUID, userID string) (bool, error)

	// FilterFavourited returns which of the given property ids the user has
	// favourited, for decorating search results.
	FilterFavourited(ctx context.Context, userID string, propertyIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	// ListActivePropertiesByUser returns the user's favourited properties
	// that are still active, newest first.
	ListActivePropertiesByUser(ctx context.Context, userID string) ([]*models.Property, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type favouriteRepo struct {
	db DB
}

func NewFavouriteRepository(db DB) FavouriteRepository {
	return &favouriteRepo{db: db}
}

func (r *favouriteRepo) Create(ctx context.Context, f *models.Favourite) error {
	// A concurrent double-toggle can race; the unique index makes the
	// second insert a no-op rather than a duplicate row.
	_, err := r.db.Exec(ctx, `
        INSERT INTO favourites (id, user_id, property_id, created_at)
        VALUES ($1,$2,$3, NOW())
        ON CONFLICT (user_id, property_id) DO NOTHING
    `,
		f.ID,
		f.UserID,
		f.PropertyID,
	)
	return err
}

func (r *favouriteRepo) DeleteByPropertyAndUser(ctx context.Context, propertyID uuid.UUID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        DELETE FROM favourites WHERE property_id=$1 AND user_id=$2
    `, propertyID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *favouriteRepo) Exists(ctx context.Context, propertyID uuid.UUID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM favourites WHERE property_id=$1 AND user_id=$2
        )
    `, propertyID, userID).Scan(&exists)
	return exists, err
}

func (r *favouriteRepo) FilterFavourited(ctx context.Context, userID string, propertyIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	if len(propertyIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `
        SELECT property_id FROM favourites
        WHERE user_id=$1 AND property_id = ANY($2)
    `, userID, propertyIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *favouriteRepo) ListActivePropertiesByUser(ctx context.Context, userID string) ([]*models.Property, error) {
	rows, err := r.db.Query(ctx, baseSelectProperty()+`
        JOIN favourites f ON f.property_id = p.id
        WHERE f.user_id=$1 AND p.is_active
        ORDER BY p.created_at DESC, p.id DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProperties(rows)
}
