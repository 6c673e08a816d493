package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/rentora/listings-service/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PropertyImageRepository interface {
	Create(ctx context.Context, img *models.PropertyImage) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error)
	ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error)

	Delete(ctx context.Context, id uuid.UUID) error
	SetMain(ctx context.Context, propertyID, imageID uuid.UUID) error
	EnsureMain(ctx context.Context, propertyID uuid.UUID) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type propertyImageRepo struct {
	db DB
}

func NewPropertyImageRepository(db DB) PropertyImageRepository {
	return &propertyImageRepo{db: db}
}

func (r *propertyImageRepo) Create(ctx context.Context, img *models.PropertyImage) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO property_images (
            id, property_id, image_url, webp_url, is_main, created_at
        ) VALUES ($1,$2,$3,$4,$5, NOW())
    `,
		img.ID,
		img.PropertyID,
		img.ImageURL,
		img.WebpURL,
		img.IsMain,
	)
	return err
}

func (r *propertyImageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error) {
	row := r.db.QueryRow(ctx, baseSelectPropertyImage()+" WHERE id=$1", id)
	return scanPropertyImage(row)
}

func (r *propertyImageRepo) ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error) {
	rows, err := r.db.Query(ctx, baseSelectPropertyImage()+" WHERE property_id=$1 ORDER BY created_at, id", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PropertyImage
	for rows.Next() {
		img, err := scanPropertyImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *propertyImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM property_images WHERE id=$1`, id)
	return err
}

// SetMain flags one image of a property as main and clears the flag on all
// its siblings in a single statement, so the invariant cannot be observed
// half-applied.
func (r *propertyImageRepo) SetMain(ctx context.Context, propertyID, imageID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE property_images
        SET is_main = (id = $2), updated_at = NOW()
        WHERE property_id = $1
    `, propertyID, imageID)
	return err
}

// EnsureMain promotes the oldest image to main if the property has images
// but none flagged. Run as a final pass after every image mutation.
func (r *propertyImageRepo) EnsureMain(ctx context.Context, propertyID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE property_images SET is_main = TRUE, updated_at = NOW()
        WHERE id = (
            SELECT id FROM property_images
            WHERE property_id = $1
            ORDER BY created_at, id
            LIMIT 1
        )
        AND NOT EXISTS (
            SELECT 1 FROM property_images WHERE property_id = $1 AND is_main
        )
    `, propertyID)
	return err
}

func baseSelectPropertyImage() string {
	return `
        SELECT id, property_id, image_url, webp_url, is_main, created_at, updated_at
        FROM property_images
    `
}

func scanPropertyImage(row pgx.Row) (*models.PropertyImage, error) {
	var img models.PropertyImage
	err := row.Scan(
		&img.ID,
		&img.PropertyID,
		&img.ImageURL,
		&img.WebpURL,
		&img.IsMain,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &img, nil
}
