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

type LocationRepository interface {
	Create(ctx context.Context, l *models.Location) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	GetByName(ctx context.Context, name string) (*models.Location, error)
	List(ctx context.Context) ([]*models.Location, error)
	Count(ctx context.Context) (int, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type locationRepo struct {
	db DB
}

func NewLocationRepository(db DB) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) Create(ctx context.Context, l *models.Location) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO locations (id, name, city, image_url, created_at)
        VALUES ($1,$2,$3,$4, NOW())
    `,
		l.ID,
		l.Name,
		l.City,
		l.ImageURL,
	)
	return err
}

func (r *locationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	row := r.db.QueryRow(ctx, baseSelectLocation()+" WHERE id=$1", id)
	return scanLocation(row)
}

// GetByName matches case-insensitively, supporting the lazy find-or-create
// of locations typed in by admins.
func (r *locationRepo) GetByName(ctx context.Context, name string) (*models.Location, error) {
	row := r.db.QueryRow(ctx, baseSelectLocation()+" WHERE lower(name) = lower($1)", name)
	return scanLocation(row)
}

func (r *locationRepo) List(ctx context.Context) ([]*models.Location, error) {
	rows, err := r.db.Query(ctx, baseSelectLocation()+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *locationRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM locations`).Scan(&n)
	return n, err
}

func baseSelectLocation() string {
	return `
        SELECT id, name, city, image_url, created_at
        FROM locations
    `
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	var l models.Location
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.City,
		&l.ImageURL,
		&l.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
