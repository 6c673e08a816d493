package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/rentora/listings-service/internal/models"
)

/* ------------------------------------------------------------------
   Filter
------------------------------------------------------------------ */

// PropertyFilter is the typed search criteria for tenant-facing listing
// search. Only listable (active + Available) properties are eligible.
type PropertyFilter struct {
	Title           string
	Address         string
	LocationName    string
	LocationID      *uuid.UUID
	MinPrice        *float64
	MaxPrice        *float64
	MinSquareMeters *int
	MaxSquareMeters *int
	Bedrooms        *int
	Bathrooms       *int
	SortBy          string
	Page            int
	PageSize        int
}

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)

	UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error
	Delete(ctx context.Context, id uuid.UUID) error

	Search(ctx context.Context, f PropertyFilter) ([]*models.Property, int, error)
	ListByStatus(ctx context.Context, status *models.PropertyStatus, page, pageSize int) ([]*models.Property, int, error)
	CountByStatus(ctx context.Context) (map[models.PropertyStatus]int, error)
	CountListableByLocation(ctx context.Context) (map[uuid.UUID]int, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type propertyRepo struct {
	*BaseVersionedRepo[*models.Property]
	db DB
}

func NewPropertyRepository(db DB) PropertyRepository {
	r := &propertyRepo{db: db}
	selectStmt := baseSelectProperty() + " WHERE p.id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanProperty)
	return r
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO properties (
            id, title, description, price_per_month, bedrooms, bathrooms,
            square_meters, location_id, address, is_active, status,
            created_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, NOW(), 1)
    `,
		p.ID,
		p.Title,
		p.Description,
		p.PricePerMonth,
		p.Bedrooms,
		p.Bathrooms,
		p.SquareMeters,
		p.LocationID,
		p.Address,
		p.IsActive,
		p.Status,
	)
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *propertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE properties SET
            title=$1, description=$2, price_per_month=$3, bedrooms=$4,
            bathrooms=$5, square_meters=$6, location_id=$7, address=$8,
            is_active=$9, status=$10, updated_at=NOW(),
            row_version=row_version+1
        WHERE id=$11 AND row_version=$12
    `,
		p.Title, p.Description, p.PricePerMonth, p.Bedrooms,
		p.Bathrooms, p.SquareMeters, p.LocationID, p.Address,
		p.IsActive, p.Status,
		p.ID, expected,
	)
}

func (r *propertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *propertyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *propertyRepo) Search(ctx context.Context, f PropertyFilter) ([]*models.Property, int, error) {
	where, args := buildSearchWhere(f)

	var total int
	countSQL := `SELECT COUNT(*) FROM properties p JOIN locations l ON l.id = p.location_id ` + where
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := baseSelectProperty() + " JOIN locations l ON l.id = p.location_id " +
		where + " " + searchOrderBy(f.SortBy) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectProperties(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// buildSearchWhere translates the filter into a WHERE clause and its
// positional args. Split out so the translation is testable without a
// database.
func buildSearchWhere(f PropertyFilter) (string, []interface{}) {
	conds := []string{"p.is_active", "p.status = 'Available'"}
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Title != "" {
		add("p.title ILIKE $%d", "%"+f.Title+"%")
	}
	if f.Address != "" {
		add("p.address ILIKE $%d", "%"+f.Address+"%")
	}
	if f.LocationName != "" {
		args = append(args, "%"+f.LocationName+"%")
		conds = append(conds, fmt.Sprintf("(l.name ILIKE $%d OR l.city ILIKE $%d)", len(args), len(args)))
	} else if f.LocationID != nil {
		add("p.location_id = $%d", *f.LocationID)
	}
	if f.MinPrice != nil {
		add("p.price_per_month >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price_per_month <= $%d", *f.MaxPrice)
	}
	if f.MinSquareMeters != nil {
		add("p.square_meters >= $%d", *f.MinSquareMeters)
	}
	if f.MaxSquareMeters != nil {
		add("p.square_meters <= $%d", *f.MaxSquareMeters)
	}
	if f.Bedrooms != nil {
		// 5 means the open-ended "5+" bucket
		if *f.Bedrooms >= 5 {
			conds = append(conds, "p.bedrooms >= 5")
		} else {
			add("p.bedrooms = $%d", *f.Bedrooms)
		}
	}
	if f.Bathrooms != nil {
		if *f.Bathrooms >= 5 {
			conds = append(conds, "p.bathrooms >= 5")
		} else {
			add("p.bathrooms = $%d", *f.Bathrooms)
		}
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// searchOrderBy maps a sort key to an ORDER BY clause. Every variant ends
// with id DESC so paging stays stable across ties.
func searchOrderBy(sortBy string) string {
	switch sortBy {
	case "price_asc":
		return "ORDER BY p.price_per_month ASC, p.id DESC"
	case "price_desc":
		return "ORDER BY p.price_per_month DESC, p.id DESC"
	case "size_desc":
		return "ORDER BY p.square_meters DESC, p.id DESC"
	default: // newest
		return "ORDER BY p.created_at DESC, p.id DESC"
	}
}

func (r *propertyRepo) ListByStatus(ctx context.Context, status *models.PropertyStatus, page, pageSize int) ([]*models.Property, int, error) {
	where := ""
	var args []interface{}
	if status != nil {
		where = "WHERE p.status=$1"
		args = append(args, *status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM properties p `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := baseSelectProperty() + " " + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectProperties(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *propertyRepo) CountByStatus(ctx context.Context) (map[models.PropertyStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM properties GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.PropertyStatus]int)
	for rows.Next() {
		var status models.PropertyStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *propertyRepo) CountListableByLocation(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.db.Query(ctx, `
        SELECT location_id, COUNT(*) FROM properties
        WHERE is_active AND status = 'Available'
        GROUP BY location_id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func collectProperties(rows pgx.Rows) ([]*models.Property, error) {
	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func baseSelectProperty() string {
	return `
        SELECT
            p.id, p.title, p.description, p.price_per_month,
            p.bedrooms, p.bathrooms, p.square_meters,
            p.location_id, p.address, p.is_active, p.status,
            p.created_at, p.updated_at, p.row_version
        FROM properties p
    `
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.PricePerMonth,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.SquareMeters,
		&p.LocationID,
		&p.Address,
		&p.IsActive,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
