package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/rentora/listings-service/internal/constants"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/utils"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type ViewingRequestRepository interface {
	// Create returns utils.ErrViewingRequestExists when the caller already
	// holds an active request for the property.
	Create(ctx context.Context, vr *models.ViewingRequest) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.ViewingRequest, error)
	GetActiveByPropertyAndUser(ctx context.Context, propertyID uuid.UUID, userID string) (*models.ViewingRequest, error)
	HasApproved(ctx context.Context, propertyID uuid.UUID, userID string) (bool, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ViewingRequestStatus) error
	// CancelOtherPending cancels every Pending request on a property except
	// the given one and returns the affected rows so the caller can notify
	// their requesters.
	CancelOtherPending(ctx context.Context, propertyID, exceptID uuid.UUID) ([]*models.ViewingRequest, error)

	// List returns the newest requests, optionally filtered by status,
	// capped at constants.ViewingRequestListLimit rows.
	List(ctx context.Context, status *models.ViewingRequestStatus) ([]*models.ViewingRequest, error)
	CountByStatus(ctx context.Context) (map[models.ViewingRequestStatus]int, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type viewingRequestRepo struct {
	db DB
}

func NewViewingRequestRepository(db DB) ViewingRequestRepository {
	return &viewingRequestRepo{db: db}
}

func (r *viewingRequestRepo) Create(ctx context.Context, vr *models.ViewingRequest) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO viewing_requests (
            id, property_id, user_id, full_name, phone_number, email,
            preferred_date, preferred_time, status, ip_address, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, NOW())
    `,
		vr.ID,
		vr.PropertyID,
		vr.UserID,
		vr.FullName,
		vr.PhoneNumber,
		vr.Email,
		vr.PreferredDate,
		vr.PreferredTime,
		vr.Status,
		vr.IPAddress,
	)
	if isUniqueViolation(err) {
		return utils.ErrViewingRequestExists
	}
	return err
}

func (r *viewingRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ViewingRequest, error) {
	row := r.db.QueryRow(ctx, baseSelectViewingRequest()+" WHERE id=$1", id)
	return scanViewingRequest(row)
}

func (r *viewingRequestRepo) GetActiveByPropertyAndUser(ctx context.Context, propertyID uuid.UUID, userID string) (*models.ViewingRequest, error) {
	row := r.db.QueryRow(ctx, baseSelectViewingRequest()+`
        WHERE property_id=$1 AND user_id=$2 AND status IN ('Pending','Approved')
    `, propertyID, userID)
	return scanViewingRequest(row)
}

func (r *viewingRequestRepo) HasApproved(ctx context.Context, propertyID uuid.UUID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM viewing_requests
            WHERE property_id=$1 AND user_id=$2 AND status='Approved'
        )
    `, propertyID, userID).Scan(&exists)
	return exists, err
}

func (r *viewingRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ViewingRequestStatus) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE viewing_requests SET status=$2, updated_at=NOW() WHERE id=$1
    `, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *viewingRequestRepo) CancelOtherPending(ctx context.Context, propertyID, exceptID uuid.UUID) ([]*models.ViewingRequest, error) {
	rows, err := r.db.Query(ctx, `
        UPDATE viewing_requests SET status='Cancelled', updated_at=NOW()
        WHERE property_id=$1 AND id<>$2 AND status='Pending'
        RETURNING id, property_id, user_id, full_name, phone_number, email,
                  preferred_date, preferred_time, status, ip_address,
                  created_at, updated_at
    `, propertyID, exceptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ViewingRequest
	for rows.Next() {
		vr, err := scanViewingRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vr)
	}
	return out, rows.Err()
}

func (r *viewingRequestRepo) List(ctx context.Context, status *models.ViewingRequestStatus) ([]*models.ViewingRequest, error) {
	sql, args := viewingListQuery(status)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ViewingRequest
	for rows.Next() {
		vr, err := scanViewingRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vr)
	}
	return out, rows.Err()
}

func (r *viewingRequestRepo) CountByStatus(ctx context.Context) (map[models.ViewingRequestStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM viewing_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.ViewingRequestStatus]int)
	for rows.Next() {
		var status models.ViewingRequestStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// viewingListQuery builds the admin list query: newest first, capped so a
// busy table cannot flood the admin page.
func viewingListQuery(status *models.ViewingRequestStatus) (string, []interface{}) {
	sql := baseSelectViewingRequest()
	var args []interface{}
	if status != nil {
		sql += " WHERE status=$1"
		args = append(args, *status)
	}
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d", constants.ViewingRequestListLimit)
	return sql, args
}

func baseSelectViewingRequest() string {
	return `
        SELECT id, property_id, user_id, full_name, phone_number, email,
               preferred_date, preferred_time, status, ip_address,
               created_at, updated_at
        FROM viewing_requests
    `
}

func scanViewingRequest(row pgx.Row) (*models.ViewingRequest, error) {
	var vr models.ViewingRequest
	err := row.Scan(
		&vr.ID,
		&vr.PropertyID,
		&vr.UserID,
		&vr.FullName,
		&vr.PhoneNumber,
		&vr.Email,
		&vr.PreferredDate,
		&vr.PreferredTime,
		&vr.Status,
		&vr.IPAddress,
		&vr.CreatedAt,
		&vr.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &vr, nil
}
