package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/utils"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PaymentRepository interface {
	// Create returns utils.ErrPaymentExists when a row with the same
	// transaction id is already recorded. Replayed webhooks hit this path.
	Create(ctx context.Context, p *models.Payment) error

	GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	// UpdateStatusByTransactionID reports whether a row was updated; a miss
	// is not an error (payment-failed events for unknown transactions are
	// no-ops).
	UpdateStatusByTransactionID(ctx context.Context, transactionID string, status models.PaymentStatus) (bool, error)

	ListByUser(ctx context.Context, userID string) ([]*models.Payment, error)
	List(ctx context.Context) ([]*models.Payment, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type paymentRepo struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO payments (
            id, user_id, property_id, amount, currency, status, provider,
            transaction_id, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8, NOW())
    `,
		p.ID,
		p.UserID,
		p.PropertyID,
		p.Amount,
		p.Currency,
		p.Status,
		p.Provider,
		p.TransactionID,
	)
	if isUniqueViolation(err) {
		return utils.ErrPaymentExists
	}
	return err
}

func (r *paymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, baseSelectPayment()+" WHERE transaction_id=$1", transactionID)
	return scanPayment(row)
}

func (r *paymentRepo) UpdateStatusByTransactionID(ctx context.Context, transactionID string, status models.PaymentStatus) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE payments SET status=$2, updated_at=NOW() WHERE transaction_id=$1
    `, transactionID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	rows, err := r.db.Query(ctx, baseSelectPayment()+" WHERE user_id=$1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) List(ctx context.Context) ([]*models.Payment, error) {
	rows, err := r.db.Query(ctx, baseSelectPayment()+" ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*models.Payment, error) {
	var out []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func baseSelectPayment() string {
	return `
        SELECT id, user_id, property_id, amount, currency, status, provider,
               transaction_id, created_at, updated_at
        FROM payments
    `
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.PropertyID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Provider,
		&p.TransactionID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
