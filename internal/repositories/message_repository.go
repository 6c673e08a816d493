package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/rentora/listings-service/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	List(ctx context.Context) ([]*models.Message, error)
}

type messageRepo struct {
	db DB
}

func NewMessageRepository(db DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, m *models.Message) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO messages (id, user_id, name, email, body, property_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6, NOW())
    `,
		m.ID,
		m.UserID,
		m.Name,
		m.Email,
		m.Body,
		m.PropertyID,
	)
	return err
}

func (r *messageRepo) List(ctx context.Context) ([]*models.Message, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, user_id, name, email, body, property_id, created_at
        FROM messages
        ORDER BY created_at DESC, id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Email,
		&m.Body,
		&m.PropertyID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
