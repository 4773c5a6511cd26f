package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// RecipientRepository stores per-recipient delivery state. Rows are never
// deleted individually; they cascade with the parent communication.
type RecipientRepository interface {
	Create(ctx context.Context, recipient *domain.CommunicationRecipient) error
	Update(ctx context.Context, recipient *domain.CommunicationRecipient) error
	ListByCommunication(ctx context.Context, communicationID string) ([]domain.CommunicationRecipient, error)
	ListPending(ctx context.Context, communicationID string) ([]domain.CommunicationRecipient, error)
}

type recipientRepository struct {
	pool *pgxpool.Pool
}

// NewRecipientRepository builds repository.
func NewRecipientRepository(pool *pgxpool.Pool) RecipientRepository {
	return &recipientRepository{pool: pool}
}

func (r *recipientRepository) Create(ctx context.Context, recipient *domain.CommunicationRecipient) error {
	const query = `
        INSERT INTO communication_recipients (communication_id, name, email, phone, sent, sent_at, failed, error_message, attempts)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		recipient.CommunicationID,
		recipient.Name,
		recipient.Email,
		recipient.Phone,
		recipient.Sent,
		recipient.SentAt,
		recipient.Failed,
		recipient.ErrorMessage,
		recipient.Attempts,
	).Scan(&recipient.ID, &recipient.CreatedAt)
}

func (r *recipientRepository) Update(ctx context.Context, recipient *domain.CommunicationRecipient) error {
	const query = `
        UPDATE communication_recipients SET sent=$1, sent_at=$2, failed=$3, error_message=$4, attempts=$5
        WHERE id=$6`
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		recipient.Sent,
		recipient.SentAt,
		recipient.Failed,
		recipient.ErrorMessage,
		recipient.Attempts,
		recipient.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *recipientRepository) ListByCommunication(ctx context.Context, communicationID string) ([]domain.CommunicationRecipient, error) {
	const query = `
        SELECT id, communication_id, name, email, phone, sent, sent_at, failed, error_message, attempts, created_at
        FROM communication_recipients WHERE communication_id=$1 ORDER BY created_at ASC`
	return r.queryList(ctx, query, communicationID)
}

func (r *recipientRepository) ListPending(ctx context.Context, communicationID string) ([]domain.CommunicationRecipient, error) {
	const query = `
        SELECT id, communication_id, name, email, phone, sent, sent_at, failed, error_message, attempts, created_at
        FROM communication_recipients WHERE communication_id=$1 AND NOT sent ORDER BY created_at ASC`
	return r.queryList(ctx, query, communicationID)
}

func (r *recipientRepository) queryList(ctx context.Context, query string, args ...any) ([]domain.CommunicationRecipient, error) {
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CommunicationRecipient
	for rows.Next() {
		var recipient domain.CommunicationRecipient
		if err := rows.Scan(
			&recipient.ID,
			&recipient.CommunicationID,
			&recipient.Name,
			&recipient.Email,
			&recipient.Phone,
			&recipient.Sent,
			&recipient.SentAt,
			&recipient.Failed,
			&recipient.ErrorMessage,
			&recipient.Attempts,
			&recipient.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, recipient)
	}
	return result, rows.Err()
}
