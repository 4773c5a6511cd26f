package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// ProtocolCommentRepository stores staff comments.
type ProtocolCommentRepository interface {
	Create(ctx context.Context, comment *domain.ProtocolComment) error
	ListByProtocol(ctx context.Context, protocolID string) ([]domain.ProtocolComment, error)
}

type protocolCommentRepository struct {
	pool *pgxpool.Pool
}

// NewProtocolCommentRepository builds repository.
func NewProtocolCommentRepository(pool *pgxpool.Pool) ProtocolCommentRepository {
	return &protocolCommentRepository{pool: pool}
}

func (r *protocolCommentRepository) Create(ctx context.Context, comment *domain.ProtocolComment) error {
	const query = `
        INSERT INTO protocol_comments (protocol_id, author_id, text, internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		comment.ProtocolID,
		comment.AuthorID,
		comment.Text,
		comment.Internal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *protocolCommentRepository) ListByProtocol(ctx context.Context, protocolID string) ([]domain.ProtocolComment, error) {
	const query = `
        SELECT id, protocol_id, author_id, text, internal, created_at
        FROM protocol_comments WHERE protocol_id=$1 ORDER BY created_at ASC`
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, protocolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProtocolComment
	for rows.Next() {
		var comment domain.ProtocolComment
		if err := rows.Scan(
			&comment.ID,
			&comment.ProtocolID,
			&comment.AuthorID,
			&comment.Text,
			&comment.Internal,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
