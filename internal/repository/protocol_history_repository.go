package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// ProtocolHistoryRepository stores audit entries. Append-only: there is no
// update or delete.
type ProtocolHistoryRepository interface {
	Create(ctx context.Context, entry *domain.ProtocolHistoryEntry) error
	ListByProtocol(ctx context.Context, protocolID string) ([]domain.ProtocolHistoryEntry, error)
}

type protocolHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewProtocolHistoryRepository builds repository.
func NewProtocolHistoryRepository(pool *pgxpool.Pool) ProtocolHistoryRepository {
	return &protocolHistoryRepository{pool: pool}
}

func (r *protocolHistoryRepository) Create(ctx context.Context, entry *domain.ProtocolHistoryEntry) error {
	const query = `
        INSERT INTO protocol_history (protocol_id, actor_id, action, description, previous_status, new_status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		entry.ProtocolID,
		entry.ActorID,
		entry.Action,
		entry.Description,
		entry.PreviousStatus,
		entry.NewStatus,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *protocolHistoryRepository) ListByProtocol(ctx context.Context, protocolID string) ([]domain.ProtocolHistoryEntry, error) {
	const query = `
        SELECT id, protocol_id, actor_id, action, description, previous_status, new_status, created_at
        FROM protocol_history WHERE protocol_id=$1 ORDER BY created_at ASC`
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, protocolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProtocolHistoryEntry
	for rows.Next() {
		var entry domain.ProtocolHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ProtocolID,
			&entry.ActorID,
			&entry.Action,
			&entry.Description,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
