package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// ProtocolDataRepository stores submitted field values.
type ProtocolDataRepository interface {
	Create(ctx context.Context, entry *domain.ProtocolDataEntry) error
	ListByProtocol(ctx context.Context, protocolID string) ([]domain.ProtocolDataEntry, error)
}

type protocolDataRepository struct {
	pool *pgxpool.Pool
}

// NewProtocolDataRepository builds repository.
func NewProtocolDataRepository(pool *pgxpool.Pool) ProtocolDataRepository {
	return &protocolDataRepository{pool: pool}
}

func (r *protocolDataRepository) Create(ctx context.Context, entry *domain.ProtocolDataEntry) error {
	const query = `
        INSERT INTO protocol_data (protocol_id, field_kind, value)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		entry.ProtocolID,
		entry.Kind,
		entry.Value,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *protocolDataRepository) ListByProtocol(ctx context.Context, protocolID string) ([]domain.ProtocolDataEntry, error) {
	const query = `
        SELECT id, protocol_id, field_kind, value, created_at
        FROM protocol_data WHERE protocol_id=$1 ORDER BY created_at ASC`
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, protocolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProtocolDataEntry
	for rows.Next() {
		var entry domain.ProtocolDataEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ProtocolID,
			&entry.Kind,
			&entry.Value,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
