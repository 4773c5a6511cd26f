package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// ProtocolRepository encapsulates protocol persistence.
type ProtocolRepository interface {
	Create(ctx context.Context, protocol *domain.Protocol) error
	Update(ctx context.Context, protocol *domain.Protocol) error
	GetByID(ctx context.Context, id string) (*domain.Protocol, error)
	GetByNumber(ctx context.Context, number string) (*domain.Protocol, error)
	List(ctx context.Context) ([]domain.Protocol, error)
	ListByStatus(ctx context.Context, status domain.ProtocolStatus) ([]domain.Protocol, error)
	ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Protocol, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Protocol, error)
	CountByStatus(ctx context.Context, status domain.ProtocolStatus) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
	AverageTurnaroundDays(ctx context.Context) (float64, error)
	NextYearSequence(ctx context.Context, year int) (int64, error)
}

type protocolRepository struct {
	pool *pgxpool.Pool
}

// NewProtocolRepository instantiates repository.
func NewProtocolRepository(pool *pgxpool.Pool) ProtocolRepository {
	return &protocolRepository{pool: pool}
}

const protocolColumns = `id, number, service_id, citizen_name, citizen_email, citizen_phone,
               status, assignee_id, priority, deadline, description, finalized_at, final_answer,
               created_at, updated_at`

func (r *protocolRepository) Create(ctx context.Context, protocol *domain.Protocol) error {
	const query = `
        INSERT INTO protocols (number, service_id, citizen_name, citizen_email, citizen_phone,
            status, assignee_id, priority, deadline, description, finalized_at, final_answer)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		protocol.Number,
		protocol.ServiceID,
		protocol.CitizenName,
		protocol.CitizenEmail,
		protocol.CitizenPhone,
		protocol.Status,
		protocol.AssigneeID,
		protocol.Priority,
		protocol.Deadline,
		protocol.Description,
		protocol.FinalizedAt,
		protocol.FinalAnswer,
	).Scan(&protocol.ID, &protocol.CreatedAt, &protocol.UpdatedAt)
}

func (r *protocolRepository) Update(ctx context.Context, protocol *domain.Protocol) error {
	const query = `
        UPDATE protocols SET status=$1, assignee_id=$2, priority=$3, description=$4,
            finalized_at=$5, final_answer=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		protocol.Status,
		protocol.AssigneeID,
		protocol.Priority,
		protocol.Description,
		protocol.FinalizedAt,
		protocol.FinalAnswer,
		protocol.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *protocolRepository) GetByID(ctx context.Context, id string) (*domain.Protocol, error) {
	return r.fetchSingle(ctx, `SELECT `+protocolColumns+` FROM protocols WHERE id=$1`, id)
}

func (r *protocolRepository) GetByNumber(ctx context.Context, number string) (*domain.Protocol, error) {
	return r.fetchSingle(ctx, `SELECT `+protocolColumns+` FROM protocols WHERE number=$1`, number)
}

func (r *protocolRepository) List(ctx context.Context) ([]domain.Protocol, error) {
	return r.query(ctx, `SELECT `+protocolColumns+` FROM protocols ORDER BY created_at DESC`)
}

func (r *protocolRepository) ListByStatus(ctx context.Context, status domain.ProtocolStatus) ([]domain.Protocol, error) {
	return r.query(ctx, `SELECT `+protocolColumns+` FROM protocols WHERE status=$1 ORDER BY created_at DESC`, status)
}

func (r *protocolRepository) ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Protocol, error) {
	return r.query(ctx, `SELECT `+protocolColumns+` FROM protocols WHERE assignee_id=$1 ORDER BY created_at DESC`, assigneeID)
}

func (r *protocolRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Protocol, error) {
	const query = `SELECT ` + protocolColumns + ` FROM protocols
        WHERE deadline < $1 AND status NOT IN ($2,$3) ORDER BY deadline ASC`
	return r.query(ctx, query, now, domain.ProtocolStatusFinalized, domain.ProtocolStatusCancelled)
}

func (r *protocolRepository) CountByStatus(ctx context.Context, status domain.ProtocolStatus) (int64, error) {
	var count int64
	err := persistence.QuerierFrom(ctx, r.pool).
		QueryRow(ctx, `SELECT COUNT(*) FROM protocols WHERE status=$1`, status).Scan(&count)
	return count, err
}

func (r *protocolRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM protocols
        WHERE deadline < $1 AND status NOT IN ($2,$3)`
	var count int64
	err := persistence.QuerierFrom(ctx, r.pool).
		QueryRow(ctx, query, now, domain.ProtocolStatusFinalized, domain.ProtocolStatusCancelled).Scan(&count)
	return count, err
}

func (r *protocolRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	const query = `
        SELECT c.name, COUNT(p.id)
        FROM protocols p
        JOIN services s ON s.id = p.service_id
        JOIN categories c ON c.id = s.category_id
        GROUP BY c.name`
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		result[name] = count
	}
	return result, rows.Err()
}

// AverageTurnaroundDays averages finalized_at - created_at over finalized
// protocols. Zero when none have finalized yet.
func (r *protocolRepository) AverageTurnaroundDays(ctx context.Context) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM finalized_at - created_at)) / 86400, 0)
        FROM protocols WHERE finalized_at IS NOT NULL`
	var avg float64
	err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query).Scan(&avg)
	return avg, err
}

// NextYearSequence atomically allocates the next protocol number for the
// year. The upsert serializes concurrent creations on the year row.
func (r *protocolRepository) NextYearSequence(ctx context.Context, year int) (int64, error) {
	const query = `
        INSERT INTO protocol_sequences (year, value) VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET value = protocol_sequences.value + 1
        RETURNING value`
	var value int64
	err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, year).Scan(&value)
	return value, err
}

func (r *protocolRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Protocol, error) {
	var protocol domain.Protocol
	if err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&protocol.ID,
		&protocol.Number,
		&protocol.ServiceID,
		&protocol.CitizenName,
		&protocol.CitizenEmail,
		&protocol.CitizenPhone,
		&protocol.Status,
		&protocol.AssigneeID,
		&protocol.Priority,
		&protocol.Deadline,
		&protocol.Description,
		&protocol.FinalizedAt,
		&protocol.FinalAnswer,
		&protocol.CreatedAt,
		&protocol.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &protocol, nil
}

func (r *protocolRepository) query(ctx context.Context, query string, args ...any) ([]domain.Protocol, error) {
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Protocol
	for rows.Next() {
		var protocol domain.Protocol
		if err := rows.Scan(
			&protocol.ID,
			&protocol.Number,
			&protocol.ServiceID,
			&protocol.CitizenName,
			&protocol.CitizenEmail,
			&protocol.CitizenPhone,
			&protocol.Status,
			&protocol.AssigneeID,
			&protocol.Priority,
			&protocol.Deadline,
			&protocol.Description,
			&protocol.FinalizedAt,
			&protocol.FinalAnswer,
			&protocol.CreatedAt,
			&protocol.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, protocol)
	}
	return result, rows.Err()
}
