package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// CommunicationCounters aggregates recipient totals across communications.
type CommunicationCounters struct {
	Recipients int64
	Sent       int64
	Errors     int64
}

// CommunicationRepository encapsulates communication persistence.
type CommunicationRepository interface {
	Create(ctx context.Context, comm *domain.Communication) error
	Update(ctx context.Context, comm *domain.Communication) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Communication, error)
	List(ctx context.Context) ([]domain.Communication, error)
	ListByStatus(ctx context.Context, status domain.CommunicationStatus) ([]domain.Communication, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.Communication, error)
	ListDue(ctx context.Context, now time.Time) ([]domain.Communication, error)
	ResetStuckSending(ctx context.Context, before time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.CommunicationStatus) (int64, error)
	CountGroupedByType(ctx context.Context) (map[domain.CommunicationType]int64, error)
	CountGroupedByChannel(ctx context.Context) (map[domain.CommunicationChannel]int64, error)
	SumCounters(ctx context.Context) (CommunicationCounters, error)
}

type communicationRepository struct {
	pool *pgxpool.Pool
}

// NewCommunicationRepository instantiates repository.
func NewCommunicationRepository(pool *pgxpool.Pool) CommunicationRepository {
	return &communicationRepository{pool: pool}
}

const communicationColumns = `id, creator_id, title, message, type, status, channel,
               neighborhood_filter, category_filter, scheduled_for, sent_at,
               total_recipients, total_sent, total_errors, error_message, created_at, updated_at`

func (r *communicationRepository) Create(ctx context.Context, comm *domain.Communication) error {
	const query = `
        INSERT INTO communications (creator_id, title, message, type, status, channel,
            neighborhood_filter, category_filter, scheduled_for, sent_at,
            total_recipients, total_sent, total_errors, error_message)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		comm.CreatorID,
		comm.Title,
		comm.Message,
		comm.Type,
		comm.Status,
		comm.Channel,
		comm.NeighborhoodFilter,
		comm.CategoryFilter,
		comm.ScheduledFor,
		comm.SentAt,
		comm.TotalRecipients,
		comm.TotalSent,
		comm.TotalErrors,
		comm.ErrorMessage,
	).Scan(&comm.ID, &comm.CreatedAt, &comm.UpdatedAt)
}

func (r *communicationRepository) Update(ctx context.Context, comm *domain.Communication) error {
	const query = `
        UPDATE communications SET title=$1, message=$2, type=$3, status=$4, channel=$5,
            neighborhood_filter=$6, category_filter=$7, scheduled_for=$8, sent_at=$9,
            total_recipients=$10, total_sent=$11, total_errors=$12, error_message=$13, updated_at=NOW()
        WHERE id=$14`
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		comm.Title,
		comm.Message,
		comm.Type,
		comm.Status,
		comm.Channel,
		comm.NeighborhoodFilter,
		comm.CategoryFilter,
		comm.ScheduledFor,
		comm.SentAt,
		comm.TotalRecipients,
		comm.TotalSent,
		comm.TotalErrors,
		comm.ErrorMessage,
		comm.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the communication; recipients cascade with the parent row.
func (r *communicationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM communications WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *communicationRepository) GetByID(ctx context.Context, id string) (*domain.Communication, error) {
	var comm domain.Communication
	if err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx,
		`SELECT `+communicationColumns+` FROM communications WHERE id=$1`, id).Scan(
		&comm.ID,
		&comm.CreatorID,
		&comm.Title,
		&comm.Message,
		&comm.Type,
		&comm.Status,
		&comm.Channel,
		&comm.NeighborhoodFilter,
		&comm.CategoryFilter,
		&comm.ScheduledFor,
		&comm.SentAt,
		&comm.TotalRecipients,
		&comm.TotalSent,
		&comm.TotalErrors,
		&comm.ErrorMessage,
		&comm.CreatedAt,
		&comm.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &comm, nil
}

func (r *communicationRepository) List(ctx context.Context) ([]domain.Communication, error) {
	return r.query(ctx, `SELECT `+communicationColumns+` FROM communications ORDER BY created_at DESC`)
}

func (r *communicationRepository) ListByStatus(ctx context.Context, status domain.CommunicationStatus) ([]domain.Communication, error) {
	return r.query(ctx,
		`SELECT `+communicationColumns+` FROM communications WHERE status=$1 ORDER BY created_at DESC`, status)
}

func (r *communicationRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.Communication, error) {
	return r.query(ctx,
		`SELECT `+communicationColumns+` FROM communications WHERE creator_id=$1 ORDER BY created_at DESC`, creatorID)
}

func (r *communicationRepository) ListDue(ctx context.Context, now time.Time) ([]domain.Communication, error) {
	return r.query(ctx,
		`SELECT `+communicationColumns+` FROM communications
         WHERE status=$1 AND scheduled_for <= $2 ORDER BY scheduled_for ASC`,
		domain.CommStatusScheduled, now)
}

// ResetStuckSending requeues communications stranded in SENDING by a crash
// mid-pass. They return to SCHEDULED, due at the moment they got stuck, so
// the next sweep retries their pending recipients.
func (r *communicationRepository) ResetStuckSending(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        UPDATE communications
        SET status=$1, scheduled_for=COALESCE(scheduled_for, updated_at), updated_at=NOW()
        WHERE status=$2 AND updated_at < $3`
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		domain.CommStatusScheduled, domain.CommStatusSending, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *communicationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := persistence.QuerierFrom(ctx, r.pool).
		QueryRow(ctx, `SELECT COUNT(*) FROM communications`).Scan(&count)
	return count, err
}

func (r *communicationRepository) CountGroupedByType(ctx context.Context) (map[domain.CommunicationType]int64, error) {
	rows, err := persistence.QuerierFrom(ctx, r.pool).
		Query(ctx, `SELECT type, COUNT(*) FROM communications GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.CommunicationType]int64)
	for rows.Next() {
		var commType domain.CommunicationType
		var count int64
		if err := rows.Scan(&commType, &count); err != nil {
			return nil, err
		}
		result[commType] = count
	}
	return result, rows.Err()
}

func (r *communicationRepository) CountGroupedByChannel(ctx context.Context) (map[domain.CommunicationChannel]int64, error) {
	rows, err := persistence.QuerierFrom(ctx, r.pool).
		Query(ctx, `SELECT channel, COUNT(*) FROM communications GROUP BY channel`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.CommunicationChannel]int64)
	for rows.Next() {
		var channel domain.CommunicationChannel
		var count int64
		if err := rows.Scan(&channel, &count); err != nil {
			return nil, err
		}
		result[channel] = count
	}
	return result, rows.Err()
}

func (r *communicationRepository) CountByStatus(ctx context.Context, status domain.CommunicationStatus) (int64, error) {
	var count int64
	err := persistence.QuerierFrom(ctx, r.pool).
		QueryRow(ctx, `SELECT COUNT(*) FROM communications WHERE status=$1`, status).Scan(&count)
	return count, err
}

func (r *communicationRepository) SumCounters(ctx context.Context) (CommunicationCounters, error) {
	const query = `
        SELECT COALESCE(SUM(total_recipients),0), COALESCE(SUM(total_sent),0), COALESCE(SUM(total_errors),0)
        FROM communications`
	var counters CommunicationCounters
	err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query).
		Scan(&counters.Recipients, &counters.Sent, &counters.Errors)
	return counters, err
}

func (r *communicationRepository) query(ctx context.Context, query string, args ...any) ([]domain.Communication, error) {
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Communication
	for rows.Next() {
		var comm domain.Communication
		if err := rows.Scan(
			&comm.ID,
			&comm.CreatorID,
			&comm.Title,
			&comm.Message,
			&comm.Type,
			&comm.Status,
			&comm.Channel,
			&comm.NeighborhoodFilter,
			&comm.CategoryFilter,
			&comm.ScheduledFor,
			&comm.SentAt,
			&comm.TotalRecipients,
			&comm.TotalSent,
			&comm.TotalErrors,
			&comm.ErrorMessage,
			&comm.CreatedAt,
			&comm.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comm)
	}
	return result, rows.Err()
}
