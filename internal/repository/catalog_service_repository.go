package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// CatalogServiceRepository encapsulates service catalog persistence.
type CatalogServiceRepository interface {
	Create(ctx context.Context, svc *domain.CatalogService) error
	Update(ctx context.Context, svc *domain.CatalogService) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.CatalogService, error)
	List(ctx context.Context) ([]domain.CatalogService, error)
	ListActive(ctx context.Context) ([]domain.CatalogService, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.CatalogService, error)
	ExistsByTitle(ctx context.Context, title, excludeID string) (bool, error)
	ReplaceFields(ctx context.Context, serviceID string, fields []domain.ServiceField) error
}

type catalogServiceRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogServiceRepository instantiates repository.
func NewCatalogServiceRepository(pool *pgxpool.Pool) CatalogServiceRepository {
	return &catalogServiceRepository{pool: pool}
}

func (r *catalogServiceRepository) Create(ctx context.Context, svc *domain.CatalogService) error {
	const query = `
        INSERT INTO services (category_id, title, description, sla_days, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		svc.CategoryID,
		svc.Title,
		svc.Description,
		svc.SLADays,
		svc.IsActive,
	).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
}

func (r *catalogServiceRepository) Update(ctx context.Context, svc *domain.CatalogService) error {
	const query = `
        UPDATE services SET category_id=$1, title=$2, description=$3, sla_days=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		svc.CategoryID,
		svc.Title,
		svc.Description,
		svc.SLADays,
		svc.IsActive,
		svc.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *catalogServiceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *catalogServiceRepository) GetByID(ctx context.Context, id string) (*domain.CatalogService, error) {
	const query = `
        SELECT id, category_id, title, description, sla_days, is_active, created_at, updated_at
        FROM services WHERE id=$1`
	var svc domain.CatalogService
	if err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&svc.ID,
		&svc.CategoryID,
		&svc.Title,
		&svc.Description,
		&svc.SLADays,
		&svc.IsActive,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	fields, err := r.fieldsByService(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	svc.Fields = fields
	return &svc, nil
}

func (r *catalogServiceRepository) List(ctx context.Context) ([]domain.CatalogService, error) {
	const query = `
        SELECT id, category_id, title, description, sla_days, is_active, created_at, updated_at
        FROM services ORDER BY title ASC`
	return r.query(ctx, query)
}

func (r *catalogServiceRepository) ListActive(ctx context.Context) ([]domain.CatalogService, error) {
	const query = `
        SELECT id, category_id, title, description, sla_days, is_active, created_at, updated_at
        FROM services WHERE is_active ORDER BY title ASC`
	return r.query(ctx, query)
}

func (r *catalogServiceRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.CatalogService, error) {
	const query = `
        SELECT id, category_id, title, description, sla_days, is_active, created_at, updated_at
        FROM services WHERE category_id=$1 ORDER BY title ASC`
	return r.query(ctx, query, categoryID)
}

func (r *catalogServiceRepository) ExistsByTitle(ctx context.Context, title, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM services WHERE title=$1 AND ($2='' OR id<>$2::uuid))`
	var exists bool
	err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, title, excludeID).Scan(&exists)
	return exists, err
}

// ReplaceFields swaps the full field definition set for a service.
func (r *catalogServiceRepository) ReplaceFields(ctx context.Context, serviceID string, fields []domain.ServiceField) error {
	querier := persistence.QuerierFrom(ctx, r.pool)
	if _, err := querier.Exec(ctx, `DELETE FROM service_fields WHERE service_id=$1`, serviceID); err != nil {
		return err
	}
	const insert = `
        INSERT INTO service_fields (service_id, field_kind, required, sort_order, instructions)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	for i := range fields {
		fields[i].ServiceID = serviceID
		if err := querier.QueryRow(ctx, insert,
			serviceID,
			fields[i].Kind,
			fields[i].Required,
			fields[i].SortOrder,
			fields[i].Instructions,
		).Scan(&fields[i].ID, &fields[i].CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *catalogServiceRepository) fieldsByService(ctx context.Context, serviceID string) ([]domain.ServiceField, error) {
	const query = `
        SELECT id, service_id, field_kind, required, sort_order, instructions, created_at
        FROM service_fields WHERE service_id=$1 ORDER BY sort_order ASC`
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceField
	for rows.Next() {
		var field domain.ServiceField
		if err := rows.Scan(
			&field.ID,
			&field.ServiceID,
			&field.Kind,
			&field.Required,
			&field.SortOrder,
			&field.Instructions,
			&field.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, field)
	}
	return result, rows.Err()
}

func (r *catalogServiceRepository) query(ctx context.Context, query string, args ...any) ([]domain.CatalogService, error) {
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CatalogService
	for rows.Next() {
		var svc domain.CatalogService
		if err := rows.Scan(
			&svc.ID,
			&svc.CategoryID,
			&svc.Title,
			&svc.Description,
			&svc.SLADays,
			&svc.IsActive,
			&svc.CreatedAt,
			&svc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		fields, err := r.fieldsByService(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Fields = fields
	}
	return result, nil
}
