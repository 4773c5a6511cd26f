package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
)

// CategoryRepository encapsulates category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	ListActive(ctx context.Context) ([]domain.Category, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, icon, color, sort_order, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		category.Name,
		category.Icon,
		category.Color,
		category.SortOrder,
		category.IsActive,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, icon=$2, color=$3, sort_order=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		category.Name,
		category.Icon,
		category.Color,
		category.SortOrder,
		category.IsActive,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, name, icon, color, sort_order, is_active, created_at, updated_at
        FROM categories WHERE id=$1`
	var category domain.Category
	if err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Icon,
		&category.Color,
		&category.SortOrder,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT id, name, icon, color, sort_order, is_active, created_at, updated_at
        FROM categories ORDER BY sort_order ASC, name ASC`
	return r.query(ctx, query)
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT id, name, icon, color, sort_order, is_active, created_at, updated_at
        FROM categories WHERE is_active ORDER BY sort_order ASC, name ASC`
	return r.query(ctx, query)
}

func (r *categoryRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM categories WHERE name=$1 AND ($2='' OR id<>$2::uuid))`
	var exists bool
	err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *categoryRepository) query(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Icon,
			&category.Color,
			&category.SortOrder,
			&category.IsActive,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
