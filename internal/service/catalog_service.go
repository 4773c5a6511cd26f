package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/connecta/citizen-service/internal/cache"
	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/persistence"
	"github.com/connecta/citizen-service/internal/repository"
	"github.com/connecta/citizen-service/pkg/util"
)

const (
	defaultCategoryColor = "#4CAF50"
	defaultSLADays       = 7
)

// CatalogService manages the category and service catalog.
type CatalogService struct {
	categories repository.CategoryRepository
	services   repository.CatalogServiceRepository
	cache      *cache.CatalogCache
	tx         persistence.TxManager
}

// CatalogDependencies bundles collaborators for the catalog service.
type CatalogDependencies struct {
	CategoryRepo repository.CategoryRepository
	ServiceRepo  repository.CatalogServiceRepository
	Cache        *cache.CatalogCache
	TxManager    persistence.TxManager
}

// CategoryInput describes category create/update payload.
type CategoryInput struct {
	Name      string
	Icon      string
	Color     string
	SortOrder int
	IsActive  *bool
}

// ServiceFieldInput defines one field a service collects.
type ServiceFieldInput struct {
	Kind         domain.FieldKind
	Required     bool
	SortOrder    int
	Instructions string
}

// ServiceInput describes service create/update payload.
type ServiceInput struct {
	CategoryID  string
	Title       string
	Description string
	SLADays     int
	IsActive    *bool
	Fields      []ServiceFieldInput
}

// FieldKindInfo exposes the field kind catalog for clients.
type FieldKindInfo struct {
	Kind        domain.FieldKind
	Label       string
	Description string
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		categories: deps.CategoryRepo,
		services:   deps.ServiceRepo,
		cache:      deps.Cache,
		tx:         deps.TxManager,
	}
}

// CreateCategory registers a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, util.NewValidationError("category name is required", nil)
	}
	exists, err := s.categories.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.NewConflict("category name already in use", map[string]any{"name": name})
	}

	category := &domain.Category{
		Name:      name,
		Icon:      strings.TrimSpace(input.Icon),
		Color:     strings.TrimSpace(input.Color),
		SortOrder: input.SortOrder,
		IsActive:  true,
	}
	if category.Color == "" {
		category.Color = defaultCategoryColor
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return category, nil
}

// UpdateCategory applies changes to an existing category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != category.Name {
		exists, err := s.categories.ExistsByName(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, util.NewConflict("category name already in use", map[string]any{"name": name})
		}
		category.Name = name
	}
	if icon := strings.TrimSpace(input.Icon); icon != "" {
		category.Icon = icon
	}
	if color := strings.TrimSpace(input.Color); color != "" {
		category.Color = color
	}
	if input.SortOrder != 0 {
		category.SortOrder = input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, notFoundOr(err, "category")
	}
	s.invalidate(ctx)
	return category, nil
}

// DeleteCategory removes a category and cascades its services.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return notFoundOr(err, "category")
	}
	s.invalidate(ctx)
	return nil
}

// GetCategory fetches a single category.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}
	return category, nil
}

// ListCategories returns categories in display order, optionally only
// active ones. Served from the Redis cache when warm.
func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetCategories(ctx); ok {
			return filterCategories(cached, activeOnly), nil
		}
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetCategories(ctx, categories)
	}
	return filterCategories(categories, activeOnly), nil
}

// CreateService registers a new service under a category.
func (s *CatalogService) CreateService(ctx context.Context, input ServiceInput) (*domain.CatalogService, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, util.NewValidationError("service title is required", nil)
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		return nil, notFoundOr(err, "category")
	}
	exists, err := s.services.ExistsByTitle(ctx, title, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.NewConflict("service title already in use", map[string]any{"title": title})
	}
	fields, err := buildServiceFields(input.Fields)
	if err != nil {
		return nil, err
	}

	svc := &domain.CatalogService{
		CategoryID:  input.CategoryID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		SLADays:     input.SLADays,
		IsActive:    true,
	}
	if svc.SLADays <= 0 {
		svc.SLADays = defaultSLADays
	}
	if input.IsActive != nil {
		svc.IsActive = *input.IsActive
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.services.Create(ctx, svc); err != nil {
			return err
		}
		return s.services.ReplaceFields(ctx, svc.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	svc.Fields = fields
	for i := range svc.Fields {
		svc.Fields[i].ServiceID = svc.ID
	}
	s.invalidate(ctx)
	return svc, nil
}

// UpdateService applies changes to an existing service. A non-nil field
// list replaces the definitions wholesale.
func (s *CatalogService) UpdateService(ctx context.Context, id string, input ServiceInput) (*domain.CatalogService, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "service")
	}

	if input.CategoryID != "" && input.CategoryID != svc.CategoryID {
		if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
			return nil, notFoundOr(err, "category")
		}
		svc.CategoryID = input.CategoryID
	}
	if title := strings.TrimSpace(input.Title); title != "" && title != svc.Title {
		exists, err := s.services.ExistsByTitle(ctx, title, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, util.NewConflict("service title already in use", map[string]any{"title": title})
		}
		svc.Title = title
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		svc.Description = desc
	}
	if input.SLADays > 0 {
		svc.SLADays = input.SLADays
	}
	if input.IsActive != nil {
		svc.IsActive = *input.IsActive
	}

	var fields []domain.ServiceField
	if input.Fields != nil {
		fields, err = buildServiceFields(input.Fields)
		if err != nil {
			return nil, err
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.services.Update(ctx, svc); err != nil {
			return err
		}
		if input.Fields != nil {
			return s.services.ReplaceFields(ctx, svc.ID, fields)
		}
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "service")
	}
	if input.Fields != nil {
		svc.Fields = fields
		for i := range svc.Fields {
			svc.Fields[i].ServiceID = svc.ID
		}
	}
	s.invalidate(ctx)
	return svc, nil
}

// DeleteService removes a service and its field definitions.
func (s *CatalogService) DeleteService(ctx context.Context, id string) error {
	if err := s.services.Delete(ctx, id); err != nil {
		return notFoundOr(err, "service")
	}
	s.invalidate(ctx)
	return nil
}

// GetService fetches a single service with its fields.
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.CatalogService, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "service")
	}
	return svc, nil
}

// ListServices returns services, optionally only active ones. Served from
// the Redis cache when warm.
func (s *CatalogService) ListServices(ctx context.Context, activeOnly bool) ([]domain.CatalogService, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetServices(ctx); ok {
			return filterServices(cached, activeOnly), nil
		}
	}
	services, err := s.services.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetServices(ctx, services)
	}
	return filterServices(services, activeOnly), nil
}

// ListServicesByCategory returns the services under one category.
func (s *CatalogService) ListServicesByCategory(ctx context.Context, categoryID string) ([]domain.CatalogService, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, notFoundOr(err, "category")
	}
	return s.services.ListByCategory(ctx, categoryID)
}

// FieldKinds lists the closed field kind catalog with labels.
func (s *CatalogService) FieldKinds() []FieldKindInfo {
	kinds := []domain.FieldKind{
		domain.FieldKindLocation,
		domain.FieldKindPhoto,
		domain.FieldKindDescription,
		domain.FieldKindRequesterData,
		domain.FieldKindDateTime,
		domain.FieldKindVehiclePlate,
		domain.FieldKindPropertyNo,
		domain.FieldKindMeasurement,
		domain.FieldKindDeclaredValue,
		domain.FieldKindDocuments,
		domain.FieldKindPriorProtocol,
		domain.FieldKindNotes,
	}
	result := make([]FieldKindInfo, 0, len(kinds))
	for _, kind := range kinds {
		result = append(result, FieldKindInfo{
			Kind:        kind,
			Label:       kind.Label(),
			Description: kind.Description(),
		})
	}
	return result
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func buildServiceFields(inputs []ServiceFieldInput) ([]domain.ServiceField, error) {
	seen := make(map[domain.FieldKind]bool, len(inputs))
	fields := make([]domain.ServiceField, 0, len(inputs))
	for _, in := range inputs {
		if !in.Kind.Valid() {
			return nil, util.NewValidationError("unknown field kind", map[string]any{"kind": in.Kind})
		}
		if seen[in.Kind] {
			return nil, util.NewValidationError("duplicate field kind", map[string]any{"kind": in.Kind})
		}
		seen[in.Kind] = true
		fields = append(fields, domain.ServiceField{
			Kind:         in.Kind,
			Required:     in.Required,
			SortOrder:    in.SortOrder,
			Instructions: strings.TrimSpace(in.Instructions),
		})
	}
	return fields, nil
}

func filterCategories(categories []domain.Category, activeOnly bool) []domain.Category {
	if !activeOnly {
		return categories
	}
	filtered := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func filterServices(services []domain.CatalogService, activeOnly bool) []domain.CatalogService {
	if !activeOnly {
		return services
	}
	filtered := make([]domain.CatalogService, 0, len(services))
	for _, svc := range services {
		if svc.IsActive {
			filtered = append(filtered, svc)
		}
	}
	return filtered
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return util.NewNotFound(resource, nil)
	}
	return err
}
