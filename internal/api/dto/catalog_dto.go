package dto

import (
	"time"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/service"
)

// CategoryRequest payload for create/update.
type CategoryRequest struct {
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

// CategoryResponse response.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceFieldRequest describes one field definition.
type ServiceFieldRequest struct {
	Kind         domain.FieldKind `json:"kind"`
	Required     bool             `json:"required"`
	SortOrder    int              `json:"sort_order"`
	Instructions string           `json:"instructions"`
}

// ServiceRequest payload for create/update.
type ServiceRequest struct {
	CategoryID  string                `json:"category_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	SLADays     int                   `json:"sla_days"`
	IsActive    *bool                 `json:"is_active"`
	Fields      []ServiceFieldRequest `json:"fields"`
}

// ServiceFieldResponse response.
type ServiceFieldResponse struct {
	ID           string           `json:"id"`
	Kind         domain.FieldKind `json:"kind"`
	Label        string           `json:"label"`
	Required     bool             `json:"required"`
	SortOrder    int              `json:"sort_order"`
	Instructions string           `json:"instructions,omitempty"`
}

// ServiceResponse response.
type ServiceResponse struct {
	ID          string                 `json:"id"`
	CategoryID  string                 `json:"category_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	SLADays     int                    `json:"sla_days"`
	IsActive    bool                   `json:"is_active"`
	Fields      []ServiceFieldResponse `json:"fields"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// FieldKindResponse exposes the field kind catalog.
type FieldKindResponse struct {
	Kind        domain.FieldKind `json:"kind"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
}

// FromCategory maps a domain category.
func FromCategory(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		SortOrder: c.SortOrder,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromCategories maps a category list.
func FromCategories(categories []domain.Category) []CategoryResponse {
	result := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		result = append(result, FromCategory(&categories[i]))
	}
	return result
}

// FromService maps a domain service with its fields.
func FromService(s *domain.CatalogService) ServiceResponse {
	fields := make([]ServiceFieldResponse, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, ServiceFieldResponse{
			ID:           f.ID,
			Kind:         f.Kind,
			Label:        f.Kind.Label(),
			Required:     f.Required,
			SortOrder:    f.SortOrder,
			Instructions: f.Instructions,
		})
	}
	return ServiceResponse{
		ID:          s.ID,
		CategoryID:  s.CategoryID,
		Title:       s.Title,
		Description: s.Description,
		SLADays:     s.SLADays,
		IsActive:    s.IsActive,
		Fields:      fields,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// FromServices maps a service list.
func FromServices(services []domain.CatalogService) []ServiceResponse {
	result := make([]ServiceResponse, 0, len(services))
	for i := range services {
		result = append(result, FromService(&services[i]))
	}
	return result
}

// FromFieldKinds maps the field kind catalog.
func FromFieldKinds(kinds []service.FieldKindInfo) []FieldKindResponse {
	result := make([]FieldKindResponse, 0, len(kinds))
	for _, k := range kinds {
		result = append(result, FieldKindResponse{
			Kind:        k.Kind,
			Label:       k.Label,
			Description: k.Description,
		})
	}
	return result
}

// ToCategoryInput converts the request to service input.
func (r CategoryRequest) ToCategoryInput() service.CategoryInput {
	return service.CategoryInput{
		Name:      r.Name,
		Icon:      r.Icon,
		Color:     r.Color,
		SortOrder: r.SortOrder,
		IsActive:  r.IsActive,
	}
}

// ToServiceInput converts the request to service input.
func (r ServiceRequest) ToServiceInput() service.ServiceInput {
	var fields []service.ServiceFieldInput
	if r.Fields != nil {
		fields = make([]service.ServiceFieldInput, 0, len(r.Fields))
		for _, f := range r.Fields {
			fields = append(fields, service.ServiceFieldInput{
				Kind:         f.Kind,
				Required:     f.Required,
				SortOrder:    f.SortOrder,
				Instructions: f.Instructions,
			})
		}
	}
	return service.ServiceInput{
		CategoryID:  r.CategoryID,
		Title:       r.Title,
		Description: r.Description,
		SLADays:     r.SLADays,
		IsActive:    r.IsActive,
		Fields:      fields,
	}
}
