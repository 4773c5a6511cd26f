package domain

import "time"

// Category groups services in the municipal catalog.
type Category struct {
	ID        string
	Name      string
	Icon      string
	Color     string
	SortOrder int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
