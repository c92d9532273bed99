// Package location provides the Location catalog: the venues whose stock is
// counted, each with an ordered set of area templates that pre-populate a
// new count session's areas.
package location

import (
	"context"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
)

// Location represents a venue (bar, restaurant, site).
type Location struct {
	entity.Catalog

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Timezone is the venue's IANA timezone, used for count scheduling
	Timezone string `db:"timezone" json:"timezone,omitempty"`

	// IsActive indicates the location is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// AreaTemplates are the counting areas in counting order
	AreaTemplates []AreaTemplate `db:"-" json:"areaTemplates"`
}

// AreaTemplate is a configured counting area for a location
// (e.g. "Main Bar", "Dry Storage"). Sessions copy these on creation.
type AreaTemplate struct {
	ID         id.ID  `db:"id" json:"id"`
	LocationID id.ID  `db:"location_id" json:"locationId"`
	Name       string `db:"name" json:"name"`
	SortOrder  int    `db:"sort_order" json:"sortOrder"`
}

// NewLocation creates a new location with required fields.
func NewLocation(code, name string) *Location {
	return &Location{
		Catalog:       entity.NewCatalog(code, name),
		IsActive:      true,
		AreaTemplates: make([]AreaTemplate, 0),
	}
}

// AddAreaTemplate appends a counting area at the end of the order.
func (l *Location) AddAreaTemplate(name string) *AreaTemplate {
	tpl := AreaTemplate{
		ID:         id.New(),
		LocationID: l.ID,
		Name:       name,
		SortOrder:  len(l.AreaTemplates),
	}
	l.AreaTemplates = append(l.AreaTemplates, tpl)
	return &l.AreaTemplates[len(l.AreaTemplates)-1]
}

// AreaNames returns the template names in counting order.
func (l *Location) AreaNames() []string {
	names := make([]string, len(l.AreaTemplates))
	for i, tpl := range l.AreaTemplates {
		names[i] = tpl.Name
	}
	return names
}

// Validate implements entity.Validatable.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(l.AreaTemplates))
	for _, tpl := range l.AreaTemplates {
		if tpl.Name == "" {
			return apperror.NewValidation("area template name is required").
				WithDetail("field", "areaTemplates")
		}
		if _, dup := seen[tpl.Name]; dup {
			return apperror.NewValidation("duplicate area template name").
				WithDetail("name", tpl.Name)
		}
		seen[tpl.Name] = struct{}{}
	}
	return nil
}
