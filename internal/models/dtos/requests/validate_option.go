package requests

import (
	"github.com/shopspring/decimal"

	"upfitter/showroom/internal/schema"
)

// ValidateOptionRequest is the body of POST /api/validate/additional-option.
// ID is the draft or published id of the document being edited, if any.
type ValidateOptionRequest struct {
	ID           string            `json:"_id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	PackageTag   string            `json:"packageTag"`
	Price        decimal.Decimal   `json:"price"`
	IsActive     bool              `json:"isActive"`
	SortOrder    int               `json:"sortOrder"`
	Manufacturer *schema.Reference `json:"manufacturer,omitempty"`
	Brand        *schema.Reference `json:"brand,omitempty"`
}

// Option converts the request into the content record it describes.
func (r ValidateOptionRequest) Option() schema.AdditionalOption {
	return schema.AdditionalOption{
		ID:           r.ID,
		Type:         schema.TypeAdditionalOption,
		Name:         r.Name,
		Slug:         schema.NewSlug(r.Slug),
		Description:  r.Description,
		PackageTag:   r.PackageTag,
		Price:        r.Price,
		IsActive:     r.IsActive,
		SortOrder:    r.SortOrder,
		Manufacturer: r.Manufacturer,
		Brand:        r.Brand,
	}
}
