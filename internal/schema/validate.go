package schema

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func (s Slug) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Current,
			validation.Required.Error("slug is required"),
			validation.Length(1, 96),
			validation.Match(slugPattern).Error("slug must be lowercase words separated by hyphens"),
		),
	)
}

func (r Reference) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Ref, validation.Required.Error("reference target is required")),
	)
}

func (v Vehicle) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Title, validation.Required, validation.Length(1, 120)),
		validation.Field(&v.Slug),
		validation.Field(&v.ModelYear, validation.When(v.ModelYear != 0, validation.Min(1900), validation.Max(2100))),
		validation.Field(&v.Manufacturer),
		validation.Field(&v.InventoryStatus, validation.In(InventoryInStock, InventoryInTransit, InventoryOnOrder, InventorySold)),
		validation.Field(&v.SortOrder, validation.Min(0)),
	)
}

func (m Manufacturer) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 80)),
		validation.Field(&m.Slug),
	)
}

func (b Brand) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Name, validation.Required, validation.Length(1, 80)),
		validation.Field(&b.Slug),
		validation.Field(&b.PrimaryColor, is.HexColor),
		validation.Field(&b.SecondaryColor, is.HexColor),
		validation.Field(&b.AccentColor, is.HexColor),
		validation.Field(&b.LaunchDate, validation.Date("2006-01-02")),
		validation.Field(&b.Manufacturers),
	)
}

func (o AdditionalOption) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&o.Slug),
		validation.Field(&o.Manufacturer),
		validation.Field(&o.Brand),
		validation.Field(&o.Price, validation.By(nonNegative)),
		validation.Field(&o.SortOrder, validation.Min(0)),
		validation.Field(&o.CompatibleVehicles),
	)
}

func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Slug),
	)
}

func (s SalesRepresentative) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Email, is.EmailFormat),
		validation.Field(&s.ZipCodes, validation.Each(validation.Match(regexp.MustCompile(`^\d{5}$`)))),
		validation.Field(&s.SortOrder, validation.Min(0)),
	)
}

func nonNegative(value interface{}) error {
	d, _ := value.(decimal.Decimal)
	if d.IsNegative() {
		return validation.NewError("validation_price_negative", "price must not be negative")
	}
	return nil
}
