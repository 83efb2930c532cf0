// Package schema holds the typed content model stored in the CMS.
package schema

import (
	"github.com/shopspring/decimal"
)

// Document types
const (
	TypeVehicle             = "vehicle"
	TypeManufacturer        = "manufacturer"
	TypeBrand               = "brand"
	TypeAdditionalOption    = "additionalOption"
	TypePage                = "page"
	TypeSalesRepresentative = "salesRepresentative"
	TypeSiteSettings        = "siteSettings"
	TypeNavigation          = "navigation"
	TypeImageAsset          = "sanity.imageAsset"
)

// Reference points at another document.
type Reference struct {
	Type string `json:"_type" yaml:"-"`
	Ref  string `json:"_ref" yaml:"ref"`
	Key  string `json:"_key,omitempty" yaml:"-"`
}

func NewReference(id string) Reference {
	return Reference{Type: "reference", Ref: id}
}

// Slug is the CMS slug object.
type Slug struct {
	Type    string `json:"_type,omitempty" yaml:"-"`
	Current string `json:"current" yaml:"current"`
}

func NewSlug(s string) Slug {
	return Slug{Type: "slug", Current: s}
}

// Image is an image field with its asset reference and editorial metadata.
type Image struct {
	Key     string     `json:"_key,omitempty"`
	Type    string     `json:"_type,omitempty"`
	Asset   *Reference `json:"asset,omitempty"`
	Alt     string     `json:"alt,omitempty"`
	Caption string     `json:"caption,omitempty"`
	Tags    []string   `json:"tags,omitempty"`
}

// SEO is per-document search metadata.
type SEO struct {
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	OGImage         *Image `json:"ogImage,omitempty"`
	NoIndex         bool   `json:"noIndex,omitempty"`
}

type Engine struct {
	Name         string `json:"name"`
	Displacement string `json:"displacement,omitempty"`
	Horsepower   int    `json:"horsepower,omitempty"`
	Torque       int    `json:"torque,omitempty"`
	FuelType     string `json:"fuelType,omitempty"`
}

type FuelEconomy struct {
	City     float64 `json:"city,omitempty"`
	Highway  float64 `json:"highway,omitempty"`
	Combined float64 `json:"combined,omitempty"`
}

// Specifications groups the technical data of a vehicle.
type Specifications struct {
	Engines         []Engine     `json:"engines,omitempty"`
	TowingCapacity  int          `json:"towingCapacity,omitempty"`
	PayloadCapacity int          `json:"payloadCapacity,omitempty"`
	GVWR            int          `json:"gvwr,omitempty"`
	Wheelbase       string       `json:"wheelbase,omitempty"`
	FuelEconomy     *FuelEconomy `json:"fuelEconomy,omitempty"`
}

// FeatureGroup is a categorized feature list.
type FeatureGroup struct {
	Key      string   `json:"_key,omitempty"`
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Inventory statuses
const (
	InventoryInStock   = "inStock"
	InventoryInTransit = "inTransit"
	InventoryOnOrder   = "onOrder"
	InventorySold      = "sold"
)

type Vehicle struct {
	ID              string         `json:"_id,omitempty"`
	Type            string         `json:"_type,omitempty"`
	Title           string         `json:"title"`
	Slug            Slug           `json:"slug"`
	Model           string         `json:"model,omitempty"`
	VehicleType     string         `json:"vehicleType,omitempty"`
	ModelYear       int            `json:"modelYear,omitempty"`
	Manufacturer    *Reference     `json:"manufacturer,omitempty"`
	MainImage       *Image         `json:"mainImage,omitempty"`
	Gallery         []Image        `json:"gallery,omitempty"`
	Specifications  Specifications `json:"specifications"`
	Features        []FeatureGroup `json:"features,omitempty"`
	UpfitPackages   []Reference    `json:"upfitPackages,omitempty"`
	Brands          []Reference    `json:"brands,omitempty"`
	InventoryStatus string         `json:"inventoryStatus,omitempty"`
	Available       bool           `json:"available"`
	SortOrder       int            `json:"sortOrder"`
	SEO             *SEO           `json:"seo,omitempty"`
}

type Manufacturer struct {
	ID          string `json:"_id,omitempty"`
	Type        string `json:"_type,omitempty"`
	Name        string `json:"name"`
	Slug        Slug   `json:"slug"`
	Logo        *Image `json:"logo,omitempty"`
	Description string `json:"description,omitempty"`
}

type Brand struct {
	ID             string      `json:"_id,omitempty"`
	Type           string      `json:"_type,omitempty"`
	Name           string      `json:"name"`
	Slug           Slug        `json:"slug"`
	Tagline        string      `json:"tagline,omitempty"`
	Description    string      `json:"description,omitempty"`
	PrimaryColor   string      `json:"primaryColor,omitempty"`
	SecondaryColor string      `json:"secondaryColor,omitempty"`
	AccentColor    string      `json:"accentColor,omitempty"`
	Logo           *Image      `json:"logo,omitempty"`
	HeroImage      *Image      `json:"heroImage,omitempty"`
	Manufacturers  []Reference `json:"manufacturers,omitempty"`
	LaunchDate     string      `json:"launchDate,omitempty"`
}

type AdditionalOption struct {
	ID                 string          `json:"_id,omitempty" yaml:"-"`
	Type               string          `json:"_type,omitempty" yaml:"-"`
	Name               string          `json:"name" yaml:"name"`
	Slug               Slug            `json:"slug" yaml:"-"`
	Description        string          `json:"description,omitempty" yaml:"description"`
	Manufacturer       *Reference      `json:"manufacturer,omitempty" yaml:"-"`
	Brand              *Reference      `json:"brand,omitempty" yaml:"-"`
	PackageTag         string          `json:"packageTag,omitempty" yaml:"packageTag"`
	Price              decimal.Decimal `json:"price" yaml:"price"`
	CompatibleVehicles []Reference     `json:"compatibleVehicles,omitempty" yaml:"-"`
	IsActive           bool            `json:"isActive" yaml:"isActive"`
	SortOrder          int             `json:"sortOrder" yaml:"sortOrder"`
}

type Page struct {
	ID          string           `json:"_id,omitempty"`
	Type        string           `json:"_type,omitempty"`
	Title       string           `json:"title"`
	Slug        Slug             `json:"slug"`
	PageBuilder []map[string]any `json:"pageBuilder,omitempty"`
	SEO         *SEO             `json:"seo,omitempty"`
}

type SalesRepresentative struct {
	ID        string   `json:"_id,omitempty"`
	Type      string   `json:"_type,omitempty"`
	Name      string   `json:"name"`
	Title     string   `json:"title,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Region    string   `json:"region,omitempty"`
	ZipCodes  []string `json:"zipCodes,omitempty"`
	Photo     *Image   `json:"photo,omitempty"`
	IsActive  bool     `json:"isActive"`
	SortOrder int      `json:"sortOrder"`
}
