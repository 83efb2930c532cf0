package groq

// Projections
const (
	ImageProjection = `{
		_key, alt, caption, tags,
		"asset": asset->{_id, _type, url, "dimensions": metadata.dimensions, "lqip": metadata.lqip}
	}`

	ManufacturerProjection = `{
		_id, name, "slug": slug.current, description,
		"logo": logo` + ImageProjection + `,
		"vehicleCount": count(*[_type == "vehicle" && !(_id in path("drafts.**")) && references(^._id)])
	}`

	VehicleProjection = `{
		_id, title, "slug": slug.current, model, vehicleType, modelYear, sortOrder,
		inventoryStatus, available,
		"manufacturer": manufacturer->{_id, name, "slug": slug.current, "logo": logo` + ImageProjection + `},
		"mainImage": mainImage` + ImageProjection + `,
		"gallery": gallery[]` + ImageProjection + `,
		specifications,
		features,
		"upfitPackages": upfitPackages[]->{_id, name, "slug": slug.current},
		"brands": brands[]->{_id, name, "slug": slug.current},
		seo
	}`

	BrandProjection = `{
		_id, name, "slug": slug.current, tagline, description, launchDate,
		primaryColor, secondaryColor, accentColor,
		"logo": logo` + ImageProjection + `,
		"heroImage": heroImage` + ImageProjection + `,
		"manufacturers": manufacturers[]->{_id, name, "slug": slug.current, "logo": logo` + ImageProjection + `}
	}`

	AdditionalOptionProjection = `{
		_id, name, "slug": slug.current, description, packageTag, price, isActive, sortOrder,
		"manufacturer": manufacturer->{_id, name, "slug": slug.current},
		"brand": brand->{_id, name, "slug": slug.current},
		"image": image` + ImageProjection + `,
		"compatibleVehicles": compatibleVehicles[]->{_id, title, "slug": slug.current}
	}`

	SalesRepProjection = `{
		_id, name, title, email, phone, region, zipCodes, isActive, sortOrder,
		"photo": photo` + ImageProjection + `
	}`

	PageProjection = `{
		_id, title, "slug": slug.current, seo,
		"pageBuilder": pageBuilder[]{
			...,
			"image": image` + ImageProjection + `
		}
	}`
)

// Orderings
const (
	OrderBySortThenName  = "sortOrder asc, name asc"
	OrderBySortThenTitle = "sortOrder asc, title asc"
)

// Fixed queries
const (
	ManufacturersQuery = `*[_type == "manufacturer" && !(_id in path("drafts.**"))] | order(name asc) ` + ManufacturerProjection

	BrandsQuery = `*[_type == "brand" && !(_id in path("drafts.**"))] | order(name asc) ` + BrandProjection

	BrandBySlugQuery = `*[_type == "brand" && slug.current == $slug][0] ` + BrandProjection

	VehicleBySlugQuery = `*[_type == "vehicle" && slug.current == $slug][0] ` + VehicleProjection

	PageBySlugQuery = `*[_type == "page" && slug.current == $slug][0] ` + PageProjection

	SitemapQuery = `{
		"vehicles": *[_type == "vehicle" && defined(slug.current) && !(_id in path("drafts.**"))]{"slug": slug.current, _updatedAt},
		"brands": *[_type == "brand" && defined(slug.current) && !(_id in path("drafts.**"))]{"slug": slug.current, _updatedAt},
		"pages": *[_type == "page" && defined(slug.current) && !(_id in path("drafts.**"))]{"slug": slug.current, _updatedAt}
	}`

	// Uniqueness candidates: published and draft documents of a type whose
	// name or slug equals the candidate, ignoring case. The document's own
	// published/draft pair is excluded.
	IdentityConflictsQuery = `*[_type == $type
		&& !(_id in [$id, $draftId])
		&& (lower(name) == lower($name) || lower(slug.current) == lower($slug))
	]{_id, name, "slug": slug.current}`
)

// ActiveOnly restricts a listing to documents editors have not switched off.
const ActiveOnly = `isActive == true`

// SearchParams are the facets accepted by the search and listing routes.
type SearchParams struct {
	Query   string `json:"query,omitempty"`
	Make    string `json:"make,omitempty"`
	Model   string `json:"model,omitempty"`
	Brand   string `json:"brand,omitempty"`
	Package string `json:"package,omitempty"`
	Type    string `json:"type,omitempty"`
}

// VehicleSearch builds the vehicle search query.
func VehicleSearch(p SearchParams) (string, map[string]any) {
	f := NewFilter("vehicle").
		Match(p.Query, "title", "model", "manufacturer->name", "vehicleType").
		Bind(`lower(manufacturer->name) == lower($make)`, "make", p.Make).
		Bind(`lower(model) == lower($model)`, "model", p.Model).
		Bind(`$brand in brands[]->slug.current`, "brand", p.Brand).
		Bind(`$package in upfitPackages[]->slug.current`, "package", p.Package).
		Bind(`vehicleType == $type`, "type", p.Type)

	return f.Query(VehicleProjection, OrderBySortThenTitle), f.Params()
}

// AdditionalOptions builds the active-options listing query.
func AdditionalOptions(p SearchParams) (string, map[string]any) {
	f := NewFilter("additionalOption").
		Where(ActiveOnly).
		Match(p.Query, "name", "description", "packageTag").
		Bind(`lower(manufacturer->name) == lower($make) || manufacturer->slug.current == lower($make)`, "make", p.Make).
		Bind(`brand->slug.current == $brand || lower(brand->name) == lower($brand)`, "brand", p.Brand).
		Bind(`lower(packageTag) == lower($package)`, "package", p.Package)

	return f.Query(AdditionalOptionProjection, OrderBySortThenName), f.Params()
}

// SalesReps builds the active sales representative query, optionally by zip or region.
func SalesReps(zip, region string) (string, map[string]any) {
	f := NewFilter("salesRepresentative").
		Where(ActiveOnly).
		Bind(`$zip in zipCodes`, "zip", zip).
		Bind(`lower(region) == lower($region)`, "region", region)

	return f.Query(SalesRepProjection, OrderBySortThenName), f.Params()
}

// ByType returns a published listing of docType for the combined content
// route, narrowed by any extra where clauses.
func ByType(docType, projection, order string, where ...string) string {
	f := NewFilter(docType)
	for _, clause := range where {
		f.Where(clause)
	}
	return f.Query(projection, order)
}
