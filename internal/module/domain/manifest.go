// Package domain contains the declarative module manifest types.
package domain

// Scope partitions modules between the platform layer and company tenants.
type Scope string

const (
	ScopePlatform Scope = "platform"
	ScopeCompany  Scope = "company"
)

// Surface is the coarse UI partition a module belongs to.
type Surface string

const (
	SurfaceStructure  Surface = "structure"
	SurfaceOperations Surface = "operations"
)

// Type determines the activation lifecycle of a module. Core and internal
// modules are implicitly active; only addons carry persisted activation state.
type Type string

const (
	TypeCore     Type = "core"
	TypeAddon    Type = "addon"
	TypeInternal Type = "internal"
)

// NavigationEntry is a single navigation item contributed by a module.
type NavigationEntry struct {
	Label     string
	Route     string
	Icon      string
	SortOrder int
}

// PermissionEntry declares one permission owned by a module.
type PermissionEntry struct {
	Key     string
	Label   string
	IsAdmin bool
}

// PermissionBundle groups permissions of the same manifest for simplified
// role assignment.
type PermissionBundle struct {
	Key            string
	Label          string
	IsAdmin        bool
	PermissionKeys []string
}

// Manifest is the immutable declarative description of a feature module.
// Manifests are registered in code and validated once at startup.
type Manifest struct {
	Key         string
	Name        string
	Description string

	Scope     Scope
	Surface   Surface
	Type      Type
	SortOrder int

	Navigation    []NavigationEntry
	RouteNames    []string
	MiddlewareKey string

	Permissions []PermissionEntry
	Bundles     []PermissionBundle

	// MinPlan is the minimum plan key required to activate the module.
	// Empty means no plan gate.
	MinPlan string

	// Jobdomains restricts activation to companies tagged with at least one
	// of these categories. Empty means compatible with every company.
	Jobdomains []string

	Visible bool
}

// Activatable reports whether activation state is ever persisted for the
// module: only company-scope addons are toggled per tenant.
func (m Manifest) Activatable() bool {
	return m.Type == TypeAddon && m.Scope == ScopeCompany
}

// ImplicitlyActive reports whether the module is always on regardless of any
// persisted state.
func (m Manifest) ImplicitlyActive() bool {
	return m.Type == TypeCore || m.Type == TypeInternal
}

// CatalogPermission is one row of the derived permission catalog: a manifest
// permission annotated with its owning module key.
type CatalogPermission struct {
	Key       string
	Label     string
	ModuleKey string
	IsAdmin   bool
}
