package catalog

import "github.com/shiplane/platform/internal/module/domain"

// bootstrapPermissions exist before any module declares permissions so the
// platform can assign roles on a fresh install.
var bootstrapPermissions = []domain.CatalogPermission{
	{Key: "platform.companies.view", Label: "View companies", ModuleKey: "platform", IsAdmin: true},
	{Key: "platform.companies.manage", Label: "Manage companies", ModuleKey: "platform", IsAdmin: true},
	{Key: "platform.modules.manage", Label: "Manage global module availability", ModuleKey: "platform", IsAdmin: true},
}

// Builtin returns the manifests shipped with the platform.
func Builtin() []domain.Manifest {
	return []domain.Manifest{
		{
			Key:         "company",
			Name:        "Company",
			Description: "Company profile, members and roles.",
			Scope:       domain.ScopeCompany,
			Surface:     domain.SurfaceStructure,
			Type:        domain.TypeCore,
			SortOrder:   0,
			Navigation: []domain.NavigationEntry{
				{Label: "Settings", Route: "company.settings", Icon: "settings", SortOrder: 0},
				{Label: "Members", Route: "company.members", Icon: "users", SortOrder: 1},
			},
			RouteNames: []string{"company.settings", "company.members", "company.roles"},
			Permissions: []domain.PermissionEntry{
				{Key: "company.members.view", Label: "View members"},
				{Key: "company.members.manage", Label: "Manage members", IsAdmin: true},
				{Key: "company.roles.manage", Label: "Manage roles", IsAdmin: true},
			},
			Bundles: []domain.PermissionBundle{
				{
					Key:            "company.structure",
					Label:          "Company structure",
					IsAdmin:        true,
					PermissionKeys: []string{"company.members.view", "company.members.manage", "company.roles.manage"},
				},
			},
			Visible: true,
		},
		{
			Key:         "platformadmin",
			Name:        "Platform administration",
			Description: "Company registry, plans and global module switches.",
			Scope:       domain.ScopePlatform,
			Surface:     domain.SurfaceStructure,
			Type:        domain.TypeInternal,
			SortOrder:   1,
			RouteNames:  []string{"platform.companies", "platform.modules"},
			Permissions: []domain.PermissionEntry{
				{Key: "platform.plans.manage", Label: "Manage company plans", IsAdmin: true},
			},
			Visible: false,
		},
		{
			Key:         "shipments",
			Name:        "Shipments",
			Description: "Create and track outgoing shipments.",
			Scope:       domain.ScopeCompany,
			Surface:     domain.SurfaceOperations,
			Type:        domain.TypeAddon,
			SortOrder:   10,
			Navigation: []domain.NavigationEntry{
				{Label: "Shipments", Route: "shipments.index", Icon: "package", SortOrder: 0},
			},
			RouteNames:    []string{"shipments.index", "shipments.show"},
			MiddlewareKey: "module:shipments",
			Permissions: []domain.PermissionEntry{
				{Key: "shipments.view", Label: "View shipments"},
				{Key: "shipments.create", Label: "Create shipments"},
				{Key: "shipments.delete", Label: "Delete shipments", IsAdmin: true},
			},
			Bundles: []domain.PermissionBundle{
				{Key: "shipments.operate", Label: "Operate shipments", PermissionKeys: []string{"shipments.view", "shipments.create"}},
			},
			Jobdomains: []string{"freight", "courier"},
			Visible:    true,
		},
		{
			Key:         "fleet",
			Name:        "Fleet",
			Description: "Vehicle and driver management.",
			Scope:       domain.ScopeCompany,
			Surface:     domain.SurfaceOperations,
			Type:        domain.TypeAddon,
			SortOrder:   20,
			Navigation: []domain.NavigationEntry{
				{Label: "Fleet", Route: "fleet.index", Icon: "truck", SortOrder: 0},
			},
			RouteNames:    []string{"fleet.index"},
			MiddlewareKey: "module:fleet",
			Permissions: []domain.PermissionEntry{
				{Key: "fleet.view", Label: "View fleet"},
				{Key: "fleet.manage", Label: "Manage fleet", IsAdmin: true},
			},
			MinPlan:    "pro",
			Jobdomains: []string{"freight"},
			Visible:    true,
		},
		{
			Key:         "warehousing",
			Name:        "Warehousing",
			Description: "Warehouse locations and stock moves.",
			Scope:       domain.ScopeCompany,
			Surface:     domain.SurfaceOperations,
			Type:        domain.TypeAddon,
			SortOrder:   30,
			Navigation: []domain.NavigationEntry{
				{Label: "Warehouses", Route: "warehousing.index", Icon: "archive", SortOrder: 0},
			},
			RouteNames:    []string{"warehousing.index"},
			MiddlewareKey: "module:warehousing",
			Permissions: []domain.PermissionEntry{
				{Key: "warehousing.view", Label: "View warehouses"},
				{Key: "warehousing.manage", Label: "Manage warehouses", IsAdmin: true},
			},
			MinPlan:    "business",
			Jobdomains: []string{"warehousing"},
			Visible:    true,
		},
		{
			Key:         "customerportal",
			Name:        "Customer portal",
			Description: "Branded tracking portal for customers.",
			Scope:       domain.ScopeCompany,
			Surface:     domain.SurfaceOperations,
			Type:        domain.TypeAddon,
			SortOrder:   40,
			RouteNames:  []string{"portal.index"},
			Permissions: []domain.PermissionEntry{
				{Key: "portal.configure", Label: "Configure portal", IsAdmin: true},
			},
			MinPlan: "pro",
			Visible: true,
		},
	}
}
