// Package catalog holds the process-wide registry of module manifests. The
// registry is built and validated once during startup and is read-only for
// the remainder of the process lifetime.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shiplane/platform/internal/module/domain"
	"github.com/shiplane/platform/internal/plan"
)

var ErrInvalidManifest = errors.New("invalid_manifest")

// Catalog is an immutable, validated set of module manifests.
type Catalog struct {
	ordered []domain.Manifest
	byKey   map[string]domain.Manifest
}

// New builds a catalog from the given manifests. A validation failure is a
// startup error: a malformed manifest would corrupt the aggregated permission
// catalog used by every role-assignment flow.
func New(manifests []domain.Manifest) (*Catalog, error) {
	byKey := make(map[string]domain.Manifest, len(manifests))
	ordered := make([]domain.Manifest, 0, len(manifests))

	for _, m := range manifests {
		if err := validate(m); err != nil {
			return nil, err
		}
		if _, exists := byKey[m.Key]; exists {
			return nil, fmt.Errorf("%w: duplicate module key %q", ErrInvalidManifest, m.Key)
		}
		byKey[m.Key] = m
		ordered = append(ordered, m)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	return &Catalog{ordered: ordered, byKey: byKey}, nil
}

func validate(m domain.Manifest) error {
	if m.Key == "" {
		return fmt.Errorf("%w: manifest key is required", ErrInvalidManifest)
	}
	switch m.Scope {
	case domain.ScopePlatform, domain.ScopeCompany:
	default:
		return fmt.Errorf("%w: module %q has unknown scope %q", ErrInvalidManifest, m.Key, m.Scope)
	}
	switch m.Surface {
	case domain.SurfaceStructure, domain.SurfaceOperations:
	default:
		return fmt.Errorf("%w: module %q has unknown surface %q", ErrInvalidManifest, m.Key, m.Surface)
	}
	switch m.Type {
	case domain.TypeCore, domain.TypeAddon, domain.TypeInternal:
	default:
		return fmt.Errorf("%w: module %q has unknown type %q", ErrInvalidManifest, m.Key, m.Type)
	}
	if m.MinPlan != "" && !plan.Known(m.MinPlan) {
		return fmt.Errorf("%w: module %q requires unknown plan %q", ErrInvalidManifest, m.Key, m.MinPlan)
	}

	seen := make(map[string]bool, len(m.Permissions))
	for _, p := range m.Permissions {
		if p.Key == "" {
			return fmt.Errorf("%w: module %q declares a permission with an empty key", ErrInvalidManifest, m.Key)
		}
		if seen[p.Key] {
			return fmt.Errorf("%w: module %q declares permission %q twice", ErrInvalidManifest, m.Key, p.Key)
		}
		seen[p.Key] = true
	}

	for _, b := range m.Bundles {
		if b.Key == "" {
			return fmt.Errorf("%w: module %q declares a bundle with an empty key", ErrInvalidManifest, m.Key)
		}
		for _, key := range b.PermissionKeys {
			if !seen[key] {
				return fmt.Errorf("%w: bundle %q of module %q references undeclared permission %q",
					ErrInvalidManifest, b.Key, m.Key, key)
			}
		}
	}
	return nil
}

// All returns every registered manifest in sort order.
func (c *Catalog) All() []domain.Manifest {
	out := make([]domain.Manifest, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// ForScope returns the manifests of one scope keyed by module key.
func (c *Catalog) ForScope(scope domain.Scope) map[string]domain.Manifest {
	out := make(map[string]domain.Manifest)
	for _, m := range c.ordered {
		if m.Scope == scope {
			out[m.Key] = m
		}
	}
	return out
}

// Lookup returns the manifest for a module key.
func (c *Catalog) Lookup(key string) (domain.Manifest, bool) {
	m, ok := c.byKey[key]
	return m, ok
}

// PlatformPermissions flattens the permissions of all platform-scope
// manifests, preserving manifest sort order then declaration order. The
// bootstrap set comes first so role assignment works before any module
// declares permissions.
func (c *Catalog) PlatformPermissions() []domain.CatalogPermission {
	out := append([]domain.CatalogPermission(nil), bootstrapPermissions...)
	return append(out, c.permissionsForScope(domain.ScopePlatform)...)
}

// CompanyPermissions flattens the permissions of all company-scope manifests.
func (c *Catalog) CompanyPermissions() []domain.CatalogPermission {
	return c.permissionsForScope(domain.ScopeCompany)
}

func (c *Catalog) permissionsForScope(scope domain.Scope) []domain.CatalogPermission {
	var out []domain.CatalogPermission
	for _, m := range c.ordered {
		if m.Scope != scope {
			continue
		}
		for _, p := range m.Permissions {
			out = append(out, domain.CatalogPermission{
				Key:       p.Key,
				Label:     p.Label,
				ModuleKey: m.Key,
				IsAdmin:   p.IsAdmin,
			})
		}
	}
	return out
}
