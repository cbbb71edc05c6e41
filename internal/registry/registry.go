// Package registry implements the identity allow-lists that gate who may
// register an asset's first handover. The system runs two independent
// instances: vendors for drug items and producers for generic parcels.
// Each instance is owned by a single administrator fixed at construction.
package registry

import (
	"context"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Registry is one administrator-owned allow-list of identities.
type Registry struct {
	admin   domain.Identity
	entries Store
}

// New creates a registry administered by admin, backed by the given store.
func New(admin domain.Identity, entries Store) *Registry {
	return &Registry{admin: admin, entries: entries}
}

// Admin returns the administrator identity fixed at creation.
func (r *Registry) Admin() domain.Identity { return r.admin }

// Register activates an identity. Registering an already-active identity
// is a successful no-op.
//
// Errors: CodeUnauthorized unless caller is the administrator.
func (r *Registry) Register(ctx context.Context, caller, identity domain.Identity) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	return r.entries.SetActive(ctx, identity, true)
}

// Deregister deactivates an identity. Deregistering an inactive identity
// is a successful no-op.
//
// Errors: CodeUnauthorized unless caller is the administrator.
func (r *Registry) Deregister(ctx context.Context, caller, identity domain.Identity) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	return r.entries.SetActive(ctx, identity, false)
}

// IsActive reports whether the identity is currently on the allow-list.
func (r *Registry) IsActive(ctx context.Context, identity domain.Identity) (bool, error) {
	return r.entries.IsActive(ctx, identity)
}

func (r *Registry) requireAdmin(caller domain.Identity) error {
	if caller != r.admin {
		return dErrors.New(dErrors.CodeUnauthorized, "registry can only be changed by its administrator")
	}
	return nil
}
