package directory

import (
	"context"
	"errors"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantInactive = errors.New("tenant is inactive")
)

// Repository defines the interface for the authoritative tenant store.
// The gateway only ever reads from it; provisioning writes happen in an
// external service.
type Repository interface {
	GetTenant(ctx context.Context, id string) (*TenantRecord, error)
}
