package ports

import (
	"context"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
)

// UserRepository defines read access to the identity stores. Lookups span
// both the client collection ("usuarios") and the agent collection
// ("agentes"); the client collection is checked first.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// CreateClient registers a new client account in the usuarios collection.
	CreateClient(ctx context.Context, user *domain.User) (*domain.User, error)
}
