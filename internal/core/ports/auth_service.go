package ports

import (
	"context"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
)

// AuthService implements login, registration, and profile lookup.
type AuthService interface {
	// Login verifies the credentials and returns a signed bearer token with
	// claims {sub, correo, rol, exp}.
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password, phone string) (*domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
