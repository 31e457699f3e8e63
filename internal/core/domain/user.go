package domain

import (
	"errors"
	"time"
)

const (
	RoleClient = "cliente"
	RoleAgent  = "agente"
	RoleAdmin  = "administrador"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid token")
var ErrInactiveAccount = errors.New("inactive account")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")

// User models an authenticated actor: a client from the "usuarios"
// collection or an agent/administrator from "agentes". These records belong
// to the identity subsystem; this service reads them and never rewrites
// them.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"nombre"`
	Email        string    `json:"correo"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"telefono,omitempty"`
	Role         string    `json:"rol"`
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"fechaCreacion"`
}

// CanReview reports whether the role may approve, reject, or see the
// unscoped review queue.
func CanReview(role string) bool {
	return role == RoleAgent || role == RoleAdmin
}
