package dto

import (
	"strings"
	"time"
)

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Rol       string `json:"rol" validate:"omitempty,oneof=USUARIO EMPRENDEDOR"`
	Nombres   string `json:"nombres" validate:"max=100"`
	Apellidos string `json:"apellidos" validate:"max=100"`
	Telefono  string `json:"telefono" validate:"max=20"`
}

// Normalize upper-cases Rol so any casing of a known role validates.
func (r *RegisterRequest) Normalize() {
	r.Rol = strings.ToUpper(strings.TrimSpace(r.Rol))
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type UserPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Rol      string `json:"rol"`
}

type AuthResponse struct {
	User    UserPart  `json:"user"`
	Access  TokenPart `json:"access"`
	Refresh TokenPart `json:"refresh"`
}
