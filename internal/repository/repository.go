package repository

import (
	"context"
	"time"

	"github.com/iliyamo/turismo-reservas/internal/model"
)

// UsuarioRepository stores accounts.  FindByID and FindByUsername load
// the attached Persona when one exists.
type UsuarioRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.Usuario, error)
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	// Create inserts u (and u.Persona when non-nil) and sets the
	// generated identifiers on them.
	Create(ctx context.Context, u *model.Usuario) error
}

// EmprendimientoRepository resolves businesses together with their
// owner and the owner's Persona.
type EmprendimientoRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.Emprendimiento, error)
}

// ServicioTuristicoRepository resolves service lines.
type ServicioTuristicoRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.ServicioTuristico, error)
	ListByEmprendimiento(ctx context.Context, emprendimientoID uint64) ([]model.ServicioTuristico, error)
}

// ReservaRepository persists reservation aggregates.  Save inserts a
// new reserva with all its detail lines atomically when r.ID is zero,
// and otherwise updates the existing row's estado.
type ReservaRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.Reserva, error)
	Save(ctx context.Context, r *model.Reserva) error
	ListByUsuario(ctx context.Context, usuarioID uint64) ([]model.Reserva, error)
	ListByEmprendimiento(ctx context.Context, emprendimientoID uint64) ([]model.Reserva, error)
}

// TokenRepository persists refresh token hashes.
type TokenRepository interface {
	StoreRefresh(ctx context.Context, usuarioID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, usuarioID uint64) error
}
