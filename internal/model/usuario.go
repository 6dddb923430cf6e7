package model

import "time"

// Roles stored in usuarios.rol.
const (
    RolUsuario     = "USUARIO"
    RolEmprendedor = "EMPRENDEDOR"
    RolAdmin       = "ADMIN"
)

// Usuario represents an account as stored in the `usuarios` table.
// An emprendedor is a Usuario that owns one or more emprendimientos
// and usually carries a Persona with contact data.  The json tags are
// omitted because handlers define their own response types.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name (usually an email address).
//  PasswordHash – bcrypt hashed password.
//  Rol          – USUARIO, EMPRENDEDOR or ADMIN.
//  PersonaID    – foreign key into personas (nil when no profile exists).
//  Persona      – loaded profile, when the repository joins it.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Usuario struct {
    ID           uint64    // usuarios.id_usuario
    Username     string    // usuarios.username
    PasswordHash string    // usuarios.password_hash
    Rol          string    // usuarios.rol
    PersonaID    *uint64   // usuarios.id_persona (nullable)
    Persona      *Persona  // joined from personas
    CreatedAt    time.Time // usuarios.created_at
    UpdatedAt    time.Time // usuarios.updated_at
}

// Persona holds the profile attributes attached to a Usuario.  The
// phone number is what customers use to contact an emprendedor.
type Persona struct {
    ID        uint64 // personas.id_persona
    Nombres   string // personas.nombres
    Apellidos string // personas.apellidos
    Telefono  string // personas.telefono
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only
// the SHA‑256 hash of the token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UsuarioID uint64     // refresh_tokens.id_usuario
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
