package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/turismo-reservas/internal/model"
)

// UsuarioRepo is the MySQL UsuarioRepository.
type UsuarioRepo struct{ DB *sql.DB }

func NewUsuarioRepo(db *sql.DB) *UsuarioRepo { return &UsuarioRepo{DB: db} }

var _ UsuarioRepository = (*UsuarioRepo)(nil)

const usuarioSelect = `SELECT u.id_usuario, u.username, u.password_hash, u.rol, u.id_persona,
                              u.created_at, u.updated_at,
                              p.nombres, p.apellidos, p.telefono
                       FROM usuarios u
                       LEFT JOIN personas p ON p.id_persona = u.id_persona`

// Create inserts the user, and its persona first when present, in one
// transaction.  u.Username is normalized to lower case.
func (r *UsuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if u.Persona != nil {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO personas (nombres, apellidos, telefono) VALUES (?,?,?)",
			u.Persona.Nombres, u.Persona.Apellidos, u.Persona.Telefono)
		if err != nil {
			return fmt.Errorf("insert persona: %w", err)
		}
		pid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.Persona.ID = uint64(pid)
		id := u.Persona.ID
		u.PersonaID = &id
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO usuarios (username, password_hash, rol, id_persona) VALUES (?,?,?,?)",
		u.Username, u.PasswordHash, u.Rol, u.PersonaID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrUsernameExists
		}
		return fmt.Errorf("insert usuario: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// FindByUsername fetches a user by normalized username.
func (r *UsuarioRepo) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.scanOne(r.DB.QueryRowContext(ctx, usuarioSelect+" WHERE u.username=? LIMIT 1", username))
}

// FindByID fetches a user by id.
func (r *UsuarioRepo) FindByID(ctx context.Context, id uint64) (*model.Usuario, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, usuarioSelect+" WHERE u.id_usuario=? LIMIT 1", id))
}

func (r *UsuarioRepo) scanOne(row *sql.Row) (*model.Usuario, error) {
	var (
		u                            model.Usuario
		personaID                    sql.NullInt64
		nombres, apellidos, telefono sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Rol, &personaID,
		&u.CreatedAt, &u.UpdatedAt, &nombres, &apellidos, &telefono)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if personaID.Valid {
		pid := uint64(personaID.Int64)
		u.PersonaID = &pid
		u.Persona = &model.Persona{
			ID:        pid,
			Nombres:   nombres.String,
			Apellidos: apellidos.String,
			Telefono:  telefono.String,
		}
	}
	return &u, nil
}
