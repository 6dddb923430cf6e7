package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/turismo-reservas/internal/model"
)

// EmprendimientoRepo is the MySQL EmprendimientoRepository.
type EmprendimientoRepo struct {
	db *sql.DB
}

func NewEmprendimientoRepo(db *sql.DB) *EmprendimientoRepo { return &EmprendimientoRepo{db: db} }

var _ EmprendimientoRepository = (*EmprendimientoRepo)(nil)

// FindByID loads an emprendimiento along with its owner and the
// owner's persona.  The persona is nil when the owner has none.
func (r *EmprendimientoRepo) FindByID(ctx context.Context, id uint64) (*model.Emprendimiento, error) {
	const q = `SELECT e.id_emprendimiento, e.nombre, e.id_usuario,
                      u.username, u.rol, u.id_persona,
                      p.nombres, p.apellidos, p.telefono
               FROM emprendimientos e
               JOIN usuarios u ON u.id_usuario = e.id_usuario
               LEFT JOIN personas p ON p.id_persona = u.id_persona
               WHERE e.id_emprendimiento = ?`
	var (
		e                            model.Emprendimiento
		u                            model.Usuario
		personaID                    sql.NullInt64
		nombres, apellidos, telefono sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Nombre, &e.UsuarioID,
		&u.Username, &u.Rol, &personaID,
		&nombres, &apellidos, &telefono,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.ID = e.UsuarioID
	if personaID.Valid {
		pid := uint64(personaID.Int64)
		u.PersonaID = &pid
		u.Persona = &model.Persona{ID: pid, Nombres: nombres.String, Apellidos: apellidos.String, Telefono: telefono.String}
	}
	e.Usuario = &u
	return &e, nil
}
