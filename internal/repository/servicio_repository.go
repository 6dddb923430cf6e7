package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/turismo-reservas/internal/model"
)

// ServicioRepo is the MySQL ServicioTuristicoRepository.
type ServicioRepo struct {
	db *sql.DB
}

func NewServicioRepo(db *sql.DB) *ServicioRepo { return &ServicioRepo{db: db} }

var _ ServicioTuristicoRepository = (*ServicioRepo)(nil)

const servicioColumns = `id_servicio, nombre, precio_unitario, tipo_servicio, id_emprendimiento`

// FindByID returns the service with the given id or ErrNotFound.
func (r *ServicioRepo) FindByID(ctx context.Context, id uint64) (*model.ServicioTuristico, error) {
	s, err := scanServicio(r.db.QueryRowContext(ctx,
		`SELECT `+servicioColumns+` FROM servicios_turisticos WHERE id_servicio = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanServicio reads one servicio row.  id_emprendimiento is nullable
// and maps to zero.
func scanServicio(row rowScanner) (model.ServicioTuristico, error) {
	var (
		s   model.ServicioTuristico
		emp sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Nombre, &s.PrecioUnitario, &s.TipoServicio, &emp); err != nil {
		return model.ServicioTuristico{}, err
	}
	s.EmprendimientoID = uint64(emp.Int64)
	return s, nil
}

// ListByEmprendimiento returns the services of an emprendimiento
// ordered by name.  An empty slice is returned when there are none.
func (r *ServicioRepo) ListByEmprendimiento(ctx context.Context, emprendimientoID uint64) ([]model.ServicioTuristico, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+servicioColumns+` FROM servicios_turisticos WHERE id_emprendimiento = ? ORDER BY nombre, id_servicio`,
		emprendimientoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ServicioTuristico, 0)
	for rows.Next() {
		s, err := scanServicio(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
