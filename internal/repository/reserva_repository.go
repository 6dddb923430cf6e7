package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/turismo-reservas/internal/model"
)

// ReservaRepo provides persistence for reservas and their detail lines.
// Detail lines are stored in reserva_detalles and always written in
// the same transaction as their reserva.  All timestamp fields are
// assumed to be stored in UTC.
type ReservaRepo struct {
	db *sql.DB
}

// NewReservaRepo returns a new ReservaRepo bound to the given database.
func NewReservaRepo(db *sql.DB) *ReservaRepo { return &ReservaRepo{db: db} }

var _ ReservaRepository = (*ReservaRepo)(nil)

const reservaColumns = `id_reserva, id_usuario, id_emprendimiento, fecha_hora_inicio, fecha_hora_fin,
                        fecha_hora_reserva, estado, total_general`

// Save inserts a new aggregate when r.ID is zero and updates the estado
// of an existing one otherwise.  Updating a reserva that does not exist
// returns ErrNotFound.
func (r *ReservaRepo) Save(ctx context.Context, res *model.Reserva) error {
	if res.ID != 0 {
		return r.updateEstado(ctx, res)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := r.createTx(ctx, tx, res); err != nil {
		return err
	}
	if err := r.createDetallesBulkTx(ctx, tx, res.ID, res.Detalles); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// createTx inserts the reserva row and populates the generated ID.
func (r *ReservaRepo) createTx(ctx context.Context, tx *sql.Tx, res *model.Reserva) error {
	const q = `INSERT INTO reservas (id_usuario, id_emprendimiento, fecha_hora_inicio, fecha_hora_fin,
                                     fecha_hora_reserva, estado, total_general)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.UsuarioID, res.EmprendimientoID, res.FechaHoraInicio.UTC(), res.FechaHoraFin.UTC(),
		res.FechaHoraReserva.UTC(), string(res.Estado), res.TotalGeneral)
	if err != nil {
		return fmt.Errorf("insert reserva: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// createDetallesBulkTx inserts all detail lines in a single statement.
// The generated ids are assigned in insertion order, which MySQL
// guarantees for a multi-row INSERT with auto-increment.
func (r *ReservaRepo) createDetallesBulkTx(ctx context.Context, tx *sql.Tx, reservaID uint64, detalles []model.ReservaDetalle) error {
	if len(detalles) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO reserva_detalles (id_reserva, id_servicio, cantidad, precio_unitario, total, observaciones) VALUES `)
	args := make([]interface{}, 0, len(detalles)*6)
	for i, d := range detalles {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, reservaID, d.ServicioTuristicoID, d.Cantidad, d.PrecioUnitario, d.Total, d.Observaciones)
	}
	result, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("insert detalles: %w", err)
	}
	first, err := result.LastInsertId()
	if err != nil {
		return err
	}
	for i := range detalles {
		detalles[i].ID = uint64(first) + uint64(i)
		detalles[i].ReservaID = reservaID
	}
	return nil
}

func (r *ReservaRepo) updateEstado(ctx context.Context, res *model.Reserva) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservas SET estado = ? WHERE id_reserva = ?`, string(res.Estado), res.ID)
	if err != nil {
		return fmt.Errorf("update estado: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is zero both for a missing row and for an unchanged
		// value, so confirm existence before reporting not found.
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM reservas WHERE id_reserva = ?`, res.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// FindByID returns the reserva with its ordered detail lines, or
// ErrNotFound.
func (r *ReservaRepo) FindByID(ctx context.Context, id uint64) (*model.Reserva, error) {
	var res model.Reserva
	err := r.db.QueryRowContext(ctx,
		`SELECT `+reservaColumns+` FROM reservas WHERE id_reserva = ?`, id,
	).Scan(&res.ID, &res.UsuarioID, &res.EmprendimientoID, &res.FechaHoraInicio, &res.FechaHoraFin,
		&res.FechaHoraReserva, &res.Estado, &res.TotalGeneral)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	list := []model.Reserva{res}
	if err := r.loadDetalles(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListByUsuario returns the reservas made by a user, newest first.
func (r *ReservaRepo) ListByUsuario(ctx context.Context, usuarioID uint64) ([]model.Reserva, error) {
	return r.list(ctx, `WHERE id_usuario = ?`, usuarioID)
}

// ListByEmprendimiento returns the reservas made against an
// emprendimiento, newest first.
func (r *ReservaRepo) ListByEmprendimiento(ctx context.Context, emprendimientoID uint64) ([]model.Reserva, error) {
	return r.list(ctx, `WHERE id_emprendimiento = ?`, emprendimientoID)
}

func (r *ReservaRepo) list(ctx context.Context, where string, arg interface{}) ([]model.Reserva, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservaColumns+` FROM reservas `+where+` ORDER BY fecha_hora_reserva DESC, id_reserva DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reserva, 0)
	for rows.Next() {
		var res model.Reserva
		if err := rows.Scan(&res.ID, &res.UsuarioID, &res.EmprendimientoID, &res.FechaHoraInicio, &res.FechaHoraFin,
			&res.FechaHoraReserva, &res.Estado, &res.TotalGeneral); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadDetalles(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadDetalles fills Detalles for every reserva in list with a single
// IN query.  Lines keep their insertion order.
func (r *ReservaRepo) loadDetalles(ctx context.Context, list []model.Reserva) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(list))
	placeholders := make([]string, 0, len(list))
	args := make([]interface{}, 0, len(list))
	for i := range list {
		index[list[i].ID] = i
		list[i].Detalles = []model.ReservaDetalle{}
		placeholders = append(placeholders, "?")
		args = append(args, list[i].ID)
	}
	q := `SELECT id_reserva_detalle, id_reserva, id_servicio, cantidad, precio_unitario, total, observaciones
          FROM reserva_detalles
          WHERE id_reserva IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY id_reserva, id_reserva_detalle`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			d   model.ReservaDetalle
			obs sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.ReservaID, &d.ServicioTuristicoID, &d.Cantidad, &d.PrecioUnitario, &d.Total, &obs); err != nil {
			return err
		}
		d.Observaciones = obs.String
		if i, ok := index[d.ReservaID]; ok {
			list[i].Detalles = append(list[i].Detalles, d)
		}
	}
	return rows.Err()
}
