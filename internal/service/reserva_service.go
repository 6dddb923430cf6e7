package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/turismo-reservas/internal/dto"
	"github.com/iliyamo/turismo-reservas/internal/model"
	"github.com/iliyamo/turismo-reservas/internal/queue"
	"github.com/iliyamo/turismo-reservas/internal/repository"
)

// ReservaService is the reservation workflow: creation, state
// transitions and read queries over the entity store.
type ReservaService interface {
	CrearReserva(ctx context.Context, req dto.CrearReservaRequest, usuarioID uint64) (*dto.ReservaResponse, error)
	ActualizarEstado(ctx context.Context, reservaID uint64, nuevo model.EstadoReserva, actorID uint64) (*dto.ReservaResponse, error)
	ObtenerTelefonoEmprendedor(ctx context.Context, emprendimientoID uint64) (string, error)
	ListarPorUsuario(ctx context.Context, usuarioID uint64) ([]model.Reserva, error)
	ListarPorEmprendimiento(ctx context.Context, emprendimientoID uint64) ([]model.Reserva, error)
	ObtenerPorID(ctx context.Context, id uint64) (*model.Reserva, error)
	ListarServicios(ctx context.Context, emprendimientoID uint64) ([]model.ServicioTuristico, error)
}

// EventPublisher receives domain events after successful writes.
// *queue.Publisher implements it.
type EventPublisher interface {
	PublishReservaCreada(ctx context.Context, ev queue.ReservaCreadaEvent) error
	PublishEstadoActualizado(ctx context.Context, ev queue.ReservaEstadoEvent) error
}

type reservaService struct {
	reservas        repository.ReservaRepository
	emprendimientos repository.EmprendimientoRepository
	servicios       repository.ServicioTuristicoRepository
	usuarios        repository.UsuarioRepository
	publisher       EventPublisher
	now             func() time.Time
}

// Option customizes a ReservaService.
type Option func(*reservaService)

// WithPublisher sets the publisher used for domain events.  Without
// one no events are emitted.
func WithPublisher(p EventPublisher) Option {
	return func(s *reservaService) { s.publisher = p }
}

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *reservaService) { s.now = now }
}

func NewReservaService(
	reservas repository.ReservaRepository,
	emprendimientos repository.EmprendimientoRepository,
	servicios repository.ServicioTuristicoRepository,
	usuarios repository.UsuarioRepository,
	opts ...Option,
) ReservaService {
	if reservas == nil || emprendimientos == nil || servicios == nil || usuarios == nil {
		panic("nil repository passed to NewReservaService")
	}
	s := &reservaService{
		reservas:        reservas,
		emprendimientos: emprendimientos,
		servicios:       servicios,
		usuarios:        usuarios,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ── CrearReserva ──────────────────────────────────────────────────────────────
//   1. Validate the request shape (lines, quantities, window)
//   2. Resolve the requesting usuario and the emprendimiento
//   3. Resolve every service and build the lines (no write yet)
//   4. Save the aggregate once, then publish reserva.creada

func (s *reservaService) CrearReserva(ctx context.Context, req dto.CrearReservaRequest, usuarioID uint64) (*dto.ReservaResponse, error) {
	if len(req.Detalles) == 0 {
		return nil, fallo(ErrInvalido, msgSinDetalles)
	}
	for _, d := range req.Detalles {
		if d.Cantidad < 1 {
			return nil, fallo(ErrInvalido, msgCantidadInvalida)
		}
	}
	if !req.FechaHoraFin.After(req.FechaHoraInicio) {
		return nil, fallo(ErrInvalido, msgFechasInvalidas)
	}

	if _, err := s.usuarios.FindByID(ctx, usuarioID); err != nil {
		return nil, notFoundOr(err, msgUsuarioNoEncontrado, "buscar usuario")
	}
	emp, err := s.emprendimientos.FindByID(ctx, req.IDEmprendimiento)
	if err != nil {
		return nil, notFoundOr(err, msgEmprendimientoNoEncontrado, "buscar emprendimiento")
	}

	detalles := make([]model.ReservaDetalle, 0, len(req.Detalles))
	for _, d := range req.Detalles {
		srv, err := s.servicios.FindByID(ctx, d.IDServicioTuristico)
		if err != nil {
			return nil, notFoundOr(err, msgServicioNoEncontrado, "buscar servicio turistico")
		}
		detalles = append(detalles, model.NuevoDetalle(*srv, d.Cantidad, d.Observaciones))
	}

	reserva := &model.Reserva{
		UsuarioID:        usuarioID,
		EmprendimientoID: emp.ID,
		FechaHoraInicio:  req.FechaHoraInicio.UTC(),
		FechaHoraFin:     req.FechaHoraFin.UTC(),
		FechaHoraReserva: s.now(),
		Estado:           model.EstadoPendiente,
		TotalGeneral:     model.SumarTotales(detalles),
		Detalles:         detalles,
	}
	if err := s.reservas.Save(ctx, reserva); err != nil {
		return nil, fmt.Errorf("guardar reserva: %w", err)
	}

	s.publishCreada(ctx, reserva, emp)
	return dto.NewReservaResponse(*reserva), nil
}

// ── ActualizarEstado ──────────────────────────────────────────────────────────

func (s *reservaService) ActualizarEstado(ctx context.Context, reservaID uint64, nuevo model.EstadoReserva, actorID uint64) (*dto.ReservaResponse, error) {
	if !nuevo.Valido() {
		return nil, fallo(ErrInvalido, fmt.Sprintf("Estado de reserva desconocido: %q", string(nuevo)))
	}
	reserva, err := s.reservas.FindByID(ctx, reservaID)
	if err != nil {
		return nil, notFoundOr(err, msgReservaNoEncontrada, "buscar reserva")
	}
	emp, err := s.emprendimientos.FindByID(ctx, reserva.EmprendimientoID)
	if err != nil {
		return nil, notFoundOr(err, msgEmprendimientoNoEncontrado, "buscar emprendimiento")
	}
	if emp.UsuarioID != actorID {
		return nil, fallo(ErrSinPermisos, msgSinPermisos)
	}
	anterior := reserva.Estado
	if anterior.EsTerminal() {
		return nil, fallo(ErrConflicto, msgEstadoTerminal)
	}
	if !anterior.PuedeTransicionarA(nuevo) {
		return nil, fallo(ErrConflicto, fmt.Sprintf("%s: %s -> %s", msgTransicionInvalida, anterior, nuevo))
	}

	reserva.Estado = nuevo
	if err := s.reservas.Save(ctx, reserva); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fallo(ErrNoEncontrado, msgReservaNoEncontrada)
		}
		return nil, fmt.Errorf("guardar reserva: %w", err)
	}

	s.publishEstado(ctx, reserva, anterior, actorID)
	return dto.NewReservaResponse(*reserva), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *reservaService) ObtenerTelefonoEmprendedor(ctx context.Context, emprendimientoID uint64) (string, error) {
	emp, err := s.emprendimientos.FindByID(ctx, emprendimientoID)
	if err != nil {
		return "", notFoundOr(err, msgEmprendimientoNoEncontrado, "buscar emprendimiento")
	}
	if emp.Usuario == nil || emp.Usuario.Persona == nil || emp.Usuario.Persona.Telefono == "" {
		return "", fallo(ErrNoEncontrado, msgTelefonoNoEncontrado)
	}
	return emp.Usuario.Persona.Telefono, nil
}

func (s *reservaService) ListarPorUsuario(ctx context.Context, usuarioID uint64) ([]model.Reserva, error) {
	if _, err := s.usuarios.FindByID(ctx, usuarioID); err != nil {
		return nil, notFoundOr(err, msgUsuarioNoEncontrado, "buscar usuario")
	}
	list, err := s.reservas.ListByUsuario(ctx, usuarioID)
	if err != nil {
		return nil, fmt.Errorf("listar reservas por usuario: %w", err)
	}
	return list, nil
}

func (s *reservaService) ListarPorEmprendimiento(ctx context.Context, emprendimientoID uint64) ([]model.Reserva, error) {
	if _, err := s.emprendimientos.FindByID(ctx, emprendimientoID); err != nil {
		return nil, notFoundOr(err, msgEmprendimientoListado, "buscar emprendimiento")
	}
	list, err := s.reservas.ListByEmprendimiento(ctx, emprendimientoID)
	if err != nil {
		return nil, fmt.Errorf("listar reservas por emprendimiento: %w", err)
	}
	return list, nil
}

func (s *reservaService) ObtenerPorID(ctx context.Context, id uint64) (*model.Reserva, error) {
	r, err := s.reservas.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf(msgReservaIDNoEncontrado, id), "buscar reserva")
	}
	return r, nil
}

func (s *reservaService) ListarServicios(ctx context.Context, emprendimientoID uint64) ([]model.ServicioTuristico, error) {
	if _, err := s.emprendimientos.FindByID(ctx, emprendimientoID); err != nil {
		return nil, notFoundOr(err, msgEmprendimientoNoEncontrado, "buscar emprendimiento")
	}
	list, err := s.servicios.ListByEmprendimiento(ctx, emprendimientoID)
	if err != nil {
		return nil, fmt.Errorf("listar servicios: %w", err)
	}
	return list, nil
}

// notFoundOr maps repository.ErrNotFound to a not-found workflow error
// with msg and wraps anything else with op.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fallo(ErrNoEncontrado, msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Events are best effort: the reserva is already saved, so a broker
// failure is logged and never returned.

func (s *reservaService) publishCreada(ctx context.Context, r *model.Reserva, emp *model.Emprendimiento) {
	if s.publisher == nil {
		return
	}
	ev := queue.ReservaCreadaEvent{
		ReservaID:        r.ID,
		UsuarioID:        r.UsuarioID,
		EmprendimientoID: emp.ID,
		Emprendimiento:   emp.Nombre,
		FechaHoraInicio:  r.FechaHoraInicio.Format(time.RFC3339),
		FechaHoraFin:     r.FechaHoraFin.Format(time.RFC3339),
		Lineas:           len(r.Detalles),
		TotalGeneral:     r.TotalGeneral.String(),
		CreadaEn:         r.FechaHoraReserva.Format(time.RFC3339),
	}
	if err := s.publisher.PublishReservaCreada(ctx, ev); err != nil {
		log.Warn().Err(err).Uint64("reserva_id", r.ID).Msg("publish reserva.creada failed")
	}
}

func (s *reservaService) publishEstado(ctx context.Context, r *model.Reserva, anterior model.EstadoReserva, actorID uint64) {
	if s.publisher == nil {
		return
	}
	ev := queue.ReservaEstadoEvent{
		ReservaID:        r.ID,
		EmprendimientoID: r.EmprendimientoID,
		EstadoAnterior:   anterior.String(),
		EstadoNuevo:      r.Estado.String(),
		ActorID:          actorID,
		ActualizadaEn:    s.now().Format(time.RFC3339),
	}
	if err := s.publisher.PublishEstadoActualizado(ctx, ev); err != nil {
		log.Warn().Err(err).Uint64("reserva_id", r.ID).Msg("publish reserva.estado_actualizado failed")
	}
}
