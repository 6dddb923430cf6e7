// Package dto holds the request and response shapes of the HTTP API.
// Validation tags are checked by go-playground/validator before a
// request reaches the service layer.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/turismo-reservas/internal/model"
)

// CrearReservaDetalleRequest is one requested line.
type CrearReservaDetalleRequest struct {
	IDServicioTuristico uint64 `json:"id_servicio_turistico" validate:"required,gt=0"`
	Cantidad            int    `json:"cantidad" validate:"required,gte=1"`
	Observaciones       string `json:"observaciones" validate:"max=500"`
}

// CrearReservaRequest is the body of POST /v1/reservas.
type CrearReservaRequest struct {
	IDEmprendimiento uint64                       `json:"id_emprendimiento" validate:"required,gt=0"`
	FechaHoraInicio  time.Time                    `json:"fecha_hora_inicio" validate:"required"`
	FechaHoraFin     time.Time                    `json:"fecha_hora_fin" validate:"required"`
	Detalles         []CrearReservaDetalleRequest `json:"detalles" validate:"required,min=1,dive"`
}

// ActualizarEstadoRequest is the body of PATCH /v1/reservas/:id/estado.
type ActualizarEstadoRequest struct {
	Estado string `json:"estado" validate:"required"`
}

type ReservaDetalleResponse struct {
	IDReservaDetalle    uint64          `json:"id_reserva_detalle"`
	IDServicioTuristico uint64          `json:"id_servicio_turistico"`
	Cantidad            int             `json:"cantidad"`
	PrecioUnitario      decimal.Decimal `json:"precio_unitario"`
	Total               decimal.Decimal `json:"total"`
	Observaciones       string          `json:"observaciones,omitempty"`
}

// ReservaResponse is the client view of a reservation.
type ReservaResponse struct {
	IDReserva        uint64                   `json:"id_reserva"`
	IDUsuario        uint64                   `json:"id_usuario"`
	IDEmprendimiento uint64                   `json:"id_emprendimiento"`
	FechaHoraInicio  time.Time                `json:"fecha_hora_inicio"`
	FechaHoraFin     time.Time                `json:"fecha_hora_fin"`
	FechaHoraReserva time.Time                `json:"fecha_hora_reserva"`
	Estado           string                   `json:"estado"`
	TotalGeneral     decimal.Decimal          `json:"total_general"`
	Detalles         []ReservaDetalleResponse `json:"detalles"`
}

// NewReservaResponse maps a persisted reserva to its response.
func NewReservaResponse(r model.Reserva) *ReservaResponse {
	out := &ReservaResponse{
		IDReserva:        r.ID,
		IDUsuario:        r.UsuarioID,
		IDEmprendimiento: r.EmprendimientoID,
		FechaHoraInicio:  r.FechaHoraInicio,
		FechaHoraFin:     r.FechaHoraFin,
		FechaHoraReserva: r.FechaHoraReserva,
		Estado:           r.Estado.String(),
		TotalGeneral:     r.TotalGeneral,
		Detalles:         make([]ReservaDetalleResponse, 0, len(r.Detalles)),
	}
	for _, d := range r.Detalles {
		out.Detalles = append(out.Detalles, ReservaDetalleResponse{
			IDReservaDetalle:    d.ID,
			IDServicioTuristico: d.ServicioTuristicoID,
			Cantidad:            d.Cantidad,
			PrecioUnitario:      d.PrecioUnitario,
			Total:               d.Total,
			Observaciones:       d.Observaciones,
		})
	}
	return out
}

// NewReservaListResponse maps a slice of reservas.
func NewReservaListResponse(list []model.Reserva) []ReservaResponse {
	out := make([]ReservaResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *NewReservaResponse(r))
	}
	return out
}

type ServicioResponse struct {
	IDServicio     uint64          `json:"id_servicio"`
	Nombre         string          `json:"nombre"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	TipoServicio   string          `json:"tipo_servicio"`
}

func NewServicioListResponse(list []model.ServicioTuristico) []ServicioResponse {
	out := make([]ServicioResponse, 0, len(list))
	for _, s := range list {
		out = append(out, ServicioResponse{
			IDServicio:     s.ID,
			Nombre:         s.Nombre,
			PrecioUnitario: s.PrecioUnitario,
			TipoServicio:   s.TipoServicio,
		})
	}
	return out
}
