package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Reserva records a customer's booking of one or more services from a
// single emprendimiento.  It aggregates its detail lines and tracks
// the overall state and grand total.
//
// Fields:
//  ID               – primary key identifier.
//  UsuarioID        – customer who made the reservation.
//  EmprendimientoID – business the reservation is made against.
//  FechaHoraInicio  – start of the reserved window.
//  FechaHoraFin     – end of the reserved window.
//  FechaHoraReserva – when the reservation was created.
//  Estado           – PENDIENTE, CONFIRMADA, CANCELADA or RECHAZADA.
//  TotalGeneral     – sum of the detail line totals.
//  Detalles         – ordered line items.
type Reserva struct {
    ID               uint64          // reservas.id_reserva
    UsuarioID        uint64          // reservas.id_usuario
    EmprendimientoID uint64          // reservas.id_emprendimiento
    FechaHoraInicio  time.Time       // reservas.fecha_hora_inicio
    FechaHoraFin     time.Time       // reservas.fecha_hora_fin
    FechaHoraReserva time.Time       // reservas.fecha_hora_reserva
    Estado           EstadoReserva   // reservas.estado
    TotalGeneral     decimal.Decimal // reservas.total_general
    Detalles         []ReservaDetalle
}

// ReservaDetalle is one line of a reservation.  PrecioUnitario is the
// service price captured when the reservation was created and Total
// is PrecioUnitario × Cantidad.
type ReservaDetalle struct {
    ID                  uint64          // reserva_detalles.id_reserva_detalle
    ReservaID           uint64          // reserva_detalles.id_reserva
    ServicioTuristicoID uint64          // reserva_detalles.id_servicio
    Cantidad            int             // reserva_detalles.cantidad
    PrecioUnitario      decimal.Decimal // reserva_detalles.precio_unitario
    Total               decimal.Decimal // reserva_detalles.total
    Observaciones       string          // reserva_detalles.observaciones
}

// NuevoDetalle builds a line for the given service and quantity using
// the service's current price.
func NuevoDetalle(s ServicioTuristico, cantidad int, observaciones string) ReservaDetalle {
    return ReservaDetalle{
        ServicioTuristicoID: s.ID,
        Cantidad:            cantidad,
        PrecioUnitario:      s.PrecioUnitario,
        Total:               s.PrecioUnitario.Mul(decimal.NewFromInt(int64(cantidad))),
        Observaciones:       observaciones,
    }
}

// SumarTotales returns the sum of the line totals.
func SumarTotales(detalles []ReservaDetalle) decimal.Decimal {
    total := decimal.Zero
    for _, d := range detalles {
        total = total.Add(d.Total)
    }
    return total
}
