// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both are durable and declared by publisher and
// consumer alike.
const (
    QueueReservaCreada     = "reserva.creada"
    QueueEstadoActualizado = "reserva.estado_actualizado"
)

// ReservaCreadaEvent is published after a reservation is persisted.
// It carries enough information for downstream consumers to log or
// notify the emprendedor without querying the primary database.
type ReservaCreadaEvent struct {
    ReservaID        uint64 `json:"reserva_id"`
    UsuarioID        uint64 `json:"usuario_id"`
    EmprendimientoID uint64 `json:"emprendimiento_id"`
    Emprendimiento   string `json:"emprendimiento"`
    FechaHoraInicio  string `json:"fecha_hora_inicio"`
    FechaHoraFin     string `json:"fecha_hora_fin"`
    Lineas           int    `json:"lineas"`
    TotalGeneral     string `json:"total_general"`
    CreadaEn         string `json:"creada_en"`
}

// ReservaEstadoEvent is published after a reservation changes state.
type ReservaEstadoEvent struct {
    ReservaID        uint64 `json:"reserva_id"`
    EmprendimientoID uint64 `json:"emprendimiento_id"`
    EstadoAnterior   string `json:"estado_anterior"`
    EstadoNuevo      string `json:"estado_nuevo"`
    ActorID          uint64 `json:"actor_id"`
    ActualizadaEn    string `json:"actualizada_en"`
}
