package service

import "errors"

// Error kinds.  Every workflow failure is an *Error whose Kind is one
// of these, so callers can branch with errors.Is while clients only
// ever see Message.
var (
	ErrNoEncontrado = errors.New("no encontrado")
	ErrSinPermisos  = errors.New("sin permisos")
	ErrConflicto    = errors.New("conflicto")
	ErrInvalido     = errors.New("solicitud invalida")
)

// Error is a workflow failure carrying a human-readable message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func fallo(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Messages returned to clients.
const (
	msgUsuarioNoEncontrado        = "Usuario no encontrado"
	msgEmprendimientoNoEncontrado = "Emprendimiento no encontrado"
	msgEmprendimientoListado      = "No se encontro el emprendimiento"
	msgServicioNoEncontrado       = "Servicio turístico no encontrado"
	msgReservaNoEncontrada        = "Reserva no encontrada"
	msgReservaIDNoEncontrado      = "Reserva no encontrado con id %d"
	msgTelefonoNoEncontrado       = "Número del emprendedor no encontrado"
	msgSinPermisos                = "No tiene permisos para modificar esta reserva"
	msgEstadoTerminal             = "No se puede cambiar el estado de una reserva cancelada o rechazada"
	msgTransicionInvalida         = "Transición de estado no permitida"
	msgSinDetalles                = "La reserva debe incluir al menos un servicio"
	msgCantidadInvalida           = "La cantidad de cada servicio debe ser mayor a cero"
	msgFechasInvalidas            = "La fecha de fin debe ser posterior a la fecha de inicio"
)
