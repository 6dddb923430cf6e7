package model

import (
    "fmt"
    "strings"
)

// EstadoReserva is the lifecycle state of a Reserva.
type EstadoReserva string

const (
    EstadoPendiente  EstadoReserva = "PENDIENTE"
    EstadoConfirmada EstadoReserva = "CONFIRMADA"
    EstadoCancelada  EstadoReserva = "CANCELADA"
    EstadoRechazada  EstadoReserva = "RECHAZADA"
)

// transiciones lists, for every state, the states it may move to.
// Staying in a non-terminal state is a no-op and therefore allowed.
// CANCELADA and RECHAZADA have no outgoing transitions.
var transiciones = map[EstadoReserva]map[EstadoReserva]bool{
    EstadoPendiente: {
        EstadoPendiente:  true,
        EstadoConfirmada: true,
        EstadoCancelada:  true,
        EstadoRechazada:  true,
    },
    EstadoConfirmada: {
        EstadoConfirmada: true,
        EstadoCancelada:  true,
        EstadoRechazada:  true,
    },
    EstadoCancelada: {},
    EstadoRechazada: {},
}

// ParseEstado converts a case-insensitive name into an EstadoReserva.
func ParseEstado(s string) (EstadoReserva, error) {
    e := EstadoReserva(strings.ToUpper(strings.TrimSpace(s)))
    if _, ok := transiciones[e]; !ok {
        return "", fmt.Errorf("estado de reserva desconocido: %q", s)
    }
    return e, nil
}

// Valido reports whether e is one of the known states.
func (e EstadoReserva) Valido() bool {
    _, ok := transiciones[e]
    return ok
}

// EsTerminal reports whether no transition can leave e.
func (e EstadoReserva) EsTerminal() bool {
    return e == EstadoCancelada || e == EstadoRechazada
}

// PuedeTransicionarA reports whether moving from e to dst is legal.
func (e EstadoReserva) PuedeTransicionarA(dst EstadoReserva) bool {
    return transiciones[e][dst]
}

func (e EstadoReserva) String() string { return string(e) }
