package model

import "github.com/shopspring/decimal"

// Emprendimiento is a business offering tourism services.  It is
// owned by exactly one Usuario (the emprendedor).  Repositories load
// the owner together with its Persona so that contact data and
// ownership checks need no extra lookups.
type Emprendimiento struct {
    ID        uint64   // emprendimientos.id_emprendimiento
    Nombre    string   // emprendimientos.nombre
    UsuarioID uint64   // emprendimientos.id_usuario
    Usuario   *Usuario // joined owner
}

// ServicioTuristico is a purchasable service line (room, tour, meal)
// belonging to an Emprendimiento.  PrecioUnitario is the current
// price; reservations copy it at creation time.
type ServicioTuristico struct {
    ID               uint64          // servicios_turisticos.id_servicio
    Nombre           string          // servicios_turisticos.nombre
    PrecioUnitario   decimal.Decimal // servicios_turisticos.precio_unitario
    TipoServicio     string          // servicios_turisticos.tipo_servicio
    EmprendimientoID uint64          // servicios_turisticos.id_emprendimiento
}
