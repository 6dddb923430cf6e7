package memory

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/turismo-reservas/internal/model"
)

// Demo holds the identifiers created by SeedDemo.
type Demo struct {
	Cliente        model.Usuario
	Emprendedor    model.Usuario
	Emprendimiento model.Emprendimiento
	Servicios      []model.ServicioTuristico
}

// SeedDemo creates a customer, an emprendedor with contact data, one
// emprendimiento and two services.  Both accounts share passwordHash.
func SeedDemo(s *Store, passwordHash string) Demo {
	cliente := s.PutUsuario(model.Usuario{
		Username:     "cliente@test.com",
		PasswordHash: passwordHash,
		Rol:          model.RolUsuario,
	})
	emprendedor := s.PutUsuario(model.Usuario{
		Username:     "emprendedor@test.com",
		PasswordHash: passwordHash,
		Rol:          model.RolEmprendedor,
		Persona:      &model.Persona{Nombres: "Juan", Apellidos: "Pérez", Telefono: "987654321"},
	})
	emp := s.PutEmprendimiento(model.Emprendimiento{Nombre: "Hotel Los Andes", UsuarioID: emprendedor.ID})
	habitacion := s.PutServicio(model.ServicioTuristico{
		Nombre:           "Habitación Doble",
		PrecioUnitario:   decimal.NewFromFloat(150.0),
		TipoServicio:     "ALOJAMIENTO",
		EmprendimientoID: emp.ID,
	})
	desayuno := s.PutServicio(model.ServicioTuristico{
		Nombre:           "Desayuno Buffet",
		PrecioUnitario:   decimal.NewFromFloat(30.0),
		TipoServicio:     "ALIMENTACION",
		EmprendimientoID: emp.ID,
	})
	return Demo{
		Cliente:        cliente,
		Emprendedor:    emprendedor,
		Emprendimiento: emp,
		Servicios:      []model.ServicioTuristico{habitacion, desayuno},
	}
}
