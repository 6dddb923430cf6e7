// Package memory implements every repository interface on top of
// mutex-guarded maps.  It backs unit tests and STORE=memory runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/turismo-reservas/internal/model"
	"github.com/iliyamo/turismo-reservas/internal/repository"
)

// Store holds all entities.  Values are copied on the way in and on
// the way out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	usuarios        map[uint64]model.Usuario
	emprendimientos map[uint64]model.Emprendimiento
	servicios       map[uint64]model.ServicioTuristico
	reservas        map[uint64]model.Reserva
	tokens          map[string]model.RefreshToken

	seq   uint64
	saves int

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		usuarios:        make(map[uint64]model.Usuario),
		emprendimientos: make(map[uint64]model.Emprendimiento),
		servicios:       make(map[uint64]model.ServicioTuristico),
		reservas:        make(map[uint64]model.Reserva),
		tokens:          make(map[string]model.RefreshToken),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

var (
	_ repository.UsuarioRepository           = (*Usuarios)(nil)
	_ repository.EmprendimientoRepository    = (*Emprendimientos)(nil)
	_ repository.ServicioTuristicoRepository = (*Servicios)(nil)
	_ repository.ReservaRepository           = (*Reservas)(nil)
	_ repository.TokenRepository             = (*Tokens)(nil)
)

// Each entity gets its own view type because several interfaces
// share method names (FindByID).
type (
	Usuarios        struct{ s *Store }
	Emprendimientos struct{ s *Store }
	Servicios       struct{ s *Store }
	Reservas        struct{ s *Store }
	Tokens          struct{ s *Store }
)

func (s *Store) Usuarios() *Usuarios               { return &Usuarios{s} }
func (s *Store) Emprendimientos() *Emprendimientos { return &Emprendimientos{s} }
func (s *Store) Servicios() *Servicios             { return &Servicios{s} }
func (s *Store) Reservas() *Reservas               { return &Reservas{s} }
func (s *Store) Tokens() *Tokens                   { return &Tokens{s} }

// ReservaSaves returns how many times a reserva was saved.
func (s *Store) ReservaSaves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// nextID must be called with mu held.
func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

// PutUsuario stores u as-is, assigning an id when u.ID is zero.
func (s *Store) PutUsuario(u model.Usuario) model.Usuario {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	} else if u.ID > s.seq {
		s.seq = u.ID
	}
	if u.Persona != nil {
		p := *u.Persona
		if p.ID == 0 {
			p.ID = s.nextID()
		}
		u.Persona = &p
		u.PersonaID = &p.ID
	}
	s.usuarios[u.ID] = u
	return u
}

// PutEmprendimiento stores e, assigning an id when e.ID is zero.  The
// loaded Usuario field is ignored; lookups resolve it from UsuarioID.
func (s *Store) PutEmprendimiento(e model.Emprendimiento) model.Emprendimiento {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.nextID()
	} else if e.ID > s.seq {
		s.seq = e.ID
	}
	e.Usuario = nil
	s.emprendimientos[e.ID] = e
	return e
}

// PutServicio stores sv, assigning an id when sv.ID is zero.
func (s *Store) PutServicio(sv model.ServicioTuristico) model.ServicioTuristico {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sv.ID == 0 {
		sv.ID = s.nextID()
	} else if sv.ID > s.seq {
		s.seq = sv.ID
	}
	s.servicios[sv.ID] = sv
	return sv
}

// PutReserva stores r directly without counting it as a save.
func (s *Store) PutReserva(r model.Reserva) model.Reserva {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextID()
	} else if r.ID > s.seq {
		s.seq = r.ID
	}
	r.Detalles = copyDetalles(r.Detalles)
	s.reservas[r.ID] = r
	return r
}

func copyDetalles(in []model.ReservaDetalle) []model.ReservaDetalle {
	out := make([]model.ReservaDetalle, len(in))
	copy(out, in)
	return out
}

func copyReserva(r model.Reserva) model.Reserva {
	r.Detalles = copyDetalles(r.Detalles)
	return r
}

func copyUsuario(u model.Usuario) *model.Usuario {
	if u.Persona != nil {
		p := *u.Persona
		u.Persona = &p
	}
	return &u
}

// ---- usuarios ----

func (v *Usuarios) FindByID(_ context.Context, id uint64) (*model.Usuario, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	u, ok := v.s.usuarios[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUsuario(u), nil
}

func (v *Usuarios) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for _, u := range v.s.usuarios {
		if u.Username == username {
			return copyUsuario(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (v *Usuarios) Create(_ context.Context, u *model.Usuario) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.usuarios {
		if existing.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	if u.Persona != nil {
		u.Persona.ID = v.s.nextID()
		pid := u.Persona.ID
		u.PersonaID = &pid
	}
	u.ID = v.s.nextID()
	now := v.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	v.s.usuarios[u.ID] = *copyUsuario(*u)
	return nil
}

// ---- emprendimientos ----

func (v *Emprendimientos) FindByID(_ context.Context, id uint64) (*model.Emprendimiento, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	e, ok := v.s.emprendimientos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u, ok := v.s.usuarios[e.UsuarioID]; ok {
		e.Usuario = copyUsuario(u)
	}
	return &e, nil
}

// ---- servicios ----

func (v *Servicios) FindByID(_ context.Context, id uint64) (*model.ServicioTuristico, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	sv, ok := v.s.servicios[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sv, nil
}

func (v *Servicios) ListByEmprendimiento(_ context.Context, emprendimientoID uint64) ([]model.ServicioTuristico, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]model.ServicioTuristico, 0)
	for _, sv := range v.s.servicios {
		if sv.EmprendimientoID == emprendimientoID {
			out = append(out, sv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Nombre != out[j].Nombre {
			return out[i].Nombre < out[j].Nombre
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- reservas ----

func (v *Reservas) FindByID(_ context.Context, id uint64) (*model.Reserva, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	r, ok := v.s.reservas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r = copyReserva(r)
	return &r, nil
}

func (v *Reservas) Save(_ context.Context, r *model.Reserva) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if r.ID != 0 {
		existing, ok := v.s.reservas[r.ID]
		if !ok {
			return repository.ErrNotFound
		}
		existing.Estado = r.Estado
		v.s.reservas[r.ID] = existing
		v.s.saves++
		return nil
	}
	r.ID = v.s.nextID()
	for i := range r.Detalles {
		r.Detalles[i].ID = v.s.nextID()
		r.Detalles[i].ReservaID = r.ID
	}
	v.s.reservas[r.ID] = copyReserva(*r)
	v.s.saves++
	return nil
}

func (v *Reservas) ListByUsuario(_ context.Context, usuarioID uint64) ([]model.Reserva, error) {
	return v.list(func(r model.Reserva) bool { return r.UsuarioID == usuarioID }), nil
}

func (v *Reservas) ListByEmprendimiento(_ context.Context, emprendimientoID uint64) ([]model.Reserva, error) {
	return v.list(func(r model.Reserva) bool { return r.EmprendimientoID == emprendimientoID }), nil
}

// list returns matching reservas newest first, like the MySQL repo.
func (v *Reservas) list(match func(model.Reserva) bool) []model.Reserva {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]model.Reserva, 0)
	for _, r := range v.s.reservas {
		if match(r) {
			out = append(out, copyReserva(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FechaHoraReserva.Equal(out[j].FechaHoraReserva) {
			return out[i].FechaHoraReserva.After(out[j].FechaHoraReserva)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ---- tokens ----

func (v *Tokens) StoreRefresh(_ context.Context, usuarioID uint64, tokenHash string, exp time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.tokens[tokenHash] = model.RefreshToken{
		ID:        v.s.nextID(),
		UsuarioID: usuarioID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: v.s.now(),
	}
	return nil
}

func (v *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	t, ok := v.s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || v.s.now().After(t.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return t.UsuarioID, nil
}

func (v *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if t, ok := v.s.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := v.s.now()
		t.RevokedAt = &now
		v.s.tokens[tokenHash] = t
	}
	return nil
}

func (v *Tokens) RevokeAllForUser(_ context.Context, usuarioID uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	now := v.s.now()
	for k, t := range v.s.tokens {
		if t.UsuarioID == usuarioID && t.RevokedAt == nil {
			t.RevokedAt = &now
			v.s.tokens[k] = t
		}
	}
	return nil
}
