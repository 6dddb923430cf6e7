package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/turismo-reservas/internal/config"
	"github.com/iliyamo/turismo-reservas/internal/handler"
	"github.com/iliyamo/turismo-reservas/internal/middleware"
	"github.com/iliyamo/turismo-reservas/internal/model"
	"github.com/iliyamo/turismo-reservas/internal/repository/memory"
	"github.com/iliyamo/turismo-reservas/internal/service"
	"github.com/iliyamo/turismo-reservas/internal/utils"
)

const secret = "test-secret"

type app struct {
	e     *echo.Echo
	demo  memory.Demo
	store *memory.Store
}

func newApp(t *testing.T) *app {
	t.Helper()
	hash, err := utils.HashPassword("demo1234", bcrypt.MinCost)
	require.NoError(t, err)
	store := memory.New()
	demo := memory.SeedDemo(store, hash)

	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost}
	svc := service.NewReservaService(store.Reservas(), store.Emprendimientos(), store.Servicios(), store.Usuarios())

	e := echo.New()
	e.Validator = middleware.NewValidator()
	e.Use(middleware.RequestID(), middleware.Recovery())
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(cfg, store.Usuarios(), store.Tokens()), secret)
	RegisterPublic(e, handler.NewEmprendimientoHandler(svc))
	RegisterReservas(e, handler.NewReservaHandler(svc, store.Emprendimientos()), secret)
	return &app{e: e, demo: demo, store: store}
}

func (a *app) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(raw)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) login(t *testing.T, username string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"username": username, "password": "demo1234"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Access.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func (a *app) crearBody(lines ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id_emprendimiento": a.demo.Emprendimiento.ID,
		"fecha_hora_inicio": "2025-04-10T14:00:00Z",
		"fecha_hora_fin":    "2025-04-12T11:00:00Z",
		"detalles":          lines,
	}
}

func line(id uint64, qty int) map[string]interface{} {
	return map[string]interface{}{"id_servicio_turistico": id, "cantidad": qty}
}

func TestHealthAndWebhook(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.do(t, http.MethodPost, "/github-webhook", "", map[string]string{"action": "opened"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Received", rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/github-webhook", strings.NewReader("not json"))
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, "Received", rec.Body.String())
}

func TestReservaFlow(t *testing.T) {
	a := newApp(t)
	cliente := a.login(t, "cliente@test.com")
	owner := a.login(t, "emprendedor@test.com")
	hab, des := a.demo.Servicios[0].ID, a.demo.Servicios[1].ID

	rec := a.do(t, http.MethodPost, "/v1/reservas", cliente, a.crearBody(line(hab, 2), line(des, 4)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "PENDIENTE", created["estado"])
	assert.Equal(t, "420", created["total_general"])
	id := uint64(created["id_reserva"].(float64))

	rec = a.do(t, http.MethodPatch, fmt.Sprintf("/v1/reservas/%d/estado", id), cliente, map[string]string{"estado": "CONFIRMADA"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "No tiene permisos para modificar esta reserva", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPatch, fmt.Sprintf("/v1/reservas/%d/estado", id), owner, map[string]string{"estado": "confirmada"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMADA", decode(t, rec)["estado"])

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/v1/reservas/%d/estado", id), owner, map[string]string{"estado": "PENDIENTE"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/v1/reservas/%d/estado", id), owner, map[string]string{"estado": "CANCELADA"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPatch, fmt.Sprintf("/v1/reservas/%d/estado", id), owner, map[string]string{"estado": "CONFIRMADA"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "No se puede cambiar el estado de una reserva cancelada o rechazada", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPatch, fmt.Sprintf("/v1/reservas/%d/estado", id), owner, map[string]string{"estado": "PAGADA"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/reservas/%d", id), cliente, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELADA", decode(t, rec)["estado"])

	rec = a.do(t, http.MethodGet, "/v1/mis-reservas", cliente, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["reservas"], 1)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/emprendimientos/%d/reservas", a.demo.Emprendimiento.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["reservas"], 1)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/emprendimientos/%d/reservas", a.demo.Emprendimiento.ID), cliente, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/usuarios/%d/reservas", a.demo.Emprendedor.ID), cliente, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReservaAccesoOcultaIDs(t *testing.T) {
	a := newApp(t)
	cliente := a.login(t, "cliente@test.com")
	owner := a.login(t, "emprendedor@test.com")

	rec := a.do(t, http.MethodPost, "/v1/reservas", cliente, a.crearBody(line(a.demo.Servicios[0].ID, 1)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	otro := a.store.PutUsuario(model.Usuario{Username: "otro@test.com", Rol: model.RolEmprendedor})
	tok, err := utils.NewAccessToken(secret, otro.ID, model.RolEmprendedor, 5)
	require.NoError(t, err)
	otroEmp := a.store.PutEmprendimiento(model.Emprendimiento{Nombre: "Otro", UsuarioID: otro.ID})

	// Existing and unknown ids answer the same to a caller without access.
	existing := a.do(t, http.MethodGet, fmt.Sprintf("/v1/reservas/%d", uint64(decode(t, rec)["id_reserva"].(float64))), tok.Token, nil)
	missing := a.do(t, http.MethodGet, "/v1/reservas/9999", tok.Token, nil)
	assert.Equal(t, http.StatusForbidden, existing.Code)
	assert.Equal(t, http.StatusForbidden, missing.Code)
	assert.Equal(t, existing.Body.String(), missing.Body.String())

	foreign := a.do(t, http.MethodGet, fmt.Sprintf("/v1/emprendimientos/%d/reservas", otroEmp.ID), owner, nil)
	unknown := a.do(t, http.MethodGet, "/v1/emprendimientos/9999/reservas", owner, nil)
	assert.Equal(t, http.StatusForbidden, foreign.Code)
	assert.Equal(t, http.StatusForbidden, unknown.Code)

	admin, err := utils.NewAccessToken(secret, otro.ID, model.RolAdmin, 5)
	require.NoError(t, err)
	rec = a.do(t, http.MethodGet, "/v1/reservas/9999", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Reserva no encontrado con id 9999", decode(t, rec)["error"])

	rec = a.do(t, http.MethodGet, "/v1/emprendimientos/9999/reservas", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCrearReservaErrores(t *testing.T) {
	a := newApp(t)
	cliente := a.login(t, "cliente@test.com")

	rec := a.do(t, http.MethodPost, "/v1/reservas", "", a.crearBody(line(a.demo.Servicios[0].ID, 1)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/reservas", cliente, a.crearBody(line(9999, 1)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Servicio turístico no encontrado", decode(t, rec)["error"])

	body := a.crearBody(line(a.demo.Servicios[0].ID, 1))
	body["id_emprendimiento"] = 9999
	rec = a.do(t, http.MethodPost, "/v1/reservas", cliente, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Emprendimiento no encontrado", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/v1/reservas", cliente, a.crearBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/reservas", cliente, a.crearBody(line(a.demo.Servicios[0].ID, 0)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, a.store.ReservaSaves())
}

func TestPublicEmprendimiento(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, fmt.Sprintf("/v1/emprendimientos/%d/telefono", a.demo.Emprendimiento.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "987654321", decode(t, rec)["telefono"])

	rec = a.do(t, http.MethodGet, "/v1/emprendimientos/9999/telefono", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/emprendimientos/abc/servicios", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/emprendimientos/%d/servicios", a.demo.Emprendimiento.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["servicios"], 2)
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "Nuevo@Test.com", "password": "secreto1", "rol": "emprendedor",
		"nombres": "Ana", "telefono": "555",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var auth struct {
		User struct {
			ID       uint64 `json:"id"`
			Username string `json:"username"`
			Rol      string `json:"rol"`
		} `json:"user"`
		Access  struct{ Token string } `json:"access"`
		Refresh struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))
	assert.Equal(t, "nuevo@test.com", auth.User.Username)
	assert.Equal(t, "EMPRENDEDOR", auth.User.Rol)

	rec = a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "nuevo@test.com", "password": "secreto1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "no-email", "password": "secreto1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "mixto@test.com", "password": "secreto1", "rol": " Emprendedor "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "EMPRENDEDOR", decode(t, rec)["user"].(map[string]interface{})["rol"])

	rec = a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "admin@test.com", "password": "secreto1", "rol": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/me", auth.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "nuevo@test.com", me["username"])
	assert.Equal(t, "555", me["persona"].(map[string]interface{})["telefono"])

	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "nuevo@test.com", "password": "mala"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": auth.Refresh.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	var rotated struct {
		Refresh struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))

	rec = a.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": auth.Refresh.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/logout", "", map[string]string{"refresh_token": rotated.Refresh.Token})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
