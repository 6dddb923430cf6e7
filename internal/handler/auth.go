package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/turismo-reservas/internal/config"
    "github.com/iliyamo/turismo-reservas/internal/dto"
    "github.com/iliyamo/turismo-reservas/internal/middleware"
    "github.com/iliyamo/turismo-reservas/internal/model"
    "github.com/iliyamo/turismo-reservas/internal/repository"
    "github.com/iliyamo/turismo-reservas/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Usuarios repository.UsuarioRepository
    Tokens   repository.TokenRepository
}

func NewAuthHandler(cfg config.Config, u repository.UsuarioRepository, t repository.TokenRepository) *AuthHandler {
    if u == nil || t == nil {
        panic("nil repository passed to NewAuthHandler")
    }
    return &AuthHandler{Cfg: cfg, Usuarios: u, Tokens: t}
}

// Register: create usuario (and persona when contact data is given) and
// return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req dto.RegisterRequest
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    rol := req.Rol
    if rol != model.RolEmprendedor {
        rol = model.RolUsuario
    }

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
    }
    u := &model.Usuario{Username: req.Username, PasswordHash: hash, Rol: rol}
    if req.Nombres != "" || req.Apellidos != "" || req.Telefono != "" {
        u.Persona = &model.Persona{
            Nombres:   strings.TrimSpace(req.Nombres),
            Apellidos: strings.TrimSpace(req.Apellidos),
            Telefono:  strings.TrimSpace(req.Telefono),
        }
    }

    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Usuarios.Create(ctx, u); err != nil {
        if errors.Is(err, repository.ErrUsernameExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    return h.issue(c, http.StatusCreated, u)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req dto.LoginRequest
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }

    ctx, cancel := requestContext(c)
    defer cancel()

    u, err := h.Usuarios.FindByUsername(ctx, req.Username)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    return h.issue(c, http.StatusOK, u)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req dto.RefreshRequest
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := requestContext(c)
    defer cancel()

    uid, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke refresh failed"})
    }
    u, err := h.Usuarios.FindByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return h.issue(c, http.StatusOK, u)
}

// Logout revokes the refresh token given in the body, or every refresh
// token of the bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        if cl, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
            uid = cl.UsuarioID
        }
    }

    // invalid JSON simply leaves the token empty
    var req dto.RefreshRequest
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := requestContext(c)
    defer cancel()

    switch {
    case refreshToken != "":
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    case uid != 0:
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the authenticated usuario with its persona.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    u, err := h.Usuarios.FindByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Usuario no encontrado"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    out := echo.Map{
        "id":        u.ID,
        "username":  u.Username,
        "rol":       u.Rol,
        "token_rol": c.Get(middleware.CtxRole),
    }
    if u.Persona != nil {
        out["persona"] = echo.Map{
            "nombres":   u.Persona.Nombres,
            "apellidos": u.Persona.Apellidos,
            "telefono":  u.Persona.Telefono,
        }
    }
    return c.JSON(http.StatusOK, out)
}

// issue mints an access/refresh pair for u and writes the auth response.
func (h *AuthHandler) issue(c echo.Context, status int, u *model.Usuario) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Rol, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(c.Request().Context(), u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }
    return c.JSON(status, dto.AuthResponse{
        User:    dto.UserPart{ID: u.ID, Username: u.Username, Rol: u.Rol},
        Access:  dto.TokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: dto.TokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}
