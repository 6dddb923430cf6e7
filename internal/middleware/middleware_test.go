package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/turismo-reservas/internal/config"
    "github.com/iliyamo/turismo-reservas/internal/utils"
)

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    var gotID interface{}
    var gotRole interface{}
    e.GET("/p", func(c echo.Context) error {
        gotID, gotRole = c.Get(CtxUserID), c.Get(CtxRole)
        return c.NoContent(http.StatusNoContent)
    }, JWTAuth("secret"))

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/p", nil))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "missing bearer token")

    req := httptest.NewRequest(http.MethodGet, "/p", nil)
    req.Header.Set("Authorization", "Bearer garbage")
    rec = serve(e, req)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    at, err := utils.NewAccessToken("secret", 7, "EMPRENDEDOR", 5)
    require.NoError(t, err)
    req = httptest.NewRequest(http.MethodGet, "/p", nil)
    req.Header.Set("Authorization", "Bearer "+at.Token)
    rec = serve(e, req)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, uint64(7), gotID)
    assert.Equal(t, "EMPRENDEDOR", gotRole)
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    setRole := func(role string) echo.MiddlewareFunc {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error {
                c.Set(CtxRole, role)
                return next(c)
            }
        }
    }
    ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    e.GET("/emp", ok, setRole("EMPRENDEDOR"), RequireRole("EMPRENDEDOR", "ADMIN"))
    e.GET("/usr", ok, setRole("USUARIO"), RequireRole("EMPRENDEDOR"))

    assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/emp", nil)).Code)
    assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/usr", nil)).Code)
}

func TestRequestIDAndLogger(t *testing.T) {
    e := echo.New()
    e.Use(RequestID(), Logger())
    e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, RequestIDFrom(c)) })
    e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "nope") })

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    id := rec.Header().Get(HeaderRequestID)
    assert.Len(t, id, 36)
    assert.Equal(t, id, rec.Body.String())

    req := httptest.NewRequest(http.MethodGet, "/x", nil)
    req.Header.Set(HeaderRequestID, "abc-123")
    rec = serve(e, req)
    assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

    rec = serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
    assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRecovery(t *testing.T) {
    e := echo.New()
    e.Use(Recovery())
    e.GET("/panic", func(c echo.Context) error { panic("kaboom") })

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/panic", nil))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestNewTokenBucket_DisabledPassesThrough(t *testing.T) {
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
    }
}

// stubScripter answers EvalSha, which is all Script.Run needs while the
// script is cached.
type stubScripter struct {
    redis.Scripter
    reply interface{}
    err   error
    keys  []string
}

func (s *stubScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
    s.keys = append(s.keys, keys...)
    cmd := redis.NewCmd(ctx)
    if s.err != nil {
        cmd.SetErr(s.err)
    } else {
        cmd.SetVal(s.reply)
    }
    return cmd
}

func TestParseBucketReply(t *testing.T) {
    cases := []struct {
        in   interface{}
        want bucketReply
        ok   bool
    }{
        {[]interface{}{int64(1), int64(4), int64(0)}, bucketReply{Allowed: true, Remaining: 4}, true},
        {[]interface{}{float32(0), float32(0), float32(1500)}, bucketReply{RetryMs: 1500}, true},
        {[]interface{}{"1", 2, float64(0)}, bucketReply{Allowed: true, Remaining: 2}, true},
        {[]interface{}{int64(1)}, bucketReply{}, false},
        {"OK", bucketReply{}, false},
    }
    for _, tc := range cases {
        got, ok := parseBucketReply(tc.in)
        assert.Equal(t, tc.ok, ok, "%v", tc.in)
        assert.Equal(t, tc.want, got, "%v", tc.in)
    }
}

func TestNewTokenBucket_Blocks(t *testing.T) {
    rdb := &stubScripter{reply: []interface{}{int64(0), int64(0), int64(1200)}}
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 5, Prefix: "rl", KeyStrategy: "ip"}, rdb))

    req := httptest.NewRequest(http.MethodGet, "/x", nil)
    req.RemoteAddr = "10.0.0.2:1234"
    rec := serve(e, req)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "2", rec.Header().Get("Retry-After"))
    assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
    assert.Equal(t, []string{"rl:ip:10.0.0.2"}, rdb.keys)

    rdb.reply = []interface{}{int64(1), int64(3), int64(0)}
    rec = serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Remaining"))

    rdb.err = errors.New("connection refused")
    assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/reservas", nil)
    req.RemoteAddr = "10.0.0.1:5555"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/reservas")

    cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
    assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /v1/reservas", buildRateKey(cfg, c))

    c.Set(CtxUserID, uint64(9))
    cfg.KeyStrategy = "user"
    assert.Equal(t, "rl:user:9", buildRateKey(cfg, c))
}

func TestValidator(t *testing.T) {
    type linea struct {
        Cantidad int `json:"cantidad" validate:"required,gte=1"`
    }
    type body struct {
        Nombre string  `json:"nombre" validate:"required"`
        Lineas []linea `json:"lineas" validate:"required,min=1,dive"`
    }
    v := NewValidator()

    assert.NoError(t, v.Validate(body{Nombre: "a", Lineas: []linea{{Cantidad: 1}}}))

    err := v.Validate(body{Lineas: []linea{{Cantidad: 1}}})
    var he *echo.HTTPError
    require.ErrorAs(t, err, &he)
    assert.Equal(t, http.StatusBadRequest, he.Code)
    assert.Equal(t, "nombre is required", he.Message)

    err = v.Validate(body{Nombre: "a", Lineas: []linea{{Cantidad: 0}}})
    require.ErrorAs(t, err, &he)
    assert.Contains(t, he.Message, "lineas[0].cantidad")
}
