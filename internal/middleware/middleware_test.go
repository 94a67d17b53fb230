package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/go-playground/assert/v2"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/auth"
    "github.com/iliyamo/rental-listings/internal/booking"
    "github.com/iliyamo/rental-listings/internal/config"
    "github.com/iliyamo/rental-listings/internal/editor"
    "github.com/iliyamo/rental-listings/internal/session"
)

func newStore(t *testing.T) *session.Store {
    ctx, cancel := context.WithCancel(context.Background())
    t.Cleanup(cancel)
    return session.NewStore(ctx, time.Minute, func(id string) *session.Client {
        return &session.Client{
            Gate:    &auth.Gate{},
            Booking: booking.New(nil, nil, booking.Options{}),
            Editor:  editor.New(nil, editor.Options{}),
        }
    })
}

func newEcho(store *session.Store) *echo.Echo {
    e := echo.New()
    e.Use(ClientSession(store))
    e.GET("/who", func(c echo.Context) error {
        return c.String(http.StatusOK, CurrentClient(c).ID)
    })
    e.GET("/admin", func(c echo.Context) error {
        return c.NoContent(http.StatusNoContent)
    }, RequireOperator())
    return e
}

func TestClientSessionIssuesAndReusesID(t *testing.T) {
    e := newEcho(newStore(t))

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/who", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    id := rec.Body.String()
    assert.NotEqual(t, "", id)
    assert.Equal(t, id, rec.Header().Get(ClientHeader))
    cookies := rec.Result().Cookies()
    assert.Equal(t, 1, len(cookies))
    assert.Equal(t, id, cookies[0].Value)

    req := httptest.NewRequest(http.MethodGet, "/who", nil)
    req.AddCookie(&http.Cookie{Name: ClientCookie, Value: id})
    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, id, rec.Body.String())
    assert.Equal(t, 0, len(rec.Result().Cookies()))

    req = httptest.NewRequest(http.MethodGet, "/who", nil)
    req.Header.Set(ClientHeader, id)
    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, id, rec.Body.String())
}

func TestRequireOperator(t *testing.T) {
    store := newStore(t)
    e := newEcho(store)

    cl, _ := store.Acquire("")
    req := httptest.NewRequest(http.MethodGet, "/admin", nil)
    req.Header.Set(ClientHeader, cl.ID)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    a, err := auth.NewStaticAuthenticator("op", "pw", 4)
    assert.Equal(t, err, nil)
    cl.Gate.SetCredentials("op", "pw")
    assert.Equal(t, cl.Gate.Login(a), nil)

    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateKey(t *testing.T) {
    store := newStore(t)
    cl, _ := store.Acquire("")
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/booking/submit", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/booking/submit")

    assert.Equal(t, "rl:10.0.0.1:anon:POST /v1/booking/submit", rateKey("rl", c))

    c.Set(clientKey, cl)
    assert.Equal(t, "rl:10.0.0.1:"+cl.ID+":POST /v1/booking/submit", rateKey("rl", c))
}

func TestTokenBucketWithoutRedisPassesThrough(t *testing.T) {
    e := echo.New()
    e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
        NewTokenBucket(config.RateLimit{Enabled: true, Capacity: 1}, nil))
    for i := 0; i < 3; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
        assert.Equal(t, http.StatusNoContent, rec.Code)
    }
}
