package handler_test

import (
    "bytes"
    "context"
    "encoding/json"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/go-playground/assert/v2"
    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/rental-listings/internal/auth"
    "github.com/iliyamo/rental-listings/internal/booking"
    "github.com/iliyamo/rental-listings/internal/config"
    "github.com/iliyamo/rental-listings/internal/docstore"
    "github.com/iliyamo/rental-listings/internal/editor"
    "github.com/iliyamo/rental-listings/internal/handler"
    "github.com/iliyamo/rental-listings/internal/identity"
    "github.com/iliyamo/rental-listings/internal/middleware"
    "github.com/iliyamo/rental-listings/internal/mirror"
    "github.com/iliyamo/rental-listings/internal/model"
    "github.com/iliyamo/rental-listings/internal/repository"
    "github.com/iliyamo/rental-listings/internal/router"
    "github.com/iliyamo/rental-listings/internal/session"
)

const appID = "test-app"

type env struct {
    t        *testing.T
    e        *echo.Echo
    mirror   *mirror.Mirror
    listings *repository.ListingRepo
    bookings *repository.BookingRepo
    client   string
}

func newEnv(t *testing.T) *env {
    ctx, cancel := context.WithCancel(context.Background())
    t.Cleanup(cancel)

    store := docstore.NewMemoryStore()
    t.Cleanup(func() { store.Close() })

    boot := identity.NewBootstrap(identity.TokenProvider{})
    m := mirror.New(store, appID)
    detach := m.Attach(boot)
    t.Cleanup(func() { detach(); m.Close() })
    boot.Start(ctx)

    listings := repository.NewListingRepo(store, appID)
    bookings := repository.NewBookingRepo(store, appID)
    neighborhoods := repository.NewNeighborhoodRepo(store, appID)

    operator, err := auth.NewStaticAuthenticator("operator", "s3cret", bcrypt.MinCost)
    assert.Equal(t, err, nil)

    sessions := session.NewStore(ctx, time.Minute, func(id string) *session.Client {
        return &session.Client{
            Gate:    &auth.Gate{},
            Booking: booking.New(bookings, boot.Session, booking.Options{ResetDelay: time.Hour}),
            Editor:  editor.New(listings, editor.Options{}),
        }
    })

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterPublic(e, &handler.PublicHandler{Identity: boot, Catalog: m}, handler.NewLiveHandler(m, nil))
    router.RegisterClient(e, sessions, &handler.BookingHandler{Catalog: m}, &handler.ViewHandler{Auth: operator},
        middleware.NewTokenBucket(config.RateLimit{}, nil))
    router.RegisterOperator(e, sessions,
        &handler.AdminHandler{Catalog: m, Listings: listings, Bookings: bookings, Neighborhoods: neighborhoods},
        &handler.EditorHandler{Catalog: m})

    eventually(t, func() bool { return !m.Loading() && len(m.Neighborhoods()) > 0 })
    return &env{t: t, e: e, mirror: m, listings: listings, bookings: bookings}
}

func (v *env) do(method, path string, body any) *httptest.ResponseRecorder {
    v.t.Helper()
    var rd *bytes.Reader
    if body != nil {
        b, err := json.Marshal(body)
        assert.Equal(v.t, err, nil)
        rd = bytes.NewReader(b)
    } else {
        rd = bytes.NewReader(nil)
    }
    req := httptest.NewRequest(method, path, rd)
    if body != nil {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    return v.send(req)
}

func (v *env) send(req *http.Request) *httptest.ResponseRecorder {
    if v.client != "" {
        req.Header.Set(middleware.ClientHeader, v.client)
    }
    rec := httptest.NewRecorder()
    v.e.ServeHTTP(rec, req)
    if id := rec.Header().Get(middleware.ClientHeader); id != "" {
        v.client = id
    }
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    assert.Equal(t, json.Unmarshal(rec.Body.Bytes(), &out), nil)
    return out
}

func eventually(t *testing.T, cond func() bool) {
    t.Helper()
    deadline := time.Now().Add(2 * time.Second)
    for !cond() {
        if time.Now().After(deadline) {
            t.Fatal("condition not met in time")
        }
        time.Sleep(5 * time.Millisecond)
    }
}

func (v *env) seed(l model.Listing) string {
    v.t.Helper()
    id, err := v.listings.Create(context.Background(), l)
    assert.Equal(v.t, err, nil)
    eventually(v.t, func() bool { _, ok := v.mirror.Listing(id); return ok })
    return id
}

func (v *env) login() {
    v.t.Helper()
    rec := v.do(http.MethodPost, "/v1/admin/login", map[string]string{"username": "operator", "password": "s3cret"})
    assert.Equal(v.t, http.StatusOK, rec.Code)
}

func TestHealthAndStatus(t *testing.T) {
    v := newEnv(t)
    rec := v.do(http.MethodGet, "/healthz", nil)
    assert.Equal(t, http.StatusOK, rec.Code)

    eventually(t, func() bool { return !v.mirror.Loading() })
    rec = v.do(http.MethodGet, "/v1/status", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "ready", body["state"])
    assert.Equal(t, false, body["loading"])
}

func TestListingsFilterAndGallery(t *testing.T) {
    v := newEnv(t)
    villa := v.seed(model.Listing{Name: "Villa X", Neighborhood: "Cocody", RoomType: model.RoomTwo, Availability: model.Available,
        Images: []string{"data:a", "data:b", "data:c"}})
    v.seed(model.Listing{Name: "Studio Y", Neighborhood: "Plateau", RoomType: model.RoomStudio, Availability: model.Available})

    rec := v.do(http.MethodGet, "/v1/listings?search=VILLA", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, len(decode(t, rec)["items"].([]any)))

    rec = v.do(http.MethodGet, "/v1/listings?neighborhood=Plateau&type=Studio", nil)
    assert.Equal(t, 1, len(decode(t, rec)["items"].([]any)))

    rec = v.do(http.MethodGet, "/v1/listings?type=3-room", nil)
    assert.Equal(t, 0, len(decode(t, rec)["items"].([]any)))

    rec = v.do(http.MethodGet, "/v1/listings/"+villa+"/gallery?index=2&dir=next", nil)
    body := decode(t, rec)
    assert.Equal(t, float64(0), body["index"])
    assert.Equal(t, "data:a", body["image"])

    rec = v.do(http.MethodGet, "/v1/listings/"+villa+"/gallery?index=0&dir=prev", nil)
    assert.Equal(t, float64(2), decode(t, rec)["index"])

    rec = v.do(http.MethodGet, "/v1/listings/missing", nil)
    assert.Equal(t, http.StatusNotFound, rec.Code)

    rec = v.do(http.MethodGet, "/v1/neighborhoods", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, len(model.DefaultNeighborhoods), len(decode(t, rec)["items"].([]any)))
}

func TestBookingFlow(t *testing.T) {
    v := newEnv(t)
    free := v.seed(model.Listing{Name: "Villa X", Availability: model.Available})
    taken := v.seed(model.Listing{Name: "Loft", Availability: model.Occupied})

    rec := v.do(http.MethodPost, "/v1/booking/open", map[string]string{"listingId": taken})
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec = v.do(http.MethodPost, "/v1/booking/open", map[string]string{"listingId": free})
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "form_open", decode(t, rec)["state"])

    rec = v.do(http.MethodPost, "/v1/booking/submit", nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = v.do(http.MethodPut, "/v1/booking/form", map[string]string{"name": "Awa", "phone": "0700000000"})
    assert.Equal(t, http.StatusOK, rec.Code)
    rec = v.do(http.MethodPost, "/v1/booking/submit", nil)
    assert.Equal(t, http.StatusCreated, rec.Code)

    stored, err := v.bookings.List(context.Background())
    assert.Equal(t, err, nil)
    assert.Equal(t, 1, len(stored))
    assert.Equal(t, "Villa X", stored[0].ListingName)
    assert.Equal(t, model.BookingStatusNew, stored[0].Status)

    rec = v.do(http.MethodGet, "/v1/booking", nil)
    assert.Equal(t, "success", decode(t, rec)["state"])
}

func TestOperatorGate(t *testing.T) {
    v := newEnv(t)
    rec := v.do(http.MethodGet, "/v1/admin/stats", nil)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec = v.do(http.MethodPost, "/v1/view/toggle", nil)
    assert.Equal(t, "login", decode(t, rec)["panel"])

    rec = v.do(http.MethodPost, "/v1/admin/login", map[string]string{"username": "operator", "password": "nope"})
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Equal(t, "invalid credentials", decode(t, rec)["error"])

    v.login()
    rec = v.do(http.MethodGet, "/v1/view", nil)
    assert.Equal(t, "dashboard", decode(t, rec)["panel"])

    v.seed(model.Listing{Name: "A", PricePerNight: 1_200_000, Availability: model.Available})
    rec = v.do(http.MethodGet, "/v1/admin/stats", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "1.2M", body["valueLabel"])

    rec = v.do(http.MethodPost, "/v1/admin/neighborhoods", map[string]string{"name": "  "})
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    rec = v.do(http.MethodPost, "/v1/admin/neighborhoods", map[string]string{"name": "Treichville"})
    assert.Equal(t, http.StatusCreated, rec.Code)
    eventually(t, func() bool {
        ns := v.mirror.Neighborhoods()
        return len(ns) == 1 && ns[0] == "Treichville"
    })

    rec = v.do(http.MethodPost, "/v1/admin/logout", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    rec = v.do(http.MethodGet, "/v1/admin/stats", nil)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditorCreateEditDelete(t *testing.T) {
    v := newEnv(t)
    v.login()

    rec := v.do(http.MethodPost, "/v1/admin/editor/new", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "create_open", decode(t, rec)["state"])

    fields := editor.Fields{
        Name:          "Villa X",
        City:          model.DefaultCity,
        Neighborhood:  model.DefaultNeighborhoods[0],
        RoomType:      model.RoomTwo,
        PricePerNight: editor.PriceOf(50000),
        Availability:  model.Available,
    }
    rec = v.do(http.MethodPut, "/v1/admin/editor/fields", fields)
    assert.Equal(t, http.StatusOK, rec.Code)

    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    part, err := mw.CreateFormFile("images", "cover.png")
    assert.Equal(t, err, nil)
    _, _ = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
    assert.Equal(t, mw.Close(), nil)
    req := httptest.NewRequest(http.MethodPost, "/v1/admin/editor/images", &buf)
    req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
    rec = v.send(req)
    assert.Equal(t, http.StatusOK, rec.Code)
    draft := decode(t, rec)["draft"].(map[string]any)
    assert.Equal(t, 1, len(draft["images"].([]any)))

    rec = v.do(http.MethodPost, "/v1/admin/editor/submit", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    id := decode(t, rec)["listing"].(map[string]any)["id"].(string)
    eventually(t, func() bool { _, ok := v.mirror.Listing(id); return ok })

    rec = v.do(http.MethodPost, "/v1/admin/editor/edit/"+id, nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    fields.PricePerNight = editor.PriceOf(60000)
    rec = v.do(http.MethodPut, "/v1/admin/editor/fields", fields)
    assert.Equal(t, http.StatusOK, rec.Code)
    rec = v.do(http.MethodPost, "/v1/admin/editor/submit", nil)
    assert.Equal(t, http.StatusOK, rec.Code)

    eventually(t, func() bool {
        l, ok := v.mirror.Listing(id)
        return ok && l.PricePerNight == 60000 && len(l.Images) == 1 && l.Name == "Villa X"
    })

    rec = v.do(http.MethodDelete, "/v1/admin/listings/"+id, nil)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    eventually(t, func() bool { _, ok := v.mirror.Listing(id); return !ok })
}

func TestLiveFeedPushesChanges(t *testing.T) {
    v := newEnv(t)
    srv := httptest.NewServer(v.e)
    defer srv.Close()

    ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/live", nil)
    assert.Equal(t, err, nil)
    defer ws.Close()
    ws.SetReadDeadline(time.Now().Add(2 * time.Second))

    var frame handler.LiveFrame
    assert.Equal(t, ws.ReadJSON(&frame), nil)
    assert.Equal(t, 0, len(frame.Listings))

    _, err = v.listings.Create(context.Background(), model.Listing{Name: "Villa X", Availability: model.Available})
    assert.Equal(t, err, nil)
    for len(frame.Listings) == 0 {
        assert.Equal(t, ws.ReadJSON(&frame), nil)
    }
    assert.Equal(t, "Villa X", frame.Listings[0].Name)
}

func TestEditorRejectsBadPrice(t *testing.T) {
    v := newEnv(t)
    v.login()
    rec := v.do(http.MethodPost, "/v1/admin/editor/new", nil)
    assert.Equal(t, http.StatusOK, rec.Code)

    body := map[string]any{
        "name":         "Villa X",
        "neighborhood": model.DefaultNeighborhoods[0],
        "roomType":     model.RoomStudio,
        "availability": model.Available,
    }
    rec = v.do(http.MethodPut, "/v1/admin/editor/fields", body)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    body["pricePerNight"] = "abc"
    rec = v.do(http.MethodPut, "/v1/admin/editor/fields", body)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, editor.ErrInvalidField.Error(), decode(t, rec)["error"])

    rec = v.do(http.MethodGet, "/v1/admin/editor", nil)
    assert.Equal(t, "", decode(t, rec)["draft"].(map[string]any)["name"])
}
