package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/golang/glog"
    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/model"
)

// LiveHandler pushes the public collections over a websocket every time the
// mirror applies a snapshot.
type LiveHandler struct {
    Catalog      Catalog
    Upgrader     websocket.Upgrader
    WriteTimeout time.Duration
    PingInterval time.Duration
}

// LiveFrame is one message of the live feed.
type LiveFrame struct {
    Loading       bool            `json:"loading"`
    Listings      []model.Listing `json:"listings"`
    Neighborhoods []string        `json:"neighborhoods"`
}

func (h *LiveHandler) frame() LiveFrame {
    return LiveFrame{
        Loading:       h.Catalog.Loading(),
        Listings:      h.Catalog.Listings(),
        Neighborhoods: h.Catalog.Neighborhoods(),
    }
}

// Live upgrades the request and streams frames until the peer goes away.
func (h *LiveHandler) Live(c echo.Context) error {
    ws, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        // Upgrade already wrote the error response
        glog.Infof("live: upgrade failed: %v", err)
        return nil
    }
    defer ws.Close()

    writeTimeout := h.WriteTimeout
    if writeTimeout <= 0 {
        writeTimeout = 10 * time.Second
    }
    pingInterval := h.PingInterval
    if pingInterval <= 0 {
        pingInterval = 30 * time.Second
    }

    ctx, cancel := context.WithCancel(c.Request().Context())
    defer cancel()

    // the reader only notices the peer closing
    go func() {
        defer cancel()
        for {
            if _, _, err := ws.ReadMessage(); err != nil {
                glog.V(2).Infof("live: read: %v", err)
                return
            }
        }
    }()

    for {
        // take the channel before reading so no update slips in between
        changed := h.Catalog.Changed()
        ws.SetWriteDeadline(time.Now().Add(writeTimeout))
        if err := ws.WriteJSON(h.frame()); err != nil {
            glog.V(1).Infof("live: write: %v", err)
            return nil
        }
    wait:
        for {
            select {
            case <-ctx.Done():
                ws.SetWriteDeadline(time.Now().Add(writeTimeout))
                _ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
                return nil
            case <-changed:
                break wait
            case <-time.After(pingInterval):
                ws.SetWriteDeadline(time.Now().Add(writeTimeout))
                if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
                    return nil
                }
            }
        }
    }
}

// NewLiveHandler accepts upgrades from the given origins; "*" or none
// accepts any origin.
func NewLiveHandler(catalog Catalog, origins []string) *LiveHandler {
    allowed := map[string]bool{}
    for _, o := range origins {
        allowed[o] = true
    }
    return &LiveHandler{
        Catalog: catalog,
        Upgrader: websocket.Upgrader{
            ReadBufferSize:  1024,
            WriteBufferSize: 1 << 16,
            CheckOrigin: func(r *http.Request) bool {
                if len(allowed) == 0 || allowed["*"] {
                    return true
                }
                return allowed[r.Header.Get("Origin")]
            },
        },
    }
}
