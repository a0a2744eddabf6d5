package handler

import (
    "net/http"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/cinetix/seat-reservation/internal/notifier"
)

// WSHandler upgrades connections onto the notifier hub.  The endpoint
// is open to guests; a connection carries no authority, it only
// receives broadcasts for the shows it joins.
type WSHandler struct {
    hub      *notifier.Hub
    upgrader websocket.Upgrader
}

// NewWSHandler constructs a WSHandler bound to the given hub.
func NewWSHandler(hub *notifier.Hub) *WSHandler {
    if hub == nil {
        panic("nil hub passed to NewWSHandler")
    }
    return &WSHandler{
        hub: hub,
        upgrader: websocket.Upgrader{
            ReadBufferSize:  1024,
            WriteBufferSize: 1024,
            // The socket only ever pushes state the status endpoint
            // already serves unauthenticated, so any origin may listen.
            CheckOrigin: func(*http.Request) bool { return true },
        },
    }
}

// Serve handles GET /v1/ws.  It blocks for the lifetime of the
// connection; Echo runs each request on its own goroutine so that is
// fine.
func (h *WSHandler) Serve(c echo.Context) error {
    conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        // Upgrade already wrote the HTTP error response.
        c.Logger().Warnf("websocket upgrade failed: %v", err)
        return nil
    }
    client := notifier.NewClient(h.hub, conn)
    c.Logger().Debugf("websocket client %s connected", client.ID())
    client.Start()
    return nil
}
