package handler // handler defines http handlers

import (
	"fmt"      // fmt builds the greeting text
	"net/http" // net/http provides status codes

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/hello-db/internal/database" // database exposes the connection status
)

// DBStatus is the read side of database.Status used by the handlers.
type DBStatus interface {
	Connected() bool
	Snapshot() database.StatusSnapshot
}

// RootHandler answers the greeting and the operator status endpoints.  Port
// is called on every request so the message reflects the bound listener.
type RootHandler struct {
	Port func() int // Port returns the listener's bound TCP port
	DB   DBStatus   // DB reports whether the database connection is up
}

// NewRootHandler constructs a RootHandler and panics if any dependency is nil
func NewRootHandler(port func() int, db DBStatus) *RootHandler {
	if port == nil || db == nil { // both are wired once at startup
		panic("nil dependency passed to NewRootHandler")
	}
	return &RootHandler{Port: port, DB: db}
}

type greetingResp struct {
	Message string `json:"message"`
}

// Greeting handles GET /.  No input is read and the handler cannot fail.
func (h *RootHandler) Greeting(c echo.Context) error {
	state := "not connected" // default until the connector reports success
	if h.DB.Connected() {
		state = "connected"
	}
	msg := fmt.Sprintf("Your app is listening on port: %d. DB is %s!", h.Port(), state)
	return c.JSON(http.StatusOK, greetingResp{Message: msg})
}

// Status handles GET /v1/status and returns the full connection snapshot.
func (h *RootHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.DB.Snapshot())
}
