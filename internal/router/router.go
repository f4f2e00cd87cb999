package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hello-db/internal/handler"
	"github.com/iliyamo/hello-db/internal/middleware"
	"github.com/iliyamo/hello-db/internal/utils"
)

// RegisterRoutes mounts the public greeting and liveness routes.
func RegisterRoutes(e *echo.Echo, root *handler.RootHandler) {
	e.GET("/", root.Greeting)
	e.GET("/healthz", handler.Health)
}

// RegisterOperator mounts /v1/status behind JWT auth and the OPERATOR role.
// With an empty secret nothing is mounted and the route answers 404.
func RegisterOperator(e *echo.Echo, root *handler.RootHandler, jwtSecret string) {
	if jwtSecret == "" {
		return
	}
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleOperator))
	g.GET("/status", root.Status)
}
