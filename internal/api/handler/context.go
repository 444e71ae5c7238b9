package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys set by middleware.Auth.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// ctxClaims extracts the identity injected by the Auth middleware. A missing
// id means the route was mounted without the middleware.
func ctxClaims(c echo.Context) (id, email string, err error) {
	id, _ = c.Get(CtxUserID).(string)
	if id == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	email, _ = c.Get(CtxEmail).(string)
	return id, email, nil
}
