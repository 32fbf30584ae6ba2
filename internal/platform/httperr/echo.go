package httperr

import "github.com/labstack/echo/v4"

// HTTP converts a service error into an echo.HTTPError carrying the mapped
// status and the client-safe message.
func HTTP(err error) *echo.HTTPError {
	return echo.NewHTTPError(Status(err), Public(err)).SetInternal(err)
}
