package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is the liveness endpoint used by load balancers and monitoring
// systems.  It reports that the process is up; it deliberately does not
// probe MySQL or Redis, so a backing-store outage never causes a
// restart loop.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "room-reservation"})
}
