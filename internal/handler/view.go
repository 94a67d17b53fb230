package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/auth"
    "github.com/iliyamo/rental-listings/internal/middleware"
)

// ViewHandler switches between the public side and the operator console.
type ViewHandler struct {
    Auth auth.Authenticator
}

type loginRequest struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

// Get renders which panel the client sees.
func (h *ViewHandler) Get(c echo.Context) error {
    return c.JSON(http.StatusOK, middleware.CurrentClient(c).Gate.View())
}

// Toggle flips the admin view flag.
func (h *ViewHandler) Toggle(c echo.Context) error {
    g := middleware.CurrentClient(c).Gate
    g.ToggleView()
    return c.JSON(http.StatusOK, g.View())
}

// Home goes back to the public side and locks the console.
func (h *ViewHandler) Home(c echo.Context) error {
    g := middleware.CurrentClient(c).Gate
    g.Home()
    return c.JSON(http.StatusOK, g.View())
}

// Login checks the operator credentials.
func (h *ViewHandler) Login(c echo.Context) error {
    var req loginRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    g := middleware.CurrentClient(c).Gate
    g.SetCredentials(req.Username, req.Password)
    if err := g.Login(h.Auth); err != nil {
        return c.JSON(http.StatusUnauthorized, g.View())
    }
    return c.JSON(http.StatusOK, g.View())
}

// Logout locks the console.  The open editor is discarded with it.
func (h *ViewHandler) Logout(c echo.Context) error {
    cl := middleware.CurrentClient(c)
    cl.Gate.Logout()
    cl.Editor.Close()
    return c.JSON(http.StatusOK, cl.Gate.View())
}
