package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/config"
	"github.com/utia/guesthouse-booking/internal/repository"
	"github.com/utia/guesthouse-booking/internal/utils"
)

// AuthHandler implements administrator login.  Guests never log in;
// they manage their bookings through the edit token instead.
type AuthHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAuthHandler(cfg config.Config, admins *repository.AdminRepo) *AuthHandler {
	if admins == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Admins: admins}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login handles POST /v1/admin/login: verify credentials and return a
// signed access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()

	admin, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.VerifyPassword(admin.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, admin.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, loginResp{Token: access.Token, Expires: access.Exp})
}
