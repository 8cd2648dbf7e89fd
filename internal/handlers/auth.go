package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/truber-app/truber-backend/internal/middleware"
	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/services/account"
	"github.com/truber-app/truber-backend/internal/utils"
)

type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
}

type AuthHandler struct {
	Accounts     AccountService
	JWTSecret    string
	Expires      int
	SecureCookie bool
}

func (h *AuthHandler) Routes(r fiber.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Get("/me", middleware.JWTFromCookie(h.JWTSecret), middleware.AttachJWTLocals(), h.Me)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req account.RegisterInput
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	u, err := h.Accounts.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusCreated, "Registered", publicProfile(u))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req account.LoginInput
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	u, err := h.Accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID, string(u.Role), h.Expires)
	if err != nil {
		return respondError(c, err)
	}
	h.setCookie(c, token, h.Expires*60)

	return success(c, fiber.StatusOK, "Logged in", publicProfile(u))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.setCookie(c, "", -1)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.Accounts.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", publicProfile(u))
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.TokenCookie,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
		MaxAge:   maxAge,
	})
}
