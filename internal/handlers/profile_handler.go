package handlers

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/services/profile"
)

type ProfileService interface {
	UpdateProfile(ctx context.Context, userID string, in profile.ProfileInput) (*models.User, error)
	ReplacePortfolio(ctx context.Context, userID string, items []profile.PortfolioInput) ([]models.PortfolioItem, error)
}

type ProfileHandler struct {
	Profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles}
}

func (h *ProfileHandler) Routes(r fiber.Router) {
	r.Put("/users/:id/profile", h.UpdateProfile)
	r.Put("/users/:id/portfolio", h.ReplacePortfolio)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var in profile.ProfileInput
	if ok, err := parseBody(c, &in); !ok {
		return err
	}

	u, err := h.Profiles.UpdateProfile(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Profile updated", publicProfile(u))
}

// ReplacePortfolio accepts either a bare array of items or {"portfolio": [...]}.
func (h *ProfileHandler) ReplacePortfolio(c *fiber.Ctx) error {
	var items []profile.PortfolioInput

	raw := bytes.TrimSpace(c.Body())
	var err error
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &items)
	} else {
		var wrapped struct {
			Portfolio []profile.PortfolioInput `json:"portfolio"`
		}
		err = json.Unmarshal(raw, &wrapped)
		items = wrapped.Portfolio
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	portfolio, err := h.Profiles.ReplacePortfolio(c.UserContext(), c.Params("id"), items)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Portfolio updated", portfolio)
}
