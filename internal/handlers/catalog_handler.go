package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/truber-app/truber-backend/internal/models"
)

type CatalogService interface {
	ListProviders(ctx context.Context) ([]models.User, error)
	GetProvider(ctx context.Context, id string) (*models.User, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	ListServices(ctx context.Context) ([]models.Service, error)
}

type CatalogHandler struct {
	Catalog CatalogService
}

func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

func (h *CatalogHandler) Routes(r fiber.Router) {
	r.Get("/providers", h.ListProviders)
	r.Get("/providers/:id", h.GetProvider)
	r.Get("/badges", h.ListBadges)
	r.Get("/services", h.ListServices)
}

func (h *CatalogHandler) ListProviders(c *fiber.Ctx) error {
	providers, err := h.Catalog.ListProviders(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", publicProfiles(providers))
}

func (h *CatalogHandler) GetProvider(c *fiber.Ctx) error {
	provider, err := h.Catalog.GetProvider(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", publicProfile(provider))
}

func (h *CatalogHandler) ListBadges(c *fiber.Ctx) error {
	badges, err := h.Catalog.ListBadges(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", badges)
}

func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	services, err := h.Catalog.ListServices(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", services)
}
