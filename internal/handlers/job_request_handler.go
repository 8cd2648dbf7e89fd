package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/truber-app/truber-backend/internal/middleware"
	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/services/jobrequest"
)

type JobRequestService interface {
	Create(ctx context.Context, clientID string, in jobrequest.CreateInput) (*models.JobRequest, error)
	ListOpen(ctx context.Context, jobType string) ([]models.JobRequest, error)
	ListForUser(ctx context.Context, userID string) ([]models.JobRequest, error)
	Get(ctx context.Context, id string) (*models.JobRequest, error)
	Apply(ctx context.Context, id, providerID string) (*models.JobRequest, error)
	Assign(ctx context.Context, id, providerID string) (*models.JobRequest, error)
	Accept(ctx context.Context, id, providerID string) (*models.JobRequest, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.JobRequest, error)
	UpdateProposal(ctx context.Context, id string, in jobrequest.ProposalInput) (*models.JobRequest, error)
	Update(ctx context.Context, id string, in jobrequest.UpdateInput) (*models.JobRequest, error)
	Delete(ctx context.Context, id string) error
}

type JobRequestHandler struct {
	Jobs JobRequestService
}

func NewJobRequestHandler(jobs JobRequestService) *JobRequestHandler {
	return &JobRequestHandler{Jobs: jobs}
}

func (h *JobRequestHandler) Routes(r fiber.Router) {
	r.Post("/job-requests", h.Create)
	r.Get("/job-requests", h.ListOpen)
	r.Get("/job-requests/:id", h.Get)
	r.Put("/job-requests/:id/status", h.UpdateStatus)
	r.Put("/job-requests/:id/proposal", h.UpdateProposal)
	r.Put("/job-requests/:id/apply", h.Apply)
	r.Put("/job-requests/:id/assign", h.Assign)
	r.Put("/job-requests/:id/accept", h.Accept)
	r.Put("/job-requests/:id", h.Update)
	r.Delete("/job-requests/:id", h.Delete)
	r.Get("/users/:id/requests", h.ListForUser)
}

// Create stores a job for ?userId=, or for the logged-in user when absent.
func (h *JobRequestHandler) Create(c *fiber.Ctx) error {
	clientID := strings.TrimSpace(c.Query("userId"))
	if clientID == "" {
		clientID = middleware.UserID(c)
	}
	if clientID == "" {
		errs := FieldErrors{}
		errs.Add("userId", "is required")
		return validationFail(c, errs)
	}

	var in jobrequest.CreateInput
	if ok, err := parseBody(c, &in); !ok {
		return err
	}

	job, err := h.Jobs.Create(c.UserContext(), clientID, in)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusCreated, "Job request created", toJobRequestResponse(job))
}

func (h *JobRequestHandler) ListOpen(c *fiber.Ctx) error {
	jobs, err := h.Jobs.ListOpen(c.UserContext(), c.Query("type"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", toJobRequestResponses(jobs))
}

func (h *JobRequestHandler) ListForUser(c *fiber.Ctx) error {
	jobs, err := h.Jobs.ListForUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", toJobRequestResponses(jobs))
}

func (h *JobRequestHandler) Get(c *fiber.Ctx) error {
	job, err := h.Jobs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", toJobRequestResponse(job))
}

func (h *JobRequestHandler) Apply(c *fiber.Ctx) error {
	job, err := h.Jobs.Apply(c.UserContext(), c.Params("id"), providerParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Applied to job request", toJobRequestResponse(job))
}

func (h *JobRequestHandler) Assign(c *fiber.Ctx) error {
	job, err := h.Jobs.Assign(c.UserContext(), c.Params("id"), providerParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Provider assigned", toJobRequestResponse(job))
}

func (h *JobRequestHandler) Accept(c *fiber.Ctx) error {
	job, err := h.Jobs.Accept(c.UserContext(), c.Params("id"), providerParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Job request accepted", toJobRequestResponse(job))
}

// UpdateStatus reads ?status=, falling back to a {"status": ...} body.
func (h *JobRequestHandler) UpdateStatus(c *fiber.Ctx) error {
	status := c.Query("status")
	if status == "" && len(c.Body()) > 0 {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err == nil {
			status = body.Status
		}
	}
	if strings.TrimSpace(status) == "" {
		errs := FieldErrors{}
		errs.Add("status", "is required")
		return validationFail(c, errs)
	}

	job, err := h.Jobs.UpdateStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Status updated", toJobRequestResponse(job))
}

func (h *JobRequestHandler) UpdateProposal(c *fiber.Ctx) error {
	var in jobrequest.ProposalInput
	if ok, err := parseBody(c, &in); !ok {
		return err
	}

	job, err := h.Jobs.UpdateProposal(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Proposal updated", toJobRequestResponse(job))
}

func (h *JobRequestHandler) Update(c *fiber.Ctx) error {
	var in jobrequest.UpdateInput
	if ok, err := parseBody(c, &in); !ok {
		return err
	}

	job, err := h.Jobs.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Job request updated", toJobRequestResponse(job))
}

func (h *JobRequestHandler) Delete(c *fiber.Ctx) error {
	if err := h.Jobs.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job request deleted",
	})
}

func providerParam(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Query("provider_id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("providerId"))
}
