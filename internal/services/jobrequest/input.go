package jobrequest

import (
	"strings"

	"github.com/truber-app/truber-backend/internal/apperr"
	"github.com/truber-app/truber-backend/internal/models"
)

type CreateInput struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	BudgetMin   float64  `json:"budget_min" validate:"gte=0"`
	BudgetMax   float64  `json:"budget_max" validate:"gte=0"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Images      []string `json:"images"`
	RequestType string   `json:"request_type" validate:"omitempty,oneof=open direct"`
	ProviderID  *string  `json:"providerId"`
}

// UpdateInput is a partial update; nil fields are left untouched.
// An empty ProviderID unassigns the job.
type UpdateInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Type        *string   `json:"type"`
	BudgetMin   *float64  `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax   *float64  `json:"budget_max" validate:"omitempty,gte=0"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Images      *[]string `json:"images"`
	RequestType *string   `json:"request_type"`
	ProviderID  *string   `json:"providerId"`
	Status      *string   `json:"status"`
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Type == nil &&
		in.BudgetMin == nil && in.BudgetMax == nil &&
		in.Latitude == nil && in.Longitude == nil && in.Images == nil &&
		in.RequestType == nil && in.ProviderID == nil && in.Status == nil
}

type ProposalInput struct {
	Milestones     []models.Milestone `json:"milestones" validate:"dive"`
	BudgetFinal    *float64           `json:"budget_final" validate:"omitempty,gte=0"`
	ProposalStatus string             `json:"proposal_status" validate:"required"`
}

func (in ProposalInput) validate() error {
	if !models.ProposalStatus(in.ProposalStatus).Valid() {
		return apperr.Validation("proposal_status must be one of none, proposed, accepted, rejected")
	}
	if in.BudgetFinal != nil && *in.BudgetFinal < 0 {
		return apperr.Validation("budget_final must not be negative")
	}
	for i, m := range in.Milestones {
		if m.Amount < 0 {
			return apperr.Validation("milestone %d amount must not be negative", i)
		}
	}
	return nil
}

func parseRequestType(raw string) (models.RequestType, error) {
	rt := models.RequestType(strings.ToLower(strings.TrimSpace(raw)))
	if rt == "" {
		return models.RequestOpen, nil
	}
	if !rt.Valid() {
		return "", apperr.Validation("request_type must be open or direct")
	}
	return rt, nil
}

func parseStatus(raw string) (models.JobStatus, error) {
	st := models.JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", apperr.Validation("invalid status %q", raw)
	}
	return st, nil
}

// checkShape enforces the rules every stored job request must satisfy.
func checkShape(title string, rt models.RequestType, providerID *string, budgetMin, budgetMax float64) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title is required")
	}
	if rt == models.RequestDirect && providerID == nil {
		return apperr.Validation("direct requests require providerId")
	}
	if budgetMin < 0 || budgetMax < 0 {
		return apperr.Validation("budgets must not be negative")
	}
	if budgetMin > budgetMax {
		return apperr.Validation("budget_min must not exceed budget_max")
	}
	return nil
}

func trimmedID(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}
