package handlers

import (
	"time"

	"github.com/truber-app/truber-backend/internal/models"
)

type userSummary struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         models.Role `json:"role"`
	Image        *string     `json:"image"`
	LocationName *string     `json:"location_name"`
}

func toUserSummary(u *models.User) *userSummary {
	if u == nil {
		return nil
	}
	return &userSummary{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Image:        u.Image,
		LocationName: u.LocationName,
	}
}

type jobRequestResponse struct {
	ID             string                `json:"id"`
	ClientID       string                `json:"clientId"`
	ProviderID     *string               `json:"providerId"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Type           string                `json:"type"`
	BudgetMin      float64               `json:"budget_min"`
	BudgetMax      float64               `json:"budget_max"`
	Latitude       float64               `json:"latitude"`
	Longitude      float64               `json:"longitude"`
	Images         []string              `json:"images"`
	RequestType    models.RequestType    `json:"request_type"`
	Status         models.JobStatus      `json:"status"`
	Candidates     []string              `json:"candidates"`
	Milestones     []models.Milestone    `json:"milestones"`
	ProposalStatus models.ProposalStatus `json:"proposal_status"`
	BudgetFinal    *float64              `json:"budget_final"`
	CreatedAt      time.Time             `json:"createdAt"`
	Client         *userSummary          `json:"client,omitempty"`
	Provider       *userSummary          `json:"provider,omitempty"`
}

func toJobRequestResponse(j *models.JobRequest) jobRequestResponse {
	images := []string{}
	images = append(images, j.Images...)
	milestones := []models.Milestone{}
	milestones = append(milestones, j.Milestones...)

	return jobRequestResponse{
		ID:             j.ID,
		ClientID:       j.ClientID,
		ProviderID:     j.ProviderID,
		Title:          j.Title,
		Description:    j.Description,
		Type:           j.Type,
		BudgetMin:      j.BudgetMin,
		BudgetMax:      j.BudgetMax,
		Latitude:       j.Latitude,
		Longitude:      j.Longitude,
		Images:         images,
		RequestType:    j.RequestType,
		Status:         j.Status,
		Candidates:     j.CandidateIDs(),
		Milestones:     milestones,
		ProposalStatus: j.ProposalStatus,
		BudgetFinal:    j.BudgetFinal,
		CreatedAt:      j.CreatedAt,
		Client:         toUserSummary(j.Client),
		Provider:       toUserSummary(j.Provider),
	}
}

func toJobRequestResponses(jobs []models.JobRequest) []jobRequestResponse {
	out := make([]jobRequestResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobRequestResponse(&jobs[i]))
	}
	return out
}

// publicProfile fills nil collections so they render as [] instead of null.
func publicProfile(u *models.User) *models.User {
	if u.Portfolio == nil {
		u.Portfolio = []models.PortfolioItem{}
	}
	if u.Reviews == nil {
		u.Reviews = []models.Review{}
	}
	if u.Badges == nil {
		u.Badges = []models.Badge{}
	}
	return u
}

func publicProfiles(users []models.User) []models.User {
	for i := range users {
		publicProfile(&users[i])
	}
	return users
}
