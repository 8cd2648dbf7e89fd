// internal/models/job_request.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RequestType string

const (
	RequestOpen   RequestType = "open"   // listed on the public map
	RequestDirect RequestType = "direct" // addressed to one provider
)

func (t RequestType) Valid() bool {
	return t == RequestOpen || t == RequestDirect
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobAccepted  JobStatus = "accepted"
	JobRejected  JobStatus = "rejected"
	JobInProcess JobStatus = "in_process"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobPending:   {JobAccepted, JobRejected, JobInProcess, JobCancelled},
	JobAccepted:  {JobPending, JobInProcess, JobCompleted, JobCancelled},
	JobRejected:  {JobPending, JobCancelled},
	JobInProcess: {JobCompleted, JobCancelled},
	JobCompleted: nil,
	JobCancelled: nil,
}

func (s JobStatus) Valid() bool {
	_, ok := jobTransitions[s]
	return ok
}

// CanTransitionTo reports whether a job in status s may move to next.
// Staying in the same status is always allowed.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s JobStatus) Terminal() bool {
	return s.Valid() && len(jobTransitions[s]) == 0
}

type ProposalStatus string

const (
	ProposalNone     ProposalStatus = "none"
	ProposalProposed ProposalStatus = "proposed"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

func (p ProposalStatus) Valid() bool {
	switch p {
	case ProposalNone, ProposalProposed, ProposalAccepted, ProposalRejected:
		return true
	}
	return false
}

type Milestone struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type JobRequest struct {
	ID         string  `gorm:"type:varchar(64);primaryKey" json:"id"`
	ClientID   string  `gorm:"type:varchar(64);not null;index" json:"clientId"`
	ProviderID *string `gorm:"type:varchar(64);index" json:"providerId"`

	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Type        string                      `gorm:"type:varchar(50);index" json:"type"`
	BudgetMin   float64                     `json:"budget_min"`
	BudgetMax   float64                     `json:"budget_max"`
	Latitude    float64                     `json:"latitude"`
	Longitude   float64                     `json:"longitude"`
	Images      datatypes.JSONSlice[string] `json:"images"`

	RequestType RequestType `gorm:"type:varchar(20);not null;default:'open'" json:"request_type"`
	Status      JobStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// negotiation
	Milestones     datatypes.JSONSlice[Milestone] `json:"milestones"`
	ProposalStatus ProposalStatus                 `gorm:"type:varchar(20);not null;default:'none'" json:"proposal_status"`
	BudgetFinal    *float64                       `json:"budget_final"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	// Relations
	Client     *User          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Provider   *User          `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Candidates []JobCandidate `gorm:"foreignKey:JobRequestID;constraint:OnDelete:CASCADE" json:"-"`
}

func (j *JobRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return
}

// CandidateIDs returns the applicants in application order.
func (j *JobRequest) CandidateIDs() []string {
	out := make([]string, 0, len(j.Candidates))
	for _, c := range j.Candidates {
		out = append(out, c.ProviderID)
	}
	return out
}

// JobCandidate records one provider applying to one job request.
type JobCandidate struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	JobRequestID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_job_candidate"`
	ProviderID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_job_candidate;index"`
	CreatedAt    time.Time
}

func (JobCandidate) TableName() string { return "job_request_candidates" }
