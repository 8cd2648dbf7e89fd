package jobrequest

import (
	"context"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/truber-app/truber-backend/internal/apperr"
	"github.com/truber-app/truber-backend/internal/db"
	"github.com/truber-app/truber-backend/internal/events"
	"github.com/truber-app/truber-backend/internal/models"
)

type JobRequestService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func NewJobRequestService(gdb *gorm.DB, pub events.Publisher) *JobRequestService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &JobRequestService{DB: gdb, Events: pub}
}

// Create stores a new pending job request owned by clientID.
func (s *JobRequestService) Create(ctx context.Context, clientID string, in CreateInput) (*models.JobRequest, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, apperr.Validation("userId is required")
	}

	rt, err := parseRequestType(in.RequestType)
	if err != nil {
		return nil, err
	}
	providerID := trimmedID(in.ProviderID)
	if err := checkShape(in.Title, rt, providerID, in.BudgetMin, in.BudgetMax); err != nil {
		return nil, err
	}

	gdb := s.DB.WithContext(ctx)
	if err := userExists(gdb, clientID); err != nil {
		return nil, err
	}
	if providerID != nil {
		if err := requireProvider(gdb, *providerID); err != nil {
			return nil, err
		}
	}

	images := datatypes.JSONSlice[string]{}
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}

	job := models.JobRequest{
		ClientID:       clientID,
		ProviderID:     providerID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Type:           strings.TrimSpace(in.Type),
		BudgetMin:      in.BudgetMin,
		BudgetMax:      in.BudgetMax,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		Images:         images,
		RequestType:    rt,
		Status:         models.JobPending,
		Milestones:     datatypes.JSONSlice[models.Milestone]{},
		ProposalStatus: models.ProposalNone,
	}
	if err := gdb.Create(&job).Error; err != nil {
		return nil, err
	}

	created, err := s.Get(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.JobCreated, created)
	return created, nil
}

// ListOpen returns open, pending requests, newest first. An empty or "all"
// type disables the type filter.
func (s *JobRequestService) ListOpen(ctx context.Context, jobType string) ([]models.JobRequest, error) {
	q := s.preloaded(s.DB.WithContext(ctx)).
		Where("request_type = ? AND status = ?", models.RequestOpen, models.JobPending)

	if jobType = strings.TrimSpace(jobType); jobType != "" && !strings.EqualFold(jobType, "all") {
		q = q.Where("type = ?", jobType)
	}

	jobs := []models.JobRequest{}
	if err := q.Order("created_at DESC").Order("id").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListForUser returns every request where userID is the client, the assigned
// provider or a candidate. Each job appears once.
func (s *JobRequestService) ListForUser(ctx context.Context, userID string) ([]models.JobRequest, error) {
	gdb := s.DB.WithContext(ctx)
	applied := gdb.Model(&models.JobCandidate{}).Select("job_request_id").Where("provider_id = ?", userID)

	jobs := []models.JobRequest{}
	err := s.preloaded(gdb).
		Where("client_id = ? OR provider_id = ? OR id IN (?)", userID, userID, applied).
		Order("created_at DESC").Order("id").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *JobRequestService) Get(ctx context.Context, id string) (*models.JobRequest, error) {
	var job models.JobRequest
	if err := s.preloaded(s.DB.WithContext(ctx)).First(&job, "id = ?", id).Error; err != nil {
		return nil, notFound(err, id)
	}
	return &job, nil
}

// Apply adds providerID to the candidates of job id. Applying twice is a no-op.
func (s *JobRequestService) Apply(ctx context.Context, id, providerID string) (*models.JobRequest, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, apperr.Validation("provider_id is required")
	}

	gdb := s.DB.WithContext(ctx)
	if err := jobExists(gdb, id); err != nil {
		return nil, err
	}
	if err := requireProvider(gdb, providerID); err != nil {
		return nil, err
	}

	res := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_request_id"}, {Name: "provider_id"}},
		DoNothing: true,
	}).Create(&models.JobCandidate{JobRequestID: id, ProviderID: providerID})
	if res.Error != nil {
		if db.IsForeignKeyViolation(res.Error) {
			return nil, apperr.NotFound("job request %s not found", id)
		}
		return nil, res.Error
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected > 0 {
		s.emitFor(ctx, events.JobApplied, job, providerID)
	}
	return job, nil
}

// Assign routes job id to providerID without touching its status.
func (s *JobRequestService) Assign(ctx context.Context, id, providerID string) (*models.JobRequest, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, apperr.Validation("provider_id is required")
	}

	gdb := s.DB.WithContext(ctx)
	if err := jobExists(gdb, id); err != nil {
		return nil, err
	}
	if err := requireProvider(gdb, providerID); err != nil {
		return nil, err
	}

	res := gdb.Model(&models.JobRequest{}).Where("id = ?", id).Update("provider_id", providerID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("job request %s not found", id)
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.JobAssigned, job)
	return job, nil
}

// Accept claims job id for providerID. The claim is a single conditional
// UPDATE, so of two concurrent accepts by different providers exactly one
// matches a row.
func (s *JobRequestService) Accept(ctx context.Context, id, providerID string) (*models.JobRequest, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, apperr.Validation("provider_id is required")
	}

	gdb := s.DB.WithContext(ctx)
	if err := requireProvider(gdb, providerID); err != nil {
		return nil, err
	}

	res := gdb.Model(&models.JobRequest{}).
		Where("id = ? AND (provider_id IS NULL OR provider_id = ?) AND status IN ?",
			id, providerID, []string{string(models.JobPending), string(models.JobAccepted)}).
		Updates(map[string]any{
			"provider_id": providerID,
			"status":      models.JobAccepted,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.acceptFailure(gdb, id, providerID)
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.JobAccepted, job)
	return job, nil
}

func (s *JobRequestService) acceptFailure(gdb *gorm.DB, id, providerID string) error {
	var job models.JobRequest
	if err := gdb.Select("id", "provider_id", "status").First(&job, "id = ?", id).Error; err != nil {
		return notFound(err, id)
	}
	if job.ProviderID != nil && *job.ProviderID != providerID {
		return apperr.Conflict("job request %s was already accepted by another provider", id)
	}
	return apperr.Validation("job request in status %s cannot be accepted", job.Status)
}

// UpdateStatus moves job id to status along the transition table.
func (s *JobRequestService) UpdateStatus(ctx context.Context, id, status string) (*models.JobRequest, error) {
	next, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	changed := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(tx, id)
		if err != nil {
			return err
		}
		if job.Status == next {
			return nil
		}
		if err := setStatus(tx, job, next); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.emit(ctx, events.JobStatusChanged, job)
	}
	return job, nil
}

// UpdateProposal overwrites milestones, final budget and proposal status together.
func (s *JobRequestService) UpdateProposal(ctx context.Context, id string, in ProposalInput) (*models.JobRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	milestones := datatypes.JSONSlice[models.Milestone]{}
	if in.Milestones != nil {
		milestones = datatypes.JSONSlice[models.Milestone](in.Milestones)
	}

	gdb := s.DB.WithContext(ctx)
	res := gdb.Model(&models.JobRequest{}).Where("id = ?", id).Updates(map[string]any{
		"milestones":      milestones,
		"budget_final":    in.BudgetFinal,
		"proposal_status": models.ProposalStatus(in.ProposalStatus),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("job request %s not found", id)
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.JobProposalUpdated, job)
	return job, nil
}

// Update applies a partial overwrite. The merged record must still satisfy the
// creation rules and any status change must follow the transition table.
func (s *JobRequestService) Update(ctx context.Context, id string, in UpdateInput) (*models.JobRequest, error) {
	if in.empty() {
		return s.Get(ctx, id)
	}

	statusChanged := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(tx, id)
		if err != nil {
			return err
		}

		merged := *job
		updates := map[string]any{}

		if in.Title != nil {
			merged.Title = strings.TrimSpace(*in.Title)
			updates["title"] = merged.Title
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Type != nil {
			updates["type"] = strings.TrimSpace(*in.Type)
		}
		if in.BudgetMin != nil {
			merged.BudgetMin = *in.BudgetMin
			updates["budget_min"] = merged.BudgetMin
		}
		if in.BudgetMax != nil {
			merged.BudgetMax = *in.BudgetMax
			updates["budget_max"] = merged.BudgetMax
		}
		if in.Latitude != nil {
			updates["latitude"] = *in.Latitude
		}
		if in.Longitude != nil {
			updates["longitude"] = *in.Longitude
		}
		if in.Images != nil {
			images := datatypes.JSONSlice[string]{}
			images = append(images, (*in.Images)...)
			updates["images"] = images
		}
		if in.RequestType != nil {
			if merged.RequestType, err = parseRequestType(*in.RequestType); err != nil {
				return err
			}
			updates["request_type"] = merged.RequestType
		}
		if in.ProviderID != nil {
			merged.ProviderID = trimmedID(in.ProviderID)
			if merged.ProviderID != nil {
				if err := requireProvider(tx, *merged.ProviderID); err != nil {
					return err
				}
			}
			updates["provider_id"] = merged.ProviderID
		}

		if err := checkShape(merged.Title, merged.RequestType, merged.ProviderID, merged.BudgetMin, merged.BudgetMax); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.JobRequest{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.Status != nil {
			next, err := parseStatus(*in.Status)
			if err != nil {
				return err
			}
			if next != job.Status {
				// the completed-job counter goes to the provider held after this update
				if err := setStatus(tx, &merged, next); err != nil {
					return err
				}
				statusChanged = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.JobUpdated, job)
	if statusChanged {
		s.emit(ctx, events.JobStatusChanged, job)
	}
	return job, nil
}

// Delete removes job id. Candidate rows go with it.
func (s *JobRequestService) Delete(ctx context.Context, id string) error {
	gdb := s.DB.WithContext(ctx)

	var job models.JobRequest
	res := gdb.Clauses(clause.Returning{}).Where("id = ?", id).Delete(&job)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("job request %s not found", id)
	}

	if job.ID == "" {
		job.ID = id
	}
	s.emit(ctx, events.JobDeleted, &job)
	return nil
}

func (s *JobRequestService) preloaded(gdb *gorm.DB) *gorm.DB {
	return gdb.
		Preload("Client").
		Preload("Provider").
		Preload("Candidates", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (s *JobRequestService) emit(ctx context.Context, typ events.Type, job *models.JobRequest) {
	provider := ""
	if job.ProviderID != nil {
		provider = *job.ProviderID
	}
	s.emitFor(ctx, typ, job, provider)
}

func (s *JobRequestService) emitFor(ctx context.Context, typ events.Type, job *models.JobRequest, providerID string) {
	events.Emit(ctx, s.Events, events.Event{
		Type:         typ,
		JobRequestID: job.ID,
		ClientID:     job.ClientID,
		ProviderID:   providerID,
		Status:       string(job.Status),
	})
}

// setStatus writes next for job and bumps the provider's completed-job count
// when the job completes. Must run inside the transaction holding the row lock.
func setStatus(tx *gorm.DB, job *models.JobRequest, next models.JobStatus) error {
	if !job.Status.CanTransitionTo(next) {
		return apperr.Validation("invalid transition from %s to %s", job.Status, next)
	}
	if err := tx.Model(&models.JobRequest{}).Where("id = ?", job.ID).Update("status", next).Error; err != nil {
		return err
	}
	if next != models.JobCompleted || job.ProviderID == nil {
		return nil
	}
	return tx.Model(&models.User{}).
		Where("id = ?", *job.ProviderID).
		Update("jobs", gorm.Expr("jobs + 1")).Error
}

func lockJob(tx *gorm.DB, id string) (*models.JobRequest, error) {
	var job models.JobRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, "id = ?", id).Error; err != nil {
		return nil, notFound(err, id)
	}
	return &job, nil
}

func jobExists(gdb *gorm.DB, id string) error {
	var count int64
	if err := gdb.Model(&models.JobRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("job request %s not found", id)
	}
	return nil
}

func userExists(gdb *gorm.DB, id string) error {
	var count int64
	if err := gdb.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("user %s not found", id)
	}
	return nil
}

func requireProvider(gdb *gorm.DB, id string) error {
	var user models.User
	if err := gdb.Select("id", "role").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("provider %s not found", id)
		}
		return err
	}
	if user.Role != models.RoleProvider {
		return apperr.Validation("user %s is not a provider", id)
	}
	return nil
}

func notFound(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("job request %s not found", id)
	}
	return err
}
