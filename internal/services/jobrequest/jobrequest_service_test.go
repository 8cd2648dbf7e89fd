package jobrequest_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/truber-app/truber-backend/internal/apperr"
	"github.com/truber-app/truber-backend/internal/events"
	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/services/jobrequest"
	"github.com/truber-app/truber-backend/internal/testutil/pgtest"
)

func newUser(t *testing.T, gdb *gorm.DB, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:     string(role) + " " + uuid.NewString()[:8],
		Email:    uuid.NewString() + "@truber.test",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func setup(t *testing.T) (*jobrequest.JobRequestService, *gorm.DB, *events.Recorder) {
	gdb := pgtest.Open(t)
	rec := &events.Recorder{}
	return jobrequest.NewJobRequestService(gdb, rec), gdb, rec
}

func openInput(title string) jobrequest.CreateInput {
	return jobrequest.CreateInput{
		Title:       title,
		Description: "fix the sink",
		Type:        "plumbing",
		BudgetMin:   100,
		BudgetMax:   200,
		Latitude:    -6.2,
		Longitude:   106.8,
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	svc, gdb, rec := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)

	job, err := svc.Create(ctx, client.ID, openInput("Leaky sink"))
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, client.ID, job.ClientID)
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, models.RequestOpen, job.RequestType)
	assert.Equal(t, models.ProposalNone, job.ProposalStatus)
	assert.Empty(t, job.CandidateIDs())
	assert.NotNil(t, job.Images)
	assert.Nil(t, job.ProviderID)
	require.NotNil(t, job.Client)
	assert.Equal(t, client.Name, job.Client.Name)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Equal(t, []events.Type{events.JobCreated}, rec.Types())
}

func TestCreate_Validation(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	otherClient := newUser(t, gdb, models.RoleClient)

	cases := map[string]struct {
		mutate func(*jobrequest.CreateInput)
		kind   error
	}{
		"bad request type":   {func(in *jobrequest.CreateInput) { in.RequestType = "broadcast" }, apperr.ErrValidation},
		"direct no provider": {func(in *jobrequest.CreateInput) { in.RequestType = "direct" }, apperr.ErrValidation},
		"budget inverted":    {func(in *jobrequest.CreateInput) { in.BudgetMin = 300 }, apperr.ErrValidation},
		"negative budget":    {func(in *jobrequest.CreateInput) { in.BudgetMin = -1 }, apperr.ErrValidation},
		"missing title":      {func(in *jobrequest.CreateInput) { in.Title = "  " }, apperr.ErrValidation},
		"unknown provider":   {func(in *jobrequest.CreateInput) { in.ProviderID = ptr("nope") }, apperr.ErrNotFound},
		"client as provider": {func(in *jobrequest.CreateInput) { in.ProviderID = ptr(otherClient.ID) }, apperr.ErrValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := openInput("job")
			tc.mutate(&in)
			_, err := svc.Create(ctx, client.ID, in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}

	_, err := svc.Create(ctx, "ghost", openInput("job"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var count int64
	require.NoError(t, gdb.Model(&models.JobRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreate_Direct(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	in := openInput("Paint fence")
	in.RequestType = "direct"
	in.ProviderID = &provider.ID
	job, err := svc.Create(ctx, client.ID, in)
	require.NoError(t, err)

	assert.Equal(t, models.RequestDirect, job.RequestType)
	require.NotNil(t, job.ProviderID)
	assert.Equal(t, provider.ID, *job.ProviderID)
	require.NotNil(t, job.Provider)
	assert.Equal(t, provider.Name, job.Provider.Name)
}

func TestListOpen(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	plumbing, err := svc.Create(ctx, client.ID, openInput("plumbing job"))
	require.NoError(t, err)

	cleaningIn := openInput("cleaning job")
	cleaningIn.Type = "cleaning"
	cleaning, err := svc.Create(ctx, client.ID, cleaningIn)
	require.NoError(t, err)

	direct := openInput("direct job")
	direct.RequestType = "direct"
	direct.ProviderID = &provider.ID
	_, err = svc.Create(ctx, client.ID, direct)
	require.NoError(t, err)

	taken, err := svc.Create(ctx, client.ID, openInput("taken job"))
	require.NoError(t, err)
	_, err = svc.Accept(ctx, taken.ID, provider.ID)
	require.NoError(t, err)

	all, err := svc.ListOpen(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{plumbing.ID, cleaning.ID}, ids(all))

	all, err = svc.ListOpen(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyCleaning, err := svc.ListOpen(ctx, "cleaning")
	require.NoError(t, err)
	assert.Equal(t, []string{cleaning.ID}, ids(onlyCleaning))

	none, err := svc.ListOpen(ctx, "gardening")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListForUser_Union(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)
	stranger := newUser(t, gdb, models.RoleProvider)

	own, err := svc.Create(ctx, client.ID, openInput("own"))
	require.NoError(t, err)
	applied, err := svc.Create(ctx, client.ID, openInput("applied"))
	require.NoError(t, err)
	both, err := svc.Create(ctx, client.ID, openInput("applied and assigned"))
	require.NoError(t, err)

	_, err = svc.Apply(ctx, applied.ID, provider.ID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, both.ID, provider.ID)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, both.ID, provider.ID)
	require.NoError(t, err)

	forClient, err := svc.ListForUser(ctx, client.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{own.ID, applied.ID, both.ID}, ids(forClient))

	forProvider, err := svc.ListForUser(ctx, provider.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{applied.ID, both.ID}, ids(forProvider))

	forStranger, err := svc.ListForUser(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, forStranger)
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApply(t *testing.T) {
	svc, gdb, rec := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	p1 := newUser(t, gdb, models.RoleProvider)
	p2 := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("apply"))
	require.NoError(t, err)

	_, err = svc.Apply(ctx, job.ID, p1.ID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, job.ID, p2.ID)
	require.NoError(t, err)
	got, err := svc.Apply(ctx, job.ID, p1.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{p1.ID, p2.ID}, got.CandidateIDs())
	assert.Equal(t, []events.Type{events.JobCreated, events.JobApplied, events.JobApplied}, rec.Types())

	_, err = svc.Apply(ctx, "missing", p1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Apply(ctx, job.ID, client.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Apply(ctx, job.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApply_ConcurrentSameProvider(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("popular"))
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := svc.Apply(ctx, job.ID, provider.ID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{provider.ID}, got.CandidateIDs())
}

func TestAssign(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	p1 := newUser(t, gdb, models.RoleProvider)
	p2 := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("assign"))
	require.NoError(t, err)

	got, err := svc.Assign(ctx, job.ID, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, *got.ProviderID)
	assert.Equal(t, models.JobPending, got.Status)

	got, err = svc.Assign(ctx, job.ID, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, p2.ID, *got.ProviderID)

	_, err = svc.Assign(ctx, "missing", p1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Assign(ctx, job.ID, client.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAccept(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	p1 := newUser(t, gdb, models.RoleProvider)
	p2 := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("accept"))
	require.NoError(t, err)

	got, err := svc.Accept(ctx, job.ID, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobAccepted, got.Status)
	assert.Equal(t, p1.ID, *got.ProviderID)

	// same provider again is a no-op
	got, err = svc.Accept(ctx, job.ID, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, *got.ProviderID)

	_, err = svc.Accept(ctx, job.ID, p2.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err = svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, *got.ProviderID)

	_, err = svc.Accept(ctx, "missing", p1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Accept(ctx, job.ID, client.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAccept_AssignedProviderOnly(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	p1 := newUser(t, gdb, models.RoleProvider)
	p2 := newUser(t, gdb, models.RoleProvider)

	in := openInput("direct")
	in.RequestType = "direct"
	in.ProviderID = &p1.ID
	job, err := svc.Create(ctx, client.ID, in)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, job.ID, p2.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := svc.Accept(ctx, job.ID, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobAccepted, got.Status)
}

func TestAccept_WrongStatus(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("cancelled"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, job.ID, "cancelled")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, job.ID, provider.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAccept_ConcurrentProvidersExactlyOneWins(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)

	const contenders = 6
	providers := make([]*models.User, contenders)
	for i := range providers {
		providers[i] = newUser(t, gdb, models.RoleProvider)
	}

	for round := 0; round < 5; round++ {
		job, err := svc.Create(ctx, client.ID, openInput("race"))
		require.NoError(t, err)

		var wins, conflicts atomic.Int32
		var g errgroup.Group
		for _, p := range providers {
			g.Go(func() error {
				_, err := svc.Accept(ctx, job.ID, p.ID)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, apperr.ErrConflict):
					conflicts.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(contenders-1), conflicts.Load())

		got, err := svc.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobAccepted, got.Status)
		require.NotNil(t, got.ProviderID)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, gdb, rec := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("status"))
	require.NoError(t, err)
	_, err = svc.Accept(ctx, job.ID, provider.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, job.ID, "in_process")
	require.NoError(t, err)

	// same state is a no-op and emits nothing
	before := len(rec.Events)
	_, err = svc.UpdateStatus(ctx, job.ID, "in_process")
	require.NoError(t, err)
	assert.Len(t, rec.Events, before)

	got, err := svc.UpdateStatus(ctx, job.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)

	var reloaded models.User
	require.NoError(t, gdb.First(&reloaded, "id = ?", provider.ID).Error)
	assert.Equal(t, 1, reloaded.Jobs)

	// completed is terminal
	_, err = svc.UpdateStatus(ctx, job.ID, "pending")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateStatus(ctx, job.ID, "archived")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateStatus(ctx, "missing", "pending")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)

	job, err := svc.Create(ctx, client.ID, openInput("skip ahead"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, job.ID, "completed")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, got.Status)
}

func TestUpdateProposal(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)

	job, err := svc.Create(ctx, client.ID, openInput("negotiate"))
	require.NoError(t, err)

	got, err := svc.UpdateProposal(ctx, job.ID, jobrequest.ProposalInput{
		Milestones:     []models.Milestone{{Description: "materials", Amount: 50}, {Description: "labour", Amount: 120}},
		BudgetFinal:    ptr(170.0),
		ProposalStatus: "proposed",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalProposed, got.ProposalStatus)
	require.NotNil(t, got.BudgetFinal)
	assert.Equal(t, 170.0, *got.BudgetFinal)
	require.Len(t, got.Milestones, 2)
	assert.Equal(t, "labour", got.Milestones[1].Description)

	got, err = svc.UpdateProposal(ctx, job.ID, jobrequest.ProposalInput{ProposalStatus: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalRejected, got.ProposalStatus)
	assert.Nil(t, got.BudgetFinal)
	assert.Empty(t, got.Milestones)

	_, err = svc.UpdateProposal(ctx, job.ID, jobrequest.ProposalInput{ProposalStatus: "maybe"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateProposal(ctx, job.ID, jobrequest.ProposalInput{ProposalStatus: "proposed", BudgetFinal: ptr(-1.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateProposal(ctx, job.ID, jobrequest.ProposalInput{
		ProposalStatus: "proposed",
		Milestones:     []models.Milestone{{Description: "refund", Amount: -5}},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateProposal(ctx, "missing", jobrequest.ProposalInput{ProposalStatus: "none"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	svc, gdb, rec := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("before"))
	require.NoError(t, err)

	got, err := svc.Update(ctx, job.ID, jobrequest.UpdateInput{
		Title:     ptr("after"),
		BudgetMax: ptr(500.0),
		Images:    &[]string{"a.jpg", "b.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, 500.0, got.BudgetMax)
	assert.Equal(t, 100.0, got.BudgetMin)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, []string(got.Images))
	assert.Equal(t, client.ID, got.ClientID)
	assert.Equal(t, job.CreatedAt.Unix(), got.CreatedAt.Unix())

	// merged record must keep budget ordering
	_, err = svc.Update(ctx, job.ID, jobrequest.UpdateInput{BudgetMin: ptr(900.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// direct without provider is rejected, with provider accepted
	_, err = svc.Update(ctx, job.ID, jobrequest.UpdateInput{RequestType: ptr("direct")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	got, err = svc.Update(ctx, job.ID, jobrequest.UpdateInput{RequestType: ptr("direct"), ProviderID: &provider.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RequestDirect, got.RequestType)

	// status goes through the transition table
	_, err = svc.Update(ctx, job.ID, jobrequest.UpdateInput{Status: ptr("completed")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	got, err = svc.Update(ctx, job.ID, jobrequest.UpdateInput{Status: ptr("accepted")})
	require.NoError(t, err)
	assert.Equal(t, models.JobAccepted, got.Status)
	assert.Contains(t, rec.Types(), events.JobStatusChanged)

	_, err = svc.Update(ctx, "missing", jobrequest.UpdateInput{Title: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_CompletesAndCountsJob(t *testing.T) {
	svc, gdb, _ := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("finish"))
	require.NoError(t, err)
	_, err = svc.Accept(ctx, job.ID, provider.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, job.ID, jobrequest.UpdateInput{Status: ptr("completed")})
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, gdb.First(&reloaded, "id = ?", provider.ID).Error)
	assert.Equal(t, 1, reloaded.Jobs)
}

func TestDelete(t *testing.T) {
	svc, gdb, rec := setup(t)
	ctx := context.Background()
	client := newUser(t, gdb, models.RoleClient)
	provider := newUser(t, gdb, models.RoleProvider)

	job, err := svc.Create(ctx, client.ID, openInput("delete me"))
	require.NoError(t, err)
	_, err = svc.Apply(ctx, job.ID, provider.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, job.ID))
	assert.Equal(t, events.JobDeleted, rec.Types()[len(rec.Events)-1])
	assert.Equal(t, client.ID, rec.Events[len(rec.Events)-1].ClientID)

	_, err = svc.Get(ctx, job.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var candidates int64
	require.NoError(t, gdb.Model(&models.JobCandidate{}).Where("job_request_id = ?", job.ID).Count(&candidates).Error)
	assert.Zero(t, candidates)

	assert.ErrorIs(t, svc.Delete(ctx, job.ID), apperr.ErrNotFound)
}

func ids(jobs []models.JobRequest) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}
