package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/siteops-backend/internal/ticket/repository"
	"github.com/siteops/siteops-backend/internal/ticket/service"
	"github.com/siteops/siteops-backend/pkg/actor"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
	"github.com/siteops/siteops-backend/pkg/testutil"
)

type fakeTicketStore struct {
	tickets map[string]*repository.Ticket
}

func newFakeTicketStore(tickets ...*repository.Ticket) *fakeTicketStore {
	f := &fakeTicketStore{tickets: make(map[string]*repository.Ticket)}
	for _, t := range tickets {
		f.tickets[t.ID] = t
	}
	return f
}

func (f *fakeTicketStore) Create(_ context.Context, _ tenant.Scope, t *repository.Ticket) error {
	if t.ID == "" {
		t.ID = testutil.NewID()
	}
	t.CreatedAt = time.Now().UTC()
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeTicketStore) GetByID(_ context.Context, _ tenant.Scope, id string) (*repository.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, errors.NotFound("ticket")
	}
	return t, nil
}

func (f *fakeTicketStore) List(_ context.Context, _ tenant.Scope, _ repository.TicketFilter, _, _ int) ([]*repository.Ticket, int64, error) {
	var out []*repository.Ticket
	for _, t := range f.tickets {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTicketStore) Update(_ context.Context, _ tenant.Scope, t *repository.Ticket) error {
	if _, ok := f.tickets[t.ID]; !ok {
		return errors.NotFound("ticket")
	}
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeTicketStore) UpdateStatus(_ context.Context, _ tenant.Scope, id, status string) error {
	t, ok := f.tickets[id]
	if !ok {
		return errors.NotFound("ticket")
	}
	t.Status = status
	return nil
}

func (f *fakeTicketStore) Complete(_ context.Context, _ tenant.Scope, id string, cost float64, completedAt time.Time) error {
	t, ok := f.tickets[id]
	if !ok {
		return errors.NotFound("ticket")
	}
	t.Status = service.StatusCompleted
	t.Cost = &cost
	t.CompletedAt = &completedAt
	return nil
}

func (f *fakeTicketStore) SoftDelete(_ context.Context, _ tenant.Scope, id string) error {
	if _, ok := f.tickets[id]; !ok {
		return errors.NotFound("ticket")
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTicketStore) ListForYear(_ context.Context, _ tenant.Scope, year int) ([]*repository.Ticket, error) {
	var out []*repository.Ticket
	for _, t := range f.tickets {
		if t.CreatedAt.Year() == year {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeEventSink struct {
	created   []*repository.Ticket
	changed   []*repository.Ticket
	completed []*repository.Ticket
}

func (f *fakeEventSink) PublishTicketCreated(_ context.Context, _ tenant.Scope, t *repository.Ticket) {
	f.created = append(f.created, t)
}

func (f *fakeEventSink) PublishStatusChanged(_ context.Context, _ tenant.Scope, t *repository.Ticket, _ string) {
	f.changed = append(f.changed, t)
}

func (f *fakeEventSink) PublishTicketCompleted(_ context.Context, _ tenant.Scope, t *repository.Ticket) {
	f.completed = append(f.completed, t)
}

func newTicketService(store *fakeTicketStore, sink *fakeEventSink) *service.TicketService {
	return service.NewTicketService(store, sink, logger.New("ticket-test", "development"))
}

func actorCtx(role string) context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{
		ID:   testutil.NewID(),
		Name: "Test User",
		Role: role,
	})
}

func openTicket() *repository.Ticket {
	return &repository.Ticket{
		ID:       testutil.NewID(),
		Title:    "AC unit rattling",
		Category: "HVAC",
		Priority: "medium",
		Status:   service.StatusOpen,
	}
}

func TestCreateTicket(t *testing.T) {
	store := newFakeTicketStore()
	sink := &fakeEventSink{}
	svc := newTicketService(store, sink)

	ticket := &repository.Ticket{Title: "Leaking faucet", Category: "Plumbing"}
	err := svc.Create(actorCtx(service.RoleRequester), testutil.TestScope(), ticket)
	require.NoError(t, err)

	assert.Equal(t, service.StatusOpen, ticket.Status)
	assert.Equal(t, "medium", ticket.Priority)
	assert.NotNil(t, ticket.RequesterID)
	assert.Len(t, sink.created, 1)
}

func TestCreateTicketInvalidPriority(t *testing.T) {
	svc := newTicketService(newFakeTicketStore(), &fakeEventSink{})

	err := svc.Create(actorCtx(service.RoleRequester), testutil.TestScope(), &repository.Ticket{
		Title:    "Broken window",
		Priority: "urgent",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestCompleteRequiresCost(t *testing.T) {
	ticket := openTicket()
	ticket.Status = service.StatusInProgress

	svc := newTicketService(newFakeTicketStore(ticket), &fakeEventSink{})

	_, err := svc.PerformAction(actorCtx(service.RoleTechnician), testutil.TestScope(), ticket.ID, service.ActionComplete, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestCompleteStampsCostAndTime(t *testing.T) {
	ticket := openTicket()
	ticket.Status = service.StatusInProgress

	store := newFakeTicketStore(ticket)
	sink := &fakeEventSink{}
	svc := newTicketService(store, sink)

	cost := 450.0
	updated, err := svc.PerformAction(actorCtx(service.RoleTechnician), testutil.TestScope(), ticket.ID, service.ActionComplete, &cost, nil)
	require.NoError(t, err)

	assert.Equal(t, service.StatusCompleted, updated.Status)
	require.NotNil(t, updated.Cost)
	assert.Equal(t, 450.0, *updated.Cost)
	assert.NotNil(t, updated.CompletedAt)

	assert.Len(t, sink.changed, 1)
	assert.Len(t, sink.completed, 1)
}

func TestCompleteRejectsNegativeCost(t *testing.T) {
	ticket := openTicket()
	ticket.Status = service.StatusInProgress

	svc := newTicketService(newFakeTicketStore(ticket), &fakeEventSink{})

	cost := -10.0
	_, err := svc.PerformAction(actorCtx(service.RoleTechnician), testutil.TestScope(), ticket.ID, service.ActionComplete, &cost, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestPerformActionEnforcesWorkflow(t *testing.T) {
	ticket := openTicket()
	ticket.Status = service.StatusInProgress

	sink := &fakeEventSink{}
	svc := newTicketService(newFakeTicketStore(ticket), sink)

	cost := 100.0
	_, err := svc.PerformAction(actorCtx(service.RoleRequester), testutil.TestScope(), ticket.ID, service.ActionComplete, &cost, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	assert.Empty(t, sink.changed)
}

func TestPerformActionWithoutActor(t *testing.T) {
	ticket := openTicket()
	svc := newTicketService(newFakeTicketStore(ticket), &fakeEventSink{})

	_, err := svc.PerformAction(context.Background(), testutil.TestScope(), ticket.ID, service.ActionCancel, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestAssignRequiresAssignee(t *testing.T) {
	ticket := openTicket()
	svc := newTicketService(newFakeTicketStore(ticket), &fakeEventSink{})

	_, err := svc.PerformAction(actorCtx(service.RoleManager), testutil.TestScope(), ticket.ID, service.ActionAssign, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestAssignSetsAssignee(t *testing.T) {
	ticket := openTicket()
	store := newFakeTicketStore(ticket)
	sink := &fakeEventSink{}
	svc := newTicketService(store, sink)

	assignee := testutil.NewID()
	updated, err := svc.PerformAction(actorCtx(service.RoleManager), testutil.TestScope(), ticket.ID, service.ActionAssign, nil, &assignee)
	require.NoError(t, err)

	assert.Equal(t, service.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, assignee, *updated.AssigneeID)
	assert.Len(t, sink.changed, 1)
	assert.Empty(t, sink.completed)
}

func TestBuildCSV(t *testing.T) {
	cost := 120.5
	completed := testutil.Date(2026, 3, 10)

	tickets := []*repository.Ticket{
		{
			ID:          "t-1",
			Title:       "Replace filter, \"unit 7\"",
			Category:    "HVAC",
			Priority:    "low",
			Status:      service.StatusCompleted,
			Cost:        &cost,
			CompletedAt: &completed,
			CreatedAt:   testutil.Date(2026, 3, 1),
		},
		{
			ID:        "t-2",
			Title:     "Inspect roof",
			Category:  "Grounds",
			Priority:  "medium",
			Status:    service.StatusOpen,
			CreatedAt: testutil.Date(2026, 4, 2),
		},
	}

	out, err := service.BuildCSV(tickets)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "id,title,category,priority,status")
	assert.Contains(t, text, `"Replace filter, ""unit 7"""`)
	assert.Contains(t, text, "120.50")
	assert.Contains(t, text, "t-2,Inspect roof,Grounds,medium,open,,,,")
}

func TestBuildCSVEmpty(t *testing.T) {
	out, err := service.BuildCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "id,title,category,priority,status,location_id,assignee_id,cost,created_at,completed_at\n", string(out))
}
