package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/siteops-backend/internal/ticket/service"
	"github.com/siteops/siteops-backend/pkg/errors"
)

func TestApplyAction(t *testing.T) {
	tests := []struct {
		name   string
		status string
		role   string
		action string
		want   string
	}{
		{"manager assigns open ticket", service.StatusOpen, service.RoleManager, service.ActionAssign, service.StatusAssigned},
		{"technician starts assigned ticket", service.StatusAssigned, service.RoleTechnician, service.ActionStart, service.StatusInProgress},
		{"technician completes in-progress ticket", service.StatusInProgress, service.RoleTechnician, service.ActionComplete, service.StatusCompleted},
		{"manager holds in-progress ticket", service.StatusInProgress, service.RoleManager, service.ActionHold, service.StatusOnHold},
		{"technician resumes held ticket", service.StatusOnHold, service.RoleTechnician, service.ActionResume, service.StatusInProgress},
		{"requester cancels open ticket", service.StatusOpen, service.RoleRequester, service.ActionCancel, service.StatusCancelled},
		{"admin reopens completed ticket", service.StatusCompleted, service.RoleAdmin, service.ActionReopen, service.StatusOpen},
		{"manager reopens cancelled ticket", service.StatusCancelled, service.RoleManager, service.ActionReopen, service.StatusOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.ApplyAction(tt.status, tt.role, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyActionForbidden(t *testing.T) {
	tests := []struct {
		name   string
		status string
		role   string
		action string
	}{
		{"requester may not assign", service.StatusOpen, service.RoleRequester, service.ActionAssign},
		{"requester may not complete", service.StatusInProgress, service.RoleRequester, service.ActionComplete},
		{"technician may not cancel", service.StatusOpen, service.RoleTechnician, service.ActionCancel},
		{"technician may not reopen", service.StatusCompleted, service.RoleTechnician, service.ActionReopen},
		{"manager may not reopen completed", service.StatusCompleted, service.RoleManager, service.ActionReopen},
		{"no action from completed for requester", service.StatusCompleted, service.RoleRequester, service.ActionCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ApplyAction(tt.status, tt.role, tt.action)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrForbidden))
		})
	}
}

func TestApplyActionBadRequest(t *testing.T) {
	_, err := service.ApplyAction(service.StatusOpen, service.RoleAdmin, "escalate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	_, err = service.ApplyAction("archived", service.RoleAdmin, service.ActionCancel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestAllowedActions(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{service.ActionAssign, service.ActionCancel},
		service.AllowedActions(service.StatusOpen, service.RoleManager))

	assert.Empty(t, service.AllowedActions(service.StatusCompleted, service.RoleRequester))
	assert.Empty(t, service.AllowedActions("archived", service.RoleAdmin))
}

func TestCanPerform(t *testing.T) {
	assert.True(t, service.CanPerform(service.StatusInProgress, service.RoleTechnician, service.ActionComplete))
	assert.False(t, service.CanPerform(service.StatusInProgress, service.RoleRequester, service.ActionComplete))
}
